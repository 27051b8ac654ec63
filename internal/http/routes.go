package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/config"
)

// RouterServices groups the services and settings the router wires into handlers.
type RouterServices struct {
	Auth       AuthServiceInterface
	Cookie     config.CookieConfig
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// NewRouter builds the HTTP mux with all application routes.
func NewRouter(svcs RouterServices) *http.ServeMux {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:        svcs.Auth,
		Cookie:     svcs.Cookie,
		SessionTTL: svcs.SessionTTL,
		Logger:     svcs.Logger,
	}

	guard := RequireAuth(svcs.Auth, svcs.Logger)

	mux.HandleFunc("GET /healthz", Health)
	mux.HandleFunc("HEAD /healthz", Health)

	mux.HandleFunc("POST /auth/signup", authHandlers.Signup)
	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.Handle("POST /auth/logout-all", guard(http.HandlerFunc(authHandlers.LogoutAll)))
	mux.Handle("GET /auth/me", guard(http.HandlerFunc(authHandlers.Me)))

	mux.Handle("GET /protected", guard(http.HandlerFunc(protectedHandler)))

	return mux
}

// protectedHandler is a sample guarded resource that echoes the caller identity.
func protectedHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthenticated",
			Err:     errMissingUser,
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "hello, " + user.Email,
		"user_id": user.ID.String(),
	})
}
