package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatehouse/gatehouse/config"
	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	"github.com/gatehouse/gatehouse/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Signup(ctx context.Context, creds service.Credentials) (*service.AuthResult, error)
	Login(ctx context.Context, creds service.Credentials) (*service.AuthResult, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutEverywhere(ctx context.Context, user domainauth.User) error
	ResolveSession(ctx context.Context, sessionID string) (domainauth.User, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc        AuthServiceInterface
	Cookie     config.CookieConfig
	SessionTTL time.Duration
	Logger     *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// credentialsRequest is the JSON payload for signup and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles account creation.
// POST /auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Signup(r.Context(), service.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteAppError(w, r, h.logger(), err)
		return
	}

	h.setSessionCookie(w, result.Session)
	WriteJSON(w, http.StatusCreated, result.User)
}

// Login handles credential verification and session issuance.
// POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteAppError(w, r, h.logger(), err)
		return
	}

	h.setSessionCookie(w, result.Session)
	WriteJSON(w, http.StatusOK, result.User)
}

// Logout invalidates the session and clears the cookie.
// POST /auth/logout.
//
// Always answers 200: a failed server-side delete is logged, but the client
// cookie is cleared regardless and retrying logout is harmless.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.SessionCookieName); err == nil {
		if logoutErr := h.Svc.Logout(r.Context(), cookie.Value); logoutErr != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", logoutErr)
		}
	}

	h.clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll invalidates every session of the authenticated user.
// POST /auth/logout-all (guarded).
func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		// The guard always runs first; reaching here without a user is a wiring bug.
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthenticated",
			Err:     errMissingUser,
		})
		return
	}

	if err := h.Svc.LogoutEverywhere(r.Context(), user); err != nil {
		WriteAppError(w, r, h.logger(), err)
		return
	}

	h.clearSessionCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out everywhere"})
}

// Me returns the authenticated user.
// GET /auth/me (guarded).
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthenticated",
			Err:     errMissingUser,
		})
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// setSessionCookie attaches the session cookie per the cookie contract:
// HttpOnly always, SameSite=Lax, Path=/, Max-Age matching the session TTL.
func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, sess domainauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Domain:   h.Cookie.Domain,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: h.Cookie.SameSite(),
		MaxAge:   int(h.SessionTTL / time.Second),
	})
}

// clearSessionCookie expires the session cookie immediately, mirroring the
// attributes used when setting it for cross-browser deletion compatibility.
func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.Cookie.Domain,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: h.Cookie.SameSite(),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}
