package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/config"
	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	apperrors "github.com/gatehouse/gatehouse/internal/errors"
	"github.com/gatehouse/gatehouse/internal/service"
)

// stubAuthService records calls and returns canned results.
type stubAuthService struct {
	resolveCalls int
	resolveUser  domainauth.User
	resolveErr   error
}

func (s *stubAuthService) Signup(context.Context, service.Credentials) (*service.AuthResult, error) {
	return nil, apperrors.Internal("not implemented")
}

func (s *stubAuthService) Login(context.Context, service.Credentials) (*service.AuthResult, error) {
	return nil, apperrors.Internal("not implemented")
}

func (s *stubAuthService) Logout(context.Context, string) error { return nil }

func (s *stubAuthService) LogoutEverywhere(context.Context, domainauth.User) error { return nil }

func (s *stubAuthService) ResolveSession(_ context.Context, _ string) (domainauth.User, error) {
	s.resolveCalls++
	if s.resolveErr != nil {
		return domainauth.User{}, s.resolveErr
	}
	return s.resolveUser, nil
}

func guardedEcho(t *testing.T, svc AuthServiceInterface) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok, "guard passed but no user in context")
		WriteJSON(w, http.StatusOK, map[string]string{"email": user.Email})
	})
	return RequireAuth(svc, slog.Default())(next)
}

func TestRequireAuth_MissingCookieSkipsLookup(t *testing.T) {
	stub := &stubAuthService{}
	handler := guardedEcho(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	// Without a cookie there is nothing to look up; the store stays untouched.
	assert.Equal(t, 0, stub.resolveCalls)
}

func TestRequireAuth_EmptyCookieValueSkipsLookup(t *testing.T) {
	stub := &stubAuthService{}
	handler := guardedEcho(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: ""})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, stub.resolveCalls)
}

func TestRequireAuth_InvalidSession(t *testing.T) {
	stub := &stubAuthService{resolveErr: apperrors.Unauthenticated()}
	handler := guardedEcho(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, stub.resolveCalls)
	assert.Contains(t, rec.Body.String(), "unauthenticated")
}

func TestRequireAuth_StorageErrorIsServerError(t *testing.T) {
	stub := &stubAuthService{resolveErr: apperrors.Storage(assert.AnError, "find session")}
	handler := guardedEcho(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// A store outage is a 500, not a 401: the caller may well hold a valid session.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRequireAuth_ValidSession(t *testing.T) {
	stub := &stubAuthService{resolveUser: domainauth.User{Email: "user@example.com"}}
	handler := guardedEcho(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: config.SessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user@example.com")
}

func TestRecover_PanicBecomes500(t *testing.T) {
	handler := Recover(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_PreservesStatus(t *testing.T) {
	handler := Logging(slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestUserFromContext_Absent(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}
