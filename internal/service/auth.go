package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainauth "github.com/gatehouse/gatehouse/internal/domain/auth"
	apperrors "github.com/gatehouse/gatehouse/internal/errors"
	"github.com/gatehouse/gatehouse/internal/ports"
)

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users      ports.UserRepository
	Sessions   ports.SessionStore
	Hasher     ports.CredentialHasher
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// AuthService orchestrates signup, login, logout, and session resolution.
// It owns the translation of repository outcomes into the user-facing error
// taxonomy; storage failures pass through untranslated for the HTTP boundary
// to surface as generic server errors.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionStore
	hasher     ports.CredentialHasher
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:      opts.Users,
		sessions:   opts.Sessions,
		hasher:     opts.Hasher,
		sessionTTL: ttl,
		logger:     logger,
	}
}

// Credentials carries a signup or login request.
type Credentials struct {
	Email    string
	Password string
}

// AuthResult pairs the user with the freshly issued session.
type AuthResult struct {
	User    domainauth.User
	Session domainauth.Session
}

// Signup registers a new account and issues its first session.
//
// The duplicate-email conflict is reported as such: signup is the one place
// where revealing account existence is an accepted tradeoff. Login stays
// generic.
func (s *AuthService) Signup(ctx context.Context, creds Credentials) (*AuthResult, error) {
	email := domainauth.NormalizeEmail(creds.Email)
	if err := domainauth.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domainauth.ValidatePassword(creds.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, apperrors.Storage(err, "hash credential")
	}

	user, err := s.users.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ports.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, apperrors.Storage(err, "create user")
	}

	sess, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, apperrors.Storage(err, "create session")
	}

	return &AuthResult{User: user, Session: sess}, nil
}

// Login verifies credentials and issues a brand-new session. Prior sessions
// are neither reused nor extended.
//
// Every failure cause returns the same invalid-credentials value, and the
// unknown-email path still runs a full hash verification against a dummy
// hash so the two paths are timing-indistinguishable.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	email := domainauth.NormalizeEmail(creds.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			// Burn the same hashing work as the found-user path.
			_, _ = s.hasher.Verify(creds.Password, s.hasher.DummyHash())
			return nil, apperrors.InvalidCredentials()
		}
		return nil, apperrors.Storage(err, "find user")
	}

	ok, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		// Corrupted stored hash. Log the detail server-side; to the caller
		// this account behaves exactly like one that does not exist.
		s.logger.ErrorContext(ctx, "stored password hash is malformed",
			"user_id", user.ID, "error", err)
		return nil, apperrors.InvalidCredentials()
	}
	if !ok {
		return nil, apperrors.InvalidCredentials()
	}

	s.maybeRehash(ctx, user, creds.Password)

	sess, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, apperrors.Storage(err, "create session")
	}

	return &AuthResult{User: user, Session: sess}, nil
}

// maybeRehash upgrades the stored hash after a successful verification when
// the stored cost parameters fall below current policy. Best effort: the
// login proceeds either way.
func (s *AuthService) maybeRehash(ctx context.Context, user domainauth.User, plaintext string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		s.logger.WarnContext(ctx, "rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.WarnContext(ctx, "store rehashed credential failed", "user_id", user.ID, "error", err)
	}
}

// Logout deletes the session unconditionally. An already-invalid session ID
// is not an error; the HTTP layer clears the cookie regardless of outcome.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.Storage(err, "delete session")
	}
	return nil
}

// LogoutEverywhere invalidates every session belonging to the user.
func (s *AuthService) LogoutEverywhere(ctx context.Context, user domainauth.User) error {
	if err := s.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		return apperrors.Storage(err, "delete user sessions")
	}
	return nil
}

// ResolveSession maps a session ID to its user. Absent, expired, and orphaned
// sessions all resolve to Unauthenticated.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (domainauth.User, error) {
	if sessionID == "" {
		return domainauth.User{}, apperrors.Unauthenticated()
	}

	sess, err := s.sessions.FindValid(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			return domainauth.User{}, apperrors.Unauthenticated()
		}
		return domainauth.User{}, apperrors.Storage(err, "find session")
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ports.ErrUserNotFound) {
			// The account was deleted while the session lived. Drop the
			// orphan so the next lookup skips the user fetch.
			if delErr := s.sessions.Delete(ctx, sessionID); delErr != nil {
				s.logger.WarnContext(ctx, "delete orphaned session failed",
					"session_user_id", sess.UserID, "error", delErr)
			}
			return domainauth.User{}, apperrors.Unauthenticated()
		}
		return domainauth.User{}, apperrors.Storage(err, "find user")
	}

	return user, nil
}
