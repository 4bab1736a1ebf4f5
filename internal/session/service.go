package session

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"seva/internal/platform/metrics"
	dErrors "seva/pkg/domain-errors"
	"seva/pkg/validation"
)

// Gateway is the slice of the API client the session store needs.
type Gateway interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	PostForm(ctx context.Context, path string, form url.Values, out any) error
}

// Service is the session store: it owns the authenticated identity and the
// bearer tokens shared by every outgoing request. All mutation goes through
// Login, Logout, Bootstrap, and the unauthorized hook.
type Service struct {
	gw     Gateway
	creds  CredentialStore
	logger *slog.Logger
	m      *metrics.Metrics

	mu             sync.RWMutex
	user           *User
	access         string
	refresh        string
	loading        bool
	signInRequired bool
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.m = m
	}
}

// NewService creates a session store backed by the given gateway and
// credential store.
func NewService(gw Gateway, creds CredentialStore, opts ...Option) *Service {
	svc := &Service{gw: gw, creds: creds, loading: true}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// AccessToken implements gateway.TokenSource.
func (s *Service) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// Current returns a snapshot of the session for route guards and views.
func (s *Service) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Session{User: s.user, Authenticated: s.user != nil, Loading: s.loading}
}

// IsAuthenticated reports whether a user is signed in.
func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// HasRole reports whether the signed-in user carries the given role.
func (s *Service) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == role
}

// SignInRequired reports whether an unauthorized response forced the session
// out; the view layer uses it to redirect to the sign-in view. Reading the
// flag clears it.
func (s *Service) SignInRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	required := s.signInRequired
	s.signInRequired = false
	return required
}

// Bootstrap populates the session from persisted tokens, if any. It never
// fails the boot: a missing, expired, or rejected token just leaves the
// session signed out. The loading flag stays set until bootstrap settles.
func (s *Service) Bootstrap(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	creds, err := s.creds.Load()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load persisted credentials", "error", err)
		return
	}
	if creds == nil {
		return
	}
	if tokenExpired(creds.AccessToken) {
		s.logger.InfoContext(ctx, "persisted access token expired, clearing")
		_ = s.creds.Clear()
		return
	}

	s.mu.Lock()
	s.access = creds.AccessToken
	s.refresh = creds.RefreshToken
	s.mu.Unlock()

	var user User
	if err := s.gw.Get(ctx, "/auth/me", nil, &user); err != nil {
		// A 401 already cleared the tokens through the unauthorized hook;
		// anything else leaves the session signed out for this boot.
		s.logger.WarnContext(ctx, "session bootstrap failed", "error", err)
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "session restored", "user_id", user.ID, "role", user.Role)
}

type loginForm struct {
	Username string `validate:"required,notblank"`
	Password string `validate:"required"`
}

// Login authenticates with the platform, persists both tokens, and loads the
// user profile.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	if err := validation.Validate(loginForm{Username: username, Password: password}); err != nil {
		return nil, err
	}

	var pair TokenPair
	form := url.Values{"username": {username}, "password": {password}}
	if err := s.gw.PostForm(ctx, "/auth/login", form, &pair); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, dErrors.Message(err, "sign in failed"))
	}

	s.mu.Lock()
	s.access = pair.AccessToken
	s.refresh = pair.RefreshToken
	s.mu.Unlock()

	if err := s.creds.Save(&Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}); err != nil {
		s.logger.WarnContext(ctx, "failed to persist credentials", "error", err)
	}

	var user User
	if err := s.gw.Get(ctx, "/auth/me", nil, &user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user profile")
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	if s.m != nil {
		s.m.Logins.Inc()
	}
	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// Logout clears the session and persisted tokens. Idempotent.
func (s *Service) Logout(ctx context.Context) {
	s.clear(ctx, false)
}

// HandleUnauthorized is the gateway's 401 hook: it clears the session exactly
// like logout and flags the sign-in redirect.
func (s *Service) HandleUnauthorized(ctx context.Context) {
	s.clear(ctx, true)
}

func (s *Service) clear(ctx context.Context, forced bool) {
	s.mu.Lock()
	wasAuthenticated := s.user != nil || s.access != ""
	s.user = nil
	s.access = ""
	s.refresh = ""
	if forced {
		s.signInRequired = true
	}
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		s.logger.WarnContext(ctx, "failed to clear persisted credentials", "error", err)
	}
	if wasAuthenticated && s.m != nil {
		s.m.SessionDrops.Inc()
	}
}

// tokenExpired inspects the access token's exp claim without verifying the
// signature; verification is the server's job, the client only wants to skip
// a doomed bootstrap call. Tokens that do not parse are treated as expired.
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
