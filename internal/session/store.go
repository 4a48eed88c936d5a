package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/consultlaw/consultlaw-go/internal/models"
	apperrors "github.com/consultlaw/consultlaw-go/pkg/errors"
	"github.com/consultlaw/consultlaw-go/pkg/jwt"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// State describes where the session currently is in its lifecycle.
type State int

const (
	// Unauthenticated means no credential is held
	Unauthenticated State = iota
	// Authenticating means a login or restore attempt is in flight
	Authenticating
	// Authenticated means a credential and identity are held
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Transport is the slice of the HTTP client the session store needs.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	PostPublic(ctx context.Context, path string, body, out any) error
}

// CredentialStore persists the credential between runs.
type CredentialStore interface {
	Load() (string, bool, error)
	Save(token string) error
	Clear() error
}

// Store owns the session credential and the authenticated user's identity.
// All mutations go through it; the transport only ever reads the credential
// and reports rejections back via HandleUnauthorized.
type Store struct {
	transport Transport
	creds     CredentialStore
	validate  *validator.Validate
	now       func() time.Time

	mu         sync.RWMutex
	state      State
	credential string
	identity   *models.UserIdentity
	onChange   func(State)
}

// New creates a session store backed by the given transport and
// credential persistence.
func New(transport Transport, creds CredentialStore) *Store {
	return &Store{
		transport: transport,
		creds:     creds,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// OnStateChange registers a callback invoked after every state transition.
// The callback runs outside the store's lock.
func (s *Store) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// State returns the current session state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credential returns the current credential, satisfying the transport's
// credential source interface. A credential can be held while the state is
// still Unauthenticated: after a transient restore failure the persisted
// token is kept so a later Load can retry, but the identity is unknown
// until that retry succeeds. State, not Credential, answers "is the user
// logged in".
func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", false
	}
	return s.credential, true
}

// Identity returns the authenticated user, or nil when logged out
func (s *Store) Identity() *models.UserIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	copied := *s.identity
	return &copied
}

// IsAuthenticated reports whether a credential and identity are held
func (s *Store) IsAuthenticated() bool {
	return s.State() == Authenticated
}

type loginResponse struct {
	Token   string               `json:"token"`
	Access  string               `json:"access"`
	Refresh string               `json:"refresh"`
	User    *models.UserIdentity `json:"user"`
}

// credential returns whichever token field the backend populated
func (r loginResponse) credential() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Access
}

// Login exchanges credentials for a session token and loads the user's
// identity. On any failure the session ends up Unauthenticated with no
// partial state left behind.
func (s *Store) Login(ctx context.Context, input models.LoginInput) (*models.UserIdentity, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.InvalidInputError("login", err.Error())
	}

	s.setState(Authenticating, "login")

	var resp loginResponse
	if err := s.transport.PostPublic(ctx, "/auth/login/", input, &resp); err != nil {
		s.clearLocked("login_failed")
		return nil, err
	}

	token := resp.credential()
	if token == "" {
		s.clearLocked("login_failed")
		return nil, fmt.Errorf("login response carried no token")
	}

	s.mu.Lock()
	s.credential = token
	s.identity = resp.User
	s.mu.Unlock()

	if err := s.creds.Save(token); err != nil {
		logger.Warn("failed to persist credential", zap.Error(err))
	}

	// Some deployments omit the user object from the login response;
	// fetch the identity explicitly in that case.
	if resp.User == nil {
		identity, err := s.fetchIdentity(ctx)
		if err != nil {
			s.clear("identity_fetch_failed")
			return nil, err
		}
		s.mu.Lock()
		s.identity = identity
		s.mu.Unlock()
	}

	s.setState(Authenticated, "login")
	return s.Identity(), nil
}

// Register creates an account. The backend does not log the new account
// in, so the session state is untouched.
func (s *Store) Register(ctx context.Context, input models.RegisterInput) error {
	if err := s.validate.Struct(input); err != nil {
		return apperrors.InvalidInputError("register", err.Error())
	}
	return s.transport.PostPublic(ctx, "/auth/register/", input, nil)
}

// Load restores a persisted session. A missing or locally expired
// credential resolves to Unauthenticated without a network call; a
// credential the backend no longer honors is cleared. A transient failure
// returns the error and leaves the credential in place, still
// Unauthenticated, so calling Load again can complete the restore.
func (s *Store) Load(ctx context.Context) error {
	token, ok, err := s.creds.Load()
	if err != nil {
		logger.Warn("failed to read persisted credential", zap.Error(err))
	}
	if !ok || token == "" {
		s.setState(Unauthenticated, "no_credential")
		return nil
	}

	if jwt.IsExpired(token, s.now()) {
		logger.Debug("persisted credential expired, clearing")
		if err := s.creds.Clear(); err != nil {
			logger.Warn("failed to clear expired credential", zap.Error(err))
		}
		s.setState(Unauthenticated, "credential_expired")
		return nil
	}

	s.mu.Lock()
	s.credential = token
	s.mu.Unlock()
	s.setState(Authenticating, "restore")

	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			// The transport already reported the 401 through
			// HandleUnauthorized; nothing left to clear here.
			return nil
		}
		// Transient failure: keep the credential so a later attempt
		// can still restore the session.
		s.mu.Lock()
		s.identity = nil
		s.state = Unauthenticated
		s.mu.Unlock()
		s.notify(Unauthenticated)
		return err
	}

	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.setState(Authenticated, "restore")
	return nil
}

// Logout clears the session locally. There is no server-side session to
// tear down, so this never touches the network.
func (s *Store) Logout() {
	s.clear("logout")
}

// HandleUnauthorized processes a 401 reported by the transport. The
// rejected credential is compared against the current one so a stale
// report from an old request cannot clear a newer session.
func (s *Store) HandleUnauthorized(rejected string) {
	s.mu.Lock()
	current := s.credential
	if current == "" || !jwt.TimingSafeCompare(rejected, current) {
		s.mu.Unlock()
		logger.Debug("ignoring unauthorized report for superseded credential")
		return
	}
	s.credential = ""
	s.identity = nil
	s.state = Unauthenticated
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		logger.Warn("failed to clear persisted credential", zap.Error(err))
	}
	metrics.SessionTransitions.WithLabelValues(Unauthenticated.String(), "unauthorized").Inc()
	logger.Info("session ended by backend rejection")
	s.notify(Unauthenticated)
}

func (s *Store) fetchIdentity(ctx context.Context) (*models.UserIdentity, error) {
	var identity models.UserIdentity
	if err := s.transport.Get(ctx, "/auth/me/", &identity); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *Store) setState(state State, reason string) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		metrics.SessionTransitions.WithLabelValues(state.String(), reason).Inc()
		s.notify(state)
	}
}

func (s *Store) clear(reason string) {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	changed := s.state != Unauthenticated
	s.state = Unauthenticated
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		logger.Warn("failed to clear persisted credential", zap.Error(err))
	}
	if changed {
		metrics.SessionTransitions.WithLabelValues(Unauthenticated.String(), reason).Inc()
		s.notify(Unauthenticated)
	}
}

// clearLocked is clear for paths that never persisted the credential
func (s *Store) clearLocked(reason string) {
	s.mu.Lock()
	s.credential = ""
	s.identity = nil
	changed := s.state != Unauthenticated
	s.state = Unauthenticated
	s.mu.Unlock()
	if changed {
		metrics.SessionTransitions.WithLabelValues(Unauthenticated.String(), reason).Inc()
		s.notify(Unauthenticated)
	}
}

func (s *Store) notify(state State) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(state)
	}
}
