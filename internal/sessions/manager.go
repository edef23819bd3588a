package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gamingear/console/internal/api"
	"github.com/gamingear/console/internal/models"
	"github.com/gamingear/console/internal/storage"
	"github.com/go-co-op/gocron"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrSessionChanged is returned when a response arrives for a session that
// was signed out while the request was in flight. The response is dropped.
var ErrSessionChanged = errors.New("session changed while the request was in flight")

// ErrNoPersistedSession is returned by Rehydrate when storage holds no token.
var ErrNoPersistedSession = errors.New("no persisted session token")

// AuthAPI is the remote surface the manager depends on. *api.Client
// implements it.
type AuthAPI interface {
	SignIn(ctx context.Context, credential models.SignInCredential) (*models.TokenResponse, error)
	SignUp(ctx context.Context, credential models.SignUpCredential) (*models.TokenResponse, error)
	SignOut(ctx context.Context, token string) error
	RefreshToken(ctx context.Context, credential string) (*models.TokenResponse, error)
	ForgotPassword(ctx context.Context, request models.ForgotPassword) error
	ResetPassword(ctx context.Context, request models.ResetPassword) error
	Authorized(tokens api.TokenSource, onUnauthorized func()) *resty.Client
}

// Navigator moves the hosting shell to path.
type Navigator func(path string)

type Config struct {
	AuthenticatedEntryPath   string
	UnauthenticatedEntryPath string
	RedirectQueryKey         string
	RefreshInterval          time.Duration
	RefreshThreshold         time.Duration
	RefreshCredentialKey     string
}

func DefaultConfig() Config {
	return Config{
		AuthenticatedEntryPath:   "/home",
		UnauthenticatedEntryPath: "/sign-in",
		RedirectQueryKey:         "redirect",
		RefreshInterval:          9 * time.Minute,
		RefreshThreshold:         60 * time.Second,
		RefreshCredentialKey:     storage.KeyRefreshToken,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if len(c.AuthenticatedEntryPath) == 0 {
		c.AuthenticatedEntryPath = defaults.AuthenticatedEntryPath
	}
	if len(c.UnauthenticatedEntryPath) == 0 {
		c.UnauthenticatedEntryPath = defaults.UnauthenticatedEntryPath
	}
	if len(c.RedirectQueryKey) == 0 {
		c.RedirectQueryKey = defaults.RedirectQueryKey
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = defaults.RefreshInterval
	}
	if c.RefreshThreshold <= 0 {
		c.RefreshThreshold = defaults.RefreshThreshold
	}
	if len(c.RefreshCredentialKey) == 0 {
		c.RefreshCredentialKey = defaults.RefreshCredentialKey
	}
	return c
}

// Manager owns the console's session. It is the only writer of the session
// and of the persisted token; everything else reads through State, User and
// IsAuthenticated or subscribes to changes.
//
// Every sign-out bumps an epoch. Sign-in, sign-up and refresh remember the
// epoch they started in and drop their response if it moved, so a sign-out
// is never undone by a late response.
type Manager struct {
	api    AuthAPI
	store  storage.Store
	config Config
	now    func() time.Time

	mu        sync.Mutex
	session   models.Session
	epoch     uint64
	navigate  Navigator
	location  func() string
	listeners []*listener
	nextID    int
	pending   []models.SessionState

	// held while listeners run so notifications arrive in mutation order
	notifyMu sync.Mutex

	refreshGroup singleflight.Group

	schedulerMu sync.Mutex
	scheduler   *gocron.Scheduler
}

type listener struct {
	id int
	fn func(models.SessionState)
}

func NewManager(client AuthAPI, store storage.Store, config Config) *Manager {
	return &Manager{
		api:    client,
		store:  store,
		config: config.withDefaults(),
		now:    time.Now,
	}
}

func (m *Manager) Config() Config {
	return m.config
}

// SetNavigator registers the shell's navigation callback.
func (m *Manager) SetNavigator(navigate Navigator) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigate = navigate
}

// SetLocation registers the source of the current location, used to read
// the redirect query parameter after authentication.
func (m *Manager) SetLocation(location func() string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.location = location
}

// Subscribe registers fn for state-change notifications. Listeners run
// synchronously after each mutation and must not call back into mutating
// operations on the same goroutine.
func (m *Manager) Subscribe(fn func(models.SessionState)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, &listener{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.IsAuthenticated()
}

func (m *Manager) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State()
}

func (m *Manager) User() *models.User {
	return m.State().User
}

// Session returns a copy of the current session.
func (m *Manager) Session() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.session
	if session.User != nil {
		user := *session.User
		session.User = &user
	}
	return session
}

// Token returns the current bearer token, empty when signed out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Token
}

func (m *Manager) SignIn(ctx context.Context, credential models.SignInCredential) error {
	epoch := m.currentEpoch()

	logrus.WithFields(logrus.Fields{
		"email": credential.Email,
	}).Debugln("Signing in")

	resp, err := m.api.SignIn(ctx, credential)
	if err != nil {
		logrus.WithError(err).Warnln("Sign in failed")
		return err
	}

	return m.acceptTokenResponse(epoch, "sign-in", resp, "Unable to sign in")
}

func (m *Manager) SignUp(ctx context.Context, credential models.SignUpCredential) error {
	epoch := m.currentEpoch()

	logrus.WithFields(logrus.Fields{
		"email":    credential.Email,
		"userName": credential.UserName,
	}).Debugln("Signing up")

	resp, err := m.api.SignUp(ctx, credential)
	if err != nil {
		logrus.WithError(err).Warnln("Sign up failed")
		return err
	}

	return m.acceptTokenResponse(epoch, "sign-up", resp, "Unable to sign up")
}

func (m *Manager) acceptTokenResponse(epoch uint64, operation string, resp *models.TokenResponse, failure string) error {
	if resp == nil || len(resp.Token) == 0 {
		return api.NewMalformedResponse(operation, failure)
	}

	token := models.Token{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    api.ResolveExpiry(resp, m.now()),
	}

	return m.establish(epoch, token, resp.User, true)
}

// establish signs the session in with token. With redirect set, a sign-in
// that does not change the authenticated state still redirects once.
func (m *Manager) establish(epoch uint64, token models.Token, user *models.User, redirect bool) error {
	m.mu.Lock()

	if m.epoch != epoch {
		m.mu.Unlock()
		logrus.Warnln("Dropping authentication response for a signed out session")
		return ErrSessionChanged
	}

	before := m.session.IsAuthenticated()

	m.session.Token = token.AccessToken
	m.session.SignedIn = true
	m.session.User = user

	m.persistLocked(token, true)

	becameAuthenticated := m.commitLocked(before)

	logrus.WithFields(logrus.Fields{
		"expiresAt": token.ExpiresAt,
		"hasUser":   user != nil,
	}).Infoln("Session established")

	if !becameAuthenticated && redirect {
		m.redirect()
	}

	return nil
}

// SignOut clears the session locally, then tells the remote API on a best
// effort basis. It always ends at the unauthenticated entry path.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()

	token := m.session.Token
	if len(token) == 0 {
		token, _ = m.store.Get(storage.KeyAccessToken)
	}

	before := m.session.IsAuthenticated()

	m.epoch++
	m.session = models.Session{}

	if err := m.store.Remove(storage.KeyAccessToken, storage.KeyExpirationDate, m.config.RefreshCredentialKey); err != nil {
		logrus.WithError(err).Errorln("Failed to clear persisted session")
	}

	m.commitLocked(before)

	m.stopRefresh(false)

	if len(token) > 0 {
		if err := m.api.SignOut(ctx, token); err != nil {
			logrus.WithError(err).Warnln("Remote sign out failed, session cleared locally")
		}
	}

	logrus.Infoln("Signed out")

	m.navigateTo(m.config.UnauthenticatedEntryPath)
}

func (m *Manager) ForgotPassword(ctx context.Context, request models.ForgotPassword) error {
	if err := m.api.ForgotPassword(ctx, request); err != nil {
		logrus.WithError(err).Warnln("Forgot password request failed")
		return err
	}
	return nil
}

func (m *Manager) ResetPassword(ctx context.Context, request models.ResetPassword) error {
	if err := m.api.ResetPassword(ctx, request); err != nil {
		logrus.WithError(err).Warnln("Reset password request failed")
		return err
	}
	return nil
}

// OAuthCallbackPayload is handed to an external OAuth flow so it can
// complete the sign-in once the provider answers.
type OAuthCallbackPayload struct {
	OnSignIn func(token models.Token, user *models.User) error
	Redirect func()
}

// OAuthSignIn gives callback the means to sign in. A sign-out that happens
// before callback calls OnSignIn invalidates it.
func (m *Manager) OAuthSignIn(callback func(OAuthCallbackPayload)) {
	epoch := m.currentEpoch()

	callback(OAuthCallbackPayload{
		OnSignIn: func(token models.Token, user *models.User) error {
			if len(token.AccessToken) == 0 {
				return api.NewMalformedResponse("oauth-sign-in", "Unable to sign in")
			}
			if token.ExpiresAt == nil {
				token.ExpiresAt = api.TokenExpiry(token.AccessToken)
			}
			return m.establish(epoch, token, user, false)
		},
		Redirect: m.redirect,
	})
}

// Authorized returns an API client carrying the session's bearer token. A
// 401 from the API signs the session out.
func (m *Manager) Authorized() *resty.Client {
	return m.api.Authorized(m.Token, func() {
		if m.IsAuthenticated() {
			m.SignOut(context.Background())
		}
	})
}

// Close stops the refresh schedule. The session itself is left alone.
func (m *Manager) Close() {
	m.stopRefresh(true)
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// persistLocked writes token through to storage. Storage errors are logged
// only; the in-memory session stays authoritative.
func (m *Manager) persistLocked(token models.Token, replaceExpiry bool) {
	if err := m.store.Set(storage.KeyAccessToken, token.AccessToken); err != nil {
		logrus.WithError(err).Errorln("Failed to persist access token")
	}

	if token.ExpiresAt != nil {
		if err := m.store.Set(storage.KeyExpirationDate, token.ExpiresAt.UTC().Format(time.RFC3339Nano)); err != nil {
			logrus.WithError(err).Errorln("Failed to persist token expiry")
		}
	} else if replaceExpiry {
		if err := m.store.Remove(storage.KeyExpirationDate); err != nil {
			logrus.WithError(err).Errorln("Failed to clear token expiry")
		}
	}

	if len(token.RefreshToken) > 0 {
		if err := m.store.Set(m.config.RefreshCredentialKey, token.RefreshToken); err != nil {
			logrus.WithError(err).Errorln("Failed to persist refresh credential")
		}
	}
}

// commitLocked queues the new state for listeners, releases m.mu and
// delivers. It reports whether the session just became authenticated, in
// which case the redirect and the refresh schedule have been started.
func (m *Manager) commitLocked(before bool) bool {
	state := m.session.State()
	m.pending = append(m.pending, state)
	m.mu.Unlock()

	m.deliver()

	if !before && state.Authenticated {
		m.onAuthenticated()
		return true
	}
	return false
}

// deliver drains queued states in mutation order. notifyMu is never taken
// while holding mu.
func (m *Manager) deliver() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		state := m.pending[0]
		m.pending = m.pending[1:]
		listeners := make([]*listener, len(m.listeners))
		copy(listeners, m.listeners)
		m.mu.Unlock()

		for _, l := range listeners {
			l.fn(state)
		}
	}
}

func (m *Manager) onAuthenticated() {
	m.startRefresh()
	m.redirect()
}

func (m *Manager) navigateTo(path string) {
	m.mu.Lock()
	navigate := m.navigate
	m.mu.Unlock()

	if navigate == nil {
		logrus.WithFields(logrus.Fields{
			"path": path,
		}).Debugln("No navigator registered, skipping navigation")
		return
	}

	navigate(path)
}
