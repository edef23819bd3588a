package sessions

import (
	"context"
	"time"

	"github.com/gamingear/console/internal/api"
	"github.com/gamingear/console/internal/models"
	"github.com/gamingear/console/internal/storage"
	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
)

const refreshKey = "refresh_token"

// RefreshToken exchanges the stored refresh credential for a new access
// token. Concurrent callers share one in-flight request. Any failure signs
// the session out, unless a sign-out already happened while the request
// was in flight.
func (m *Manager) RefreshToken(ctx context.Context) error {
	_, err, shared := m.refreshGroup.Do(refreshKey, func() (any, error) {
		return nil, m.refresh(ctx)
	})

	if shared {
		logrus.Debugln("Joined an in-flight token refresh")
	}

	return err
}

func (m *Manager) refresh(ctx context.Context) error {
	epoch := m.currentEpoch()

	resp, err := m.api.RefreshToken(ctx, m.refreshCredential())
	if err != nil {
		logrus.WithError(err).Warnln("Token refresh failed, signing out")
		if m.currentEpoch() == epoch {
			m.SignOut(ctx)
		}
		return err
	}

	m.mu.Lock()

	if m.epoch != epoch {
		m.mu.Unlock()
		logrus.Warnln("Dropping refreshed token for a signed out session")
		return ErrSessionChanged
	}

	before := m.session.IsAuthenticated()

	token := models.Token{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    api.ResolveExpiry(resp, m.now()),
	}

	// signedIn is left as it is; only the token moves
	m.session.Token = token.AccessToken
	m.persistLocked(token, false)

	m.commitLocked(before)

	logrus.WithFields(logrus.Fields{
		"expiresAt": token.ExpiresAt,
	}).Infoln("Access token refreshed")

	return nil
}

// refreshCredential prefers a dedicated refresh credential and falls back
// to the access token itself.
func (m *Manager) refreshCredential() string {
	if credential, ok := m.store.Get(m.config.RefreshCredentialKey); ok && len(credential) > 0 {
		return credential
	}
	if token, ok := m.store.Get(storage.KeyAccessToken); ok {
		return token
	}
	return m.Token()
}

// ExpiresAt returns the persisted token expiry, nil when none is known.
func (m *Manager) ExpiresAt() *time.Time {
	expiresAt, ok := m.persistedExpiry()
	if !ok {
		return nil
	}
	return &expiresAt
}

func (m *Manager) persistedExpiry() (time.Time, bool) {
	raw, ok := m.store.Get(storage.KeyExpirationDate)
	if !ok || len(raw) == 0 {
		logrus.Debugln("No token expiry persisted")
		return time.Time{}, false
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"expirationDate": raw,
		}).Warnln("Unable to parse persisted token expiry")
		return time.Time{}, false
	}

	return expiresAt, true
}

// CheckExpiry is the body of each refresh tick. It reads the persisted
// expiry and refreshes when now is within the refresh threshold of it.
// It reports whether a refresh was attempted.
func (m *Manager) CheckExpiry(ctx context.Context, now time.Time) (bool, error) {
	if !m.IsAuthenticated() {
		return false, nil
	}

	expiresAt, ok := m.persistedExpiry()
	if !ok {
		return false, nil
	}

	token := models.Token{ExpiresAt: &expiresAt}
	if !token.ExpiresWithin(now, m.config.RefreshThreshold) {
		logrus.WithFields(logrus.Fields{
			"expiresAt": expiresAt,
		}).Debugln("Token not yet due for refresh")
		return false, nil
	}

	return true, m.RefreshToken(ctx)
}

// Rehydrate restores a session from persisted state after a restart. The
// persisted token is revalidated through the refresh endpoint first; if
// that fails the persisted state is cleared with a full sign-out.
func (m *Manager) Rehydrate(ctx context.Context) error {
	if m.IsAuthenticated() {
		return nil
	}

	if token, ok := m.store.Get(storage.KeyAccessToken); !ok || len(token) == 0 {
		return ErrNoPersistedSession
	}

	epoch := m.currentEpoch()

	logrus.Debugln("Revalidating persisted session")

	resp, err := m.api.RefreshToken(ctx, m.refreshCredential())
	if err != nil {
		logrus.WithError(err).Warnln("Persisted session is no longer valid")
		if m.currentEpoch() == epoch {
			m.SignOut(ctx)
		}
		return err
	}

	return m.establish(epoch, models.Token{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    api.ResolveExpiry(resp, m.now()),
	}, resp.User, false)
}

// RefreshRunning reports whether the recurring expiry check is scheduled.
func (m *Manager) RefreshRunning() bool {
	m.schedulerMu.Lock()
	defer m.schedulerMu.Unlock()
	return m.scheduler != nil
}

func (m *Manager) startRefresh() {
	m.schedulerMu.Lock()
	defer m.schedulerMu.Unlock()

	if m.scheduler != nil {
		return
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(m.config.RefreshInterval).WaitForSchedule().Do(m.tick)
	if err != nil {
		logrus.WithError(err).Errorln("Failed to schedule token refresh")
		return
	}

	scheduler.StartAsync()
	m.scheduler = scheduler

	logrus.WithFields(logrus.Fields{
		"interval":  m.config.RefreshInterval,
		"threshold": m.config.RefreshThreshold,
	}).Debugln("Started token refresh schedule")
}

// stopRefresh cancels the recurring check. A sign-out may run inside the
// tick itself, where waiting for the scheduler would never return, so
// only Close waits.
func (m *Manager) stopRefresh(wait bool) {
	m.schedulerMu.Lock()
	scheduler := m.scheduler
	m.scheduler = nil
	m.schedulerMu.Unlock()

	if scheduler == nil {
		return
	}

	if wait {
		scheduler.Stop()
	} else {
		go scheduler.Stop()
	}

	logrus.Debugln("Stopped token refresh schedule")
}

func (m *Manager) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.RefreshInterval)
	defer cancel()

	if _, err := m.CheckExpiry(ctx, m.now()); err != nil {
		logrus.WithError(err).Warnln("Scheduled token refresh failed")
	}
}
