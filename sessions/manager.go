package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/IACMS/IACMS/models"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// sessionIDBytes is the entropy of a session id before encoding.
const sessionIDBytes = 32

// Manager implements rolling-refresh session semantics over a Store: create
// at login, resolve + touch on each authenticated use, destroy at logout,
// sweep expired rows periodically.
type Manager struct {
	store  Store
	ttl    time.Duration
	clock  clock.Clock
	logger *zap.Logger
}

// NewManager creates a session manager. The clock is injectable so expiry
// behavior is testable without waiting.
func NewManager(store Store, ttl time.Duration, clk clock.Clock, logger *zap.Logger) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

// Create mints a cryptographically random session id and persists a record
// snapshotting the identity.
func (m *Manager) Create(ctx context.Context, identity models.Identity) (*models.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := m.clock.Now()
	session := &models.Session{
		ID:             id,
		SubjectID:      identity.SubjectID,
		TenantID:       identity.TenantID,
		Email:          identity.Email,
		DisplayName:    identity.DisplayName,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(m.ttl),
	}

	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	m.logger.Debug("session created",
		zap.String("subject_id", identity.SubjectID.String()),
		zap.String("tenant_id", identity.TenantID.String()))

	return session, nil
}

// Resolve looks up a session and interprets expiry: an expired record is a
// clean miss (ErrNotFound), with the stale row removed best-effort in the
// background.
func (m *Manager) Resolve(ctx context.Context, id string) (*models.Session, error) {
	session, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Expired(m.clock.Now()) {
		go func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.store.Destroy(cleanupCtx, id); err != nil {
				m.logger.Warn("failed to remove expired session", zap.Error(err))
			}
		}()
		return nil, ErrNotFound
	}

	return session, nil
}

// Touch extends the session's expiry and bumps its last-accessed timestamp.
// The store applies it as one atomic update.
func (m *Manager) Touch(ctx context.Context, id string) error {
	now := m.clock.Now()
	return m.store.Touch(ctx, id, now, now.Add(m.ttl))
}

// Destroy removes a session. Absence is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	err := m.store.Destroy(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// SweepExpired removes all sessions past their expiry.
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.clock.Now())
}

// StartSweeper periodically deletes expired sessions until stopCh closes.
// Should be run in a background goroutine.
func (m *Manager) StartSweeper(interval time.Duration, stopCh <-chan struct{}) {
	ticker := m.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			removed, err := m.SweepExpired(ctx)
			cancel()
			if err != nil {
				m.logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				m.logger.Debug("expired sessions removed", zap.Int64("count", removed))
			}
		case <-stopCh:
			return
		}
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, sessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
