package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/IACMS/IACMS/models"
)

var (
	// ErrNotFound is the clean miss: no such session, or the session has
	// expired. It is never returned for infrastructure failures.
	ErrNotFound = errors.New("session not found")

	// ErrStoreUnavailable wraps infrastructure failures so operational
	// monitoring can tell an outage apart from ordinary unauthorized traffic.
	ErrStoreUnavailable = errors.New("session store unavailable")
)

// Store is durable, keyed storage of session records. Implementations must
// return ErrNotFound for a clean miss and wrap everything else in
// ErrStoreUnavailable.
type Store interface {
	// Create persists a new session record.
	Create(ctx context.Context, session *models.Session) error

	// Get retrieves a session by ID without interpreting expiry.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Touch atomically extends expiry and bumps the last-accessed timestamp.
	// Concurrent touches of the same session are last-write-wins.
	Touch(ctx context.Context, id string, lastAccessedAt, expiresAt time.Time) error

	// Destroy removes a session by ID. Destroying an absent session is not an
	// error.
	Destroy(ctx context.Context, id string) error

	// DeleteExpired removes all sessions that expired before the given time
	// and reports how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
