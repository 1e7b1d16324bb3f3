// Package approval gates batch submission behind a human decision taken out
// of band, for example from a Discord message.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joseph-ayodele/bizscan/internal/common"
)

// Status of an approval session.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// DefaultTTL is how long a session waits for a decision.
const DefaultTTL = 5 * time.Minute

var (
	ErrSessionNotFound = fmt.Errorf("%w: approval session is missing or expired", common.ErrNotFound)
	ErrNotPending      = fmt.Errorf("%w: approval session already decided", common.ErrInvalidInput)
)

// Session is one request for permission to run an analysis.
type Session struct {
	ID        string    `json:"id"`
	Requester string    `json:"requester"`
	FileCount int       `json:"fileCount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its deadline at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store keeps sessions until they expire.
type Store interface {
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	// Transition moves a pending session to status. It fails with
	// ErrNotPending when the session was already decided.
	Transition(ctx context.Context, id string, status Status) (Session, error)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
