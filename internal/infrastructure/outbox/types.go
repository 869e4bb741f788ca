package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message represents a verification email awaiting delivery. Delivery is
// best-effort: a message that keeps failing is eventually dropped.
type Message struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	Token      string    `json:"token"`
	Attempts   int       `json:"attempts"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	bucketKey []byte
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.EnqueuedAt.IsZero() {
		m.EnqueuedAt = time.Now()
	}
}
