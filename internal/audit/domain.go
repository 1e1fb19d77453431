// Package audit keeps the append-only trail of authorization outcomes:
// role mutations, discount countersignatures, and denials of privileged
// operations.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one audit record.
type Entry struct {
	ID       uuid.UUID `json:"id"`
	At       time.Time `json:"at"`
	ActorID  int64     `json:"actor_id"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Allowed  bool      `json:"allowed"`
	Reason   string    `json:"reason,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Recorder accepts entries for eventual persistence. The production
// implementation enqueues an asynq task so request handling never blocks on
// the audit store.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}
