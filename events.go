package tracker

import (
	"context"
	"time"
)

// Event kinds published after a mutation commits.
const (
	EventTransactionRecorded = "transaction.recorded"
	EventTransactionUpdated  = "transaction.updated"
	EventTransactionDeleted  = "transaction.deleted"
	EventTransferCompleted   = "transfer.completed"
	EventSnapshotCaptured    = "snapshot.captured"
)

// Event is the envelope published for committed mutations.
type Event struct {
	Kind    string    `json:"kind"`
	UserID  string    `json:"userId"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// Publisher emits events about committed mutations. It is optional: a nil
// publisher disables publishing. Publishing is best-effort; the mutation has
// already committed when Publish is called.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
