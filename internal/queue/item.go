package queue

import "time"

// Item is a queued submission.
type Item[T any] struct {
	// ID is unique per enqueue and is used as the idempotency key.
	ID string
	// Key identifies the logical record (harvest ID, settings key).
	Key string
	// Payload is the value to submit.
	Payload T
	// Origin describes the draft snapshot the payload was taken from.
	Origin Origin
	// QueuedAt is when the item (or its latest replacement) was queued.
	QueuedAt time.Time
	// Attempts counts failed delivery attempts.
	Attempts int
	// LastError is the message of the last failed attempt.
	LastError string
	// Seq orders items; lower is older.
	Seq int64
}

// Origin ties an item back to the draft snapshot it came from.
type Origin struct {
	DraftID string
	Version uint64
}

// FlushReport summarizes one flush pass.
type FlushReport struct {
	Attempted   int
	Delivered   int
	Failed      int
	Remaining   int
	Interrupted bool
}
