// Package queue implements the offline queue: a FIFO buffer of submissions
// that could not be sent because connectivity was lost.
//
// # Overview
//
// OfflineQueue keeps the queue in memory and optionally writes every change
// through to a Store, so pending items survive a restart when the store is
// durable (see internal/client/repositories/queue for the SQLite store).
//
// There is at most one item per record key. Enqueueing a key that is already
// queued replaces its payload in place: the item keeps its position and gets
// a fresh ID. The ID doubles as the idempotency key sent to the collaborator,
// so a replaced payload is never mistaken for a replay of the old one.
//
// # Flushing
//
// Flush makes a single best-effort pass over a snapshot of the queue in FIFO
// order. Delivered items are removed by ID; failed items stay queued with an
// incremented attempt counter. The pass stops early when the context is done,
// when the online predicate turns false, or when the sender reports
// common.ErrUnavailable. Only one flush runs at a time.
//
// All methods are safe for concurrent use.
package queue
