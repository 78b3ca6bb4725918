// Package ledger stores records accepted by the simulated save collaborator.
//
// The ledger stands in for the remote side: every successful save appends a
// row keyed by the submission's idempotency key, so a replayed delivery of
// the same queued item is recorded once.
package ledger
