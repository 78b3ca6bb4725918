// Package submission drives save attempts for drafts.
//
// # Controller
//
// A Controller owns one draft and walks the submission state machine:
//
//	Idle ──Submit──▶ Pending ──ok──▶ Success
//	  │                 └──err──▶ Failure
//	  └──Submit while offline──▶ Queued ──delivered by flush──▶ Success
//
// Any edit made through the controller moves Success, Failure and Queued back
// to Idle. Submit is a no-op on a clean draft and while a submission is
// pending, so there is at most one in-flight save per draft. There is no
// automatic retry; a failed submission is retried by calling Submit again.
// Every save runs under a timeout, after which the controller reports
// Failure even if the collaborator never answers.
//
// # Syncer
//
// A Syncer owns the offline queue for one record kind. Controllers attached
// to it queue their snapshot instead of saving while the connectivity signal
// is offline. When the signal goes back online the Syncer flushes the queue
// and hands every delivered item back to the controller that queued it.
package submission
