package submission

// State is the position of a controller in the submission state machine.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailure
	StateQueued
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	case StateQueued:
		return "queued"
	default:
		return "unknown"
	}
}

// Outcome tells the caller what a Submit call did.
type Outcome string

const (
	// OutcomeSkipped: the draft was clean, nothing happened.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeBusy: a submission for this draft is already pending.
	OutcomeBusy Outcome = "busy"
	// OutcomeInvalid: the validator rejected the draft; nothing was sent.
	OutcomeInvalid Outcome = "invalid"
	// OutcomeQueued: offline, the snapshot went to the offline queue.
	OutcomeQueued Outcome = "queued"
	// OutcomeCommitted: saved, the draft is clean.
	OutcomeCommitted Outcome = "committed"
	// OutcomeStale: saved, but the draft was edited meanwhile and stays dirty.
	OutcomeStale Outcome = "stale"
	// OutcomeFailed: the collaborator failed or timed out.
	OutcomeFailed Outcome = "failed"
)
