package submission

import "errors"

var (
	ErrSubmitTimeout = errors.New("submission timed out")
	ErrNoSaver       = errors.New("no save collaborator configured")
)
