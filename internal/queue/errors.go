package queue

import "errors"

var (
	ErrFlushInProgress = errors.New("flush already in progress")
	ErrEmptyKey        = errors.New("queue item key is empty")
)
