// Package common defines shared constants and sentinel errors used across
// fieldsync components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Collaborator errors. ErrUnavailable means the save collaborator could not
	// be reached at all; a flush pass stops when it sees it.
	ErrUnavailable = errors.New("collaborator unavailable")

	// Validation errors are detected locally, before any submission is attempted.
	ErrValidation = errors.New("validation error")
)
