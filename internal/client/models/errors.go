package models

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fieldsync/internal/common"
)

var (
	ErrUnknownField        = errors.New("unknown field")
	ErrIncorrectAssignment = errors.New("assignment must be field=value")
	ErrIncorrectFieldValue = errors.New("incorrect field value")
)

// FieldError is a validation failure of one field. It matches
// common.ErrValidation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == common.ErrValidation
}

func fieldErr(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// FieldErrors extracts every FieldError joined into err.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FieldError); ok {
			out = append(out, fe)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
