package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so handlers can map it to a stable,
// non-leaking response without matching message text.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindAccountLocked
	KindCooldownActive
	KindAnalysisEngine
	KindTransaction
)

// Error is a typed domain error. Internal datastore errors are wrapped, never
// echoed to end users; the Message is the user-visible text.
type Error struct {
	Kind    Kind
	Message string
	// DaysRemaining is set for cooldown errors
	DaysRemaining int
	err           error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Validation builds a validation error (rejected before any write)
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound builds a missing-entity error
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict builds a duplicate/blocked-state error
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// AccountLocked builds the locked-account submission error
func AccountLocked(msg string) *Error {
	return &Error{Kind: KindAccountLocked, Message: msg}
}

// CooldownActive builds the cooldown error carrying the remaining-days hint
func CooldownActive(msg string, daysRemaining int) *Error {
	return &Error{Kind: KindCooldownActive, Message: msg, DaysRemaining: daysRemaining}
}

// AnalysisEngine wraps a failure of the external scoring process
func AnalysisEngine(msg string, err error) *Error {
	return &Error{Kind: KindAnalysisEngine, Message: msg, err: err}
}

// Transaction wraps a multi-row write that rolled back
func Transaction(msg string, err error) *Error {
	return &Error{Kind: KindTransaction, Message: msg, err: err}
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
