package errors

import "fmt"

var (
	// Validation failures, rejected before any state change.
	ErrEmptyContent   = fmt.Errorf("message content is empty")
	ErrSelfAddressed  = fmt.Errorf("sender and receiver are the same user")
	ErrUnknownStatus  = fmt.Errorf("unknown message status")
	ErrUnknownPurpose = fmt.Errorf("unknown code purpose")

	// Lookup failures where absence is meaningful for the caller.
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrUserNotFound    = fmt.Errorf("user not found")

	ErrUserAlreadyExists = fmt.Errorf("email already registered")
	ErrUserNotRegistered = fmt.Errorf("email not registered")
	ErrInvalidCode       = fmt.Errorf("invalid or expired code")
	ErrTooManyCodes      = fmt.Errorf("too many code requests")
	ErrTokenGeneration   = fmt.Errorf("token generation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)
