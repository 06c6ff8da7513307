package autosave

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGuardFailed is returned when a guarded transition is refused
	ErrGuardFailed = errors.New("guard condition failed")
)
