package statemachine

import "errors"

// ErrInvalidTransition is returned when an event is not allowed from the record's current status.
var ErrInvalidTransition = errors.New("invalid status transition")
