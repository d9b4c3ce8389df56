package terminal

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("terminal: aborted")
	// ErrCancelled is returned when the user picks Cancel from a step menu.
	ErrCancelled = errors.New("terminal: cancelled")
	// ErrNilController is returned by Run without a controller.
	ErrNilController = errors.New("terminal: controller is nil")
)
