package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrTooManyAttempts is returned when the answers are still invalid after
	// the configured number of review rounds.
	ErrTooManyAttempts = errors.New("tui: too many attempts")
)
