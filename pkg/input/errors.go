package input

import "errors"

var (
	// ErrNotConnected is returned when a gesture is sent on a closed transport.
	ErrNotConnected = errors.New("input: transport not connected")

	// ErrInjected is the default failure produced by a Recorder set to fail.
	ErrInjected = errors.New("input: injected failure")
)
