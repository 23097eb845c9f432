// Package input delivers touch gestures to the game device.
//
// Interfaces are kept small so consumers depend only on what they use:
// hero controllers need a Toucher, the binary additionally closes the
// Transport when it shuts down.
package input

import "io"

// Pointer ids separate concurrent gestures on the device.
const (
	// PointerMove is held by the movement joystick drag.
	PointerMove = 1
	// PointerTap is used for one-shot taps so they never break a drag.
	PointerTap = 2
)

// Toucher issues the three touch primitives. Coordinates are device pixels.
type Toucher interface {
	PressStart(x, y, id int) error
	PressMove(x, y, id int) error
	PressRelease(x, y, id int) error
}

// Transport is a Toucher bound to a live connection.
type Transport interface {
	Toucher
	io.Closer
}

var (
	_ Transport = (*ScrcpyTransport)(nil)
	_ Transport = (*BridgeTransport)(nil)
	_ Transport = (*Recorder)(nil)
)
