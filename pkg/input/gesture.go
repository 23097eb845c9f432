package input

import "time"

// SwipeSettle is the pause between touch-down and the first move of a swipe.
const SwipeSettle = 100 * time.Millisecond

// Sleeper blocks for d. Production code uses time.Sleep; tests pass a recorder.
type Sleeper func(d time.Duration)

// Tap presses at (x, y) with pointer id, holds, and releases at the same point.
// The release is attempted even if the press failed so the device never keeps
// a stuck pointer.
func Tap(t Toucher, x, y, id int, hold time.Duration, sleep Sleeper) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	startErr := t.PressStart(x, y, id)
	if hold > 0 {
		sleep(hold)
	}
	if err := t.PressRelease(x, y, id); err != nil {
		return err
	}
	return startErr
}

// Swipe presses at (x1, y1), settles, drags to (x2, y2), holds, and releases
// there.
func Swipe(t Toucher, x1, y1, x2, y2, id int, hold time.Duration, sleep Sleeper) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	if err := t.PressStart(x1, y1, id); err != nil {
		return err
	}
	sleep(SwipeSettle)
	moveErr := t.PressMove(x2, y2, id)
	if hold > 0 {
		sleep(hold)
	}
	if err := t.PressRelease(x2, y2, id); err != nil {
		return err
	}
	return moveErr
}
