package hero

import (
	"image"
	"math"
	"time"
)

// Layout is the on-screen control surface in device pixels.
type Layout struct {
	Wheel       image.Point
	WheelRadius float64
	Attack      image.Point
	Awaken      image.Point
	Slots       map[string]image.Point

	// TapHold is how long a skill button is held when a step does not say.
	TapHold time.Duration
}

// WheelPoint returns the drag point for angle on the movement wheel.
// Screen y grows downward, so the sine term is subtracted.
func (l Layout) WheelPoint(angle float64) image.Point {
	rad := angle * math.Pi / 180
	return image.Point{
		X: int(math.Round(float64(l.Wheel.X) + l.WheelRadius*math.Cos(rad))),
		Y: int(math.Round(float64(l.Wheel.Y) - l.WheelRadius*math.Sin(rad))),
	}
}

// Slot returns the named slot position.
func (l Layout) Slot(name string) (image.Point, bool) {
	p, ok := l.Slots[name]
	return p, ok
}
