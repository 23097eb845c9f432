// Package hero turns movement intents and combat context into touch gestures.
//
// Every playable character shares one control surface: a movement wheel, a
// basic attack button, skill buttons and buff buttons. Characters differ only
// in their data: which slot holds which skill, the buff sequence, and the
// opening rotation for each room. Base implements the whole contract; the
// per-character tables in characters.yaml configure it.
package hero

import (
	"math"
	"time"

	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

// Stop is the MoveTo angle that releases the movement wheel.
const Stop = 0.0

// Phase is the movement wheel gesture state.
type Phase int

const (
	Idle Phase = iota
	Pressed
	Dragging
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	}
	return "unknown"
}

// Mover drives the movement wheel.
type Mover interface {
	// MoveTo starts or continues a drag toward angle, or releases on Stop.
	// A positive d holds the drag for d and then releases.
	MoveTo(angle float64, d time.Duration)
	// Reset is MoveTo(Stop, 0).
	Reset()
}

// Attacker issues attack inputs.
type Attacker interface {
	BasicAttack(d time.Duration)
	// KillMonsters runs the room's opening rotation once, then approaches
	// and basic-attacks on later calls for the same room.
	KillMonsters(angle float64, room int, pos, target geometry.Point)
	// ClearRotations forgets which rooms already fired their rotation.
	ClearRotations()
}

// Tapper taps arbitrary device pixels without disturbing the movement drag.
type Tapper interface {
	Tap(x, y int, hold time.Duration)
}

// Controller is the full per-character contract.
type Controller interface {
	Mover
	Attacker
	Tapper
	Name() string
}

// Heading converts a bearing in [-180, 180) to a wheel angle in (0, 360],
// so a rightward bearing never collides with the Stop sentinel.
func Heading(bearing float64) float64 {
	a := math.Mod(bearing, 360)
	if a <= 0 {
		a += 360
	}
	return a
}

// Compass maps named directions to wheel angles.
var Compass = map[string]float64{
	"right":      360,
	"right_up":   45,
	"up":         90,
	"left_up":    135,
	"left":       180,
	"left_down":  225,
	"down":       270,
	"right_down": 315,
}
