package engine

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/dungeon"
	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

// Frame is one perception result. The raster stays with the producer; only
// its darkness measure and size travel with the detections.
type Frame struct {
	Seq        uint64
	Width      int
	Height     int
	DarkRatio  float64
	Detections *detection.Set
	CapturedAt time.Time
}

// Pixels converts a normalized point to device pixels for this frame.
func (f Frame) Pixels(p geometry.Point) (x, y int) {
	return p.Pixels(f.Width, f.Height)
}

// RunState is the engine's belief about the current run.
// Only the engine goroutine mutates it.
type RunState struct {
	RunID          string            `json:"run_id"`
	Room           int               `json:"room"`
	Direction      dungeon.Direction `json:"-"`
	TransitionLock bool              `json:"transition_lock"`
	SpecialRoom    bool              `json:"special_room"`
	RetryPending   bool              `json:"retry_pending"`
	Stagnation     int               `json:"stagnation"`
}

// Action is the cascade branch a cycle took.
type Action int

const (
	ActionNone Action = iota
	ActionTransition
	ActionRoomEntered
	ActionReward
	ActionFight
	ActionLoot
	ActionRepair
	ActionGuideJump
	ActionGuideFollow
	ActionDoor
	ActionArrow
	ActionComplete
	ActionRetry
	ActionRetryWait
	ActionStagnation
	ActionRecover
)

var actionNames = [...]string{
	ActionNone:        "none",
	ActionTransition:  "transition",
	ActionRoomEntered: "room_entered",
	ActionReward:      "reward",
	ActionFight:       "fight",
	ActionLoot:        "loot",
	ActionRepair:      "repair",
	ActionGuideJump:   "guide_jump",
	ActionGuideFollow: "guide_follow",
	ActionDoor:        "door",
	ActionArrow:       "arrow",
	ActionComplete:    "complete",
	ActionRetry:       "retry",
	ActionRetryWait:   "retry_wait",
	ActionStagnation:  "stagnation",
	ActionRecover:     "recover",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// MarshalText encodes the action name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	for i, name := range actionNames {
		if name == string(text) {
			*a = Action(i)
			return nil
		}
	}
	return fmt.Errorf("engine: unknown action %q", text)
}

// Snapshot is what observers see after each cycle.
type Snapshot struct {
	Seq          uint64         `json:"seq"`
	Time         time.Time      `json:"time"`
	Hero         string         `json:"hero"`
	Dungeon      string         `json:"dungeon"`
	Action       Action         `json:"action"`
	State        RunState       `json:"state"`
	Direction    string         `json:"direction"`
	Position     geometry.Point `json:"position"`
	Detections   int            `json:"detections"`
	RotationUsed bool           `json:"rotation_used"`
}

// Observer receives a snapshot after every cycle. It runs on the engine
// goroutine and must not block.
type Observer interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// Observe calls f.
func (f ObserverFunc) Observe(s Snapshot) { f(s) }
