package hero

import (
	"image"
	"log/slog"
	"time"

	"github.com/teslashibe/go-dungeon/pkg/geometry"
	"github.com/teslashibe/go-dungeon/pkg/input"
)

// Default timings for the approach-and-attack fallback.
const (
	DefaultAttackRange  = 0.1
	DefaultAttackHold   = time.Second
	DefaultAttackSettle = 300 * time.Millisecond

	// dragSettle separates the wheel press from the first drag, as a finger would.
	dragSettle = 100 * time.Millisecond
)

// Base is the shared controller every character runs on.
// It is not safe for concurrent use; the engine goroutine owns it.
type Base struct {
	character *Character
	layout    Layout
	touch     input.Toucher
	sleep     input.Sleeper
	logger    *slog.Logger

	attackRange float64

	phase    Phase
	lastDrag image.Point

	usedRotation map[int]bool
}

// Option configures a Base.
type Option func(*Base)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Base) { b.logger = l }
}

// WithSleep replaces time.Sleep for scripted timing.
func WithSleep(sleep input.Sleeper) Option {
	return func(b *Base) { b.sleep = sleep }
}

// WithAttackRange sets the distance under which the fallback stops and attacks.
func WithAttackRange(r float64) Option {
	return func(b *Base) { b.attackRange = r }
}

// NewBase builds a controller for character over touch.
func NewBase(character *Character, layout Layout, touch input.Toucher, opts ...Option) *Base {
	b := &Base{
		character:    character,
		layout:       layout,
		touch:        touch,
		sleep:        time.Sleep,
		logger:       slog.Default(),
		attackRange:  DefaultAttackRange,
		usedRotation: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "hero", "hero", character.Name)
	return b
}

// Name returns the character name.
func (b *Base) Name() string {
	return b.character.Name
}

// Phase returns the current wheel gesture phase.
func (b *Base) Phase() Phase {
	return b.phase
}

// LastDrag returns the last point the wheel was dragged to.
func (b *Base) LastDrag() image.Point {
	return b.lastDrag
}

// RotationUsed reports whether room's opening rotation already fired.
func (b *Base) RotationUsed(room int) bool {
	return b.usedRotation[room]
}

// MoveTo drives the wheel toward angle, or releases it on Stop.
func (b *Base) MoveTo(angle float64, d time.Duration) {
	if angle == Stop {
		b.release()
		return
	}

	p := b.layout.WheelPoint(angle)
	if b.phase == Idle {
		if err := b.touch.PressStart(b.layout.Wheel.X, b.layout.Wheel.Y, input.PointerMove); err != nil {
			b.logger.Warn("wheel press failed", "error", err)
			return
		}
		b.phase = Pressed
		b.lastDrag = b.layout.Wheel
		b.sleep(dragSettle)
	}

	if b.phase == Pressed || p != b.lastDrag {
		if err := b.touch.PressMove(p.X, p.Y, input.PointerMove); err != nil {
			b.logger.Warn("wheel drag failed", "angle", angle, "error", err)
		} else {
			b.phase = Dragging
			b.lastDrag = p
		}
	}

	if d > 0 {
		b.sleep(d)
		b.release()
	}
}

// Reset releases the wheel.
func (b *Base) Reset() {
	b.MoveTo(Stop, 0)
}

func (b *Base) release() {
	if b.phase == Idle {
		return
	}
	if err := b.touch.PressRelease(b.lastDrag.X, b.lastDrag.Y, input.PointerMove); err != nil {
		b.logger.Warn("wheel release failed", "error", err)
	}
	b.phase = Idle
}

// Move is a one-shot swipe on the wheel toward angle, released after d.
func (b *Base) Move(angle float64, d time.Duration) {
	b.Reset()
	p := b.layout.WheelPoint(angle)
	if err := input.Swipe(b.touch, b.layout.Wheel.X, b.layout.Wheel.Y, p.X, p.Y, input.PointerMove, d, b.sleep); err != nil {
		b.logger.Warn("wheel swipe failed", "angle", angle, "error", err)
	}
}

// QuickMove moves toward a named compass direction for d.
func (b *Base) QuickMove(direction string, d time.Duration) {
	angle, ok := Compass[direction]
	if !ok {
		b.logger.Error("unknown move direction", "direction", direction)
		return
	}
	b.Move(angle, d)
}

// Tap presses device pixel (x, y) on the tap pointer.
func (b *Base) Tap(x, y int, hold time.Duration) {
	if err := input.Tap(b.touch, x, y, input.PointerTap, hold, b.sleep); err != nil {
		b.logger.Warn("tap failed", "x", x, "y", y, "error", err)
	}
}

// BasicAttack holds the attack button for d.
func (b *Base) BasicAttack(d time.Duration) {
	b.logger.Debug("basic attack", "hold", d)
	b.Tap(b.layout.Attack.X, b.layout.Attack.Y, d)
}

// SkillAt taps a skill button.
func (b *Base) SkillAt(p image.Point, d time.Duration) {
	b.Tap(p.X, p.Y, d)
}

// Awaken taps the awakening skill.
func (b *Base) Awaken(d time.Duration) {
	b.logger.Debug("awaken")
	b.Tap(b.layout.Awaken.X, b.layout.Awaken.Y, d)
}

// AddBuff runs the character's buff sequence.
func (b *Base) AddBuff() {
	b.logger.Debug("buff")
	b.run(b.character.Buff)
}

// KillMonsters fires the room's opening rotation once, then falls back to
// approaching the target and basic-attacking when in range.
func (b *Base) KillMonsters(angle float64, room int, pos, target geometry.Point) {
	if b.usedRotation[room] {
		if pos.Distance(target) < b.attackRange {
			b.Reset()
			b.BasicAttack(DefaultAttackHold)
			b.sleep(DefaultAttackSettle)
			return
		}
		b.MoveTo(angle, 0)
		return
	}

	number := room + 1
	r := b.character.Rotation(number)
	b.logger.Info("opening rotation", "room", room, "rotation", number, "steps", len(r), "duration", r.Duration())
	b.run(r)
	b.usedRotation[room] = true
}

// ClearRotations forgets every fired rotation.
func (b *Base) ClearRotations() {
	b.usedRotation = make(map[int]bool)
}

func (b *Base) run(r Rotation) {
	for _, step := range r {
		b.exec(step)
		if step.Wait > 0 {
			b.sleep(step.Wait)
		}
	}
}

func (b *Base) exec(step Step) {
	hold := step.Hold
	if hold == 0 {
		hold = b.layout.TapHold
	}

	switch step.Kind {
	case StepWait:
	case StepMove:
		b.MoveTo(step.Angle, step.Hold)
	case StepStop:
		b.Reset()
	case StepSkill:
		p, _ := b.layout.Slot(step.Slot)
		b.SkillAt(p, hold)
	case StepAwaken:
		b.Awaken(hold)
	case StepAttack:
		if step.Hold == 0 {
			hold = DefaultAttackHold
		}
		b.BasicAttack(hold)
	case StepBuff:
		b.AddBuff()
	case StepSwipe:
		p, _ := b.layout.Slot(step.Slot)
		if err := input.Swipe(b.touch, p.X, p.Y, p.X, p.Y+step.DY, input.PointerTap, hold, b.sleep); err != nil {
			b.logger.Warn("skill swipe failed", "slot", step.Slot, "error", err)
		}
	case StepQuick:
		b.QuickMove(step.Direction, hold)
	}
}
