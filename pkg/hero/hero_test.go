package hero

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/teslashibe/go-dungeon/internal/log"
	"github.com/teslashibe/go-dungeon/pkg/geometry"
	"github.com/teslashibe/go-dungeon/pkg/input"
)

const testCatalog = `
layout:
  wheel: [200, 400]
  wheel_radius: 100
  attack: [1000, 450]
  awaken: [1100, 300]
  tap_hold: 0.5
  slots:
    skill1: [900, 450]
    buff1: [600, 480]
    buff2: [550, 480]
characters:
  tester:
    next: helper
    skills:
      smash: skill1
    buff:
      - {skill: buff1, wait: 1}
      - {swipe: buff2, dy: 100}
    rotations:
      "1":
        - {move: 90, hold: 0.3}
        - {skill: smash, wait: 0.2}
      minor:
        - {attack: true}
  helper:
    rotations: {}
`

func newTestHero(t *testing.T) (*Base, *input.Recorder) {
	t.Helper()
	cat, err := ParseCatalog([]byte(testCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	rec := input.NewRecorder()
	b, err := NewFromCatalog(cat, "tester", rec, WithSleep(rec.Sleep), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewFromCatalog: %v", err)
	}
	return b, rec
}

func TestWheelPoint(t *testing.T) {
	l := Layout{Wheel: image.Point{X: 200, Y: 400}, WheelRadius: 100}

	tests := []struct {
		angle float64
		want  image.Point
	}{
		{360, image.Point{X: 300, Y: 400}},
		{90, image.Point{X: 200, Y: 300}},
		{180, image.Point{X: 100, Y: 400}},
		{270, image.Point{X: 200, Y: 500}},
	}
	for _, tt := range tests {
		if got := l.WheelPoint(tt.angle); got != tt.want {
			t.Errorf("WheelPoint(%v) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		bearing, want float64
	}{
		{0, 360},
		{90, 90},
		{-90, 270},
		{-180, 180},
		{45, 45},
	}
	for _, tt := range tests {
		if got := Heading(tt.bearing); got != tt.want {
			t.Errorf("Heading(%v) = %v, want %v", tt.bearing, got, tt.want)
		}
	}
}

func TestMoveToPhases(t *testing.T) {
	b, rec := newTestHero(t)

	b.MoveTo(90, 0)
	if b.Phase() != Dragging {
		t.Fatalf("phase = %v, want dragging", b.Phase())
	}
	events := rec.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want press and drag", len(events))
	}
	if events[0] != (input.Event{Kind: input.Start, X: 200, Y: 400, ID: input.PointerMove}) {
		t.Errorf("press = %+v", events[0])
	}
	if events[1] != (input.Event{Kind: input.Move, X: 200, Y: 300, ID: input.PointerMove}) {
		t.Errorf("drag = %+v", events[1])
	}

	// Same angle continues the drag without a new event.
	b.MoveTo(90, 0)
	if n := len(rec.Events()); n != 2 {
		t.Errorf("repeat angle produced %d events, want 2", n)
	}

	// A new angle continues the existing drag.
	b.MoveTo(180, 0)
	last, _ := rec.Last()
	if last.Kind != input.Move || last.X != 100 {
		t.Errorf("continue drag = %+v", last)
	}

	b.Reset()
	last, _ = rec.Last()
	if last != (input.Event{Kind: input.Release, X: 100, Y: 400, ID: input.PointerMove}) {
		t.Errorf("release = %+v, want at last drag point", last)
	}
	if b.Phase() != Idle {
		t.Errorf("phase = %v, want idle", b.Phase())
	}

	// Stop while idle is a no-op.
	before := len(rec.Events())
	b.Reset()
	if len(rec.Events()) != before {
		t.Error("Reset while idle should not emit events")
	}
}

func TestMoveToWithDurationReleases(t *testing.T) {
	b, rec := newTestHero(t)

	b.MoveTo(270, 300*time.Millisecond)

	if b.Phase() != Idle {
		t.Errorf("phase = %v, want idle", b.Phase())
	}
	last, _ := rec.Last()
	if last.Kind != input.Release {
		t.Errorf("last = %+v, want release", last)
	}
	if rec.Slept() != dragSettle+300*time.Millisecond {
		t.Errorf("Slept() = %v", rec.Slept())
	}
}

func TestTransportFailureIsSwallowed(t *testing.T) {
	b, rec := newTestHero(t)
	rec.Fail = input.ErrInjected

	b.MoveTo(90, 0)
	if b.Phase() != Idle {
		t.Errorf("phase = %v, want idle after failed press", b.Phase())
	}
	b.BasicAttack(time.Second)

	rec.Fail = nil
	b.MoveTo(90, 0)
	if b.Phase() != Dragging {
		t.Errorf("phase = %v, want dragging once transport recovers", b.Phase())
	}
}

func TestKillMonstersRunsRotationOnce(t *testing.T) {
	b, rec := newTestHero(t)
	pos := geometry.Pt(0.2, 0.3)
	target := geometry.Pt(0.45, 0.5)

	b.KillMonsters(45, 0, pos, target)
	if !b.RotationUsed(0) {
		t.Fatal("rotation not marked used for room 0")
	}
	taps := rec.Taps(input.PointerTap)
	if len(taps) != 1 || taps[0].X != 900 {
		t.Fatalf("rotation taps = %+v, want skill1", taps)
	}
	if b.Phase() != Idle {
		t.Errorf("phase = %v, want idle after held move", b.Phase())
	}

	// Far from target: move toward the angle.
	rec.Reset()
	b.KillMonsters(45, 0, pos, target)
	last, _ := rec.Last()
	if last.Kind != input.Move || last.ID != input.PointerMove {
		t.Errorf("fallback far = %+v, want drag", last)
	}
	if len(rec.Taps(input.PointerTap)) != 0 {
		t.Error("rotation fired twice")
	}

	// Within range: stop, attack, settle.
	rec.Reset()
	b.KillMonsters(45, 0, pos, geometry.Pt(0.25, 0.3))
	events := rec.Events()
	if events[0].Kind != input.Release || events[0].ID != input.PointerMove {
		t.Errorf("first event = %+v, want wheel release", events[0])
	}
	taps = rec.Taps(input.PointerTap)
	if len(taps) != 1 || taps[0].X != 1000 {
		t.Errorf("attack taps = %+v", taps)
	}
	if rec.Slept() != DefaultAttackHold+DefaultAttackSettle {
		t.Errorf("Slept() = %v", rec.Slept())
	}
}

func TestKillMonstersMinorFallback(t *testing.T) {
	b, rec := newTestHero(t)

	b.KillMonsters(0, 5, geometry.Pt(0, 0), geometry.Pt(1, 1))

	taps := rec.Taps(input.PointerTap)
	if len(taps) != 1 || taps[0].X != 1000 {
		t.Errorf("minor rotation taps = %+v, want one basic attack", taps)
	}
	if !b.RotationUsed(5) {
		t.Error("room 5 not marked")
	}

	b.ClearRotations()
	if b.RotationUsed(5) {
		t.Error("ClearRotations did not forget room 5")
	}
}

func TestAddBuffSwipe(t *testing.T) {
	b, rec := newTestHero(t)

	b.AddBuff()

	events := rec.Events()
	if len(events) != 5 {
		t.Fatalf("got %d events, want tap (2) + swipe (3)", len(events))
	}
	if events[3] != (input.Event{Kind: input.Move, X: 550, Y: 580, ID: input.PointerTap}) {
		t.Errorf("swipe move = %+v", events[3])
	}
}

func TestQuickMove(t *testing.T) {
	b, rec := newTestHero(t)

	b.QuickMove("up", 200*time.Millisecond)
	events := rec.Events()
	if len(events) != 3 || events[1].Y != 300 {
		t.Errorf("events = %+v", events)
	}

	if rec.Slept() != input.SwipeSettle+200*time.Millisecond {
		t.Errorf("Slept() = %v", rec.Slept())
	}

	rec.Reset()
	b.QuickMove("sideways", time.Second)
	if len(rec.Events()) != 0 {
		t.Error("unknown direction should not move")
	}
}

func TestNewUnsupported(t *testing.T) {
	_, err := New("nobody", input.NewRecorder())
	if !errors.Is(err, ErrUnsupportedHero) {
		t.Fatalf("err = %v, want ErrUnsupportedHero", err)
	}
}

func TestBuiltinCatalog(t *testing.T) {
	cat := Builtin()
	for _, name := range []string{"wu_shen", "nai_ma", "axl", "hua_hua", "jian_zong", "hong_yan"} {
		t.Run(name, func(t *testing.T) {
			ch, err := cat.Get(name)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if len(ch.Rotation(1)) == 0 {
				t.Error("rotation 1 is empty")
			}
		})
	}

	chain, err := cat.Chain("jian_zong")
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	want := []string{"jian_zong", "hua_hua", "nai_ma", "hong_yan", "wu_shen"}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, chain[i], want[i])
		}
	}
}

func TestBuiltinWuShenRotationOne(t *testing.T) {
	rec := input.NewRecorder()
	b, err := New("wu_shen", rec, WithSleep(rec.Sleep), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b.KillMonsters(30, 0, geometry.Pt(0.2, 0.3), geometry.Pt(0.45, 0.5))

	// buff1, buff2 and lightning_dance.
	taps := rec.Taps(input.PointerTap)
	if len(taps) != 3 {
		t.Fatalf("taps = %+v, want 3", taps)
	}
	layout := Builtin().Layout
	if taps[2].X != layout.Slots["skill4"].X {
		t.Errorf("last tap = %+v, want skill4", taps[2])
	}
}

func TestParseCatalogErrors(t *testing.T) {
	base := "layout:\n  wheel_radius: 100\n  slots:\n    skill1: [1, 1]\ncharacters:\n"
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"unknown skill", base + "  a:\n    rotations:\n      \"1\": [{skill: nope}]\n", ErrUnknownSkill},
		{"two actions", base + "  a:\n    rotations:\n      \"1\": [{stop: true, attack: true}]\n", ErrInvalidStep},
		{"empty step", base + "  a:\n    rotations:\n      \"1\": [{}]\n", ErrInvalidStep},
		{"dy without swipe", base + "  a:\n    rotations:\n      \"1\": [{skill: skill1, dy: 100}]\n", ErrInvalidStep},
		{"unknown direction", base + "  a:\n    rotations:\n      \"1\": [{quick: sideways}]\n", ErrInvalidStep},
		{"bad next", base + "  a:\n    next: b\n", ErrUnsupportedHero},
		{"bad key", base + "  a:\n    rotations:\n      boss: []\n", nil},
		{"no radius", "layout: {}\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRotationDuration(t *testing.T) {
	r := Rotation{
		{Kind: StepMove, Angle: 90, Hold: 300 * time.Millisecond},
		{Kind: StepWait, Wait: 200 * time.Millisecond},
	}
	if got := r.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v", got)
	}
}

func TestSwipeStepKeepsOffset(t *testing.T) {
	cat := Builtin()
	ch, err := cat.Get("jian_zong")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	last := ch.Buff[len(ch.Buff)-1]
	if last.Kind != StepSwipe || last.DY != 100 {
		t.Fatalf("buff step = %+v, want swipe with dy 100", last)
	}

	rec := input.NewRecorder()
	b, err := New("jian_zong", rec, WithSleep(rec.Sleep), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.AddBuff()

	slot := cat.Layout.Slots["buff2"]
	var moved bool
	for _, e := range rec.Events() {
		if e.Kind == input.Move && e.ID == input.PointerTap {
			moved = true
			if e.X != slot.X || e.Y != slot.Y+100 {
				t.Errorf("swipe move = %+v, want (%d, %d)", e, slot.X, slot.Y+100)
			}
		}
	}
	if !moved {
		t.Error("buff swipe never moved")
	}
}

func TestQuickStepInRotation(t *testing.T) {
	doc := `
layout:
  wheel: [200, 400]
  wheel_radius: 100
  slots:
    skill1: [900, 450]
characters:
  runner:
    rotations:
      "1":
        - {quick: left, hold: 0.25}
        - {skill: skill1}
`
	cat, err := ParseCatalog([]byte(doc))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	ch, _ := cat.Get("runner")
	if step := ch.Rotation(1)[0]; step.Kind != StepQuick || step.Direction != "left" {
		t.Fatalf("step = %+v, want quick left", step)
	}

	rec := input.NewRecorder()
	b, err := NewFromCatalog(cat, "runner", rec, WithSleep(rec.Sleep), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("NewFromCatalog: %v", err)
	}
	b.KillMonsters(0, 0, geometry.Pt(0.1, 0.1), geometry.Pt(0.9, 0.9))

	events := rec.Events()
	if len(events) < 3 {
		t.Fatalf("events = %+v", events)
	}
	if events[1] != (input.Event{Kind: input.Move, X: 100, Y: 400, ID: input.PointerMove}) {
		t.Errorf("quick move = %+v, want wheel left edge", events[1])
	}
	if events[2].Kind != input.Release || events[2].ID != input.PointerMove {
		t.Errorf("quick release = %+v", events[2])
	}
}
