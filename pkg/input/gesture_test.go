package input

import (
	"errors"
	"testing"
	"time"
)

func TestTap(t *testing.T) {
	rec := NewRecorder()

	if err := Tap(rec, 100, 200, PointerTap, 500*time.Millisecond, rec.Sleep); err != nil {
		t.Fatalf("Tap: %v", err)
	}

	want := []Event{
		{Kind: Start, X: 100, Y: 200, ID: PointerTap},
		{Kind: Release, X: 100, Y: 200, ID: PointerTap},
	}
	got := rec.Events()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if rec.Slept() != 500*time.Millisecond {
		t.Errorf("Slept() = %v, want 500ms", rec.Slept())
	}
}

func TestTapReleasesAfterFailedStart(t *testing.T) {
	rec := NewRecorder()
	rec.Fail = ErrInjected

	err := Tap(rec, 1, 2, PointerTap, 0, rec.Sleep)
	if !errors.Is(err, ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
	if n := len(rec.Events()); n != 2 {
		t.Errorf("got %d events, want press and release", n)
	}
	if len(rec.Sleeps()) != 0 {
		t.Error("zero hold should not sleep")
	}
}

func TestSwipe(t *testing.T) {
	rec := NewRecorder()

	if err := Swipe(rec, 10, 20, 10, 120, PointerTap, 100*time.Millisecond, rec.Sleep); err != nil {
		t.Fatalf("Swipe: %v", err)
	}

	got := rec.Events()
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[1].Kind != Move || got[1].Y != 120 {
		t.Errorf("move = %+v", got[1])
	}
	if got[2].Kind != Release || got[2].Y != 120 {
		t.Errorf("release = %+v", got[2])
	}

	sleeps := rec.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != SwipeSettle || sleeps[1] != 100*time.Millisecond {
		t.Errorf("sleeps = %v, want [settle hold]", sleeps)
	}
}

func TestRecorderClosed(t *testing.T) {
	rec := NewRecorder()
	rec.Close()

	if err := rec.PressStart(0, 0, 1); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
	if len(rec.Events()) != 0 {
		t.Error("closed recorder should not record")
	}
}

func TestRecorderTaps(t *testing.T) {
	rec := NewRecorder()
	rec.PressStart(5, 5, PointerMove)
	Tap(rec, 1, 1, PointerTap, 0, rec.Sleep)
	rec.PressMove(6, 6, PointerMove)
	Tap(rec, 2, 2, PointerTap, 0, rec.Sleep)

	taps := rec.Taps(PointerTap)
	if len(taps) != 2 || taps[0].X != 1 || taps[1].X != 2 {
		t.Errorf("Taps = %+v", taps)
	}
	last, ok := rec.Last()
	if !ok || last.Kind != Release || last.X != 2 {
		t.Errorf("Last = %+v, %v", last, ok)
	}

	rec.Reset()
	if _, ok := rec.Last(); ok {
		t.Error("Reset should clear events")
	}
}
