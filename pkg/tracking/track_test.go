package tracking

import (
	"math"
	"testing"

	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

func pointEquals(a, b geometry.Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestTrack_SingleDetectionPerFrame(t *testing.T) {
	track := NewTrack(DefaultConfig(), geometry.Pt(0, 0))

	frames := []geometry.Box{
		{X1: 0.10, Y1: 0.10, X2: 0.20, Y2: 0.30},
		{X1: 0.12, Y1: 0.10, X2: 0.22, Y2: 0.32},
		{X1: 0.14, Y1: 0.10, X2: 0.24, Y2: 0.34},
		{X1: 0.16, Y1: 0.10, X2: 0.26, Y2: 0.36},
		{X1: 0.18, Y1: 0.10, X2: 0.28, Y2: 0.38},
	}
	for _, b := range frames {
		track.Update([]geometry.Box{b})
	}

	want := frames[4].GroundCenter()
	if !pointEquals(track.Current(), want) {
		t.Errorf("Current: got %+v, want %+v", track.Current(), want)
	}
	if track.Len() != 6 {
		t.Errorf("Len: got %d, want 6 (anchor + 5)", track.Len())
	}
}

func TestTrack_NoDetectionKeepsEstimate(t *testing.T) {
	track := NewTrack(DefaultConfig(), geometry.Pt(0, 0))
	track.Update([]geometry.Box{{X1: 0.4, Y1: 0.4, X2: 0.5, Y2: 0.6}})
	before := track.Current()
	beforeLen := track.Len()

	track.Update(nil)

	if !pointEquals(track.Current(), before) {
		t.Errorf("Current changed: got %+v, want %+v", track.Current(), before)
	}
	if track.Len() != beforeLen {
		t.Errorf("Len changed: got %d, want %d", track.Len(), beforeLen)
	}
}

func TestTrack_AmbiguousPrefersContinuity(t *testing.T) {
	tests := []struct {
		name   string
		heroes []geometry.Box
		want   geometry.Point
		pushes int
	}{
		{
			name: "close candidate second",
			heroes: []geometry.Box{
				{X1: 0.80, Y1: 0.70, X2: 0.90, Y2: 0.90}, // far, rejected
				{X1: 0.45, Y1: 0.40, X2: 0.55, Y2: 0.52}, // ground (0.5, 0.52), close
			},
			want:   geometry.Pt(0.5, 0.52),
			pushes: 2,
		},
		{
			name: "close candidate first",
			heroes: []geometry.Box{
				{X1: 0.45, Y1: 0.40, X2: 0.55, Y2: 0.52},
				{X1: 0.80, Y1: 0.70, X2: 0.90, Y2: 0.90},
			},
			want:   geometry.Pt(0.5, 0.52),
			pushes: 1,
		},
		{
			name: "all far",
			heroes: []geometry.Box{
				{X1: 0.80, Y1: 0.70, X2: 0.90, Y2: 0.90},
				{X1: 0.00, Y1: 0.00, X2: 0.10, Y2: 0.10},
			},
			want:   geometry.Pt(0.5, 0.5),
			pushes: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := NewTrack(DefaultConfig(), geometry.Pt(0.5, 0.5))
			track.Update(tt.heroes)

			if !pointEquals(track.Current(), tt.want) {
				t.Errorf("Current: got %+v, want %+v", track.Current(), tt.want)
			}
			if track.Len() != 1+tt.pushes {
				t.Errorf("Len: got %d, want %d", track.Len(), 1+tt.pushes)
			}
		})
	}
}

func TestTrack_ResetOnTransitionMirrors(t *testing.T) {
	track := NewTrack(DefaultConfig(), geometry.Pt(0, 0))
	track.Update([]geometry.Box{{X1: 0.7, Y1: 0.5, X2: 0.9, Y2: 0.8}}) // ground (0.8, 0.8)

	anchor := track.ResetOnTransition(track.Current())

	want := geometry.Pt(0.2, 0.2)
	if !pointEquals(anchor, want) {
		t.Errorf("anchor: got %+v, want %+v", anchor, want)
	}
	if track.Len() != 1 || !pointEquals(track.Current(), want) {
		t.Errorf("history: got %+v", track.History())
	}
}

func TestTrack_DepthIsCapped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Depth = 4
	track := NewTrack(cfg, geometry.Pt(0, 0))

	for i := 0; i < 10; i++ {
		x := float64(i) / 10
		track.Update([]geometry.Box{{X1: x, Y1: 0.1, X2: x, Y2: 0.2}})
	}

	if track.Len() != 4 {
		t.Fatalf("Len: got %d, want 4", track.Len())
	}
	history := track.History()
	for i, p := range history {
		wantX := float64(9-i) / 10
		if math.Abs(p.X-wantX) > 1e-9 {
			t.Errorf("history[%d].X: got %v, want %v", i, p.X, wantX)
		}
	}
}
