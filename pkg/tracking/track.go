// Package tracking maintains a short-horizon estimate of the player's screen
// position from per-frame hero detections.
package tracking

import (
	"github.com/teslashibe/go-dungeon/pkg/geometry"
)

// Track is a bounded history of player position estimates, most recent first.
// It is owned by the engine goroutine and is not safe for concurrent use.
type Track struct {
	history    []geometry.Point
	depth      int
	continuity float64
}

// NewTrack creates a track holding a single anchor estimate.
func NewTrack(cfg Config, anchor geometry.Point) *Track {
	depth := cfg.Depth
	if depth < 1 {
		depth = 1
	}
	t := &Track{
		history:    make([]geometry.Point, 0, depth),
		depth:      depth,
		continuity: cfg.ContinuityThreshold,
	}
	t.Reset(anchor)
	return t
}

// Current returns the best estimate of the player position.
func (t *Track) Current() geometry.Point {
	return t.history[0]
}

// Len returns the number of retained estimates.
func (t *Track) Len() int {
	return len(t.history)
}

// History returns a copy of the retained estimates, most recent first.
func (t *Track) History() []geometry.Point {
	out := make([]geometry.Point, len(t.history))
	copy(out, t.history)
	return out
}

// Update folds one frame's hero boxes into the track.
//
//   - no boxes: the player is occluded, keep the estimate
//   - one box: its ground-centre becomes the estimate
//   - several boxes: take the first within the continuity threshold of the
//     current estimate; every rejected candidate before it re-pushes the
//     current estimate unchanged
func (t *Track) Update(heroes []geometry.Box) {
	switch len(heroes) {
	case 0:
		return
	case 1:
		t.push(heroes[0].GroundCenter())
		return
	}

	for _, b := range heroes {
		prev := t.Current()
		candidate := b.GroundCenter()
		if candidate.Distance(prev) < t.continuity {
			t.push(candidate)
			return
		}
		t.push(prev)
	}
}

// ResetOnTransition replaces the history with the reflection of previous
// through the screen centre: the player enters the new room from the side
// opposite the door they left by. It returns the new anchor.
func (t *Track) ResetOnTransition(previous geometry.Point) geometry.Point {
	anchor := previous.Mirror()
	t.Reset(anchor)
	return anchor
}

// Reset replaces the history with a single anchor.
func (t *Track) Reset(anchor geometry.Point) {
	t.history = append(t.history[:0], anchor)
}

func (t *Track) push(p geometry.Point) {
	if len(t.history) < t.depth {
		t.history = append(t.history, geometry.Point{})
	}
	copy(t.history[1:], t.history[:len(t.history)-1])
	t.history[0] = p
}
