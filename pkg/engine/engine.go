// Package engine is the perception-to-action decision loop.
//
// Each cycle takes one Frame from the lossy queue and evaluates a fixed
// priority cascade against it. Exactly one branch runs per cycle. Hero input
// calls may sleep to keep gesture timing, which blocks the loop on purpose:
// the game accepts one coherent input stream.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-dungeon/pkg/dungeon"
	"github.com/teslashibe/go-dungeon/pkg/hero"
	"github.com/teslashibe/go-dungeon/pkg/input"
	"github.com/teslashibe/go-dungeon/pkg/queue"
	"github.com/teslashibe/go-dungeon/pkg/tracking"
)

// Engine runs the cascade. Step and Run must be called from one goroutine.
type Engine struct {
	cfg    Config
	graph  *dungeon.Graph
	hero   hero.Controller
	frames *queue.Lossy[Frame]
	track  *tracking.Track
	state  RunState

	sleep      input.Sleeper
	now        func() time.Time
	logger     *slog.Logger
	observers  []Observer
	onComplete func()

	running   atomic.Bool
	stopped   atomic.Bool
	completed atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSleep replaces time.Sleep for the scripted branches.
func WithSleep(sleep input.Sleeper) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithClock replaces time.Now for snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithOnComplete sets the hand-off invoked once when the run completes.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) { e.onComplete = fn }
}

// New creates an engine for one character on one dungeon. frames may be nil
// when the engine is only driven through Step.
func New(cfg Config, graph *dungeon.Graph, h hero.Controller, frames *queue.Lossy[Frame], opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		graph:  graph,
		hero:   h,
		frames: frames,
		track:  tracking.NewTrack(cfg.Tracking, cfg.Tracking.Origin),
		sleep:  time.Sleep,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine", "hero", h.Name(), "dungeon", graph.Name)
	e.state = RunState{
		RunID:     uuid.NewString(),
		Direction: graph.InitialDirection,
	}
	return e
}

// State returns a copy of the run state.
func (e *Engine) State() RunState {
	return e.state
}

// Track returns the position tracker.
func (e *Engine) Track() *tracking.Track {
	return e.track
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Completed reports whether the run-complete branch fired.
func (e *Engine) Completed() bool {
	return e.completed.Load()
}

// Stop asks Run to return after the current cycle. A Stop issued before Run
// makes Run return immediately.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.running.Store(false)
}

// Run consumes frames until Stop, run completion, queue close or ctx
// cancellation. An empty queue just idles until the next poll.
func (e *Engine) Run(ctx context.Context) error {
	if e.frames == nil {
		return errors.New("engine: no frame queue")
	}

	if e.stopped.Load() {
		e.logger.Info("engine stopped before start", "run_id", e.state.RunID)
		return nil
	}

	e.running.Store(true)
	defer e.running.Store(false)

	e.logger.Info("engine started", "run_id", e.state.RunID)
	defer e.hero.Reset()

	for !e.stopped.Load() {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := e.frames.Get(e.cfg.PollTimeout)
		switch {
		case errors.Is(err, queue.ErrEmpty):
			continue
		case errors.Is(err, queue.ErrClosed):
			e.logger.Info("frame queue closed")
			return nil
		case err != nil:
			return err
		}

		e.Step(f)
	}

	e.logger.Info("engine stopped", "run_id", e.state.RunID, "room", e.state.Room, "completed", e.Completed())
	return nil
}

// Step runs exactly one cascade cycle against f and returns the branch taken.
func (e *Engine) Step(f Frame) Action {
	a := e.cascade(f)
	e.logger.Debug("cycle", "seq", f.Seq, "action", a, "room", e.state.Room, "direction", e.state.Direction)
	e.notify(f, a)
	return a
}

func (e *Engine) notify(f Frame, a Action) {
	if len(e.observers) == 0 {
		return
	}

	snap := Snapshot{
		Seq:        f.Seq,
		Time:       e.now(),
		Hero:       e.hero.Name(),
		Dungeon:    e.graph.Name,
		Action:     a,
		State:      e.state,
		Direction:  e.state.Direction.String(),
		Position:   e.track.Current(),
		Detections: f.Detections.Total(),
	}
	if r, ok := e.hero.(interface{ RotationUsed(int) bool }); ok {
		snap.RotationUsed = r.RotationUsed(e.state.Room)
	}

	for _, o := range e.observers {
		o.Observe(snap)
	}
}
