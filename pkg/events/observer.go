package events

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/teslashibe/go-dungeon/pkg/engine"
)

// Observer turns engine snapshots into events. Observe never blocks: events
// are buffered and delivered by Run, and dropped when the buffer is full.
type Observer struct {
	emitter Emitter
	logger  *slog.Logger
	ch      chan Event

	lastRun string
	dropped atomic.Uint64
}

// NewObserver creates an observer with room for buffer pending events.
func NewObserver(emitter Emitter, buffer int, logger *slog.Logger) *Observer {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{
		emitter: emitter,
		logger:  logger.With("component", "events"),
		ch:      make(chan Event, buffer),
	}
}

// Observe implements engine.Observer.
func (o *Observer) Observe(s engine.Snapshot) {
	started := s.State.RunID != o.lastRun
	o.lastRun = s.State.RunID

	// A retry reports under the new run id, ahead of that run's start.
	if started && s.Action != engine.ActionRetry {
		o.push(s, RunStarted)
	}
	for _, t := range milestones(s.Action) {
		o.push(s, t)
	}
	if started && s.Action == engine.ActionRetry {
		o.push(s, RunStarted)
	}
}

func milestones(a engine.Action) []Type {
	switch a {
	case engine.ActionRoomEntered:
		return []Type{RoomEntered}
	case engine.ActionReward:
		return []Type{Reward}
	case engine.ActionRetry:
		return []Type{Retry}
	case engine.ActionComplete:
		return []Type{RunCompleted}
	}
	return nil
}

func (o *Observer) push(s engine.Snapshot, t Type) {
	e := New(t, s.State.RunID, s.Hero, s.State.Room, s.Time)
	e.Dungeon = s.Dungeon
	select {
	case o.ch <- e:
	default:
		n := o.dropped.Add(1)
		o.logger.Warn("event dropped", "type", string(t), "dropped", n)
	}
}

// Dropped returns how many events were discarded.
func (o *Observer) Dropped() uint64 {
	return o.dropped.Load()
}

// Run delivers buffered events until ctx is cancelled, then flushes what
// is left. Emission errors are logged.
func (o *Observer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-o.ch:
					o.emit(e)
				default:
					return
				}
			}
		case e := <-o.ch:
			o.emit(e)
		}
	}
}

func (o *Observer) emit(e Event) {
	if err := o.emitter.Emit(e); err != nil {
		o.logger.Warn("event emit failed", "type", string(e.Type), "error", err)
	}
}
