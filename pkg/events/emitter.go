package events

import (
	"errors"
	"log/slog"
)

// Emitter delivers events somewhere.
type Emitter interface {
	Emit(Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event) error

// Emit calls f.
func (f EmitterFunc) Emit(e Event) error { return f(e) }

// LogEmitter writes events to a structured logger.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates a log emitter.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger.With("component", "events")}
}

// Emit logs e at info level.
func (l *LogEmitter) Emit(e Event) error {
	l.logger.Info("run event",
		"type", string(e.Type),
		"run_id", e.RunID,
		"hero", e.Hero,
		"room", e.Room,
	)
	return nil
}

// Multi fans an event out to every emitter and joins their errors.
type Multi []Emitter

// Emit implements Emitter.
func (m Multi) Emit(e Event) error {
	var errs []error
	for _, em := range m {
		if err := em.Emit(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
