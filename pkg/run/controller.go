// Package run owns the engine goroutine and hands control from one
// character to the next when a run completes.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("run: already started")

// Runner is one character's engine.
type Runner interface {
	Run(ctx context.Context) error
	Stop()
}

// Factory builds the engine for a character. onComplete must be invoked by
// the engine when the run completes.
type Factory func(character string, onComplete func()) (Runner, error)

// Selector switches the game to character and starts its run.
type Selector interface {
	Select(ctx context.Context, character string) error
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, character string) error

// Select calls f.
func (f SelectorFunc) Select(ctx context.Context, character string) error {
	return f(ctx, character)
}

// Controller runs a roster chain of characters one after another.
type Controller struct {
	chain    []string
	factory  Factory
	selector Selector
	logger   *slog.Logger

	mu        sync.Mutex
	started   bool
	stopping  bool
	current   Runner
	character string
	completed []string
	err       error

	done chan struct{}
}

// New creates a controller for chain. The first character is assumed to be
// selected already; every later one goes through selector.
func New(chain []string, factory Factory, selector Selector, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		chain:    chain,
		factory:  factory,
		selector: selector,
		logger:   logger.With("component", "run"),
		done:     make(chan struct{}),
	}
}

// Start launches the engine goroutine.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	if len(c.chain) == 0 {
		return errors.New("run: empty roster")
	}
	c.started = true
	go c.loop(ctx)
	return nil
}

// Stop asks the current engine to stop after its cycle and ends the chain.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopping = true
	cur := c.current
	c.mu.Unlock()
	if cur != nil {
		cur.Stop()
	}
}

// Done is closed when the chain ends.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the chain ends and returns its error, if any.
func (c *Controller) Wait() error {
	<-c.done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Character returns the character currently running.
func (c *Controller) Character() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.character
}

// Completed returns the characters whose runs completed, in order.
func (c *Controller) Completed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.completed))
	copy(out, c.completed)
	return out
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)

	for i, name := range c.chain {
		if c.isStopping() {
			return
		}

		if i > 0 {
			c.logger.Info("handing off", "from", c.chain[i-1], "to", name)
			if err := c.selector.Select(ctx, name); err != nil {
				c.fail(fmt.Errorf("run: select %s: %w", name, err))
				return
			}
		}

		completed, err := c.runOne(ctx, name)
		if err != nil {
			c.fail(err)
			return
		}
		if !completed {
			c.logger.Info("run stopped before completion", "hero", name)
			return
		}

		c.mu.Lock()
		c.completed = append(c.completed, name)
		c.mu.Unlock()
		c.logger.Info("run completed", "hero", name)
	}
	c.logger.Info("roster finished", "runs", len(c.chain))
}

func (c *Controller) runOne(ctx context.Context, name string) (bool, error) {
	var completed bool
	r, err := c.factory(name, func() { completed = true })
	if err != nil {
		return false, fmt.Errorf("run: build %s: %w", name, err)
	}

	c.mu.Lock()
	c.current = r
	c.character = name
	stopping := c.stopping
	c.mu.Unlock()
	if stopping {
		return false, nil
	}

	c.logger.Info("run starting", "hero", name)
	err = r.Run(ctx)

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		return false, fmt.Errorf("run: %s: %w", name, err)
	}
	return completed && err == nil, nil
}

func (c *Controller) isStopping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopping
}

func (c *Controller) fail(err error) {
	c.logger.Error("run failed", "error", err)
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}
