package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-dungeon/pkg/input"
)

// TapStep is one scripted menu tap in device pixels.
type TapStep struct {
	Name string        `yaml:"name"`
	X    int           `yaml:"x"`
	Y    int           `yaml:"y"`
	Hold time.Duration `yaml:"hold"`
	Wait time.Duration `yaml:"wait"`
}

// MenuScript is the tap sequence that switches characters and starts a run.
type MenuScript struct {
	// Open leads from the dungeon result screen to character selection.
	Open []TapStep `yaml:"open"`
	// Characters holds the tap that picks each character.
	Characters map[string][]TapStep `yaml:"characters"`
	// Start enters the game and travels to the dungeon.
	Start []TapStep `yaml:"start"`
	// Battle starts the dungeon run. It is also played before the first run.
	Battle []TapStep `yaml:"battle"`
}

// MenuSelector replays a MenuScript on a touch transport.
type MenuSelector struct {
	script MenuScript
	touch  input.Toucher
	sleep  input.Sleeper
	logger *slog.Logger
}

// NewMenuSelector creates a selector. A nil sleep uses time.Sleep.
func NewMenuSelector(script MenuScript, touch input.Toucher, sleep input.Sleeper, logger *slog.Logger) *MenuSelector {
	if sleep == nil {
		sleep = time.Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MenuSelector{
		script: script,
		touch:  touch,
		sleep:  sleep,
		logger: logger.With("component", "menu"),
	}
}

// Select runs open, the character pick, start, then battle.
func (m *MenuSelector) Select(ctx context.Context, character string) error {
	pick, ok := m.script.Characters[character]
	if !ok {
		return fmt.Errorf("run: no menu taps for %q", character)
	}
	for _, steps := range [][]TapStep{m.script.Open, pick, m.script.Start, m.script.Battle} {
		if err := m.play(ctx, steps); err != nil {
			return err
		}
	}
	return nil
}

// Play runs an arbitrary tap sequence, such as the battle taps for the first run.
func (m *MenuSelector) Play(ctx context.Context, steps []TapStep) error {
	return m.play(ctx, steps)
}

func (m *MenuSelector) play(ctx context.Context, steps []TapStep) error {
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.logger.Debug("menu tap", "step", s.Name, "x", s.X, "y", s.Y)
		if err := input.Tap(m.touch, s.X, s.Y, input.PointerTap, s.Hold, m.sleep); err != nil {
			return fmt.Errorf("run: menu step %q: %w", s.Name, err)
		}
		if s.Wait > 0 {
			m.sleep(s.Wait)
		}
	}
	return nil
}
