package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-dungeon/pkg/geometry"
	"github.com/teslashibe/go-dungeon/pkg/tracking"
)

// Config holds the engine's tunables. The thresholds were tuned against one
// dungeon's visuals and are expected to need adjusting elsewhere.
type Config struct {
	// BlackRatio is the dark-pixel fraction above which a frame is a loading screen.
	BlackRatio float64 `yaml:"black_ratio"`

	// CardThreshold is the number of flip-cards that marks the reward overlay.
	CardThreshold int `yaml:"card_threshold"`

	// StagnationPeriod is how many idle cycles pass between recovery moves.
	StagnationPeriod int `yaml:"stagnation_period"`

	// ArrowOverride lets arrows be followed in the pre-boss room once the
	// stagnation counter exceeds it.
	ArrowOverride int `yaml:"arrow_override"`

	RepairConfidence     float64 `yaml:"repair_confidence"`
	GuideConfidence      float64 `yaml:"guide_confidence"`
	ZeroPointsConfidence float64 `yaml:"zero_points_confidence"`

	// GateDepth is how far down a left door box the aim point sits.
	GateDepth float64 `yaml:"gate_depth"`

	// Normalized screen points tapped by the recovery branches.
	RewardPoint        geometry.Point `yaml:"reward_point"`
	RepairConfirmPoint geometry.Point `yaml:"repair_confirm_point"`
	NeutralPoint       geometry.Point `yaml:"neutral_point"`
	RetryConfirmPoint  geometry.Point `yaml:"retry_confirm_point"`

	Timing Timing `yaml:"timing"`

	Tracking tracking.Config `yaml:"tracking"`

	// PollTimeout bounds each wait on the frame queue.
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

// Timing holds the fixed delays and tap holds of the scripted branches.
type Timing struct {
	TapHold      time.Duration `yaml:"tap_hold"`
	PromptHold   time.Duration `yaml:"prompt_hold"`
	ConfirmHold  time.Duration `yaml:"confirm_hold"`
	Settle       time.Duration `yaml:"settle"`
	RewardWait   time.Duration `yaml:"reward_wait"`
	RepairWait   time.Duration `yaml:"repair_wait"`
	ReturnWait   time.Duration `yaml:"return_wait"`
	RetryConfirm time.Duration `yaml:"retry_confirm"`
	RetryStart   time.Duration `yaml:"retry_start"`
	GuideHold    time.Duration `yaml:"guide_hold"`
	RecoveryHold time.Duration `yaml:"recovery_hold"`
}

// DefaultConfig returns the values tuned against the bwj dungeon.
func DefaultConfig() Config {
	return Config{
		BlackRatio:           0.6,
		CardThreshold:        8,
		StagnationPeriod:     50,
		ArrowOverride:        300,
		RepairConfidence:     0.8,
		GuideConfidence:      0.8,
		ZeroPointsConfidence: 0.9,
		GateDepth:            0.65,
		RewardPoint:          geometry.Pt(0.7, 0.25),
		RepairConfirmPoint:   geometry.Pt(0.58, 0.72),
		NeutralPoint:         geometry.Pt(0, 0),
		RetryConfirmPoint:    geometry.Pt(0.6, 0.65),
		Timing: Timing{
			TapHold:      500 * time.Millisecond,
			PromptHold:   200 * time.Millisecond,
			ConfirmHold:  300 * time.Millisecond,
			Settle:       time.Second,
			RewardWait:   7 * time.Second,
			RepairWait:   time.Second,
			ReturnWait:   10 * time.Second,
			RetryConfirm: 500 * time.Millisecond,
			RetryStart:   3 * time.Second,
			GuideHold:    200 * time.Millisecond,
			RecoveryHold: 200 * time.Millisecond,
		},
		Tracking:    tracking.DefaultConfig(),
		PollTimeout: 50 * time.Millisecond,
	}
}

// Validate reports every out-of-range value.
func (c Config) Validate() error {
	var errs []error
	if c.BlackRatio <= 0 || c.BlackRatio > 1 {
		errs = append(errs, fmt.Errorf("black_ratio %v not in (0, 1]", c.BlackRatio))
	}
	if c.CardThreshold < 1 {
		errs = append(errs, fmt.Errorf("card_threshold %d must be positive", c.CardThreshold))
	}
	if c.StagnationPeriod < 1 {
		errs = append(errs, fmt.Errorf("stagnation_period %d must be positive", c.StagnationPeriod))
	}
	if c.GateDepth < 0 || c.GateDepth > 1 {
		errs = append(errs, fmt.Errorf("gate_depth %v not in [0, 1]", c.GateDepth))
	}
	if c.Tracking.Depth < 1 {
		errs = append(errs, fmt.Errorf("tracking depth %d must be positive", c.Tracking.Depth))
	}
	if c.Tracking.ContinuityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("tracking continuity %v must be positive", c.Tracking.ContinuityThreshold))
	}
	if c.PollTimeout <= 0 {
		errs = append(errs, fmt.Errorf("poll_timeout %v must be positive", c.PollTimeout))
	}
	return errors.Join(errs...)
}
