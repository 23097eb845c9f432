package tracking

import "github.com/teslashibe/go-dungeon/pkg/geometry"

// Config holds the tunable parameters for player tracking
type Config struct {
	// Depth caps the position history; older estimates are evicted.
	Depth int `yaml:"depth"`

	// ContinuityThreshold is the largest jump (normalized units) accepted
	// from an ambiguous frame with several hero boxes.
	ContinuityThreshold float64 `yaml:"continuity_threshold"`

	// Origin is the anchor used at the start of a run and after a retry.
	Origin geometry.Point `yaml:"origin"`
}

// DefaultConfig returns the values tuned against the bwj dungeon.
func DefaultConfig() Config {
	return Config{
		Depth:               32,
		ContinuityThreshold: 0.1,
		Origin:              geometry.Point{X: 0, Y: 0},
	}
}
