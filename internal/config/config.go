// Package config loads the go-dungeon configuration: built-in defaults,
// then an optional YAML file, then environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/engine"
	"github.com/teslashibe/go-dungeon/pkg/events"
	"github.com/teslashibe/go-dungeon/pkg/perception"
	"github.com/teslashibe/go-dungeon/pkg/run"
)

// Transport names.
const (
	TransportScrcpy = "scrcpy"
	TransportBridge = "bridge"
)

//go:embed menu.yaml
var defaultMenu []byte

// Config is the whole application configuration.
type Config struct {
	// Hero is the character to start with.
	Hero string `yaml:"hero"`

	// Roster overrides the successor chain derived from the character table.
	Roster []string `yaml:"roster"`

	// Dungeon names the room graph. Empty uses each character's own dungeon.
	Dungeon string `yaml:"dungeon"`

	// HeroesFile and DungeonsFile replace the embedded tables when set.
	HeroesFile   string `yaml:"heroes_file"`
	DungeonsFile string `yaml:"dungeons_file"`

	// QueueSize is the frame queue capacity.
	QueueSize int `yaml:"queue_size"`

	Device  DeviceConfig      `yaml:"device"`
	Capture CaptureConfig     `yaml:"capture"`
	Model   ModelConfig       `yaml:"model"`
	Engine  engine.Config     `yaml:"engine"`
	Menu    run.MenuScript    `yaml:"menu"`
	Log     LogConfig         `yaml:"log"`
	Web     WebConfig         `yaml:"web"`
	MQTT    events.MQTTConfig `yaml:"mqtt"`
}

// DeviceConfig selects the touch transport.
type DeviceConfig struct {
	Transport string `yaml:"transport"`
	// Addr is the scrcpy control socket (host:port).
	Addr string `yaml:"addr"`
	// BridgeURL is the websocket bridge endpoint.
	BridgeURL string `yaml:"bridge_url"`
	// Width and Height are the device screen size in pixels.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// CaptureConfig selects the frame source.
type CaptureConfig struct {
	// Source is a device index, stream URL, video file or screenshot directory.
	Source     string            `yaml:"source"`
	Perception perception.Config `yaml:"perception"`
}

// ModelConfig describes the detector.
type ModelConfig struct {
	Path          string   `yaml:"path"`
	Classes       []string `yaml:"classes"`
	InputSize     int      `yaml:"input_size"`
	Confidence    float32  `yaml:"confidence"`
	NMS           float32  `yaml:"nms"`
	MinConfidence float64  `yaml:"min_confidence"`
}

// LogConfig configures internal/log.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// WebConfig configures the dashboard. An empty Addr disables it.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the stock configuration.
func Default() Config {
	var menu run.MenuScript
	if err := yaml.Unmarshal(defaultMenu, &menu); err != nil {
		panic(fmt.Sprintf("config: embedded menu: %v", err))
	}
	return Config{
		Hero:      "jian_zong",
		QueueSize: 3,
		Device: DeviceConfig{
			Transport: TransportScrcpy,
			Addr:      "127.0.0.1:27183",
			Width:     1168,
			Height:    540,
		},
		Capture: CaptureConfig{
			Source:     "0",
			Perception: perception.DefaultConfig(),
		},
		Model: ModelConfig{
			Path:          "models/dungeon.onnx",
			Classes:       append([]string(nil), detection.DefaultClassNames...),
			InputSize:     640,
			Confidence:    0.35,
			NMS:           0.45,
			MinConfidence: detection.DefaultMinConfidence,
		},
		Engine: engine.DefaultConfig(),
		Menu:   menu,
		Log:    LogConfig{Level: "info"},
		Web:    WebConfig{Addr: ":8080"},
		MQTT:   events.DefaultMQTTConfig(),
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path yields defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.Hero == "" {
		errs = append(errs, errors.New("hero is required"))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue_size %d must be positive", c.QueueSize))
	}

	switch c.Device.Transport {
	case TransportScrcpy:
		if c.Device.Addr == "" {
			errs = append(errs, errors.New("device.addr is required for scrcpy"))
		}
	case TransportBridge:
		if c.Device.BridgeURL == "" {
			errs = append(errs, errors.New("device.bridge_url is required for bridge"))
		}
	default:
		errs = append(errs, fmt.Errorf("device.transport %q is not scrcpy or bridge", c.Device.Transport))
	}
	if c.Device.Width <= 0 || c.Device.Height <= 0 {
		errs = append(errs, fmt.Errorf("device size %dx%d must be positive", c.Device.Width, c.Device.Height))
	}

	if c.Capture.Source == "" {
		errs = append(errs, errors.New("capture.source is required"))
	}
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if _, err := detection.NewLabelSet(c.Model.Classes); err != nil {
		errs = append(errs, fmt.Errorf("model.classes: %w", err))
	}
	if c.Model.InputSize <= 0 {
		errs = append(errs, fmt.Errorf("model.input_size %d must be positive", c.Model.InputSize))
	}

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("engine: %w", err))
	}
	return errors.Join(errs...)
}
