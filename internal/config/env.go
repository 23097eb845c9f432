package config

import (
	"os"
	"strings"
)

// Environment variables that override the config file.
const (
	EnvDeviceAddr    = "DEVICE_ADDR"
	EnvBridgeURL     = "BRIDGE_URL"
	EnvCaptureSource = "CAPTURE_SOURCE"
	EnvMQTTBroker    = "MQTT_BROKER"
	EnvLogLevel      = "LOG_LEVEL"
	EnvModelPath     = "MODEL_PATH"
)

// Getenv returns the named variable, or def when it is unset or blank.
func Getenv(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

// ApplyEnv overrides c with any of the variables above that are set.
func (c *Config) ApplyEnv() {
	c.Device.Addr = Getenv(EnvDeviceAddr, c.Device.Addr)
	c.Device.BridgeURL = Getenv(EnvBridgeURL, c.Device.BridgeURL)
	c.Capture.Source = Getenv(EnvCaptureSource, c.Capture.Source)
	c.MQTT.Broker = Getenv(EnvMQTTBroker, c.MQTT.Broker)
	c.Log.Level = Getenv(EnvLogLevel, c.Log.Level)
	c.Model.Path = Getenv(EnvModelPath, c.Model.Path)
}
