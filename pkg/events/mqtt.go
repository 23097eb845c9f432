package events

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotConnected is returned by Emit while the broker is unreachable.
var ErrNotConnected = errors.New("events: mqtt not connected")

// MQTTConfig configures the MQTT emitter.
type MQTTConfig struct {
	Broker         string        `yaml:"broker"` // host:port
	ClientID       string        `yaml:"client_id"`
	TopicPrefix    string        `yaml:"topic_prefix"`
	QoS            byte          `yaml:"qos"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// DefaultMQTTConfig returns the stock settings. Broker is empty, which
// disables MQTT.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		ClientID:       "go-dungeon",
		TopicPrefix:    "dungeon/events",
		QoS:            1,
		ConnectTimeout: 5 * time.Second,
		PublishTimeout: 2 * time.Second,
	}
}

// MQTTEmitter publishes events as JSON to <prefix>/<type>.
type MQTTEmitter struct {
	cfg    MQTTConfig
	client mqtt.Client
	logger *slog.Logger

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
}

// MQTTStats counts publishes per topic.
type MQTTStats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

// DialMQTT connects to the broker with auto-reconnect enabled.
func DialMQTT(cfg MQTTConfig, logger *slog.Logger) (*MQTTEmitter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connection established", "broker", cfg.Broker, "client_id", cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", cfg.Broker)
	}

	client := mqtt.NewClient(opts)
	logger.Info("connecting to mqtt broker", "broker", cfg.Broker)

	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("events: mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("events: mqtt connection failed: %w", err)
	}
	return NewMQTTEmitter(cfg, client, logger), nil
}

// NewMQTTEmitter wraps an existing client.
func NewMQTTEmitter(cfg MQTTConfig, client mqtt.Client, logger *slog.Logger) *MQTTEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTEmitter{
		cfg:       cfg,
		client:    client,
		logger:    logger,
		published: make(map[string]uint64),
	}
}

// Topic returns the topic events of type t go to.
func (m *MQTTEmitter) Topic(t Type) string {
	return fmt.Sprintf("%s/%s", m.cfg.TopicPrefix, t)
}

// Emit publishes e and waits for the broker acknowledgement.
func (m *MQTTEmitter) Emit(e Event) error {
	if !m.client.IsConnected() {
		m.countError()
		return ErrNotConnected
	}

	payload, err := e.JSON()
	if err != nil {
		m.countError()
		return fmt.Errorf("events: marshal %s: %w", e.Type, err)
	}

	topic := m.Topic(e.Type)
	token := m.client.Publish(topic, m.cfg.QoS, false, payload)
	if !token.WaitTimeout(m.cfg.PublishTimeout) {
		m.countError()
		return fmt.Errorf("events: publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		m.countError()
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}

	m.mu.Lock()
	m.published[topic]++
	m.mu.Unlock()

	m.logger.Debug("event published", "topic", topic, "qos", m.cfg.QoS, "size", len(payload))
	return nil
}

// Close disconnects from the broker.
func (m *MQTTEmitter) Close() error {
	if m.client.IsConnected() {
		m.client.Disconnect(250)
		m.logger.Info("mqtt disconnected")
	}
	return nil
}

// Stats returns publish counters.
func (m *MQTTEmitter) Stats() MQTTStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	published := make(map[string]uint64, len(m.published))
	for k, v := range m.published {
		published[k] = v
	}
	return MQTTStats{
		Connected: m.client.IsConnected(),
		Published: published,
		Errors:    m.errors,
	}
}

func (m *MQTTEmitter) countError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}
