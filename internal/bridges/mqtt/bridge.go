package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	infra "github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-wordclock/internal/wordclock"
)

// Bridge operation constants.
const (
	// commandTimeout bounds the device round trip for one command.
	commandTimeout = 5 * time.Second

	// availabilityQoS is the QoS for availability markers.
	availabilityQoS = 1

	// defaultOnBrightness is applied when a light-style ON command
	// carries no explicit brightness.
	defaultOnBrightness = 128
)

// Light-style command values accepted on the set topic.
const (
	commandStateOn  = "ON"
	commandStateOff = "OFF"
)

// MQTTClient is the broker surface the bridge needs.
// Satisfied by *infra.Client; mocked in tests.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler infra.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// StateSource is the synchronization surface the bridge consumes.
// Satisfied by *wordclock.Coordinator.
type StateSource interface {
	ClockID() string
	Snapshot() (wordclock.Snapshot, bool)
	OnChange(fn wordclock.ChangeFunc) *wordclock.Subscription
	RequestMutation(ctx context.Context, fields wordclock.Snapshot) bool
}

// Logger is the minimal logging surface for the bridge.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bridge publishes clock state to MQTT and routes set-topic commands
// back into the synchronization core.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	mqtt   MQTTClient
	source StateSource
	logger Logger
	qos    byte

	topics  infra.Topics
	clockID string

	// history is optional; when set, command-sourced changes are recorded.
	history wordclock.HistoryRepository

	sub      *wordclock.Subscription
	subMu    sync.Mutex
	stopOnce sync.Once
	started  bool
}

// Options configures a Bridge.
type Options struct {
	// MQTTClient is the broker connection. Required.
	MQTTClient MQTTClient

	// Source is the clock state surface. Required.
	Source StateSource

	// QoS for state publications (availability always uses QoS 1).
	QoS byte

	// Logger is optional.
	Logger Logger

	// History is optional; command-applied changes are recorded with
	// the command source tag when present.
	History wordclock.HistoryRepository
}

// New creates a bridge. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("mqtt client is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("state source is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Bridge{
		mqtt:    opts.MQTTClient,
		source:  opts.Source,
		logger:  logger,
		qos:     opts.QoS,
		clockID: opts.Source.ClockID(),
		history: opts.History,
	}, nil
}

// Start subscribes to the command topic, announces availability, and
// begins mirroring state changes to the broker. The current snapshot,
// if any, is published immediately so retained state is fresh.
func (b *Bridge) Start() error {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	if b.started {
		return nil
	}

	setTopic := b.topics.Set(b.clockID)
	if err := b.mqtt.Subscribe(setTopic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", setTopic, err)
	}

	if err := b.mqtt.Publish(b.topics.Availability(b.clockID), []byte(infra.PayloadOnline), availabilityQoS, true); err != nil {
		b.logger.Warn("availability publish failed", "error", err)
	}

	if snap, ok := b.source.Snapshot(); ok {
		b.publishState(snap)
	}

	b.sub = b.source.OnChange(b.publishState)
	b.started = true

	b.logger.Info("mqtt bridge started", "clock_id", b.clockID)
	return nil
}

// Stop detaches from the state source and marks the clock offline.
// Idempotent.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.subMu.Lock()
		if b.sub != nil {
			b.sub.Unsubscribe()
			b.sub = nil
		}
		b.subMu.Unlock()

		if err := b.mqtt.Unsubscribe(b.topics.Set(b.clockID)); err != nil {
			b.logger.Warn("unsubscribe failed", "error", err)
		}

		err := b.mqtt.Publish(b.topics.Availability(b.clockID), []byte(infra.PayloadOffline), availabilityQoS, true)
		if err != nil {
			b.logger.Warn("offline publish failed", "error", err)
		}

		b.logger.Info("mqtt bridge stopped", "clock_id", b.clockID)
	})
}

// publishState mirrors one snapshot to the retained state topic.
func (b *Bridge) publishState(snap wordclock.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logger.Error("state marshal failed", "clock_id", b.clockID, "error", err)
		return
	}

	if err := b.mqtt.PublishRetained(b.topics.State(b.clockID), payload); err != nil {
		b.logger.Warn("state publish failed", "clock_id", b.clockID, "error", err)
	}
}

// handleCommand translates one set-topic payload into a mutation.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("decoding command on %s: %w", topic, err)
	}

	fields := translateCommand(raw)
	if len(fields) == 0 {
		b.logger.Warn("command carried no usable fields", "topic", topic)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if !b.source.RequestMutation(ctx, fields) {
		b.logger.Warn("command mutation rejected", "topic", topic)
		return nil
	}

	if b.history != nil {
		if snap, ok := b.source.Snapshot(); ok {
			if err := b.history.RecordChange(ctx, b.clockID, snap, wordclock.HistorySourceCommand); err != nil {
				b.logger.Warn("recording command history failed", "error", err)
			}
		}
	}

	return nil
}

// translateCommand maps a command payload to mutation fields. The
// light-style "state" key becomes a brightness value; everything else
// passes through for the core's validation to filter.
func translateCommand(raw map[string]any) wordclock.Snapshot {
	fields := make(wordclock.Snapshot, len(raw))
	for k, v := range raw {
		fields[k] = v
	}

	state, ok := fields["state"].(string)
	if !ok {
		return fields
	}
	delete(fields, "state")

	switch strings.ToUpper(state) {
	case commandStateOff:
		fields["brightness"] = 0
	case commandStateOn:
		if _, explicit := fields["brightness"]; !explicit {
			fields["brightness"] = defaultOnBrightness
		}
	}

	return fields
}
