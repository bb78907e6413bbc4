package wordclock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/config"
)

// Coordinator is the consumer-facing surface for one clock. It owns a
// Client, Store, and Supervisor; nothing is registered globally, so
// multiple coordinators can mirror multiple clocks in one process.
type Coordinator struct {
	client     *Client
	store      *Store
	supervisor *Supervisor
	logger     Logger

	clockID   string
	clockName string
}

// NewCoordinator wires up the synchronization core for the configured
// clock. If cfg.ID is empty a new UUID is generated; persist it in the
// config to keep MQTT topics and history stable across restarts.
func NewCoordinator(cfg config.ClockConfig, logger Logger) *Coordinator {
	if logger == nil {
		logger = noopLogger{}
	}

	clockID := cfg.ID
	if clockID == "" {
		clockID = uuid.NewString()
		logger.Info("generated clock id", "clock_id", clockID)
	}

	client := NewClient(cfg.Host, time.Duration(cfg.RequestTimeout)*time.Second)
	store := NewStore()
	supervisor := NewSupervisor(client, store, time.Duration(cfg.ReconnectDelay)*time.Second, logger)

	return &Coordinator{
		client:     client,
		store:      store,
		supervisor: supervisor,
		logger:     logger,
		clockID:    clockID,
		clockName:  cfg.Name,
	}
}

// ClockID returns the identifier used in MQTT topics and state history.
func (c *Coordinator) ClockID() string {
	return c.clockID
}

// ClockName returns the human-readable clock label.
func (c *Coordinator) ClockName() string {
	return c.clockName
}

// Start begins synchronization: one blocking seed fetch, then the
// background stream loop. Idempotent.
func (c *Coordinator) Start(ctx context.Context) {
	c.supervisor.Start(ctx)
}

// Stop shuts synchronization down and waits for the stream loop to
// exit. Idempotent and terminal.
func (c *Coordinator) Stop() {
	c.supervisor.Stop()
}

// Snapshot returns a copy of the mirrored state and whether any state
// has been received yet.
func (c *Coordinator) Snapshot() (Snapshot, bool) {
	return c.store.Current()
}

// OnChange registers a callback invoked with the full snapshot after
// every change, whatever its origin.
func (c *Coordinator) OnChange(fn ChangeFunc) *Subscription {
	return c.store.Subscribe(fn)
}

// OnAuthoritativeChange registers a callback invoked with the full
// snapshot after each device-reported change (seed fetch and stream
// events). Optimistic applies from RequestMutation do not fire it,
// which makes it the right hook for device-sourced audit trails. Set
// before Start.
func (c *Coordinator) OnAuthoritativeChange(fn func(Snapshot)) {
	c.supervisor.SetOnApply(fn)
}

// State returns the current connection state.
func (c *Coordinator) State() State {
	return c.supervisor.State()
}

// SetOnStateChange registers a connection state transition callback.
func (c *Coordinator) SetOnStateChange(fn func(State)) {
	c.supervisor.SetOnStateChange(fn)
}

// RequestMutation validates and submits a state change to the device.
//
// Invalid fields are dropped individually; if nothing valid remains, no
// request is made and false is returned. On device acceptance the valid
// fields are applied to the local mirror optimistically and true is
// returned. On rejection or network failure the mirror is untouched and
// false is returned; the caller decides whether to retry.
func (c *Coordinator) RequestMutation(ctx context.Context, fields Snapshot) bool {
	valid := ValidateFields(fields)
	if len(valid) == 0 {
		c.logger.Warn("mutation dropped, no valid fields",
			"clock_id", c.clockID,
			"requested", len(fields),
		)
		return false
	}
	if dropped := len(fields) - len(valid); dropped > 0 {
		c.logger.Warn("mutation fields dropped by validation",
			"clock_id", c.clockID,
			"dropped", dropped,
		)
	}

	if err := c.client.ApplyMutation(ctx, valid); err != nil {
		c.logger.Warn("mutation rejected",
			"clock_id", c.clockID,
			"error", err,
		)
		return false
	}

	c.store.ApplyOptimistic(valid)
	return true
}
