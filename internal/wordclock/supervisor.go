package wordclock

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// State is the supervisor's connection state, readable at any time via
// Supervisor.State and observable via SetOnStateChange.
type State string

// Supervisor states. Transitions run disconnected → connecting →
// connected → disconnected in a loop until Stop, which moves to
// shutting_down terminally.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateShuttingDown State = "shutting_down"
)

// Logger is the minimal logging surface the synchronization core needs.
// logging.Logger satisfies it; tests use noopLogger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Supervisor owns the connection lifecycle for one clock: it opens the
// event stream, drains it into the store, and reconnects after a fixed
// delay when the stream drops. At most one stream is open at a time.
type Supervisor struct {
	client         *Client
	store          *Store
	reconnectDelay time.Duration
	logger         Logger

	stateMu       sync.RWMutex
	state         State
	onStateChange func(State)
	onApply       func(Snapshot)

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSupervisor creates a supervisor in the disconnected state.
// A nil logger disables logging.
func NewSupervisor(client *Client, store *Store, reconnectDelay time.Duration, logger Logger) *Supervisor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Supervisor{
		client:         client,
		store:          store,
		reconnectDelay: reconnectDelay,
		logger:         logger,
		state:          StateDisconnected,
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SetOnStateChange registers a callback invoked on every state
// transition. Set before Start; the callback runs on the supervisor
// goroutine and must not block.
func (s *Supervisor) SetOnStateChange(fn func(State)) {
	s.stateMu.Lock()
	s.onStateChange = fn
	s.stateMu.Unlock()
}

// SetOnApply registers a callback invoked with the merged snapshot
// after every authoritative apply (seed fetch and stream events). Set
// before Start; the callback runs on the supervisor goroutine.
func (s *Supervisor) SetOnApply(fn func(Snapshot)) {
	s.stateMu.Lock()
	s.onApply = fn
	s.stateMu.Unlock()
}

// applyAuthoritative merges device-reported fields and fires the apply
// callback with the resulting snapshot.
func (s *Supervisor) applyAuthoritative(fields Snapshot) {
	s.store.ApplyAuthoritative(fields)

	s.stateMu.RLock()
	callback := s.onApply
	s.stateMu.RUnlock()

	if callback != nil {
		if snap, ok := s.store.Current(); ok {
			callback(snap)
		}
	}
}

func (s *Supervisor) setState(next State) {
	s.stateMu.Lock()
	// shutting_down is terminal; a loop transition racing Stop must not
	// override it.
	if s.state == StateShuttingDown && next != StateShuttingDown {
		s.stateMu.Unlock()
		return
	}
	changed := s.state != next
	s.state = next
	callback := s.onStateChange
	s.stateMu.Unlock()

	if changed && callback != nil {
		callback(next)
	}
}

// Start seeds the store with one blocking snapshot fetch, then launches
// the stream loop. A failed seed is logged and not fatal: the loop
// populates state from events instead.
//
// Start is idempotent; calls after the first (or after Stop) do nothing.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	if snap, err := s.client.FetchSnapshot(runCtx); err != nil {
		s.logger.Warn("initial snapshot fetch failed, relying on stream",
			"host", s.client.Host(),
			"error", err,
		)
	} else {
		s.applyAuthoritative(snap)
	}

	go s.run(runCtx)
}

// Stop terminates the supervisor: it cancels any in-flight stream read
// and waits for the loop goroutine to exit. Idempotent and terminal;
// a stopped supervisor cannot be restarted.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	alreadyStopped := s.stopped
	s.stopped = true
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if !alreadyStopped {
		s.setState(StateShuttingDown)
		if cancel != nil {
			cancel()
		}
	}

	if done != nil {
		<-done
	}
}

// run is the reconnect loop. It exits only when ctx is cancelled.
func (s *Supervisor) run(ctx context.Context) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}

		s.setState(StateConnecting)
		body, err := s.client.OpenStream(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("stream connect failed",
				"host", s.client.Host(),
				"error", err,
			)
			s.setState(StateDisconnected)
			if !s.waitReconnect(ctx) {
				return
			}
			continue
		}

		s.setState(StateConnected)
		s.logger.Info("stream connected", "host", s.client.Host())

		s.drain(ctx, body)
		body.Close() //nolint:errcheck // Best effort; stream is already done

		if ctx.Err() != nil {
			return
		}

		s.setState(StateDisconnected)
		s.logger.Warn("stream ended, reconnecting",
			"host", s.client.Host(),
			"delay", s.reconnectDelay,
		)
		if !s.waitReconnect(ctx) {
			return
		}
	}
}

// drain consumes events from one stream until it ends. The stream body
// is bound to ctx via the request, so cancellation aborts a blocked
// read promptly.
func (s *Supervisor) drain(ctx context.Context, body io.Reader) {
	dec := NewDecoder(body)
	for {
		event, err := dec.Next()
		if err != nil {
			if errors.Is(err, ErrEventMalformed) {
				s.logger.Warn("skipping malformed stream event", "error", err)
				continue
			}
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.logger.Warn("stream read error", "error", err)
			}
			return
		}
		s.applyAuthoritative(event.Fields)
	}
}

// waitReconnect sleeps for the fixed reconnect delay, returning early
// with false if ctx is cancelled.
func (s *Supervisor) waitReconnect(ctx context.Context) bool {
	timer := time.NewTimer(s.reconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
