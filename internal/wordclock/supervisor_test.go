package wordclock

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

// newSupervisorForServer wires a supervisor with a short reconnect delay
// against the given device simulator.
func newSupervisorForServer(t *testing.T, handler http.Handler) (*Supervisor, *Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(strings.TrimPrefix(srv.URL, "http://"), time.Second)
	store := NewStore()
	return NewSupervisor(client, store, 20*time.Millisecond, nil), store
}

// sseHandler writes SSE frames and blocks until the client disconnects.
func sseHandler(frames ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		flusher.Flush()
		for _, frame := range frames {
			fmt.Fprint(w, frame) //nolint:errcheck
			flusher.Flush()
		}
		<-r.Context().Done()
	}
}

func TestSupervisor_SeedThenStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"brightness": 100, "language": "dialekt"}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler("data: {\"brightness\": 50}\n\n"))

	sup, store := newSupervisorForServer(t, mux)
	sup.Start(context.Background())
	defer sup.Stop()

	// Seed fetch is blocking, so the snapshot exists as soon as Start returns.
	snap, ok := store.Current()
	if !ok {
		t.Fatal("expected seeded snapshot after Start")
	}
	if snap["brightness"] != float64(100) {
		t.Errorf("seeded brightness = %v, want 100", snap["brightness"])
	}

	// The stream event then overwrites the seeded value.
	waitFor(t, 2*time.Second, func() bool {
		snap, _ := store.Current()
		return snap["brightness"] == float64(50)
	})

	// Fields absent from the event survive the merge.
	snap, _ = store.Current()
	if snap["language"] != "dialekt" {
		t.Errorf("language = %v, want dialekt", snap["language"])
	}
}

func TestSupervisor_SeedFailureNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/events", sseHandler("data: {\"enabled\": true}\n\n"))

	sup, store := newSupervisorForServer(t, mux)
	sup.Start(context.Background())
	defer sup.Stop()

	if _, ok := store.Current(); ok {
		t.Error("expected no snapshot after failed seed")
	}

	waitFor(t, 2*time.Second, func() bool {
		snap, ok := store.Current()
		return ok && snap["enabled"] == true
	})
}

func TestSupervisor_HandshakeFailureRetries(t *testing.T) {
	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		sseHandler("data: {\"brightness\": 1}\n\n")(w, r)
	})

	sup, store := newSupervisorForServer(t, mux)
	sup.Start(context.Background())
	defer sup.Stop()

	waitFor(t, 2*time.Second, func() bool {
		snap, _ := store.Current()
		return snap["brightness"] == float64(1)
	})

	if attempts.Load() < 2 {
		t.Errorf("attempts = %d, want at least 2 (retry after rejected handshake)", attempts.Load())
	}
}

func TestSupervisor_ReconnectAfterStreamEnd(t *testing.T) {
	var connections atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		n := connections.Add(1)
		if n == 1 {
			// First stream delivers one event then ends.
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "data: {\"brightness\": 10}\n\n") //nolint:errcheck
			return
		}
		sseHandler("data: {\"brightness\": 20}\n\n")(w, r)
	})

	sup, store := newSupervisorForServer(t, mux)
	sup.Start(context.Background())
	defer sup.Stop()

	waitFor(t, 3*time.Second, func() bool {
		snap, _ := store.Current()
		return snap["brightness"] == float64(20)
	})

	if connections.Load() < 2 {
		t.Errorf("connections = %d, want at least 2", connections.Load())
	}
}

func TestSupervisor_MalformedEventSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler(
		"data: {broken\n\n",
		"data: {\"brightness\": 77}\n\n",
	))

	sup, store := newSupervisorForServer(t, mux)
	sup.Start(context.Background())
	defer sup.Stop()

	// The malformed frame is skipped on the same connection.
	waitFor(t, 2*time.Second, func() bool {
		snap, _ := store.Current()
		return snap["brightness"] == float64(77)
	})
}

func TestSupervisor_StopUnblocksStreamRead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler()) // headers only, then block

	sup, _ := newSupervisorForServer(t, mux)
	sup.Start(context.Background())

	waitFor(t, 2*time.Second, func() bool {
		return sup.State() == StateConnected
	})

	stopped := make(chan struct{})
	go func() {
		sup.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while stream read was blocked")
	}

	if got := sup.State(); got != StateShuttingDown {
		t.Errorf("state after Stop = %q, want %q", got, StateShuttingDown)
	}
}

func TestSupervisor_StopIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler())

	sup, _ := newSupervisorForServer(t, mux)
	sup.Start(context.Background())

	sup.Stop()
	sup.Stop() // second call must not panic or block

	// Start after Stop is a no-op.
	sup.Start(context.Background())
	if got := sup.State(); got != StateShuttingDown {
		t.Errorf("state = %q, want %q (no restart after Stop)", got, StateShuttingDown)
	}
}

func TestSupervisor_StopBeforeStart(t *testing.T) {
	client := NewClient("127.0.0.1:1", time.Second)
	sup := NewSupervisor(client, NewStore(), 20*time.Millisecond, nil)

	sup.Stop() // must not block with no loop running
	sup.Start(context.Background())

	if got := sup.State(); got == StateConnecting || got == StateConnected {
		t.Errorf("supervisor started after Stop, state = %q", got)
	}
}

func TestSupervisor_OnApplyFiresForSeedAndStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"brightness": 100}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler("data: {\"brightness\": 50}\n\n"))

	sup, _ := newSupervisorForServer(t, mux)

	var mu sync.Mutex
	var applied []Snapshot
	sup.SetOnApply(func(snap Snapshot) {
		mu.Lock()
		applied = append(applied, snap)
		mu.Unlock()
	})

	sup.Start(context.Background())
	defer sup.Stop()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(applied) >= 2
	})

	mu.Lock()
	defer mu.Unlock()
	if applied[0]["brightness"] != float64(100) {
		t.Errorf("seed apply brightness = %v, want 100", applied[0]["brightness"])
	}
	if applied[1]["brightness"] != float64(50) {
		t.Errorf("stream apply brightness = %v, want 50", applied[1]["brightness"])
	}
}

func TestSupervisor_StateTransitions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", sseHandler())

	sup, _ := newSupervisorForServer(t, mux)

	var mu sync.Mutex
	var transitions []State
	sup.SetOnStateChange(func(s State) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	})

	sup.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool {
		return sup.State() == StateConnected
	})
	sup.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) < 2 {
		t.Fatalf("transitions = %v, want at least connecting and connected", transitions)
	}
	if transitions[0] != StateConnecting {
		t.Errorf("first transition = %q, want %q", transitions[0], StateConnecting)
	}
	if transitions[len(transitions)-1] != StateShuttingDown {
		t.Errorf("last transition = %q, want %q", transitions[len(transitions)-1], StateShuttingDown)
	}
}
