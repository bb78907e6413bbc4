package wordclock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/config"
)

func newTestCoordinator(t *testing.T, handler http.Handler) *Coordinator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewCoordinator(config.ClockConfig{
		Host:           strings.TrimPrefix(srv.URL, "http://"),
		Name:           "Test Clock",
		ID:             "test-clock",
		RequestTimeout: 2,
		ReconnectDelay: 1,
	}, nil)
}

func TestNewCoordinator_GeneratesClockID(t *testing.T) {
	coord := NewCoordinator(config.ClockConfig{
		Host:           "localhost",
		RequestTimeout: 1,
		ReconnectDelay: 1,
	}, nil)

	if coord.ClockID() == "" {
		t.Error("expected generated clock id for empty config")
	}

	other := NewCoordinator(config.ClockConfig{
		Host:           "localhost",
		ID:             "kitchen",
		RequestTimeout: 1,
		ReconnectDelay: 1,
	}, nil)
	if other.ClockID() != "kitchen" {
		t.Errorf("clock id = %q, want configured %q", other.ClockID(), "kitchen")
	}
}

func TestCoordinator_RequestMutation(t *testing.T) {
	var updates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/update", func(w http.ResponseWriter, _ *http.Request) {
		updates.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	coord := newTestCoordinator(t, mux)

	ok := coord.RequestMutation(context.Background(), Snapshot{"brightness": 200})
	if !ok {
		t.Fatal("expected mutation to succeed")
	}
	if updates.Load() != 1 {
		t.Errorf("update requests = %d, want 1", updates.Load())
	}

	// Accepted mutation is applied optimistically.
	snap, exists := coord.Snapshot()
	if !exists {
		t.Fatal("expected snapshot after optimistic apply")
	}
	if snap["brightness"] != 200 {
		t.Errorf("brightness = %v, want 200", snap["brightness"])
	}
}

func TestCoordinator_RequestMutation_NothingValid(t *testing.T) {
	var updates atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/update", func(w http.ResponseWriter, _ *http.Request) {
		updates.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	coord := newTestCoordinator(t, mux)

	ok := coord.RequestMutation(context.Background(), Snapshot{
		"brightness": 999,
		"bogus":      "value",
	})
	if ok {
		t.Error("expected false when no field is valid")
	}
	if updates.Load() != 0 {
		t.Errorf("update requests = %d, want 0 (no request without valid fields)", updates.Load())
	}
}

func TestCoordinator_RequestMutation_InvalidFieldsDropped(t *testing.T) {
	bodyCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/update", func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		bodyCh <- string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})

	coord := newTestCoordinator(t, mux)

	ok := coord.RequestMutation(context.Background(), Snapshot{
		"brightness": 100,
		"red":        999,
	})
	if !ok {
		t.Fatal("expected mutation to succeed on the valid subset")
	}

	body := <-bodyCh
	if !strings.Contains(body, `"brightness":100`) {
		t.Errorf("body = %q, want brightness", body)
	}
	if strings.Contains(body, "red") {
		t.Errorf("body = %q, invalid field must not be sent", body)
	}
}

func TestCoordinator_RequestMutation_DeviceRejects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/update", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	coord := newTestCoordinator(t, mux)

	ok := coord.RequestMutation(context.Background(), Snapshot{"brightness": 100})
	if ok {
		t.Error("expected false when device rejects")
	}

	// Snapshot untouched on failure.
	if _, exists := coord.Snapshot(); exists {
		t.Error("expected no snapshot after rejected mutation")
	}
}

func TestCoordinator_OnChange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/update", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	coord := newTestCoordinator(t, mux)

	var received Snapshot
	sub := coord.OnChange(func(s Snapshot) { received = s })
	defer sub.Unsubscribe()

	coord.RequestMutation(context.Background(), Snapshot{"enabled": true})

	if received == nil {
		t.Fatal("expected change notification")
	}
	if received["enabled"] != true {
		t.Errorf("enabled = %v, want true", received["enabled"])
	}
}

func TestCoordinator_StartStop(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"brightness": 30}`)) //nolint:errcheck
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	coord := newTestCoordinator(t, mux)
	coord.Start(context.Background())

	snap, ok := coord.Snapshot()
	if !ok {
		t.Fatal("expected snapshot after Start")
	}
	if snap["brightness"] != float64(30) {
		t.Errorf("brightness = %v, want 30", snap["brightness"])
	}

	coord.Stop()
	coord.Stop() // idempotent
	if got := coord.State(); got != StateShuttingDown {
		t.Errorf("state = %q, want %q", got, StateShuttingDown)
	}
}
