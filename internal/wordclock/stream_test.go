package wordclock

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDecoder_SingleEvent(t *testing.T) {
	input := "event: state\ndata: {\"brightness\": 128}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	event, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Type != "state" {
		t.Errorf("event type = %q, want %q", event.Type, "state")
	}
	if got := event.Fields["brightness"]; got != float64(128) {
		t.Errorf("brightness = %v, want 128", got)
	}

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after last event, got %v", err)
	}
}

func TestDecoder_MultipleEvents(t *testing.T) {
	input := "data: {\"brightness\": 10}\n\n" +
		"event: state\ndata: {\"enabled\": true}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	first, err := dec.Next()
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if first.Type != "" {
		t.Errorf("first event type = %q, want empty", first.Type)
	}
	if got := first.Fields["brightness"]; got != float64(10) {
		t.Errorf("brightness = %v, want 10", got)
	}

	second, err := dec.Next()
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if second.Type != "state" {
		t.Errorf("second event type = %q, want %q", second.Type, "state")
	}
	if got := second.Fields["enabled"]; got != true {
		t.Errorf("enabled = %v, want true", got)
	}
}

func TestDecoder_LatestDataLineWins(t *testing.T) {
	input := "data: {\"brightness\": 1}\ndata: {\"brightness\": 2}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	event, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := event.Fields["brightness"]; got != float64(2) {
		t.Errorf("brightness = %v, want 2 (latest data line)", got)
	}
}

func TestDecoder_MalformedEventSkippable(t *testing.T) {
	input := "data: {not json\n\n" +
		"data: {\"brightness\": 42}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	_, err := dec.Next()
	if !errors.Is(err, ErrEventMalformed) {
		t.Fatalf("expected ErrEventMalformed, got %v", err)
	}

	// Decoder stays usable after a malformed frame.
	event, err := dec.Next()
	if err != nil {
		t.Fatalf("Next after malformed: %v", err)
	}
	if got := event.Fields["brightness"]; got != float64(42) {
		t.Errorf("brightness = %v, want 42", got)
	}
}

func TestDecoder_KeepAliveIgnored(t *testing.T) {
	input := ":keepalive\n\n\n" +
		"data: {\"enabled\": false}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	event, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got := event.Fields["enabled"]; got != false {
		t.Errorf("enabled = %v, want false", got)
	}
}

func TestDecoder_EventTypeDoesNotLeakAcrossFrames(t *testing.T) {
	input := "event: state\n\n" + // keep-alive frame with a type but no data
		"data: {\"brightness\": 5}\n\n"
	dec := NewDecoder(strings.NewReader(input))

	event, err := dec.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if event.Type != "" {
		t.Errorf("event type = %q, want empty (reset at frame boundary)", event.Type)
	}
}

func TestDecoder_TrailingPartialFrameDropped(t *testing.T) {
	input := "data: {\"brightness\": 7}" // no terminator
	dec := NewDecoder(strings.NewReader(input))

	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF for unterminated frame, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestDecoder_ReadError(t *testing.T) {
	dec := NewDecoder(failingReader{})

	_, err := dec.Next()
	if !errors.Is(err, ErrStreamRead) {
		t.Errorf("expected ErrStreamRead, got %v", err)
	}
}
