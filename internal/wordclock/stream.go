package wordclock

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxEventSize caps a single stream line. The clock's frames are small
// JSON objects; anything near this size is garbage.
const maxEventSize = 64 * 1024

// Decoder reads Server-Sent-Events frames from a stream body.
//
// It understands the subset of SSE the clock firmware emits: "event:"
// lines set the frame type, "data:" lines carry a single-line JSON
// payload, and a blank line terminates the frame. When a frame carries
// multiple data: lines the latest one wins; the firmware sends one line
// per frame, so multi-line accumulation is deliberately not implemented.
//
// A Decoder holds parser state for exactly one connection. Create a
// fresh one per stream so no partial frame survives a reconnect.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder wraps a stream body in a Decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next complete event from the stream.
//
// Returns:
//   - Event: The decoded frame (type plus JSON payload fields)
//   - error: ErrEventMalformed (wrapped) when a frame's payload is not
//     valid JSON; the decoder remains usable and the caller should skip
//     the frame. io.EOF when the stream ends cleanly. ErrStreamRead
//     (wrapped) when the underlying read fails.
func (d *Decoder) Next() (Event, error) {
	var eventType string
	var data string
	var haveData bool

	for d.scanner.Scan() {
		line := d.scanner.Text()

		switch {
		case line == "":
			// Frame boundary. A boundary with no data: line is a
			// keep-alive; reset and keep reading.
			if !haveData {
				eventType = ""
				continue
			}

			var fields Snapshot
			if err := json.Unmarshal([]byte(data), &fields); err != nil {
				return Event{}, fmt.Errorf("%w: %w", ErrEventMalformed, err)
			}
			return Event{Type: eventType, Fields: fields}, nil

		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))

		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			haveData = true

		default:
			// Comments (":keepalive") and unknown field names are ignored.
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrStreamRead, err)
	}

	// Clean EOF. A trailing partial frame without its blank-line
	// terminator is dropped.
	return Event{}, io.EOF
}
