package wordclock

import "errors"

// Sentinel errors for the synchronization core.
//
// Check with errors.Is():
//
//	if errors.Is(err, wordclock.ErrEventMalformed) {
//	    // skip this event, keep reading the stream
//	}
var (
	// ErrConnect indicates the device could not be reached (dial, DNS,
	// timeout) or returned an unusable response to a one-shot request.
	ErrConnect = errors.New("wordclock: connect failed")

	// ErrHandshake indicates the events endpoint answered the stream
	// request with a non-200 status.
	ErrHandshake = errors.New("wordclock: stream handshake rejected")

	// ErrStreamRead indicates an established stream failed mid-read.
	ErrStreamRead = errors.New("wordclock: stream read failed")

	// ErrMutationFailed indicates the device rejected or never received a
	// state mutation. The local snapshot is left untouched.
	ErrMutationFailed = errors.New("wordclock: mutation failed")

	// ErrEventMalformed indicates a single stream event carried an
	// undecodable payload. The event is discarded; the stream continues.
	ErrEventMalformed = errors.New("wordclock: malformed event")
)
