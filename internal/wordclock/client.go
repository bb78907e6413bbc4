package wordclock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the HTTP transport for one WordClock device.
//
// All three request types share one underlying *http.Client. The client
// carries no global timeout: one-shot requests are bounded by per-request
// contexts, while the event stream must be allowed to stay open for hours.
type Client struct {
	host           string
	httpClient     *http.Client
	requestTimeout time.Duration
}

// NewClient creates a transport for the device at host (hostname or IP,
// optionally with a port). requestTimeout bounds snapshot fetches and
// mutations; it does not apply to the event stream.
func NewClient(host string, requestTimeout time.Duration) *Client {
	return &Client{
		host:           host,
		httpClient:     &http.Client{},
		requestTimeout: requestTimeout,
	}
}

// Host returns the device address this client talks to.
func (c *Client) Host() string {
	return c.host
}

func (c *Client) url(path string) string {
	return "http://" + c.host + path
}

// FetchSnapshot retrieves the device's complete current state.
//
// Parameters:
//   - ctx: Context for cancellation; the request is additionally bounded
//     by the configured request timeout
//
// Returns:
//   - Snapshot: The full state object as reported by the device
//   - error: Wrapping ErrConnect on network failure, non-200 status, or
//     an undecodable body
func (c *Client) FetchSnapshot(ctx context.Context) (Snapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.url("/status"), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building status request: %w", ErrConnect, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching status: %w", ErrConnect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status endpoint returned %d", ErrConnect, resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: decoding status body: %w", ErrConnect, err)
	}

	return snap, nil
}

// ApplyMutation sends a partial state update to the device.
//
// The call is fire-and-confirm: a 200 response means the device accepted
// the change and will broadcast it on the event stream. There is no
// internal retry; callers decide whether to resubmit.
//
// Parameters:
//   - ctx: Context for cancellation; bounded by the request timeout
//   - fields: The fields to change (already validated by the caller)
//
// Returns:
//   - error: Wrapping ErrMutationFailed on network failure or non-200
func (c *Client) ApplyMutation(ctx context.Context, fields Snapshot) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("%w: encoding fields: %w", ErrMutationFailed, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url("/update"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building update request: %w", ErrMutationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting update: %w", ErrMutationFailed, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: update endpoint returned %d", ErrMutationFailed, resp.StatusCode)
	}

	return nil
}

// OpenStream opens the device's event stream and returns its body for
// the caller to consume. The read is unbounded; cancelling ctx aborts
// an in-flight read and closes the connection.
//
// Returns:
//   - io.ReadCloser: The raw SSE body; the caller owns closing it
//   - error: Wrapping ErrConnect if the device is unreachable, or
//     ErrHandshake if it answered with a non-200 status
func (c *Client) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/events"), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building stream request: %w", ErrConnect, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: opening stream: %w", ErrConnect, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: events endpoint returned %d", ErrHandshake, resp.StatusCode)
	}

	return resp.Body, nil
}
