package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteClockMetric records a single numeric field from a clock snapshot.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - clockID: Clock identifier (e.g., "kitchen")
//   - field: The state field name (e.g., "brightness", "transitionSpeed")
//   - value: The numeric value observed
//
// Example:
//
//	client.WriteClockMetric("kitchen", "brightness", 128)
func (c *Client) WriteClockMetric(clockID string, field string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"clock_state",
		map[string]string{
			"clock_id": clockID,
			"field":    field,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteConnectionEvent records a stream connection state transition.
//
// Tracking these over time shows how stable the clock's SSE endpoint is
// and how often the bridge falls back to reconnect delays.
//
// Parameters:
//   - clockID: Clock identifier
//   - state: The new supervisor state ("connecting", "connected", "disconnected")
func (c *Client) WriteConnectionEvent(clockID string, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_events",
		map[string]string{
			"clock_id": clockID,
			"state":    state,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteMutationResult records the outcome of a state mutation request.
//
// Parameters:
//   - clockID: Clock identifier
//   - success: Whether the clock accepted the mutation
//   - durationMs: Round-trip time of the HTTP request in milliseconds
func (c *Client) WriteMutationResult(clockID string, success bool, durationMs float64) {
	if !c.IsConnected() {
		return
	}

	outcome := "ok"
	if !success {
		outcome = "error"
	}

	point := write.NewPoint(
		"mutations",
		map[string]string{
			"clock_id": clockID,
			"outcome":  outcome,
		},
		map[string]interface{}{
			"duration_ms": durationMs,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
