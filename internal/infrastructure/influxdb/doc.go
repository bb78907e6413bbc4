// Package influxdb provides time-series telemetry for the WordClock bridge.
//
// It records three measurement families:
//   - clock_state: numeric snapshot fields (brightness, colour channels)
//   - connection_events: supervisor state transitions for stream stability
//   - mutations: outcome and latency of state change requests
//
// Writes are batched and non-blocking; failures are delivered through an
// error callback rather than return values. Telemetry is optional and the
// bridge runs fine with it disabled (Connect returns ErrDisabled).
package influxdb
