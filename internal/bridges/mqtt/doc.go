// Package mqtt bridges the clock's mirrored state onto an MQTT broker.
//
// It is a presentation adapter on top of the synchronization core: every
// snapshot change is published as retained JSON to the clock's state
// topic, availability is maintained on a retained availability topic
// (with a broker-side LWT covering crashes), and commands arriving on
// the set topic are translated into state mutations.
//
// Topic layout:
//
//	wordclock/{clock_id}/state         retained snapshot JSON
//	wordclock/{clock_id}/set           command payloads (JSON)
//	wordclock/{clock_id}/availability  "online"/"offline", retained
//
// Command payloads are partial snapshots. A "state" key of "ON"/"OFF"
// is additionally understood for light-style consumers: OFF maps to
// brightness 0, ON without an explicit brightness maps to the default
// on-brightness of 128.
package mqtt
