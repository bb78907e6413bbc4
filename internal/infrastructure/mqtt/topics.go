package mqtt

import "fmt"

// Topic scheme for the WordClock bridge:
//
//	wordclock/{clock_id}/state         — retained JSON snapshot of the clock state
//	wordclock/{clock_id}/set           — partial-state commands to the clock
//	wordclock/{clock_id}/availability  — retained "online"/"offline" marker (LWT)
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "wordclock"
)

// Availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics provides builders for WordClock bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// State returns the retained state topic for a clock.
//
// Example: wordclock/kitchen/state
func (Topics) State(clockID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefix, clockID)
}

// Set returns the command topic for a clock.
//
// Example: wordclock/kitchen/set
func (Topics) Set(clockID string) string {
	return fmt.Sprintf("%s/%s/set", TopicPrefix, clockID)
}

// Availability returns the availability topic for a clock.
//
// Example: wordclock/kitchen/availability
func (Topics) Availability(clockID string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefix, clockID)
}
