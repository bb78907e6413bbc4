package mqtt

import "testing"

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"state", topics.State("kitchen"), "wordclock/kitchen/state"},
		{"set", topics.Set("kitchen"), "wordclock/kitchen/set"},
		{"availability", topics.Availability("kitchen"), "wordclock/kitchen/availability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
