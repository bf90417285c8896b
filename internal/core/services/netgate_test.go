package services

import (
	"testing"

	"ghostsignal/internal/config"
)

func TestNetworkGate_Anonymized(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.NetConfig
		want bool
	}{
		{"clearnet host", config.NetConfig{Host: "chat.example.com", AnonSuffix: ".onion"}, false},
		{"onion host", config.NetConfig{Host: "abcdef1234567890.onion", AnonSuffix: ".onion"}, true},
		{"override on clearnet", config.NetConfig{Host: "chat.example.com", AnonSuffix: ".onion", ForceAnonymized: true}, true},
		{"empty host", config.NetConfig{Host: "", AnonSuffix: ".onion"}, false},
		{"empty suffix never matches", config.NetConfig{Host: "abcdef.onion", AnonSuffix: ""}, false},
		{"suffix mid-host does not count", config.NetConfig{Host: "onion.example.com", AnonSuffix: ".onion"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewNetworkGate(tt.cfg)
			if got := gate.Anonymized(); got != tt.want {
				t.Errorf("Anonymized() = %v, want %v", got, tt.want)
			}
		})
	}
}
