package services

import (
	"strings"

	"ghostsignal/internal/config"
)

// NetworkGate classifies the network context this instance serves. It is a
// pure predicate over configuration: anonymized when the advertised host
// carries the anonymity-network suffix, or when the override is set for
// testing. No I/O, cheap enough to consult on every gated action.
type NetworkGate struct {
	host     string
	suffix   string
	override bool
}

func NewNetworkGate(cfg config.NetConfig) *NetworkGate {
	return &NetworkGate{
		host:     cfg.Host,
		suffix:   cfg.AnonSuffix,
		override: cfg.ForceAnonymized,
	}
}

func (g *NetworkGate) Anonymized() bool {
	if g.override {
		return true
	}
	return g.suffix != "" && strings.HasSuffix(g.host, g.suffix)
}
