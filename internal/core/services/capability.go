package services

import (
	"context"
	"os"
	"time"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/logger"
)

// probeTimeout bounds a single capability probe.
const probeTimeout = 3 * time.Second

// CapabilityProbe reports whether one optional feature is available.
type CapabilityProbe func(ctx context.Context) bool

// EnvProbe returns a probe that checks for a non-empty environment
// variable.
func EnvProbe(key string) CapabilityProbe {
	return func(context.Context) bool {
		return os.Getenv(key) != ""
	}
}

// StaticProbe returns a probe with a fixed answer, for facts known at
// construction time (e.g. which store adapter was chosen).
func StaticProbe(value bool) CapabilityProbe {
	return func(context.Context) bool {
		return value
	}
}

// PingProbe returns a probe that checks reachability of a service
// exposing a Ping method, with a short timeout.
func PingProbe(p interface {
	Ping(ctx context.Context) error
}) CapabilityProbe {
	return func(ctx context.Context) bool {
		pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		return p.Ping(pingCtx) == nil
	}
}

// DetectCapabilities runs every probe once and returns the immutable
// snapshot. Called once at startup; the result is passed explicitly to
// whatever needs it and never consulted by the pipeline itself.
func DetectCapabilities(ctx context.Context, probes map[string]CapabilityProbe) domain.Capabilities {
	caps := make(domain.Capabilities, len(probes))
	for name, probe := range probes {
		caps[name] = probe(ctx)
		logger.Debug("Capability %s: %v", name, caps[name])
	}
	return caps
}
