// Package health aggregates liveness probes of the downstream AI services.
package health

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

const (
	StatusHealthy = "healthy"
	StateUp       = "up"
	StateDown     = "down"
)

// Prober reports whether a backend is alive. Implementations bound themselves
// by their own probe timeout and never return an error.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Target binds a prober to the key it is reported under.
type Target struct {
	Key     string
	Service string
	Prober  Prober
}

type ServiceStatus struct {
	Status string `json:"status"`
}

// Status is the composite health document. The relay reports itself healthy
// whenever it can answer; backend state lives in AIServers.
type Status struct {
	Status      string                   `json:"status"`
	RelayServer string                   `json:"relayServer"`
	AIServers   map[string]ServiceStatus `json:"aiServers"`
}

// Down returns the keys of backends that failed their probe.
func (s Status) Down() []string {
	var keys []string
	for k, v := range s.AIServers {
		if v.Status == StateDown {
			keys = append(keys, k)
		}
	}
	return keys
}

type Aggregator struct {
	targets []Target
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewAggregator(targets []Target, metrics *telemetry.Metrics, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		targets: append([]Target(nil), targets...),
		metrics: metrics,
		logger:  logger,
	}
}

// Check probes every target concurrently and waits for all of them.
func (a *Aggregator) Check(ctx context.Context) Status {
	results := make([]bool, len(a.targets))

	var g errgroup.Group
	for i, t := range a.targets {
		g.Go(func() error {
			results[i] = a.probe(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	st := Status{
		Status:      StatusHealthy,
		RelayServer: StateUp,
		AIServers:   make(map[string]ServiceStatus, len(a.targets)),
	}
	for i, t := range a.targets {
		state := StateDown
		if results[i] {
			state = StateUp
		}
		st.AIServers[t.Key] = ServiceStatus{Status: state}
		if a.metrics != nil {
			a.metrics.RecordProbe(t.Service, results[i])
		}
	}
	return st
}

func (a *Aggregator) probe(ctx context.Context, t Target) (up bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "health probe panicked", "service", t.Service, "panic", r)
			up = false
		}
	}()
	return t.Prober.Probe(ctx)
}
