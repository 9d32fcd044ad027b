// Package metrics holds the Prometheus collectors reported by the engine.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "varsel"

// Collectors groups the engine's counters. A nil *Collectors records
// nothing.
type Collectors struct {
	Selections   *prometheus.CounterVec
	CacheLookups *prometheus.CounterVec
	Conflicts    *prometheus.CounterVec
	Rounds       prometheus.Histogram
}

// New creates the collectors and registers them with reg. Collectors that
// are already registered with reg are reused, so several engines may share
// one registry. A nil reg returns nil.
func New(reg prometheus.Registerer) (*Collectors, error) {
	if reg == nil {
		return nil, nil
	}

	c := &Collectors{
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Variant selections by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_cache_lookups_total",
			Help:      "Attribute match cache lookups by result.",
		}, []string{"result"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Conflicts seen during resolution by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_rounds",
			Help:      "Breadth-first rounds needed per resolution.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}),
	}

	var err error
	if c.Selections, err = register(reg, c.Selections); err != nil {
		return nil, err
	}
	if c.CacheLookups, err = register(reg, c.CacheLookups); err != nil {
		return nil, err
	}
	if c.Conflicts, err = register(reg, c.Conflicts); err != nil {
		return nil, err
	}
	if c.Rounds, err = register(reg, c.Rounds); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Selection counts one selection outcome.
func (c *Collectors) Selection(outcome string) {
	if c == nil {
		return
	}
	c.Selections.WithLabelValues(outcome).Inc()
}

// CacheLookup counts one match cache lookup.
func (c *Collectors) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// Conflict counts one conflict of kind ("module" or "capability").
func (c *Collectors) Conflict(kind string, resolved bool) {
	if c == nil {
		return
	}
	outcome := "unresolved"
	if resolved {
		outcome = "resolved"
	}
	c.Conflicts.WithLabelValues(kind, outcome).Inc()
}

// ObserveRounds records how many rounds a resolution took.
func (c *Collectors) ObserveRounds(n int) {
	if c == nil {
		return
	}
	c.Rounds.Observe(float64(n))
}
