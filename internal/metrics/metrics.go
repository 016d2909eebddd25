// Package metrics exposes store and cache activity as Prometheus collectors.
package metrics

import (
	"context"

	"github.com/aretw0/todos/pkg/caching"
	"github.com/aretw0/todos/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors. Wire them in with StoreHooks and CacheHooks.
type Metrics struct {
	actions    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	effects    *prometheus.CounterVec
	saves      *prometheus.CounterVec
	skips      *prometheus.CounterVec
	saveErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_actions_total",
				Help: "Total number of actions processed by a store",
			},
			[]string{"store", "action"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todos_dispatch_duration_seconds",
				Help:    "Time spent in the reducer per action",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
			},
			[]string{"store"},
		),
		effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_effects_total",
				Help: "Total number of effects scheduled, by kind",
			},
			[]string{"store", "kind"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_cache_saves_total",
				Help: "Total number of state snapshots written",
			},
			[]string{"key"},
		),
		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_cache_skips_total",
				Help: "Total number of dispatches whose state was a duplicate",
			},
			[]string{"key"},
		),
		saveErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todos_cache_errors_total",
				Help: "Total number of failed state writes",
			},
			[]string{"key"},
		),
	}

	for _, c := range []prometheus.Collector{m.actions, m.duration, m.effects, m.saves, m.skips, m.saveErrors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// StoreHooks records dispatches and effects.
func (m *Metrics) StoreHooks() store.Hooks {
	return store.Hooks{
		OnDispatch: func(_ context.Context, e store.DispatchEvent) {
			m.actions.WithLabelValues(e.Store, e.Action).Inc()
			m.duration.WithLabelValues(e.Store).Observe(e.Duration.Seconds())
		},
		OnEffect: func(_ context.Context, e store.EffectEvent) {
			m.effects.WithLabelValues(e.Store, e.Kind.String()).Inc()
		},
	}
}

// CacheHooks records saves, skipped duplicates and failures.
func (m *Metrics) CacheHooks() caching.Hooks {
	return caching.Hooks{
		OnSave: func(_ context.Context, key string) {
			m.saves.WithLabelValues(key).Inc()
		},
		OnSkip: func(_ context.Context, key string) {
			m.skips.WithLabelValues(key).Inc()
		},
		OnError: func(_ context.Context, key string, _ error) {
			m.saveErrors.WithLabelValues(key).Inc()
		},
	}
}
