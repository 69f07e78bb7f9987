// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package rmetrics instruments the router driver with Prometheus
// metrics: total Route duration, builders produced per call, per-
// strategy dispatch counts, and freshness-path fallback counts, per
// SPEC_FULL.md §5's expansion. Observability only — nothing here
// influences control flow, preserving the determinism property of
// spec.md §8.
//
// Grounded on internal/metrics/prometheus/prometheus.go's private
// *prometheus.Registry wrapped by a small Provider struct, and
// plugins/status/metrics.go's package-level NewCounterVec/GaugeVec
// declarations.
package rmetrics

import (
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider owns a private Prometheus registry so embedding applications
// can mount it under their own metrics endpoint without colliding with
// the global default registry.
type Provider struct {
	registry *prometheus.Registry

	routeDuration     prometheus.Histogram
	buildersProduced  prometheus.Histogram
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	strategyDispatch  *prometheus.CounterVec
	freshnessFallback prometheus.Counter
}

// NewProvider returns a Provider with its collectors registered against
// a fresh, private registry.
func NewProvider() *Provider {
	registry := prometheus.NewRegistry()

	p := &Provider{
		registry: registry,
		routeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "router_route_duration_seconds",
			Help:    "A histogram of Route() call durations.",
			Buckets: prometheus.DefBuckets,
		}),
		buildersProduced: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "router_builders_produced",
			Help:    "A histogram of the number of plan builders a Route() call produced.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_scancache_hits_total",
			Help: "Count of joined-scan cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_scancache_misses_total",
			Help: "Count of joined-scan cache misses.",
		}),
		strategyDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_strategy_dispatch_total",
			Help: "Count of placement strategy dispatches, by strategy name.",
		}, []string{"strategy"}),
		freshnessFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "router_freshness_fallback_total",
			Help: "Count of scans that fell back from the freshness path to the lock path.",
		}),
	}

	registry.MustRegister(
		p.routeDuration,
		p.buildersProduced,
		p.cacheHits,
		p.cacheMisses,
		p.strategyDispatch,
		p.freshnessFallback,
	)
	return p
}

// Gather returns the currently registered metric families.
func (p *Provider) Gather() ([]*dto.MetricFamily, error) {
	return p.registry.Gather()
}

// ObserveRouteStart starts timing one Route() call; the returned func
// must be called (typically via defer) when the call returns.
func (p *Provider) ObserveRouteStart() func() {
	start := time.Now()
	return func() {
		p.routeDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveBuildersProduced records how many plan builders one Route()
// call returned.
func (p *Provider) ObserveBuildersProduced(n int) {
	p.buildersProduced.Observe(float64(n))
}

// ObserveCacheHit/ObserveCacheMiss record scan-cache outcomes. Provider
// satisfies scancache.Observer implicitly; router.New wires a Router's
// *scancache.Cache to call these directly via Cache.SetObserver, so no
// caller needs to invoke them by hand.
func (p *Provider) ObserveCacheHit()  { p.cacheHits.Inc() }
func (p *Provider) ObserveCacheMiss() { p.cacheMisses.Inc() }

// ObserveStrategyDispatch records one dispatch to the named placement
// strategy.
func (p *Provider) ObserveStrategyDispatch(name string) {
	p.strategyDispatch.WithLabelValues(name).Inc()
}

// ObserveFreshnessFallback records one scan falling back from the
// freshness path to the lock path.
func (p *Provider) ObserveFreshnessFallback() {
	p.freshnessFallback.Inc()
}
