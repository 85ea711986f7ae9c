// Package metrics exposes Prometheus collectors for resolutions and site
// configuration loads.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/blakewilliams/sitehop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts resolutions by detected origin site
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehop_resolutions_total",
			Help: "Total number of resolved URLs",
		},
		[]string{"site"},
	)

	// CandidatesTotal counts produced candidates by target site and outcome
	CandidatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehop_candidates_total",
			Help: "Total number of candidates built per target site",
		},
		[]string{"site", "active"},
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitehop_resolve_duration_seconds",
			Help:    "Time spent resolving a URL into candidates",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
	)

	// ConfigLoadsTotal counts site configuration loads by source and result
	ConfigLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitehop_config_loads_total",
			Help: "Total number of site configuration loads",
		},
		[]string{"source", "result"},
	)

	SitesConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitehop_sites_configured",
			Help: "Number of sites in the active configuration",
		},
	)
)

// AddResolveHook records every resolve emitted by server.
func AddResolveHook(server *sitehop.Server) {
	server.Notifier.Around(sitehop.EventResolve, func(ctx context.Context, f func(ctx context.Context)) {
		start := time.Now()
		f(ctx)
		ResolveDuration.Observe(time.Since(start).Seconds())

		resolution := sitehop.ResolutionFromContext(ctx)
		if resolution == nil {
			return
		}

		ResolutionsTotal.WithLabelValues(resolution.Site).Inc()
		for _, candidate := range resolution.Candidates {
			CandidatesTotal.WithLabelValues(candidate.ID, strconv.FormatBool(candidate.Active)).Inc()
		}
	})
}

func RecordConfigLoad(source string, sites int, err error) {
	if err != nil {
		ConfigLoadsTotal.WithLabelValues(source, "error").Inc()
		return
	}

	ConfigLoadsTotal.WithLabelValues(source, "success").Inc()
	SitesConfigured.Set(float64(sites))
}
