package handlers

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
)

const (
	outcomeCreated  = "created"
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadsite",
			Name:      "submissions_total",
			Help:      "Form and analytics submissions by form and outcome.",
		},
		[]string{"form", "outcome"},
	)
	sideEffectFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leadsite",
			Name:      "side_effect_failures_total",
			Help:      "Follow-up analytics writes that failed after a successful primary write.",
		},
		[]string{"event_type"},
	)
	persistDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leadsite",
			Name:      "persist_duration_seconds",
			Help:      "Latency of the primary datastore write of each submission.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"form"},
	)

	registerOnce sync.Once
)

// InitPrometheusMetrics registers the handler collectors with the default registry.
func InitPrometheusMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(submissionsTotal, sideEffectFailuresTotal, persistDuration)
	})
}

func observePersist(form string, start time.Time) {
	persistDuration.WithLabelValues(form).Observe(time.Since(start).Seconds())
}

// parseRange reads "hours" (float, e.g. 0.5 or 1) or "days" (int) from the query
// and returns the cutoff time. Without either, the cutoff is 24 hours ago.
func parseRange(ctx *fasthttp.RequestCtx, now time.Time) time.Time {
	if h := string(ctx.QueryArgs().Peek("hours")); h != "" {
		if f, err := strconv.ParseFloat(h, 64); err == nil && f > 0 {
			return now.Add(-time.Duration(f * float64(time.Hour)))
		}
	}
	days := 1
	if d := string(ctx.QueryArgs().Peek("days")); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			days = n
		}
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
