package handlers

import (
	"bytes"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	"leadsite/internal/logging"
)

// MetricsHandler serves the gathered metrics in the Prometheus text format.
// With ?form=, series carrying a "form" label are narrowed to that form;
// families without the label are always included.
func MetricsHandler(g prometheus.Gatherer) fasthttp.RequestHandler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		metricFamilies, err := g.Gather()
		if err != nil {
			logging.Error().Err(err).Msg("metrics gather failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to gather metrics")
			return
		}

		if form := string(ctx.QueryArgs().Peek("form")); form != "" {
			metricFamilies = filterByLabel(metricFamilies, "form", form)
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range metricFamilies {
			if err := encoder.Encode(mf); err != nil {
				logging.Error().Err(err).Str("family", mf.GetName()).Msg("metrics encode failed")
				errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.NewFormat(expfmt.TypeTextPlain)))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}

func filterByLabel(families []*dto.MetricFamily, name, value string) []*dto.MetricFamily {
	filtered := make([]*dto.MetricFamily, 0, len(families))
	for _, mf := range families {
		if !hasLabel(mf, name) {
			filtered = append(filtered, mf)
			continue
		}

		var kept []*dto.Metric
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == name && l.GetValue() == value {
					kept = append(kept, m)
					break
				}
			}
		}
		if len(kept) == 0 {
			continue
		}

		filtered = append(filtered, &dto.MetricFamily{
			Name:   mf.Name,
			Help:   mf.Help,
			Type:   mf.Type,
			Metric: kept,
		})
	}
	return filtered
}

func hasLabel(mf *dto.MetricFamily, name string) bool {
	for _, m := range mf.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == name {
				return true
			}
		}
	}
	return false
}
