package handlers

import (
	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	"leadsite/internal/logging"
)

// SideEffect is the result of a non-critical write performed after the
// primary write of a request succeeded. A failed SideEffect is logged and
// counted; it never changes the response.
type SideEffect struct {
	EventType string
	Err       error
}

// Failed reports whether the write did not happen.
func (s SideEffect) Failed() bool { return s.Err != nil }

// recordEvent inserts an analytics row describing a completed submission,
// stamped with the caller's address and user agent.
func recordEvent(ctx *fasthttp.RequestCtx, gw dbpkg.Gateway, cfg *config.Config, eventType string, data map[string]any) SideEffect {
	ev := &dbpkg.AnalyticsEvent{
		EventType: eventType,
		EventData: datatypes.JSONMap(data),
		IPAddress: clientIP(ctx, cfg),
		UserAgent: userAgent(ctx),
	}

	res := SideEffect{EventType: eventType, Err: gw.Insert(ctx, ev)}
	if res.Failed() {
		sideEffectFailuresTotal.WithLabelValues(eventType).Inc()
		logging.Warn().
			Err(res.Err).
			Str("event_type", eventType).
			Msg("analytics side effect failed")
	}
	return res
}
