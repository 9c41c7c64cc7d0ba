package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"gorm.io/datatypes"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	httpctx "leadsite/internal/http/ctx"
	"leadsite/internal/validate"
)

const formAnalytics = "analytics"

type trackRequest struct {
	EventType string         `json:"event_type" validate:"required,max=128" label:"event type"`
	EventData map[string]any `json:"event_data"`
	SessionID string         `json:"session_id" validate:"max=128" label:"session ID"`
}

// TrackEvent records one client-side analytics event. Authentication is
// optional; a signed-in caller's user ID is attached to the row.
func TrackEvent(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req trackRequest
		if !decodeBody(ctx, &req) {
			return
		}

		req.EventType = validate.Trim(req.EventType)
		req.SessionID = validate.Trim(req.SessionID)
		if err := validate.Struct(&req); err != nil {
			validationFailed(ctx, formAnalytics, err)
			return
		}

		data := datatypes.JSONMap{}
		for k, v := range req.EventData {
			data[k] = v
		}

		ev := &dbpkg.AnalyticsEvent{
			EventType: req.EventType,
			EventData: data,
			SessionID: optional(req.SessionID),
			IPAddress: clientIP(ctx, cfg),
			UserAgent: userAgent(ctx),
		}
		if user, ok := httpctx.UserFromCtx(ctx); ok {
			id := strconv.FormatUint(uint64(user.ID), 10)
			ev.UserID = &id
		}

		start := time.Now()
		err := gw.Insert(ctx, ev)
		observePersist(formAnalytics, start)
		if err != nil {
			persistFailure(err, "analytics insertion failed")
			submissionsTotal.WithLabelValues(formAnalytics, outcomeError).Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to track event")
			return
		}

		submissionsTotal.WithLabelValues(formAnalytics, outcomeCreated).Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{"message": "Event tracked successfully"})
	}
}

// ListEvents returns recent analytics events, newest first, optionally
// filtered by ?event_type= and capped by ?limit=.
//
// Any signed-in user can read every event; there is no per-user scoping.
func ListEvents(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		q := dbpkg.Query{OrderBy: dbpkg.NewestFirst, Limit: analyticsLimit(ctx, cfg)}
		if et := validate.Trim(string(ctx.QueryArgs().Peek("event_type"))); et != "" {
			q.Filter = dbpkg.Filter{"event_type": et}
		}

		rows := []dbpkg.AnalyticsEvent{}
		if err := gw.Select(ctx, &rows, q); err != nil {
			persistFailure(err, "analytics fetch failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to fetch analytics")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"data": rows})
	}
}

// EventSummarizer aggregates analytics events by type.
type EventSummarizer interface {
	EventCounts(ctx context.Context, since time.Time) ([]dbpkg.EventCount, error)
}

// EventSummary returns per-type event counts since ?hours= / ?days= (default 24h).
func EventSummary(s EventSummarizer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		since := parseRange(ctx, time.Now())
		counts, err := s.EventCounts(ctx, since)
		if err != nil {
			persistFailure(err, "analytics summary failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to fetch analytics summary")
			return
		}
		if counts == nil {
			counts = []dbpkg.EventCount{}
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"since": since.UTC().Format(time.RFC3339),
			"data":  counts,
		})
	}
}

func analyticsLimit(ctx *fasthttp.RequestCtx, cfg *config.Config) int {
	limit, maxLimit := 100, 1000
	if cfg != nil {
		limit, maxLimit = cfg.AnalyticsDefaultLimit, cfg.AnalyticsMaxLimit
	}
	if s := string(ctx.QueryArgs().Peek("limit")); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return limit
}
