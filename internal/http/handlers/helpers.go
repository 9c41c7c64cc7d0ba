package handlers

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	httpctx "leadsite/internal/http/ctx"
	"leadsite/internal/logging"
	"leadsite/internal/validate"
)

// MustUser returns the current user from context, or sends 401 and returns (nil, false).
func MustUser(ctx *fasthttp.RequestCtx) (*dbpkg.User, bool) {
	user, ok := httpctx.UserFromCtx(ctx)
	if !ok {
		errResponse(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

func jsonResponse(ctx *fasthttp.RequestCtx, code int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

func errResponse(ctx *fasthttp.RequestCtx, code int, msg string) {
	jsonResponse(ctx, code, map[string]string{"error": msg})
}

// decodeBody unmarshals the JSON request body into v, answering 400 on failure.
func decodeBody(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		errResponse(ctx, fasthttp.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// validationFailed answers 400 with the message of a *validate.ValidationError.
func validationFailed(ctx *fasthttp.RequestCtx, form string, err error) {
	submissionsTotal.WithLabelValues(form, outcomeInvalid).Inc()
	errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
}

// clientIP is the caller's address: the first X-Forwarded-For hop when the
// service runs behind a trusted proxy, the socket peer otherwise.
func clientIP(ctx *fasthttp.RequestCtx, cfg *config.Config) string {
	if cfg != nil && cfg.TrustProxy {
		if xff := string(ctx.Request.Header.Peek("X-Forwarded-For")); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return clamp(ip, dbpkg.IPAddressWidth)
			}
		}
	}
	return ctx.RemoteIP().String()
}

func userAgent(ctx *fasthttp.RequestCtx) string {
	return clamp(string(ctx.UserAgent()), dbpkg.UserAgentWidth)
}

// clamp cuts s to at most n bytes without splitting a UTF-8 sequence.
func clamp(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// optional trims s and returns nil when nothing is left.
func optional(s string) *string {
	s = validate.Trim(s)
	if s == "" {
		return nil
	}
	return &s
}

// persistFailure logs a datastore error with its classification.
func persistFailure(err error, msg string) {
	ev := logging.Error().Err(err)
	var pe *dbpkg.PersistenceError
	if errors.As(err, &pe) {
		ev = ev.Str("table", pe.Table).Str("code", pe.Code).Str("class", pe.Class.String())
	}
	ev.Msg(msg)
}
