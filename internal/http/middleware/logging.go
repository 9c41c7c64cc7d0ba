package middleware

import (
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	httpctx "leadsite/internal/http/ctx"
	"leadsite/internal/logging"
)

// RequestLogger logs method, path, status, duration and peer address for
// every request, tagging it with a request ID echoed in X-Request-ID.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		reqID := string(ctx.Request.Header.Peek("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		httpctx.SetRequestID(ctx, reqID)
		ctx.Response.Header.Set("X-Request-ID", reqID)

		next(ctx)

		logging.Info().
			Str("request_id", reqID).
			Bytes("method", ctx.Method()).
			Bytes("path", ctx.Path()).
			Int("status", ctx.Response.StatusCode()).
			Dur("duration", time.Since(start)).
			Str("ip", ctx.RemoteIP().String()).
			Msg("request")
	}
}

// Recover converts a panic in next into a generic 500 and logs the stack.
func Recover(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error().
					Str("request_id", httpctx.RequestIDFromCtx(ctx)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")
				ctx.Response.Reset()
				writeError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			}
		}()
		next(ctx)
	}
}
