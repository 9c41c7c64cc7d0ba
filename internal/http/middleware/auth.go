package middleware

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	dbpkg "leadsite/internal/db"
	httpctx "leadsite/internal/http/ctx"
	"leadsite/internal/logging"
	"leadsite/internal/session"
)

// Credentials returns the session token from the session cookie or,
// failing that, from an "Authorization: Bearer" header.
func Credentials(ctx *fasthttp.RequestCtx) string {
	if c := ctx.Request.Header.Cookie(session.CookieName); len(c) > 0 {
		return string(c)
	}

	auth := ctx.Request.Header.Peek("Authorization")
	const prefix = "Bearer "
	if !bytes.HasPrefix(auth, []byte(prefix)) {
		return ""
	}
	return strings.TrimSpace(string(auth[len(prefix):]))
}

// RequireUser resolves the caller through gw.CurrentUser and answers 401
// before next runs when there is no authenticated user.
func RequireUser(gw dbpkg.Gateway) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			user, err := gw.CurrentUser(ctx, Credentials(ctx))
			if err != nil {
				logging.Error().Err(err).Str("path", string(ctx.Path())).Msg("auth check failed")
			}
			if user == nil {
				writeError(ctx, fasthttp.StatusUnauthorized, "Unauthorized")
				return
			}

			httpctx.SetUser(ctx, user)
			next(ctx)
		}
	}
}

// LoadUser attaches the caller's user when a valid session is present and
// otherwise lets the request through anonymously.
func LoadUser(gw dbpkg.Gateway) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if token := Credentials(ctx); token != "" {
				user, err := gw.CurrentUser(ctx, token)
				if err != nil {
					logging.Warn().Err(err).Msg("optional auth check failed")
				}
				if user != nil {
					httpctx.SetUser(ctx, user)
				}
			}
			next(ctx)
		}
	}
}

func writeError(ctx *fasthttp.RequestCtx, code int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
