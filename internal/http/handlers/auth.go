package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	dbpkg "leadsite/internal/db"
	"leadsite/internal/logging"
	"leadsite/internal/session"
	"leadsite/internal/validate"
)

// Authenticator signs dashboard users in.
type Authenticator interface {
	SignIn(ctx context.Context, username, password string) (string, *dbpkg.User, error)
	SessionTTL() time.Duration
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges a username and password for a session token. The token is
// returned in the body and set as an HttpOnly cookie.
func Login(auth Authenticator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req loginRequest
		if !decodeBody(ctx, &req) {
			return
		}
		req.Username = validate.Trim(req.Username)
		if err := validate.Struct(&req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, err.Error())
			return
		}

		token, user, err := auth.SignIn(ctx, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, dbpkg.ErrInvalidCredentials) {
				logging.Info().Str("username", req.Username).Msg("login rejected")
				errResponse(ctx, fasthttp.StatusUnauthorized, "Invalid username or password")
				return
			}
			logging.Error().Err(err).Msg("login failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			return
		}

		setSessionCookie(ctx, token, auth.SessionTTL())
		logging.Info().Str("username", user.Username).Msg("user signed in")
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message": "Signed in",
			"token":   token,
		})
	}
}

// Logout clears the session cookie. Tokens are stateless, so a copied
// bearer token stays valid until it expires.
func Logout() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		setSessionCookie(ctx, "", -1)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"message": "Signed out"})
	}
}

func setSessionCookie(ctx *fasthttp.RequestCtx, token string, ttl time.Duration) {
	var c fasthttp.Cookie
	c.SetKey(session.CookieName)
	c.SetValue(token)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	if ttl < 0 {
		c.SetExpire(fasthttp.CookieExpireDelete)
	} else {
		c.SetMaxAge(int(ttl / time.Second))
	}
	ctx.Response.Header.SetCookie(&c)
}
