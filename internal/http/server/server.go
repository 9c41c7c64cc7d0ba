// Package server wires the HTTP routes onto a fasthttp router.
package server

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	"leadsite/internal/db"
	"leadsite/internal/http/handlers"
	appmw "leadsite/internal/http/middleware"
)

// Store is everything the routes need from the datastore.
type Store interface {
	db.Gateway
	SignIn(ctx context.Context, username, password string) (string, *db.User, error)
	SessionTTL() time.Duration
	EventCounts(ctx context.Context, since time.Time) ([]db.EventCount, error)
}

// prefixes every route is mounted under. The site calls /api/...; the bare
// paths serve same-origin callers and health checks.
var prefixes = []string{"", "/api"}

// New returns the root handler: request logging and panic recovery around
// the router. A nil gatherer exports the default Prometheus registry.
func New(store Store, cfg *config.Config, gatherer prometheus.Gatherer) fasthttp.RequestHandler {
	r := router.New()

	requireUser := appmw.RequireUser(store)
	loadUser := appmw.LoadUser(store)

	for _, p := range prefixes {
		r.GET(p+"/healthz", func(ctx *fasthttp.RequestCtx) {
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString("ok")
		})

		r.POST(p+"/login", handlers.Login(store))
		r.POST(p+"/logout", handlers.Logout())

		r.POST(p+"/analytics", loadUser(handlers.TrackEvent(store, cfg)))
		r.GET(p+"/analytics", requireUser(handlers.ListEvents(store, cfg)))
		r.GET(p+"/analytics/summary", requireUser(handlers.EventSummary(store)))

		r.POST(p+"/contact", handlers.CreateContact(store, cfg))
		r.GET(p+"/contact", requireUser(handlers.ListContacts(store)))

		r.POST(p+"/newsletter", handlers.Subscribe(store, cfg))
		r.DELETE(p+"/newsletter", handlers.Unsubscribe(store, cfg))

		r.POST(p+"/waitlist", handlers.JoinWaitlist(store, cfg))
		r.GET(p+"/waitlist", requireUser(handlers.ListWaitlist(store)))

		r.GET(p+"/metrics", requireUser(handlers.MetricsHandler(gatherer)))
	}

	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"Not found"}`)
	}
	r.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"Method not allowed"}`)
	}

	return appmw.RequestLogger(appmw.Recover(r.Handler))
}
