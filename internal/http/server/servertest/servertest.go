// Package servertest runs the full API over an in-memory listener.
package servertest

import (
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"leadsite/internal/client"
	"leadsite/internal/config"
	"leadsite/internal/db"
	"leadsite/internal/db/dbtest"
	"leadsite/internal/http/server"
)

// Server is a running API backed by a private in-memory database.
type Server struct {
	Gateway *db.GormGateway
	ln      *fasthttputil.InmemoryListener
}

// Start serves the API until t finishes.
func Start(t testing.TB) *Server {
	t.Helper()

	cfg := &config.Config{AnalyticsDefaultLimit: 100, AnalyticsMaxLimit: 1000}
	gw := dbtest.Gateway(t)
	ln := fasthttputil.NewInmemoryListener()

	srv := &fasthttp.Server{Handler: server.New(gw, cfg, prometheus.NewRegistry())}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &Server{Gateway: gw, ln: ln}
}

// Client returns an API client dialing this server.
func (s *Server) Client(opts ...client.Option) *client.Client {
	opts = append([]client.Option{client.WithDial(func(string) (net.Conn, error) { return s.ln.Dial() })}, opts...)
	return client.New("http://leadsite.test/api", opts...)
}
