package handlers

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	httpctx "leadsite/internal/http/ctx"
)

func testConfig() *config.Config {
	return &config.Config{AnalyticsDefaultLimit: 100, AnalyticsMaxLimit: 1000}
}

func newCtx(method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.SetUserAgent("handlers-test")
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.IPv4(203, 0, 113, 7), Port: 5555}, nil)
	return ctx
}

func signedIn(ctx *fasthttp.RequestCtx) *fasthttp.RequestCtx {
	httpctx.SetUser(ctx, &dbpkg.User{ID: 1, Username: "admin"})
	return ctx
}

func decodeResponse(t *testing.T, ctx *fasthttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(ctx.Response.Body(), &out); err != nil {
		t.Fatalf("decode response %q: %v", ctx.Response.Body(), err)
	}
	return out
}

func expectError(t *testing.T, ctx *fasthttp.RequestCtx, code int, msg string) {
	t.Helper()
	if got := ctx.Response.StatusCode(); got != code {
		t.Fatalf("status = %d, want %d (body %s)", got, code, ctx.Response.Body())
	}
	if got := decodeResponse(t, ctx)["error"]; got != msg {
		t.Fatalf("error = %v, want %q", got, msg)
	}
}

func selectRows[T any](t *testing.T, gw dbpkg.Gateway, filter dbpkg.Filter) []T {
	t.Helper()
	var rows []T
	if err := gw.Select(context.Background(), &rows, dbpkg.Query{Filter: filter, OrderBy: dbpkg.NewestFirst}); err != nil {
		t.Fatalf("select: %v", err)
	}
	return rows
}

// failingAnalytics rejects every analytics insert and passes everything else through.
type failingAnalytics struct {
	dbpkg.Gateway
}

func (f failingAnalytics) Insert(ctx context.Context, row any) error {
	if _, ok := row.(*dbpkg.AnalyticsEvent); ok {
		return &dbpkg.PersistenceError{Op: "insert", Table: dbpkg.TableAnalyticsEvents, Class: dbpkg.ClassTransient, Cause: errors.New("connection reset")}
	}
	return f.Gateway.Insert(ctx, row)
}

// countingGateway counts datastore calls so a test can assert none happened.
type countingGateway struct {
	dbpkg.Gateway
	selects atomic.Int32
	inserts atomic.Int32
}

func (c *countingGateway) Select(ctx context.Context, dest any, q dbpkg.Query) error {
	c.selects.Add(1)
	return c.Gateway.Select(ctx, dest, q)
}

func (c *countingGateway) Insert(ctx context.Context, row any) error {
	c.inserts.Add(1)
	return c.Gateway.Insert(ctx, row)
}

// brokenGateway fails every datastore call.
type brokenGateway struct {
	dbpkg.Gateway
}

var errBroken = &dbpkg.PersistenceError{Op: "test", Class: dbpkg.ClassFatal, Cause: errors.New("relation does not exist")}

func (brokenGateway) Insert(context.Context, any) error { return errBroken }
func (brokenGateway) Select(context.Context, any, dbpkg.Query) error { return errBroken }
func (brokenGateway) Update(context.Context, any, map[string]any, dbpkg.Filter) (int64, error) {
	return 0, errBroken
}
