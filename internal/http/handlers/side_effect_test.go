package handlers

import (
	"errors"
	"testing"

	dbpkg "leadsite/internal/db"
	"leadsite/internal/db/dbtest"
)

func TestRecordEvent(t *testing.T) {
	base := dbtest.Gateway(t)

	ok := recordEvent(newCtx("POST", "/api/waitlist", ""), base, testConfig(), "waitlist_signup", map[string]any{"email": "a@b.com"})
	if ok.Failed() || ok.EventType != "waitlist_signup" {
		t.Fatalf("successful write reported %+v", ok)
	}

	failed := recordEvent(newCtx("POST", "/api/waitlist", ""), failingAnalytics{Gateway: base}, testConfig(), "waitlist_signup", nil)
	if !failed.Failed() || failed.EventType != "waitlist_signup" {
		t.Fatalf("failed write reported %+v", failed)
	}
	var pe *dbpkg.PersistenceError
	if !errors.As(failed.Err, &pe) || pe.Table != dbpkg.TableAnalyticsEvents {
		t.Fatalf("cause = %v", failed.Err)
	}

	rows := selectRows[dbpkg.AnalyticsEvent](t, base, nil)
	if len(rows) != 1 {
		t.Fatalf("analytics rows = %d, want 1", len(rows))
	}
}
