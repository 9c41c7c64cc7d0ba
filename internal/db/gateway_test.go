package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadsite/internal/config"
	"leadsite/internal/db"
	"leadsite/internal/db/dbtest"
)

func strPtr(s string) *string { return &s }

func TestGateway_InsertFillsGeneratedColumns(t *testing.T) {
	gw := dbtest.Gateway(t)
	ctx := context.Background()

	row := &db.WaitlistEntry{Email: "a@b.com", Company: strPtr("Acme")}
	if err := gw.Insert(ctx, row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if row.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if row.CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestGateway_InsertDuplicateIsConflict(t *testing.T) {
	gw := dbtest.Gateway(t)
	ctx := context.Background()

	if err := gw.Insert(ctx, &db.NewsletterSubscriber{Email: "dup@x.io", Source: db.DefaultSource, Status: db.StatusSubscribed}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := gw.Insert(ctx, &db.NewsletterSubscriber{Email: "dup@x.io", Source: db.DefaultSource, Status: db.StatusSubscribed})
	if err == nil {
		t.Fatal("expected conflict on duplicate email")
	}
	if !db.IsConflict(err) {
		t.Fatalf("IsConflict = false for %v", err)
	}

	var pe *db.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}
	if pe.Table != db.TableNewsletterSubscribers || pe.Op != "insert" {
		t.Errorf("Op/Table = %s/%s", pe.Op, pe.Table)
	}
	if pe.Code != db.CodeUniqueViolation {
		t.Errorf("Code = %q, want %q", pe.Code, db.CodeUniqueViolation)
	}

	var rows []db.NewsletterSubscriber
	if err := gw.Select(ctx, &rows, db.Query{}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestGateway_SelectFilterOrderLimit(t *testing.T) {
	gw := dbtest.Gateway(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	types := []string{"page_view", "button_click", "page_view", "page_view"}
	for i, et := range types {
		ev := &db.AnalyticsEvent{EventType: et, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := gw.Insert(ctx, ev); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	var rows []db.AnalyticsEvent
	err := gw.Select(ctx, &rows, db.Query{
		Filter:  db.Filter{"event_type": "page_view"},
		OrderBy: db.NewestFirst,
		Limit:   2,
	})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if !rows[0].CreatedAt.After(rows[1].CreatedAt) {
		t.Errorf("rows not newest first: %v then %v", rows[0].CreatedAt, rows[1].CreatedAt)
	}
	for _, r := range rows {
		if r.EventType != "page_view" {
			t.Errorf("unexpected event type %q", r.EventType)
		}
	}
}

func TestGateway_UpdateByFilter(t *testing.T) {
	gw := dbtest.Gateway(t)
	ctx := context.Background()

	sub := &db.NewsletterSubscriber{Email: "u@x.io", FullName: strPtr("U"), Source: "inline_form", Status: db.StatusSubscribed}
	if err := gw.Insert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := gw.Update(ctx, &db.NewsletterSubscriber{}, map[string]any{"status": db.StatusUnsubscribed}, db.Filter{"email": "u@x.io"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 1 {
		t.Errorf("rows affected = %d, want 1", n)
	}

	var rows []db.NewsletterSubscriber
	if err := gw.Select(ctx, &rows, db.Query{Filter: db.Filter{"email": "u@x.io"}}); err != nil {
		t.Fatalf("select: %v", err)
	}
	got := rows[0]
	if got.Status != db.StatusUnsubscribed {
		t.Errorf("Status = %q, want unsubscribed", got.Status)
	}
	if got.Source != "inline_form" || got.FullName == nil || *got.FullName != "U" {
		t.Errorf("other fields changed: %+v", got)
	}
}

func TestGateway_UpdateWithoutFilterRefused(t *testing.T) {
	gw := dbtest.Gateway(t)
	_, err := gw.Update(context.Background(), &db.NewsletterSubscriber{}, map[string]any{"status": "x"}, nil)
	if err == nil {
		t.Fatal("expected error for unfiltered update")
	}
}

func TestGateway_UpdateUnknownRowAffectsNothing(t *testing.T) {
	gw := dbtest.Gateway(t)
	n, err := gw.Update(context.Background(), &db.NewsletterSubscriber{}, map[string]any{"status": db.StatusUnsubscribed}, db.Filter{"email": "ghost@x.io"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if n != 0 {
		t.Errorf("rows affected = %d, want 0", n)
	}
}

func TestGateway_CurrentUser(t *testing.T) {
	gdb := dbtest.Open(t)
	sessions := dbtest.Sessions(t)
	gw := db.NewGateway(gdb, sessions)
	ctx := context.Background()

	cfg := &config.Config{AdminUser: "admin", AdminPassword: "s3cret"}
	if err := db.EnsureBootstrapAdmin(gdb, cfg); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if u, err := gw.CurrentUser(ctx, ""); u != nil || err != nil {
		t.Fatalf("empty token: user=%v err=%v", u, err)
	}
	if u, err := gw.CurrentUser(ctx, "garbage"); u != nil || err != nil {
		t.Fatalf("bad token: user=%v err=%v", u, err)
	}

	token, user, err := gw.SignIn(ctx, "admin", "s3cret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	got, err := gw.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if got == nil || got.ID != user.ID || got.Username != "admin" {
		t.Fatalf("current user = %+v, want admin", got)
	}

	orphan, _ := sessions.Issue(9999, "ghost")
	if u, err := gw.CurrentUser(ctx, orphan); u != nil || err != nil {
		t.Fatalf("token for deleted user: user=%v err=%v", u, err)
	}
}

func TestGateway_SignInRejectsBadPassword(t *testing.T) {
	gdb := dbtest.Open(t)
	gw := db.NewGateway(gdb, dbtest.Sessions(t))
	if err := db.EnsureBootstrapAdmin(gdb, &config.Config{AdminUser: "admin", AdminPassword: "right"}); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, _, err := gw.SignIn(context.Background(), "admin", "wrong"); !errors.Is(err, db.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := gw.SignIn(context.Background(), "nobody", "right"); !errors.Is(err, db.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestEnsureBootstrapAdmin_Idempotent(t *testing.T) {
	gdb := dbtest.Open(t)
	cfg := &config.Config{AdminUser: "admin", AdminPassword: "pw"}
	for i := 0; i < 2; i++ {
		if err := db.EnsureBootstrapAdmin(gdb, cfg); err != nil {
			t.Fatalf("bootstrap %d: %v", i, err)
		}
	}
	var count int64
	gdb.Model(&db.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("users = %d, want 1", count)
	}
}

func TestGateway_EventCounts(t *testing.T) {
	gw := dbtest.Gateway(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	events := []*db.AnalyticsEvent{
		{EventType: "page_view"},
		{EventType: "page_view"},
		{EventType: "button_click"},
		{EventType: "page_view", CreatedAt: old},
	}
	for _, ev := range events {
		if err := gw.Insert(ctx, ev); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	counts, err := gw.EventCounts(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("event counts: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("counts = %+v, want 2 types", counts)
	}
	if counts[0].EventType != "page_view" || counts[0].Count != 2 {
		t.Errorf("counts[0] = %+v, want page_view=2", counts[0])
	}
	if counts[1].EventType != "button_click" || counts[1].Count != 1 {
		t.Errorf("counts[1] = %+v, want button_click=1", counts[1])
	}
}
