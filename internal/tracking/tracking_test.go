package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"leadsite/internal/client"
	"leadsite/internal/db"
	"leadsite/internal/http/server/servertest"
)

type recorder struct {
	mu     sync.Mutex
	events []client.Event
	err    error
}

func (r *recorder) Track(_ context.Context, ev client.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func TestSession_IDStableUntilReset(t *testing.T) {
	s := NewSession(nil)

	id := s.ID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a UUID: %v", id, err)
	}
	if again := s.ID(); again != id {
		t.Fatalf("id changed: %q then %q", id, again)
	}

	s.Reset()
	if next := s.ID(); next == id || next == "" {
		t.Fatalf("after reset id = %q (was %q)", next, id)
	}
}

func TestSession_ConcurrentFirstUse(t *testing.T) {
	s := NewSession(nil)
	ids := make([]string, 32)

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = s.ID()
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("concurrent callers saw different ids: %q vs %q", id, ids[0])
		}
	}
}

func TestSession_Store(t *testing.T) {
	store := &memoryStore{}
	first := NewSession(store).ID()

	if got := NewSession(store).ID(); got != first {
		t.Fatalf("second session = %q, want stored %q", got, first)
	}

	NewSession(store).Reset()
	if store.Load() != "" {
		t.Fatal("reset did not clear the store")
	}
}

func TestTracker_Wrappers(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(rec, nil, 0)

	tr.TrackPageView("/pricing")
	tr.TrackButtonClick("hero_cta", "header")
	tr.TrackButtonClick("footer_cta", "")
	tr.TrackFormSubmission("waitlist", true)
	tr.TrackFeatureInteraction("demo", "open")
	tr.Wait()

	got := map[string]map[string]any{}
	for _, ev := range rec.events {
		if ev.SessionID != tr.Session().ID() {
			t.Errorf("%s: session_id = %q", ev.EventType, ev.SessionID)
		}
		if ev.EventType == "button_click" && ev.EventData["button_name"] == "footer_cta" {
			if _, ok := ev.EventData["location"]; ok {
				t.Error("empty location should be omitted")
			}
			continue
		}
		got[ev.EventType] = ev.EventData
	}

	if got["page_view"]["page"] != "/pricing" {
		t.Errorf("page_view = %v", got["page_view"])
	}
	if d := got["button_click"]; d["button_name"] != "hero_cta" || d["location"] != "header" {
		t.Errorf("button_click = %v", d)
	}
	if d := got["form_submission"]; d["form_type"] != "waitlist" || d["success"] != true {
		t.Errorf("form_submission = %v", d)
	}
	if d := got["feature_interaction"]; d["feature"] != "demo" || d["action"] != "open" {
		t.Errorf("feature_interaction = %v", d)
	}
}

func TestTracker_FailureIsSwallowed(t *testing.T) {
	rec := &recorder{err: errors.New("network down")}
	tr := NewTracker(rec, nil, 0)

	tr.TrackPageView("/")
	tr.Wait()

	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1 attempt", len(rec.events))
	}
}

func TestTracker_AgainstServer(t *testing.T) {
	srv := servertest.Start(t)
	tr := NewTracker(srv.Client(), nil, 0)

	tr.TrackPageView("/")
	tr.TrackButtonClick("signup", "hero")
	tr.Wait()

	var events []db.AnalyticsEvent
	if err := srv.Gateway.Select(context.Background(), &events, db.Query{}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.SessionID == nil || *ev.SessionID != tr.Session().ID() {
			t.Errorf("%s: session_id = %v", ev.EventType, ev.SessionID)
		}
	}
}
