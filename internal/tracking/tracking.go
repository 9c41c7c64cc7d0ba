// Package tracking sends first-party analytics events from client code.
//
// A Session holds the visit id; a Tracker posts events tagged with it.
// Track never blocks the caller and never reports failure: a lost event is
// logged and dropped.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadsite/internal/client"
	"leadsite/internal/logging"
)

// Store persists the session id across Session values, e.g. in a cookie
// jar or a file. Load returns "" when nothing is stored.
type Store interface {
	Load() string
	Save(id string)
}

type memoryStore struct {
	mu sync.Mutex
	id string
}

func (m *memoryStore) Load() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

func (m *memoryStore) Save(id string) {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
}

// Session is the state of one browsing session.
type Session struct {
	mu    sync.Mutex
	id    string
	store Store
}

// NewSession returns a Session backed by store, or by memory when store is nil.
func NewSession(store Store) *Session {
	if store == nil {
		store = &memoryStore{}
	}
	return &Session{store: store}
}

// ID returns the session id, creating and saving a random UUID on first use.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id
	}
	if id := s.store.Load(); id != "" {
		s.id = id
		return id
	}
	s.id = uuid.NewString()
	s.store.Save(s.id)
	return s.id
}

// Reset ends the session; the next ID call starts a new one.
func (s *Session) Reset() {
	s.mu.Lock()
	s.id = ""
	s.store.Save("")
	s.mu.Unlock()
}

// Sender delivers one event. *client.Client implements it.
type Sender interface {
	Track(ctx context.Context, ev client.Event) error
}

// Tracker posts analytics events in the background.
type Tracker struct {
	sender  Sender
	session *Session
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewTracker returns a Tracker sending through sender. Each event is
// bounded by timeout; zero means five seconds.
func NewTracker(sender Sender, session *Session, timeout time.Duration) *Tracker {
	if session == nil {
		session = NewSession(nil)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Tracker{sender: sender, session: session, timeout: timeout}
}

// Session returns the tracker's session.
func (t *Tracker) Session() *Session { return t.session }

// Track sends eventType with data in a new goroutine and returns immediately.
func (t *Tracker) Track(eventType string, data map[string]any) {
	ev := client.Event{EventType: eventType, EventData: data, SessionID: t.session.ID()}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.sender.Track(ctx, ev); err != nil {
			logging.Warn().Err(err).Str("event_type", eventType).Msg("analytics tracking failed")
		}
	}()
}

// Wait blocks until every event sent so far has been delivered or dropped.
func (t *Tracker) Wait() { t.wg.Wait() }

func (t *Tracker) TrackPageView(page string) {
	t.Track("page_view", map[string]any{"page": page})
}

// TrackButtonClick records a click; location may be empty.
func (t *Tracker) TrackButtonClick(buttonName, location string) {
	data := map[string]any{"button_name": buttonName}
	if location != "" {
		data["location"] = location
	}
	t.Track("button_click", data)
}

func (t *Tracker) TrackFormSubmission(formType string, success bool) {
	t.Track("form_submission", map[string]any{"form_type": formType, "success": success})
}

func (t *Tracker) TrackFeatureInteraction(feature, action string) {
	t.Track("feature_interaction", map[string]any{"feature": feature, "action": action})
}
