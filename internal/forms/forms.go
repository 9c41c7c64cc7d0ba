// Package forms models the site's lead-capture forms without rendering them:
// field values, a loading flag, the last error and a success flag, moved
// through a single Submit transition.
package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"leadsite/internal/client"
	"leadsite/internal/logging"
)

// Kind selects which endpoint a Form submits to.
type Kind string

const (
	KindContact    Kind = "contact"
	KindWaitlist   Kind = "waitlist"
	KindNewsletter Kind = "newsletter"
)

// Newsletter sources reported by the two signup placements.
const (
	SourceInline     = "inline_form"
	SourceNewsletter = "newsletter_form"
)

var (
	// ErrBusy is returned by Submit while a previous submit is in flight.
	ErrBusy = errors.New("forms: submission in progress")
	// ErrUnknownField is returned by Set for a field the form does not have.
	ErrUnknownField = errors.New("forms: unknown field")
)

var fieldsByKind = map[Kind][]string{
	KindContact:    {"full_name", "email", "company", "phone", "subject", "message"},
	KindWaitlist:   {"full_name", "email", "company", "phone", "message"},
	KindNewsletter: {"email", "full_name"},
}

var fallbackMessage = map[Kind]string{
	KindContact:    "Failed to submit contact form",
	KindWaitlist:   "Failed to join waitlist",
	KindNewsletter: "Failed to subscribe",
}

// API is the part of *client.Client a Form needs.
type API interface {
	SubmitContact(ctx context.Context, f client.ContactForm) (*client.Created, error)
	JoinWaitlist(ctx context.Context, f client.WaitlistForm) (*client.Created, error)
	Subscribe(ctx context.Context, f client.NewsletterForm) (*client.Created, error)
}

// Reporter records the outcome of each submit. *tracking.Tracker implements it.
type Reporter interface {
	TrackFormSubmission(formType string, success bool)
}

// State is a snapshot of a Form.
type State struct {
	Values  map[string]string
	Loading bool
	Err     string
	Success bool
}

// Form is the view state of one form instance. It is safe for concurrent use.
type Form struct {
	Kind Kind
	// Inline marks the compact newsletter signup; it changes the reported source.
	Inline bool
	// OnSuccess, if set, runs after a successful submit.
	OnSuccess func()

	api      API
	reporter Reporter

	mu      sync.Mutex
	values  map[string]string
	loading bool
	err     string
	success bool
}

// New returns an empty form of kind. reporter may be nil.
func New(kind Kind, api API, reporter Reporter) (*Form, error) {
	if _, ok := fieldsByKind[kind]; !ok {
		return nil, fmt.Errorf("forms: unknown kind %q", kind)
	}
	return &Form{Kind: kind, api: api, reporter: reporter, values: map[string]string{}}, nil
}

// Set changes a field value and clears any error or success message.
func (f *Form) Set(field, value string) error {
	if !f.hasField(field) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[field] = value
	f.err = ""
	f.success = false
	return nil
}

// Value returns the current value of field.
func (f *Form) Value(field string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[field]
}

// State returns a copy of the form's state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := make(map[string]string, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	return State{Values: values, Loading: f.loading, Err: f.err, Success: f.success}
}

// Submit sends the current values. On success the values are cleared and
// OnSuccess runs; on failure they are kept and the error message is stored.
// Either way the outcome is reported and Loading ends false.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.loading = true
	f.err = ""
	values := make(map[string]string, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	f.mu.Unlock()

	err := f.send(ctx, values)

	f.mu.Lock()
	f.loading = false
	if err != nil {
		f.err = f.message(err)
	} else {
		f.success = true
		f.values = map[string]string{}
	}
	f.mu.Unlock()

	if err != nil {
		logging.Debug().Err(err).Str("form", string(f.Kind)).Msg("form submission failed")
	}
	if f.reporter != nil {
		f.reporter.TrackFormSubmission(string(f.Kind), err == nil)
	}
	if err == nil && f.OnSuccess != nil {
		f.OnSuccess()
	}
	return err
}

func (f *Form) send(ctx context.Context, v map[string]string) error {
	var err error
	switch f.Kind {
	case KindContact:
		_, err = f.api.SubmitContact(ctx, client.ContactForm{
			FullName: v["full_name"],
			Email:    v["email"],
			Company:  v["company"],
			Phone:    v["phone"],
			Subject:  v["subject"],
			Message:  v["message"],
		})
	case KindWaitlist:
		_, err = f.api.JoinWaitlist(ctx, client.WaitlistForm{
			Email:    v["email"],
			FullName: v["full_name"],
			Company:  v["company"],
			Phone:    v["phone"],
			Message:  v["message"],
		})
	case KindNewsletter:
		source := SourceNewsletter
		if f.Inline {
			source = SourceInline
		}
		_, err = f.api.Subscribe(ctx, client.NewsletterForm{
			Email:    v["email"],
			FullName: v["full_name"],
			Source:   source,
		})
	default:
		err = fmt.Errorf("forms: unknown kind %q", f.Kind)
	}
	return err
}

// message is the text shown for err: the server's message when it sent
// one, a per-form fallback for a bare status, the error itself otherwise.
func (f *Form) message(err error) string {
	var ae *client.APIError
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		return fallbackMessage[f.Kind]
	}
	return err.Error()
}

func (f *Form) hasField(field string) bool {
	for _, name := range fieldsByKind[f.Kind] {
		if name == field {
			return true
		}
	}
	return false
}
