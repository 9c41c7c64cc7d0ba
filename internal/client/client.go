// Package client is a small Go client for the leadsite HTTP API. The form
// models and the tracker submit through it.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 5 * time.Second

// APIError is a non-2xx answer from the API. Message is the server's
// "error" field and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsConflict reports whether err is a 409 from the API.
func IsConflict(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == fasthttp.StatusConflict
}

// ContactForm is the body of POST /api/contact.
type ContactForm struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Message  string `json:"message"`
}

// WaitlistForm is the body of POST /api/waitlist.
type WaitlistForm struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Message  string `json:"message,omitempty"`
}

// NewsletterForm is the body of POST /api/newsletter.
type NewsletterForm struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Event is the body of POST /api/analytics.
type Event struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
}

// Created identifies the row a submission created.
type Created struct {
	ID    uint   `json:"id"`
	Email string `json:"email,omitempty"`
}

type envelope struct {
	Message string   `json:"message"`
	Error   string   `json:"error"`
	Data    *Created `json:"data"`
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request when the context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithDial replaces the network dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.hc.Dial = dial }
}

// Client talks to one leadsite deployment.
type Client struct {
	baseURL string
	timeout time.Duration
	hc      *fasthttp.Client
}

// New returns a Client for baseURL, e.g. "https://example.com/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: defaultTimeout,
		hc: &fasthttp.Client{
			Name:            "leadsite-client",
			MaxConnsPerHost: 16,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout is the per-request bound used when the context has no deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

func (c *Client) SubmitContact(ctx context.Context, f ContactForm) (*Created, error) {
	return c.create(ctx, "/contact", f)
}

func (c *Client) JoinWaitlist(ctx context.Context, f WaitlistForm) (*Created, error) {
	return c.create(ctx, "/waitlist", f)
}

func (c *Client) Subscribe(ctx context.Context, f NewsletterForm) (*Created, error) {
	return c.create(ctx, "/newsletter", f)
}

// Unsubscribe marks email as unsubscribed.
func (c *Client) Unsubscribe(ctx context.Context, email string) error {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("email", email)

	var out envelope
	return c.do(ctx, fasthttp.MethodDelete, "/newsletter?"+args.String(), nil, &out)
}

// Track records one analytics event.
func (c *Client) Track(ctx context.Context, ev Event) error {
	var out envelope
	return c.do(ctx, fasthttp.MethodPost, "/analytics", ev, &out)
}

func (c *Client) create(ctx context.Context, path string, body any) (*Created, error) {
	var out envelope
	if err := c.do(ctx, fasthttp.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return &Created{}, nil
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, out *envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode %s: %w", path, err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.hc.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if b := resp.Body(); len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil && status < 300 {
			return fmt.Errorf("client: decode %s: %w", path, err)
		}
	}
	if status < 200 || status >= 300 {
		return &APIError{Status: status, Message: out.Error}
	}
	return nil
}
