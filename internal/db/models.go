package db

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TableAnalyticsEvents       = "analytics_events"
	TableContactSubmissions    = "contact_submissions"
	TableNewsletterSubscribers = "newsletter_subscribers"
	TableWaitlist              = "waitlist"
)

// SubscriberStatus is the lifecycle state of a newsletter subscriber.
type SubscriberStatus string

const (
	StatusSubscribed   SubscriberStatus = "subscribed"
	StatusUnsubscribed SubscriberStatus = "unsubscribed"
)

// Widths of the varchar columns filled from request headers rather than
// validated input. Callers clamp to these before inserting.
const (
	UserAgentWidth = 512
	IPAddressWidth = 64
)

// DefaultSource is recorded for newsletter signups that do not name one.
const DefaultSource = "landing_page"

// AnalyticsEvent is one first-party analytics record. Rows come from
// POST /analytics and from the follow-up write of each form handler.
type AnalyticsEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	EventType string `gorm:"size:128;not null;index" json:"event_type"`

	// EventData holds free-form properties (page, button_name, has_phone, ...).
	EventData datatypes.JSONMap `gorm:"type:json" json:"event_data"`

	// UserID is set when the caller had a dashboard session.
	UserID *string `gorm:"size:64;index" json:"user_id"`
	// SessionID is the browser-generated id correlating one visit.
	SessionID *string `gorm:"size:128;index" json:"session_id"`

	IPAddress string `gorm:"size:64" json:"ip_address"`
	UserAgent string `gorm:"size:512" json:"user_agent"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AnalyticsEvent) TableName() string { return TableAnalyticsEvents }

// ContactSubmission is a message left through the contact form.
type ContactSubmission struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FullName string  `gorm:"size:255;not null" json:"full_name"`
	Email    string  `gorm:"size:320;not null;index" json:"email"`
	Company  *string `gorm:"size:255" json:"company"`
	Phone    *string `gorm:"size:64" json:"phone"`
	Subject  *string `gorm:"size:255" json:"subject"`
	Message  string  `gorm:"type:text;not null" json:"message"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ContactSubmission) TableName() string { return TableContactSubmissions }

// NewsletterSubscriber rows are never deleted; unsubscribing flips Status.
type NewsletterSubscriber struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email    string           `gorm:"size:320;not null;uniqueIndex" json:"email"`
	FullName *string          `gorm:"size:255" json:"full_name"`
	Source   string           `gorm:"size:64;not null;default:landing_page" json:"source"`
	Status   SubscriberStatus `gorm:"size:16;not null;default:subscribed;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt records the last status change; it is bookkeeping, not subscriber data.
	UpdatedAt time.Time `json:"updated_at"`
}

func (NewsletterSubscriber) TableName() string { return TableNewsletterSubscribers }

// WaitlistEntry is a request for early access. Email is unique.
type WaitlistEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Email    string  `gorm:"size:320;not null;uniqueIndex" json:"email"`
	FullName *string `gorm:"size:255" json:"full_name"`
	Company  *string `gorm:"size:255" json:"company"`
	Phone    *string `gorm:"size:64" json:"phone"`
	Message  *string `gorm:"type:text" json:"message"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (WaitlistEntry) TableName() string { return TableWaitlist }
