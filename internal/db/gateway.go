package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"leadsite/internal/session"
)

// ErrInvalidCredentials is returned by SignIn for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("db: invalid credentials")

// Filter is a set of column = value conditions joined with AND.
type Filter map[string]any

// Query describes a Select: optional equality filter, ordering and row limit.
// A zero Limit means no limit beyond what the datastore applies.
type Query struct {
	Filter  Filter
	OrderBy string
	Limit   int
}

// NewestFirst orders rows by creation time, most recent first.
const NewestFirst = "created_at DESC, id DESC"

// Gateway is the row-level view of the datastore the handlers work against.
type Gateway interface {
	// Insert creates row (a model pointer) and fills in its generated columns.
	Insert(ctx context.Context, row any) error
	// Update applies patch to every row of model's table matching filter.
	Update(ctx context.Context, model any, patch map[string]any, filter Filter) (int64, error)
	// Select loads matching rows into dest (a pointer to a model slice).
	Select(ctx context.Context, dest any, q Query) error
	// CurrentUser resolves a session token. It returns (nil, nil) when the
	// token is empty, invalid, or names a user that no longer exists.
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// GormGateway implements Gateway on top of GORM.
type GormGateway struct {
	db       *gorm.DB
	sessions *session.Manager
}

var _ Gateway = (*GormGateway)(nil)

// NewGateway returns a GormGateway using sessions to verify tokens.
func NewGateway(db *gorm.DB, sessions *session.Manager) *GormGateway {
	return &GormGateway{db: db, sessions: sessions}
}

// DB exposes the underlying handle for startup tasks.
func (g *GormGateway) DB() *gorm.DB { return g.db }

func (g *GormGateway) Insert(ctx context.Context, row any) error {
	return wrap("insert", tableOf(row), g.db.WithContext(ctx).Create(row).Error)
}

func (g *GormGateway) Update(ctx context.Context, model any, patch map[string]any, filter Filter) (int64, error) {
	table := tableOf(model)
	if len(filter) == 0 {
		return 0, wrap("update", table, gorm.ErrMissingWhereClause)
	}
	res := g.db.WithContext(ctx).Model(model).Where(map[string]any(filter)).Updates(patch)
	if res.Error != nil {
		return 0, wrap("update", table, res.Error)
	}
	return res.RowsAffected, nil
}

func (g *GormGateway) Select(ctx context.Context, dest any, q Query) error {
	tx := g.db.WithContext(ctx)
	if len(q.Filter) > 0 {
		tx = tx.Where(map[string]any(q.Filter))
	}
	if q.OrderBy != "" {
		tx = tx.Order(q.OrderBy)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return wrap("select", tableOf(dest), tx.Find(dest).Error)
}

func (g *GormGateway) CurrentUser(ctx context.Context, token string) (*User, error) {
	if token == "" || g.sessions == nil {
		return nil, nil
	}
	id, _, err := g.sessions.Verify(token)
	if err != nil {
		return nil, nil
	}

	var user User
	if err := g.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("select", "users", err)
	}
	return &user, nil
}

// SignIn checks a username and password and returns a fresh session token.
func (g *GormGateway) SignIn(ctx context.Context, username, password string) (string, *User, error) {
	if g.sessions == nil {
		return "", nil, errors.New("db: sessions not configured")
	}

	var user User
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, wrap("select", "users", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := g.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// SessionTTL is the lifetime of tokens issued by SignIn.
func (g *GormGateway) SessionTTL() time.Duration {
	if g.sessions == nil {
		return 0
	}
	return g.sessions.TTL()
}

type tabler interface{ TableName() string }

// tableOf names the table behind a model, model pointer, or pointer to a model slice.
func tableOf(v any) string {
	switch m := v.(type) {
	case tabler:
		return m.TableName()
	case *[]AnalyticsEvent:
		return TableAnalyticsEvents
	case *[]ContactSubmission:
		return TableContactSubmissions
	case *[]NewsletterSubscriber:
		return TableNewsletterSubscribers
	case *[]WaitlistEntry:
		return TableWaitlist
	case *User, *[]User:
		return "users"
	default:
		return fmt.Sprintf("%T", v)
	}
}
