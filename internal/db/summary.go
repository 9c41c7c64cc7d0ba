package db

import (
	"context"
	"time"
)

// EventCount is the number of analytics events of one type.
type EventCount struct {
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}

// EventCounts returns per-type event totals recorded at or after since,
// largest first.
func (g *GormGateway) EventCounts(ctx context.Context, since time.Time) ([]EventCount, error) {
	var rows []EventCount
	err := g.db.WithContext(ctx).
		Model(&AnalyticsEvent{}).
		Select("event_type AS event_type, count(*) AS count").
		Where("created_at >= ?", since).
		Group("event_type").
		Order("count(*) DESC, event_type ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("select", TableAnalyticsEvents, err)
	}
	return rows, nil
}
