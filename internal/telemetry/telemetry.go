// Package telemetry reads raw content performance records from external feeds.
package telemetry

import (
	"context"
	"time"
)

// Record is one performance observation for a published piece of content.
type Record struct {
	Source     string    `json:"source"`      // feed identifier
	ExternalID string    `json:"external_id"` // feed-specific unique ID
	Category   string    `json:"category"`    // content category, e.g. "angel-number"
	Platform   string    `json:"platform"`
	Views      int64     `json:"views"`
	Likes      int64     `json:"likes"`
	Shares     int64     `json:"shares"`
	Comments   int64     `json:"comments"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Feed fetches performance records.
type Feed interface {
	// Name returns the feed identifier (e.g. "file").
	Name() string

	// Fetch returns records observed after the given time.
	Fetch(ctx context.Context, since time.Time) ([]Record, error)
}

func keep(r Record, since time.Time) bool {
	if r.Category == "" || r.ExternalID == "" || r.RecordedAt.IsZero() {
		return false
	}
	return !r.RecordedAt.Before(since)
}
