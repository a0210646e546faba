// Package analytics aggregates click history and defines the events emitted around it.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/linkstats/internal/links"
)

const (
	// DailyWindow bounds the per-day series.
	DailyWindow = 30 * 24 * time.Hour

	DefaultClickLimit = 100
	MaxClickLimit     = 1000
)

// Source runs the grouped queries over a link's clicks.
// Implementations query the store on every call; nothing is cached.
type Source interface {
	ClicksByDay(ctx context.Context, linkID string, since time.Time) ([]DayCount, error)
	ClicksByCountry(ctx context.Context, linkID string) ([]CountryCount, error)
	ClicksByDevice(ctx context.Context, linkID string) ([]DeviceCount, error)

	// RecentClicks returns at most limit clicks, newest first.
	RecentClicks(ctx context.Context, linkID string, limit int) ([]*links.Click, error)
}

// Report is the analytics view of a single link.
type Report struct {
	Link            *links.Link
	ClicksByDay     []DayCount
	ClicksByCountry []CountryCount
	ClicksByDevice  []DeviceCount
	Clicks          []*links.Click
}

// Aggregator builds reports from a Source.
//
// This is the most expensive read path. If click volume grows, the Redis
// rollup maintained by the event consumer is the place to serve it from.
type Aggregator struct {
	source Source
}

// NewAggregator creates an aggregator.
func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source}
}

// Report computes the grouped series for link. limit bounds the raw click
// list; values outside (0, MaxClickLimit] fall back to the defaults.
func (a *Aggregator) Report(ctx context.Context, link *links.Link, limit int) (*Report, error) {
	switch {
	case limit <= 0:
		limit = DefaultClickLimit
	case limit > MaxClickLimit:
		limit = MaxClickLimit
	}

	since := time.Now().UTC().Add(-DailyWindow)

	byDay, err := a.source.ClicksByDay(ctx, link.ID, since)
	if err != nil {
		return nil, fmt.Errorf("clicks by day: %w", err)
	}

	byCountry, err := a.source.ClicksByCountry(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("clicks by country: %w", err)
	}

	byDevice, err := a.source.ClicksByDevice(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("clicks by device: %w", err)
	}

	recent, err := a.source.RecentClicks(ctx, link.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent clicks: %w", err)
	}

	return &Report{
		Link:            link,
		ClicksByDay:     byDay,
		ClicksByCountry: byCountry,
		ClicksByDevice:  byDevice,
		Clicks:          recent,
	}, nil
}
