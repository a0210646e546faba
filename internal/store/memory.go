package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/links"
)

// MemoryStore keeps links and clicks in process memory. It implements
// links.Repository, the click recorder and analytics.Source, and is used when
// no database is configured and in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	links    map[links.Code]*links.Link
	editKeys map[string]links.Code
	byID     map[string]links.Code
	clicks   map[string][]*links.Click // link ID -> clicks in insertion order
	nextID   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:    make(map[links.Code]*links.Link),
		editKeys: make(map[string]links.Code),
		byID:     make(map[string]links.Code),
		clicks:   make(map[string][]*links.Click),
	}
}

func (m *MemoryStore) Create(_ context.Context, link *links.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[link.Code]; ok {
		return links.ErrConflict
	}

	if _, ok := m.editKeys[link.EditKey]; ok {
		return links.ErrConflict
	}

	stored := *link
	m.links[link.Code] = &stored
	m.editKeys[link.EditKey] = link.Code
	m.byID[link.ID] = link.Code

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code links.Code) (*links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[code]
	if !ok {
		return nil, links.ErrNotFound
	}

	out := *link

	return &out, nil
}

func (m *MemoryStore) Update(_ context.Context, link *links.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.links[link.Code]
	if !ok {
		return links.ErrNotFound
	}

	stored.LongURL = link.LongURL
	stored.Title = link.Title
	stored.ExpiresAt = link.ExpiresAt
	stored.IsActive = link.IsActive
	stored.OwnerID = link.OwnerID

	link.ClickCount = stored.ClickCount

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, code links.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return links.ErrNotFound
	}

	delete(m.links, code)
	delete(m.editKeys, link.EditKey)
	delete(m.byID, link.ID)
	delete(m.clicks, link.ID)

	return nil
}

// List returns the links matching filter, newest first.
func (m *MemoryStore) List(_ context.Context, filter links.ListFilter) ([]*links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*links.Link, 0)

	for _, link := range m.links {
		if filter.Unowned && link.Owned() {
			continue
		}

		if !filter.Unowned && link.OwnerID != filter.OwnerID {
			continue
		}

		if filter.ActiveOnly && !link.IsActive {
			continue
		}

		cp := *link
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *links.Link) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.Code, b.Code)
	})

	return out, nil
}

// RecordClick appends the click and bumps the link counter under one lock.
func (m *MemoryStore) RecordClick(_ context.Context, click *links.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, ok := m.byID[click.LinkID]
	if !ok {
		return links.ErrNotFound
	}

	m.nextID++
	click.ID = m.nextID

	stored := *click
	m.clicks[click.LinkID] = append(m.clicks[click.LinkID], &stored)
	m.links[code].ClickCount++

	return nil
}

func (m *MemoryStore) ClicksByDay(_ context.Context, linkID string, since time.Time) ([]analytics.DayCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return analytics.GroupByDay(m.clicks[linkID], since), nil
}

func (m *MemoryStore) ClicksByCountry(_ context.Context, linkID string) ([]analytics.CountryCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return analytics.GroupByCountry(m.clicks[linkID]), nil
}

func (m *MemoryStore) ClicksByDevice(_ context.Context, linkID string) ([]analytics.DeviceCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return analytics.GroupByDevice(m.clicks[linkID]), nil
}

func (m *MemoryStore) RecentClicks(_ context.Context, linkID string, limit int) ([]*links.Click, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.clicks[linkID]
	out := make([]*links.Click, 0, min(limit, len(all)))

	// Walk backwards; insertion order is chronological.
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *all[i]
		out = append(out, &cp)
	}

	return out, nil
}

var (
	_ links.Repository = (*MemoryStore)(nil)
	_ analytics.Source = (*MemoryStore)(nil)
	_ clicks.Recorder  = (*MemoryStore)(nil)
)
