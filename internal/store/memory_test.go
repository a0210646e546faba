package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(code, editKey, owner string, createdAt time.Time) *links.Link {
	return &links.Link{
		ID:        uuid.NewString(),
		Code:      links.Code(code),
		EditKey:   editKey,
		LongURL:   "https://example.com/" + code,
		OwnerID:   owner,
		CreatedAt: createdAt,
		IsActive:  true,
	}
}

func TestMemoryStore_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("creates and reads back a link", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc23456", "key-1", "", now)

		require.NoError(t, s.Create(ctx, link))

		got, err := s.GetByCode(ctx, "abc23456")
		require.NoError(t, err)
		assert.Equal(t, link.LongURL, got.LongURL)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("rejects duplicate codes", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(ctx, newLink("abc23456", "key-1", "", now)))

		err := s.Create(ctx, newLink("abc23456", "key-2", "", now))

		assert.ErrorIs(t, err, links.ErrConflict)
	})

	t.Run("rejects duplicate edit keys", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(ctx, newLink("abc23456", "key-1", "", now)))

		err := s.Create(ctx, newLink("xyz23456", "key-1", "", now))

		assert.ErrorIs(t, err, links.ErrConflict)
	})

	t.Run("returned links are copies", func(t *testing.T) {
		s := store.NewMemoryStore()
		require.NoError(t, s.Create(ctx, newLink("abc23456", "key-1", "", now)))

		got, _ := s.GetByCode(ctx, "abc23456")
		got.LongURL = "https://mutated.example"

		again, _ := s.GetByCode(ctx, "abc23456")
		assert.Equal(t, "https://example.com/abc23456", again.LongURL)
	})
}

func TestMemoryStore_GetByCode(t *testing.T) {
	s := store.NewMemoryStore()

	got, err := s.GetByCode(context.Background(), "notfound")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, links.ErrNotFound)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("persists mutable fields and refreshes the click count", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc23456", "key-1", "", now)
		require.NoError(t, s.Create(ctx, link))
		require.NoError(t, s.RecordClick(ctx, &links.Click{LinkID: link.ID, ClickedAt: now}))

		link.Title = "Docs"
		link.IsActive = false
		require.NoError(t, s.Update(ctx, link))

		assert.Equal(t, int64(1), link.ClickCount)

		got, _ := s.GetByCode(ctx, "abc23456")
		assert.Equal(t, "Docs", got.Title)
		assert.False(t, got.IsActive)
	})

	t.Run("unknown code", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.Update(ctx, newLink("abc23456", "key-1", "", now))

		assert.ErrorIs(t, err, links.ErrNotFound)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("removes the link and its clicks", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc23456", "key-1", "", now)
		require.NoError(t, s.Create(ctx, link))
		require.NoError(t, s.RecordClick(ctx, &links.Click{LinkID: link.ID, ClickedAt: now}))

		require.NoError(t, s.Delete(ctx, "abc23456"))

		_, err := s.GetByCode(ctx, "abc23456")
		assert.ErrorIs(t, err, links.ErrNotFound)

		clicks, err := s.RecentClicks(ctx, link.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, clicks)

		// The edit key is free again.
		assert.NoError(t, s.Create(ctx, newLink("new23456", "key-1", "", now)))
	})

	t.Run("unknown code", func(t *testing.T) {
		s := store.NewMemoryStore()

		assert.ErrorIs(t, s.Delete(ctx, "missing"), links.ErrNotFound)
	})
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s := store.NewMemoryStore()
	require.NoError(t, s.Create(ctx, newLink("anon1111", "k1", "", base)))
	require.NoError(t, s.Create(ctx, newLink("anon2222", "k2", "", base.Add(time.Hour))))
	require.NoError(t, s.Create(ctx, newLink("alice111", "k3", "alice", base)))
	require.NoError(t, s.Create(ctx, newLink("alice222", "k4", "alice", base.Add(2*time.Hour))))
	require.NoError(t, s.Create(ctx, newLink("bob11111", "k5", "bob", base)))

	inactive := newLink("alice333", "k6", "alice", base.Add(3*time.Hour))
	inactive.IsActive = false
	require.NoError(t, s.Create(ctx, inactive))

	codes := func(ls []*links.Link) []links.Code {
		out := make([]links.Code, 0, len(ls))
		for _, l := range ls {
			out = append(out, l.Code)
		}

		return out
	}

	t.Run("owner sees own links newest first", func(t *testing.T) {
		got, err := s.List(ctx, links.ListFilter{OwnerID: "alice", ActiveOnly: true})

		require.NoError(t, err)
		assert.Equal(t, []links.Code{"alice222", "alice111"}, codes(got))
	})

	t.Run("inactive links are included without ActiveOnly", func(t *testing.T) {
		got, err := s.List(ctx, links.ListFilter{OwnerID: "alice"})

		require.NoError(t, err)
		assert.Equal(t, []links.Code{"alice333", "alice222", "alice111"}, codes(got))
	})

	t.Run("unowned filter sees only anonymous links", func(t *testing.T) {
		got, err := s.List(ctx, links.ListFilter{Unowned: true, ActiveOnly: true})

		require.NoError(t, err)
		assert.Equal(t, []links.Code{"anon2222", "anon1111"}, codes(got))
	})

	t.Run("unknown owner sees nothing", func(t *testing.T) {
		got, err := s.List(ctx, links.ListFilter{OwnerID: "carol"})

		require.NoError(t, err)
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})
}

func TestMemoryStore_RecordClick(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("assigns ids and bumps the counter", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc23456", "key-1", "", now)
		require.NoError(t, s.Create(ctx, link))

		first := &links.Click{LinkID: link.ID, ClickedAt: now}
		second := &links.Click{LinkID: link.ID, ClickedAt: now.Add(time.Second)}
		require.NoError(t, s.RecordClick(ctx, first))
		require.NoError(t, s.RecordClick(ctx, second))

		assert.Less(t, first.ID, second.ID)

		got, _ := s.GetByCode(ctx, "abc23456")
		assert.Equal(t, int64(2), got.ClickCount)
	})

	t.Run("unknown link", func(t *testing.T) {
		s := store.NewMemoryStore()

		err := s.RecordClick(ctx, &links.Click{LinkID: "missing", ClickedAt: now})

		assert.ErrorIs(t, err, links.ErrNotFound)
	})

	t.Run("concurrent clicks are all counted", func(t *testing.T) {
		s := store.NewMemoryStore()
		link := newLink("abc23456", "key-1", "", now)
		require.NoError(t, s.Create(ctx, link))

		const n = 50

		var wg sync.WaitGroup
		for range n {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_ = s.RecordClick(ctx, &links.Click{LinkID: link.ID, ClickedAt: time.Now().UTC()})
			}()
		}

		wg.Wait()

		got, _ := s.GetByCode(ctx, "abc23456")
		assert.Equal(t, int64(n), got.ClickCount)

		clicks, _ := s.RecentClicks(ctx, link.ID, 1000)
		assert.Len(t, clicks, n)
	})
}

func TestMemoryStore_Analytics(t *testing.T) {
	ctx := context.Background()
	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	s := store.NewMemoryStore()
	link := newLink("abc23456", "key-1", "", day1)
	require.NoError(t, s.Create(ctx, link))

	for _, c := range []*links.Click{
		{LinkID: link.ID, ClickedAt: day1, Country: "Germany", DeviceType: links.DeviceMobile},
		{LinkID: link.ID, ClickedAt: day1.Add(time.Hour), Country: "Germany", DeviceType: links.DeviceDesktop},
		{LinkID: link.ID, ClickedAt: day2, DeviceType: links.DeviceMobile},
	} {
		require.NoError(t, s.RecordClick(ctx, c))
	}

	t.Run("by day", func(t *testing.T) {
		got, err := s.ClicksByDay(ctx, link.ID, day1.Add(-time.Hour))

		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].Count)
	})

	t.Run("by country skips unknown", func(t *testing.T) {
		got, err := s.ClicksByCountry(ctx, link.ID)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].Count)
	})

	t.Run("by device", func(t *testing.T) {
		got, err := s.ClicksByDevice(ctx, link.ID)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Mobile", got[0].DeviceType)
	})

	t.Run("recent clicks newest first and limited", func(t *testing.T) {
		got, err := s.RecentClicks(ctx, link.ID, 2)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, day2, got[0].ClickedAt)
		assert.Equal(t, day1.Add(time.Hour), got[1].ClickedAt)
	})
}
