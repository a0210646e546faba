package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/links"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	since      time.Time
	limit      int
	countryErr error
	clicks     []*links.Click
}

func (f *fakeSource) ClicksByDay(_ context.Context, _ string, since time.Time) ([]analytics.DayCount, error) {
	f.since = since

	return analytics.GroupByDay(f.clicks, since), nil
}

func (f *fakeSource) ClicksByCountry(_ context.Context, _ string) ([]analytics.CountryCount, error) {
	if f.countryErr != nil {
		return nil, f.countryErr
	}

	return analytics.GroupByCountry(f.clicks), nil
}

func (f *fakeSource) ClicksByDevice(_ context.Context, _ string) ([]analytics.DeviceCount, error) {
	return analytics.GroupByDevice(f.clicks), nil
}

func (f *fakeSource) RecentClicks(_ context.Context, _ string, limit int) ([]*links.Click, error) {
	f.limit = limit

	if len(f.clicks) > limit {
		return f.clicks[:limit], nil
	}

	return f.clicks, nil
}

func TestAggregator_Report(t *testing.T) {
	link := &links.Link{ID: "link-1", Code: "abc23456"}

	t.Run("builds all series", func(t *testing.T) {
		now := time.Now().UTC()
		src := &fakeSource{clicks: []*links.Click{
			{ClickedAt: now, Country: "Germany", DeviceType: links.DeviceMobile},
			{ClickedAt: now, Country: "Germany", DeviceType: links.DeviceDesktop},
		}}
		agg := analytics.NewAggregator(src)

		report, err := agg.Report(context.Background(), link, 10)

		require.NoError(t, err)
		assert.Same(t, link, report.Link)
		assert.Equal(t, []analytics.DayCount{{Date: now.Format(analytics.DateLayout), Count: 2}}, report.ClicksByDay)
		assert.Equal(t, []analytics.CountryCount{{Country: "Germany", Count: 2}}, report.ClicksByCountry)
		assert.Len(t, report.ClicksByDevice, 2)
		assert.Len(t, report.Clicks, 2)
		assert.WithinDuration(t, now.Add(-analytics.DailyWindow), src.since, time.Minute)
	})

	t.Run("clamps the click limit", func(t *testing.T) {
		src := &fakeSource{}
		agg := analytics.NewAggregator(src)

		_, err := agg.Report(context.Background(), link, 0)
		require.NoError(t, err)
		assert.Equal(t, analytics.DefaultClickLimit, src.limit)

		_, err = agg.Report(context.Background(), link, 5000)
		require.NoError(t, err)
		assert.Equal(t, analytics.MaxClickLimit, src.limit)

		_, err = agg.Report(context.Background(), link, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, src.limit)
	})

	t.Run("returns source errors", func(t *testing.T) {
		boom := errors.New("db down")
		agg := analytics.NewAggregator(&fakeSource{countryErr: boom})

		_, err := agg.Report(context.Background(), link, 10)

		assert.ErrorIs(t, err, boom)
	})
}
