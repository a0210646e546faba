package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/serroba/linkstats/internal/links"
)

// DateLayout is the format of DayCount.Date.
const DateLayout = "2006-01-02"

// DayCount is the number of clicks on one UTC calendar date.
type DayCount struct {
	Date  string `json:"date"  example:"2024-01-01"`
	Count int64  `json:"count" example:"2"`
}

// CountryCount is the number of clicks resolved to one country.
type CountryCount struct {
	Country string `json:"country" example:"Germany"`
	Count   int64  `json:"count"   example:"12"`
}

// DeviceCount is the number of clicks from one device type.
type DeviceCount struct {
	DeviceType string `json:"deviceType" example:"Mobile"`
	Count      int64  `json:"count"      example:"7"`
}

// GroupByDay counts clicks at or after since per UTC date, in ascending date order.
func GroupByDay(clicks []*links.Click, since time.Time) []DayCount {
	counts := make(map[string]int64)

	for _, c := range clicks {
		if c.ClickedAt.Before(since) {
			continue
		}

		counts[c.ClickedAt.UTC().Format(DateLayout)]++
	}

	out := make([]DayCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, DayCount{Date: date, Count: n})
	}

	// ISO dates sort lexically.
	slices.SortFunc(out, func(a, b DayCount) int {
		return cmp.Compare(a.Date, b.Date)
	})

	return out
}

// GroupByCountry counts clicks per known country, most clicks first.
func GroupByCountry(clicks []*links.Click) []CountryCount {
	counts := countBy(clicks, func(c *links.Click) string { return c.Country })

	out := make([]CountryCount, 0, len(counts))
	for _, kc := range counts {
		out = append(out, CountryCount{Country: kc.key, Count: kc.count})
	}

	return out
}

// GroupByDevice counts clicks per known device type, most clicks first.
func GroupByDevice(clicks []*links.Click) []DeviceCount {
	counts := countBy(clicks, func(c *links.Click) string { return string(c.DeviceType) })

	out := make([]DeviceCount, 0, len(counts))
	for _, kc := range counts {
		out = append(out, DeviceCount{DeviceType: kc.key, Count: kc.count})
	}

	return out
}

type keyCount struct {
	key   string
	count int64
}

// countBy groups by a non-empty key and sorts by count descending, then key ascending.
func countBy(clicks []*links.Click, key func(*links.Click) string) []keyCount {
	counts := make(map[string]int64)

	for _, c := range clicks {
		if k := key(c); k != "" {
			counts[k]++
		}
	}

	out := make([]keyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, keyCount{key: k, count: n})
	}

	slices.SortFunc(out, func(a, b keyCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}

		return cmp.Compare(a.key, b.key)
	})

	return out
}
