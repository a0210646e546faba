package handlers

import (
	"time"

	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/links"
)

// LinkBody is the serialized form of a link.
type LinkBody struct {
	ShortCode  string     `json:"shortCode"           example:"aB3dE5fG"                           doc:"The short code"`
	ShortURL   string     `json:"shortURL"            example:"http://localhost:8888/r/aB3dE5fG"   doc:"The absolute short URL"`
	LongURL    string     `json:"longURL"             example:"https://example.com/very/long/path" doc:"The redirect target"`
	Title      string     `json:"title"`
	OwnerID    string     `json:"ownerId,omitempty"   doc:"Owning identity, absent for anonymous links"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	IsActive   bool       `json:"isActive"`
	IsExpired  bool       `json:"isExpired"`
	ClickCount int64      `json:"clickCount"`
	EditKey    string     `json:"editKey,omitempty"   doc:"Secret for anonymous edits, only returned on creation"`
}

func newLinkBody(link *links.Link, baseURL string, now time.Time) LinkBody {
	return LinkBody{
		ShortCode:  string(link.Code),
		ShortURL:   shortURL(baseURL, link.Code),
		LongURL:    link.LongURL,
		Title:      link.Title,
		OwnerID:    link.OwnerID,
		CreatedAt:  link.CreatedAt,
		ExpiresAt:  link.ExpiresAt,
		IsActive:   link.IsActive,
		IsExpired:  link.IsExpired(now),
		ClickCount: link.ClickCount,
	}
}

func shortURL(baseURL string, code links.Code) string {
	return baseURL + "/r/" + string(code)
}

// CodeRequest addresses a single link.
type CodeRequest struct {
	ShortCode string `path:"shortCode" doc:"The short code" example:"aB3dE5fG"`
}

// CreateLinkRequest is the request body for creating a link.
type CreateLinkRequest struct {
	Body struct {
		LongURL   string     `json:"longURL"             doc:"The URL to shorten" example:"https://example.com/very/long/path"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty" doc:"Expiry, defaults to 30 days from now"`
		Title     string     `json:"title,omitempty"     maxLength:"255"`
	}
}

// CreateLinkResponse is returned with 201 after a link is created.
type CreateLinkResponse struct {
	Location string `header:"Location"`
	Body     LinkBody
}

// LinkResponse wraps a single link.
type LinkResponse struct {
	Body LinkBody
}

// ListLinksResponse lists the caller's active links, newest first.
type ListLinksResponse struct {
	Body struct {
		Links []LinkBody `json:"links"`
	}
}

// UpdateLinkRequest changes the mutable fields of a link. Omitted fields are kept.
type UpdateLinkRequest struct {
	ShortCode string `path:"shortCode"`
	Body      struct {
		LongURL   *string    `json:"longURL,omitempty"`
		Title     *string    `json:"title,omitempty"     maxLength:"255"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
		IsActive  *bool      `json:"isActive,omitempty"`
		OwnerID   *string    `json:"ownerId,omitempty"   doc:"Must equal the current owner"`
	}
}

// AnalyticsRequest selects a link and how many raw clicks to return.
type AnalyticsRequest struct {
	ShortCode string `path:"shortCode"`
	Limit     int    `query:"limit" default:"100" doc:"Maximum number of clicks to return, capped at 1000"`
}

// ClickBody is one recorded click.
type ClickBody struct {
	ClickedAt  time.Time `json:"clickedAt"`
	IPAddress  string    `json:"ipAddress"           example:"203.0.113.0"`
	UserAgent  string    `json:"userAgent"`
	Referrer   string    `json:"referrer"`
	Country    string    `json:"country,omitempty"`
	DeviceType string    `json:"deviceType"          example:"Mobile"`
}

// AnalyticsResponse is a link with its grouped click series.
type AnalyticsResponse struct {
	Body struct {
		LinkBody
		ClicksByDay     []analytics.DayCount     `json:"clicksByDay"`
		ClicksByCountry []analytics.CountryCount `json:"clicksByCountry"`
		ClicksByDevice  []analytics.DeviceCount  `json:"clicksByDevice"`
		Clicks          []ClickBody              `json:"clicks"`
	}
}

func newClickBodies(in []*links.Click) []ClickBody {
	out := make([]ClickBody, 0, len(in))
	for _, c := range in {
		out = append(out, ClickBody{
			ClickedAt:  c.ClickedAt,
			IPAddress:  c.IPAddress,
			UserAgent:  c.UserAgent,
			Referrer:   c.Referrer,
			Country:    c.Country,
			DeviceType: string(c.DeviceType),
		})
	}

	return out
}

// RedirectRequest is the request for following a short URL.
type RedirectRequest struct {
	ShortCode string `path:"shortCode" doc:"The short code" example:"aB3dE5fG"`
}

// RedirectResponse redirects to the long URL.
type RedirectResponse struct {
	Status       int
	Location     string `header:"Location"`
	CacheControl string `header:"Cache-Control"`
}
