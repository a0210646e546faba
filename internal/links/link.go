package links

import (
	"time"
)

// Code represents a short link code.
type Code string

// DeviceType is the coarse client classification stored with each click.
type DeviceType string

const (
	DeviceMobile  DeviceType = "Mobile"
	DeviceTablet  DeviceType = "Tablet"
	DeviceDesktop DeviceType = "Desktop"
	DeviceBot     DeviceType = "Bot"
	DeviceOther   DeviceType = "Other"
	DeviceUnknown DeviceType = "Unknown"
)

// Link is a shortened URL together with its ownership and counters.
type Link struct {
	ID         string
	Code       Code
	EditKey    string
	LongURL    string
	OwnerID    string // empty for anonymous-owned links
	Title      string
	CreatedAt  time.Time
	ExpiresAt  *time.Time
	IsActive   bool
	ClickCount int64
}

// Owned reports whether the link belongs to an authenticated identity.
func (l *Link) Owned() bool {
	return l.OwnerID != ""
}

// IsExpired reports whether the link has an expiry strictly before now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// CheckRedirectable returns a GoneError when the link is inactive or expired.
func (l *Link) CheckRedirectable(now time.Time) error {
	if !l.IsActive {
		return &GoneError{Reason: "This short URL has been deactivated"}
	}

	if l.IsExpired(now) {
		return &GoneError{Reason: "This short URL has expired"}
	}

	return nil
}

// Click is a single recorded redirect.
type Click struct {
	ID         int64
	LinkID     string
	ClickedAt  time.Time
	IPAddress  string // anonymized
	UserAgent  string
	Referrer   string
	Country    string // empty when geolocation failed
	DeviceType DeviceType
}
