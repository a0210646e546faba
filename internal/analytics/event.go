package analytics

import "time"

const (
	TopicLinkCreated = "link.created"
	TopicLinkClicked = "link.clicked"
)

// LinkCreatedEvent is emitted after a link is stored.
type LinkCreatedEvent struct {
	Code      string     `json:"code"`
	LongURL   string     `json:"longUrl"`
	OwnerID   string     `json:"ownerId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// LinkClickedEvent is emitted after a click has been persisted.
// It carries the derived fields only; the anonymized IP stays in the store.
type LinkClickedEvent struct {
	Code       string    `json:"code"`
	LinkID     string    `json:"linkId"`
	ClickedAt  time.Time `json:"clickedAt"`
	Country    string    `json:"country,omitempty"`
	DeviceType string    `json:"deviceType"`
	Referrer   string    `json:"referrer,omitempty"`
}
