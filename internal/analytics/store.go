package analytics

import "context"

// Store consumes analytics events off the bus, e.g. to maintain rollups.
type Store interface {
	SaveLinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	SaveLinkClicked(ctx context.Context, event *LinkClickedEvent) error
}
