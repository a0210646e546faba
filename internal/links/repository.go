package links

import "context"

// ListFilter narrows a listing to the links a caller may see.
type ListFilter struct {
	// OwnerID selects links owned by this identity. Ignored when Unowned is set.
	OwnerID string
	// Unowned selects anonymous-owned links only.
	Unowned bool
	// ActiveOnly hides deactivated links.
	ActiveOnly bool
}

// Repository defines the storage operations of the link registry.
type Repository interface {
	// Create inserts a new link. It returns ErrConflict when the short code
	// or edit key violates a uniqueness constraint.
	Create(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code Code) (*Link, error)

	// Update persists the mutable fields (long URL, title, expiry, active flag)
	// and refreshes ClickCount from the store.
	Update(ctx context.Context, link *Link) error

	// Delete removes the link and, by cascade, its clicks.
	Delete(ctx context.Context, code Code) error
	List(ctx context.Context, filter ListFilter) ([]*Link, error)
}

// Invalidator drops cached copies of a link after it changes.
type Invalidator interface {
	Invalidate(ctx context.Context, code Code) error
}

// NopInvalidator is used when no cache sits in front of the repository.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(_ context.Context, _ Code) error {
	return nil
}
