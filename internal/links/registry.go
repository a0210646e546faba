package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultExpiry is applied to new links created without an explicit expiry.
	DefaultExpiry = 30 * 24 * time.Hour

	maxCodeAttempts = 5
)

// CreateParams describes a link to create.
type CreateParams struct {
	LongURL   string
	OwnerID   string
	ExpiresAt *time.Time
	Title     string
}

// Patch lists the fields an update may change. Nil fields are left untouched.
type Patch struct {
	LongURL   *string
	Title     *string
	ExpiresAt *time.Time
	IsActive  *bool

	// OwnerID is only accepted when it matches the current owner.
	OwnerID *string
}

// Registry owns short code generation, expiry policy and link lifecycle.
type Registry struct {
	store        Repository
	cache        Invalidator
	generateCode CodeGenerator
	generateKey  CodeGenerator
	logger       *zap.Logger
}

// NewRegistry creates a link registry.
func NewRegistry(
	store Repository,
	cache Invalidator,
	codes CodeGenerator,
	keys CodeGenerator,
	logger *zap.Logger,
) *Registry {
	return &Registry{
		store:        store,
		cache:        cache,
		generateCode: codes,
		generateKey:  keys,
		logger:       logger,
	}
}

// Create validates the params and stores a new link under a fresh short code.
// A uniqueness conflict from the store triggers a new code; check-then-insert is never used.
func (r *Registry) Create(ctx context.Context, params CreateParams) (*Link, error) {
	if err := ValidateLongURL(params.LongURL); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Microsecond)

	expiresAt := params.ExpiresAt
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return nil, &ValidationError{Msg: "Expiration date must be in the future"}
		}

		utc := expiresAt.UTC().Truncate(time.Microsecond)
		expiresAt = &utc
	} else {
		def := now.Add(DefaultExpiry)
		expiresAt = &def
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		link := &Link{
			ID:        uuid.NewString(),
			Code:      Code(r.generateCode()),
			EditKey:   r.generateKey(),
			LongURL:   params.LongURL,
			OwnerID:   params.OwnerID,
			Title:     params.Title,
			CreatedAt: now,
			ExpiresAt: expiresAt,
			IsActive:  true,
		}

		err := r.store.Create(ctx, link)
		if err == nil {
			metrics.LinksCreatedTotal.Inc()

			return link, nil
		}

		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		r.logger.Warn("short code collision",
			zap.String("code", string(link.Code)),
			zap.Int("attempt", attempt),
		)
	}

	r.logger.Error("short code space exhausted, check code length and alphabet",
		zap.Int("attempts", maxCodeAttempts),
	)

	return nil, fmt.Errorf("%w: no free code after %d attempts", ErrConflict, maxCodeAttempts)
}

// Get returns the link stored under code.
func (r *Registry) Get(ctx context.Context, code Code) (*Link, error) {
	return r.store.GetByCode(ctx, code)
}

// List returns the links matching filter, newest first.
func (r *Registry) List(ctx context.Context, filter ListFilter) ([]*Link, error) {
	return r.store.List(ctx, filter)
}

// Update applies patch to the link stored under code.
func (r *Registry) Update(ctx context.Context, code Code, patch Patch) (*Link, error) {
	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err = applyPatch(link, patch, time.Now()); err != nil {
		return nil, err
	}

	if err = r.store.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	r.invalidate(ctx, code)

	return link, nil
}

// Delete removes the link and its clicks.
func (r *Registry) Delete(ctx context.Context, code Code) error {
	if err := r.store.Delete(ctx, code); err != nil {
		return err
	}

	r.invalidate(ctx, code)

	return nil
}

func (r *Registry) invalidate(ctx context.Context, code Code) {
	if err := r.cache.Invalidate(ctx, code); err != nil {
		r.logger.Error("failed to invalidate cached link",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
}

func applyPatch(link *Link, patch Patch, now time.Time) error {
	if patch.OwnerID != nil && *patch.OwnerID != link.OwnerID {
		if link.Owned() && *patch.OwnerID == "" {
			return &ValidationError{Msg: "Ownership of an owned link cannot be cleared"}
		}

		return &ValidationError{Msg: "Owner cannot be changed"}
	}

	if patch.LongURL != nil {
		if err := ValidateLongURL(*patch.LongURL); err != nil {
			return err
		}

		link.LongURL = *patch.LongURL
	}

	if patch.ExpiresAt != nil {
		if !patch.ExpiresAt.After(now) {
			return &ValidationError{Msg: "Expiration date must be in the future"}
		}

		utc := patch.ExpiresAt.UTC().Truncate(time.Microsecond)
		link.ExpiresAt = &utc
	}

	if patch.Title != nil {
		link.Title = *patch.Title
	}

	if patch.IsActive != nil {
		link.IsActive = *patch.IsActive
	}

	return nil
}

// ValidateLongURL accepts absolute http and https URLs only.
func ValidateLongURL(raw string) error {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return &ValidationError{Msg: "URL must start with http:// or https://"}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &ValidationError{Msg: "Enter a valid URL"}
	}

	return nil
}
