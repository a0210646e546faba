// Package access decides what a caller may see and change.
//
// A caller is either Authenticated, carrying a stable identity, or Anonymous,
// optionally presenting the edit key of a link it created. Redirects never go
// through this package.
package access

import (
	"context"
	"crypto/subtle"

	"github.com/serroba/linkstats/internal/links"
)

// Caller is the identity behind a request. Only Authenticated and Anonymous implement it.
type Caller interface {
	caller()
}

// Authenticated is a caller with a verified identity.
type Authenticated struct {
	UserID string
}

// Anonymous is a caller without identity, possibly proving possession of a link via its edit key.
type Anonymous struct {
	EditKey string
}

func (Authenticated) caller() {}
func (Anonymous) caller()     {}

type callerKey struct{}

// ContextWithCaller stores the caller in ctx.
func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored in ctx, or an anonymous caller without key.
func CallerFromContext(ctx context.Context) Caller {
	if c, ok := ctx.Value(callerKey{}).(Caller); ok && c != nil {
		return c
	}

	return Anonymous{}
}

// Visibility returns the listing filter for c: authenticated callers see their
// own links, anonymous callers see unowned links.
func Visibility(c Caller) links.ListFilter {
	switch c := c.(type) {
	case Authenticated:
		return links.ListFilter{OwnerID: c.UserID}
	default:
		return links.ListFilter{Unowned: true}
	}
}

// CanView reports whether link is visible to c.
func CanView(c Caller, link *links.Link) bool {
	switch c := c.(type) {
	case Authenticated:
		return link.OwnerID == c.UserID
	default:
		return !link.Owned()
	}
}

// CanMutate returns links.ErrPermissionDenied unless c may update or delete link.
func CanMutate(c Caller, link *links.Link) error {
	switch c := c.(type) {
	case Authenticated:
		if link.Owned() && link.OwnerID == c.UserID {
			return nil
		}
	case Anonymous:
		if c.EditKey != "" && subtle.ConstantTimeCompare([]byte(c.EditKey), []byte(link.EditKey)) == 1 {
			return nil
		}
	}

	return links.ErrPermissionDenied
}
