package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/middleware"
	"github.com/serroba/linkstats/internal/ratelimit"
)

// RegisterRoutes registers the redirect and link management routes.
func RegisterRoutes(api huma.API, linkHandler *LinkHandler, redirectHandler *RedirectHandler) {
	// The redirect is the hot path: its own scope, and no identity lookup.
	huma.Register(api, huma.Operation{
		OperationID:   "follow-link",
		Method:        http.MethodGet,
		Path:          "/r/{shortCode}",
		Summary:       "Follow a short URL",
		Description:   "Records the visit and redirects to the long URL.",
		Tags:          []string{"Redirect"},
		DefaultStatus: http.StatusFound,
		Errors:        []int{http.StatusNotFound, http.StatusGone},
		Metadata: map[string]any{
			middleware.SkipIdentityKey: true,
			ratelimit.MetadataKey:      ratelimit.EndpointConfig{Scope: ratelimit.ScopeRedirect},
		},
	}, redirectHandler.Redirect)

	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/links",
		Summary:       "Create a short link",
		Description:   "Anonymous links return an edit key that is required for later changes.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, linkHandler.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/links",
		Summary:     "List links",
		Description: "Lists the caller's active links, newest first.",
		Tags:        []string{"Links"},
	}, linkHandler.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/links/{shortCode}",
		Summary:     "Get a link",
		Tags:        []string{"Links"},
	}, linkHandler.GetLink)

	for _, op := range []struct{ id, method string }{
		{"patch-link", http.MethodPatch},
		{"put-link", http.MethodPut},
	} {
		huma.Register(api, huma.Operation{
			OperationID: op.id,
			Method:      op.method,
			Path:        "/links/{shortCode}",
			Summary:     "Update a link",
			Description: "Changes the long URL, title, expiry or active flag. Omitted fields are kept.",
			Tags:        []string{"Links"},
			Errors:      []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound},
		}, linkHandler.UpdateLink)
	}

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/links/{shortCode}",
		Summary:       "Delete a link",
		Description:   "Deletes the link together with its recorded clicks.",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusForbidden, http.StatusNotFound},
	}, linkHandler.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-analytics",
		Method:      http.MethodGet,
		Path:        "/links/{shortCode}/analytics",
		Summary:     "Get link analytics",
		Description: "Returns clicks grouped by day (last 30 days), country and device, plus the most recent clicks.",
		Tags:        []string{"Analytics"},
	}, linkHandler.GetAnalytics)
}
