package ratelimit

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Scope groups requests that share rate limits.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeRead     Scope = "read"
	ScopeWrite    Scope = "write"
	ScopeRedirect Scope = "redirect"
	// ScopeCustom labels limits declared on a single route.
	ScopeCustom Scope = "custom"
)

// MetadataKey is the huma operation metadata key holding an EndpointConfig.
const MetadataKey = "rateLimit"

// EndpointConfig tunes rate limiting for one operation.
type EndpointConfig struct {
	// Scope replaces the method-based scope. Ignored when Limits is set.
	Scope Scope

	// Limits replaces the policy entirely for this route.
	Limits []LimitConfig

	Disabled bool
}

// EndpointConfigOf returns the EndpointConfig attached to op, if any.
func EndpointConfigOf(op *huma.Operation) (EndpointConfig, bool) {
	if op == nil || op.Metadata == nil {
		return EndpointConfig{}, false
	}

	cfg, ok := op.Metadata[MetadataKey].(EndpointConfig)

	return cfg, ok
}

// ScopesFor returns the scopes a request falls under: always global, plus the
// configured scope or one derived from the HTTP method.
func ScopesFor(method string, op *huma.Operation) []Scope {
	if cfg, ok := EndpointConfigOf(op); ok && cfg.Scope != "" {
		return []Scope{ScopeGlobal, cfg.Scope}
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return []Scope{ScopeGlobal, ScopeRead}
	default:
		return []Scope{ScopeGlobal, ScopeWrite}
	}
}
