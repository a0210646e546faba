package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/metrics"
	"go.uber.org/zap"
)

// RedirectHandler follows short URLs and records each visit.
type RedirectHandler struct {
	pipeline *clicks.Pipeline
	logger   *zap.Logger
}

// NewRedirectHandler creates a redirect handler.
func NewRedirectHandler(pipeline *clicks.Pipeline, logger *zap.Logger) *RedirectHandler {
	return &RedirectHandler{pipeline: pipeline, logger: logger}
}

// Redirect answers 302 for live links, 410 for deactivated or expired ones
// and 404 for unknown codes. A click is recorded before the 302 is sent; when
// recording fails the visitor gets a 500 instead of an unrecorded redirect.
func (h *RedirectHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.pipeline.Follow(ctx, links.Code(req.ShortCode), clicks.RequestMetaFromContext(ctx))
	if err != nil {
		metrics.RedirectsTotal.WithLabelValues(outcome(err)).Inc()

		return nil, toHTTPError(err, h.logger, "failed to follow link", zap.String("code", req.ShortCode))
	}

	metrics.RedirectsTotal.WithLabelValues(metrics.OutcomeRedirected).Inc()

	return &RedirectResponse{
		Status:       http.StatusFound,
		Location:     link.LongURL,
		CacheControl: "no-store",
	}, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, links.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, links.ErrGone):
		return metrics.OutcomeGone
	default:
		return metrics.OutcomeError
	}
}
