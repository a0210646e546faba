package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkstats/internal/access"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/links"
	"github.com/serroba/linkstats/internal/messaging"
	"go.uber.org/zap"
)

// LinkHandler serves link management and analytics.
type LinkHandler struct {
	registry           *links.Registry
	aggregator         *analytics.Aggregator
	baseURL            string
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent]
	logger             *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	registry *links.Registry,
	aggregator *analytics.Aggregator,
	baseURL string,
	publishLinkCreated messaging.Publish[analytics.LinkCreatedEvent],
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		registry:           registry,
		aggregator:         aggregator,
		baseURL:            baseURL,
		publishLinkCreated: publishLinkCreated,
		logger:             logger,
	}
}

func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	params := links.CreateParams{
		LongURL:   req.Body.LongURL,
		ExpiresAt: req.Body.ExpiresAt,
		Title:     req.Body.Title,
	}

	if caller, ok := access.CallerFromContext(ctx).(access.Authenticated); ok {
		params.OwnerID = caller.UserID
	}

	link, err := h.registry.Create(ctx, params)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to create link")
	}

	event := &analytics.LinkCreatedEvent{
		Code:      string(link.Code),
		LongURL:   link.LongURL,
		OwnerID:   link.OwnerID,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}

	if err := h.publishLinkCreated(ctx, event); err != nil {
		h.logger.Error("failed to publish analytics event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &CreateLinkResponse{Body: newLinkBody(link, h.baseURL, time.Now())}
	resp.Body.EditKey = link.EditKey
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *struct{}) (*ListLinksResponse, error) {
	filter := access.Visibility(access.CallerFromContext(ctx))
	filter.ActiveOnly = true

	found, err := h.registry.List(ctx, filter)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to list links")
	}

	now := time.Now()
	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkBody, 0, len(found))

	for _, link := range found {
		resp.Body.Links = append(resp.Body.Links, newLinkBody(link, h.baseURL, now))
	}

	return resp, nil
}

func (h *LinkHandler) GetLink(ctx context.Context, req *CodeRequest) (*LinkResponse, error) {
	link, err := h.visibleLink(ctx, req.ShortCode)
	if err != nil {
		return nil, err
	}

	return &LinkResponse{Body: newLinkBody(link, h.baseURL, time.Now())}, nil
}

func (h *LinkHandler) UpdateLink(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	if _, err := h.mutableLink(ctx, req.ShortCode); err != nil {
		return nil, err
	}

	patch := links.Patch{
		LongURL:   req.Body.LongURL,
		Title:     req.Body.Title,
		ExpiresAt: req.Body.ExpiresAt,
		IsActive:  req.Body.IsActive,
		OwnerID:   req.Body.OwnerID,
	}

	link, err := h.registry.Update(ctx, links.Code(req.ShortCode), patch)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to update link", zap.String("code", req.ShortCode))
	}

	return &LinkResponse{Body: newLinkBody(link, h.baseURL, time.Now())}, nil
}

func (h *LinkHandler) DeleteLink(ctx context.Context, req *CodeRequest) (*struct{}, error) {
	if _, err := h.mutableLink(ctx, req.ShortCode); err != nil {
		return nil, err
	}

	if err := h.registry.Delete(ctx, links.Code(req.ShortCode)); err != nil {
		return nil, toHTTPError(err, h.logger, "failed to delete link", zap.String("code", req.ShortCode))
	}

	return nil, nil
}

func (h *LinkHandler) GetAnalytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	link, err := h.visibleLink(ctx, req.ShortCode)
	if err != nil {
		return nil, err
	}

	report, err := h.aggregator.Report(ctx, link, req.Limit)
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to build analytics", zap.String("code", req.ShortCode))
	}

	resp := &AnalyticsResponse{}
	resp.Body.LinkBody = newLinkBody(report.Link, h.baseURL, time.Now())
	resp.Body.ClicksByDay = report.ClicksByDay
	resp.Body.ClicksByCountry = report.ClicksByCountry
	resp.Body.ClicksByDevice = report.ClicksByDevice
	resp.Body.Clicks = newClickBodies(report.Clicks)

	return resp, nil
}

// visibleLink loads a link the caller may read. Links outside the caller's
// view are reported as not found.
func (h *LinkHandler) visibleLink(ctx context.Context, code string) (*links.Link, error) {
	link, err := h.registry.Get(ctx, links.Code(code))
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to get link", zap.String("code", code))
	}

	if !access.CanView(access.CallerFromContext(ctx), link) {
		return nil, huma.Error404NotFound("short url not found")
	}

	return link, nil
}

// mutableLink loads a link the caller may change. A denied caller that cannot
// see the link gets 404, one that can see it gets 403.
func (h *LinkHandler) mutableLink(ctx context.Context, code string) (*links.Link, error) {
	link, err := h.registry.Get(ctx, links.Code(code))
	if err != nil {
		return nil, toHTTPError(err, h.logger, "failed to get link", zap.String("code", code))
	}

	caller := access.CallerFromContext(ctx)

	if err := access.CanMutate(caller, link); err != nil {
		if !access.CanView(caller, link) {
			return nil, huma.Error404NotFound("short url not found")
		}

		return nil, toHTTPError(err, h.logger, "permission check failed")
	}

	return link, nil
}
