package api

import (
	"context"
	"net/http"

	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

// LeadStats fetches the lead analytics summary.
func (c *Client) LeadStats(ctx context.Context) (resource.Result[domain.LeadStats], error) {
	return do[domain.LeadStats](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/analytics/leads",
		path:     "/analytics/leads",
	})
}

// CampaignStats fetches the campaign analytics summary.
func (c *Client) CampaignStats(ctx context.Context) (resource.Result[domain.CampaignStats], error) {
	return do[domain.CampaignStats](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/analytics/campaigns",
		path:     "/analytics/campaigns",
	})
}

// Health fetches the backend health report.
func (c *Client) Health(ctx context.Context) (resource.Result[domain.Health], error) {
	return do[domain.Health](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/system/health",
		path:     "/system/health",
	})
}
