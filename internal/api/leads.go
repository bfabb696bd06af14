package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

// leadList is the wire form of GET /leads.
type leadList struct {
	Leads      []domain.Lead           `json:"leads"`
	Pagination resource.PaginationInfo `json:"pagination"`
}

// ListLeads fetches one page of leads. Filters in p (status, industry,
// search, sort, order) are sent as query parameters.
func (c *Client) ListLeads(ctx context.Context, p resource.PageParams) (resource.Result[resource.Page[domain.Lead]], error) {
	res, err := do[leadList](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/leads",
		path:     "/leads",
		query:    p.Query(),
	})
	if err != nil || !res.Success {
		return reject[resource.Page[domain.Lead]](res), err
	}

	page, limit := res.Data.Pagination.Page, res.Data.Pagination.Limit
	if page <= 0 {
		page = p.Page
	}
	if limit <= 0 {
		limit = p.Limit
	}
	return resource.OK(resource.Page[domain.Lead]{
		Items:      res.Data.Leads,
		Pagination: resource.NewPaginationInfo(page, limit, res.Data.Pagination.Total),
	}), nil
}

// GetLead fetches a single lead.
func (c *Client) GetLead(ctx context.Context, id int) (resource.Result[domain.Lead], error) {
	return do[domain.Lead](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/leads/{id}",
		path:     fmt.Sprintf("/leads/%d", id),
	})
}

// StatusUpdate is the argument of UpdateLeadStatus.
type StatusUpdate struct {
	LeadID         int    `json:"-"`
	Status         string `json:"status"`
	NextAction     string `json:"next_action,omitempty"`
	NextActionDate string `json:"next_action_date,omitempty"`
}

// UpdateLeadStatus moves a lead to a new pipeline status and returns the
// updated lead.
func (c *Client) UpdateLeadStatus(ctx context.Context, u StatusUpdate) (resource.Result[domain.Lead], error) {
	return do[domain.Lead](ctx, c, request{
		method:   http.MethodPut,
		endpoint: "/leads/{id}/status",
		path:     fmt.Sprintf("/leads/%d/status", u.LeadID),
		body:     u,
	})
}

// DeleteLead removes a lead.
func (c *Client) DeleteLead(ctx context.Context, id int) (resource.Result[struct{}], error) {
	return do[struct{}](ctx, c, request{
		method:   http.MethodDelete,
		endpoint: "/leads/{id}",
		path:     fmt.Sprintf("/leads/%d", id),
	})
}

// TagUpdate is the argument of AddLeadTags.
type TagUpdate struct {
	LeadID int      `json:"-"`
	Tags   []string `json:"tags"`
}

// AddLeadTags attaches tags to a lead.
func (c *Client) AddLeadTags(ctx context.Context, u TagUpdate) (resource.Result[struct{}], error) {
	return do[struct{}](ctx, c, request{
		method:   http.MethodPost,
		endpoint: "/leads/{id}/tags",
		path:     fmt.Sprintf("/leads/%d/tags", u.LeadID),
		body:     u,
	})
}

// ListContacts fetches the contacts of a lead.
func (c *Client) ListContacts(ctx context.Context, leadID int) (resource.Result[[]domain.Contact], error) {
	return do[[]domain.Contact](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/leads/{id}/contacts",
		path:     fmt.Sprintf("/leads/%d/contacts", leadID),
	})
}

// ListInteractions fetches the interaction history of a lead.
func (c *Client) ListInteractions(ctx context.Context, leadID int) (resource.Result[[]domain.Interaction], error) {
	return do[[]domain.Interaction](ctx, c, request{
		method:   http.MethodGet,
		endpoint: "/leads/{id}/interactions",
		path:     fmt.Sprintf("/leads/%d/interactions", leadID),
	})
}

// CreateInteraction records an interaction for in.CompanyID.
func (c *Client) CreateInteraction(ctx context.Context, in domain.Interaction) (resource.Result[domain.Interaction], error) {
	return do[domain.Interaction](ctx, c, request{
		method:   http.MethodPost,
		endpoint: "/leads/{id}/interactions",
		path:     fmt.Sprintf("/leads/%d/interactions", in.CompanyID),
		body:     in,
	})
}

// ExportLeads asks the backend for a CSV export of the leads matching
// filters and returns its download location.
func (c *Client) ExportLeads(ctx context.Context, filters map[string]string) (resource.Result[domain.Export], error) {
	body := map[string]string{}
	for k, v := range filters {
		if v != "" {
			body[k] = v
		}
	}
	return do[domain.Export](ctx, c, request{
		method:   http.MethodPost,
		endpoint: "/leads/export",
		path:     "/leads/export",
		body:     body,
	})
}

// DownloadURL resolves a download path returned by ExportLeads against the
// backend host.
func (c *Client) DownloadURL(e domain.Export) string {
	ref, err := url.Parse(e.DownloadURL)
	if err != nil {
		return e.DownloadURL
	}
	return c.base.ResolveReference(ref).String()
}
