package tui

import (
	"context"

	"github.com/pkg/browser"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

// Backend is the set of backend calls the screens issue. *api.Client
// implements it.
type Backend interface {
	ListLeads(ctx context.Context, p resource.PageParams) (resource.Result[resource.Page[domain.Lead]], error)
	GetLead(ctx context.Context, id int) (resource.Result[domain.Lead], error)
	UpdateLeadStatus(ctx context.Context, u api.StatusUpdate) (resource.Result[domain.Lead], error)
	DeleteLead(ctx context.Context, id int) (resource.Result[struct{}], error)
	AddLeadTags(ctx context.Context, u api.TagUpdate) (resource.Result[struct{}], error)
	ListContacts(ctx context.Context, leadID int) (resource.Result[[]domain.Contact], error)
	ListInteractions(ctx context.Context, leadID int) (resource.Result[[]domain.Interaction], error)
	CreateInteraction(ctx context.Context, in domain.Interaction) (resource.Result[domain.Interaction], error)
	ExportLeads(ctx context.Context, filters map[string]string) (resource.Result[domain.Export], error)
	DownloadURL(e domain.Export) string
	LeadStats(ctx context.Context) (resource.Result[domain.LeadStats], error)
	CampaignStats(ctx context.Context) (resource.Result[domain.CampaignStats], error)
	Health(ctx context.Context) (resource.Result[domain.Health], error)
}

var _ Backend = (*api.Client)(nil)

// openURL opens a link in the user's browser. Tests replace it.
var openURL = browser.OpenURL
