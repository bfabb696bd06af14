package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

func TestListLeads_Paging(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(60)

	res, err := client.ListLeads(context.Background(), resource.PageParams{Page: 3, Limit: 25})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Len(t, res.Data.Items, 10)
	assert.Equal(t, resource.PaginationInfo{Page: 3, Limit: 25, Total: 60, TotalPages: 3}, res.Data.Pagination)
	assert.Equal(t, "Company 51", res.Data.Items[0].CompanyName)
}

func TestListLeads_FiltersAndNaturalSort(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.AddLeads(
		domain.Lead{CompanyName: "Company 10", Status: domain.StatusWon},
		domain.Lead{CompanyName: "Company 2", Status: domain.StatusWon},
		domain.Lead{CompanyName: "Company 1", Status: domain.StatusWon},
		domain.Lead{CompanyName: "Other", Status: domain.StatusLost},
	)

	params := resource.NewPageParams(25, map[string]string{
		"status": domain.StatusWon,
		"sort":   "company_name",
		"order":  "asc",
		"search": "",
	})
	res, err := client.ListLeads(context.Background(), params)
	require.NoError(t, err)

	var names []string
	for _, l := range res.Data.Items {
		names = append(names, l.CompanyName)
	}
	assert.Equal(t, []string{"Company 1", "Company 2", "Company 10"}, names)

	q := backend.LastRequest().Query
	assert.Equal(t, "Won", q.Get("status"))
	assert.Equal(t, "1", q.Get("page"))
	_, hasSearch := q["search"]
	assert.False(t, hasSearch, "empty filters are not sent")
}

func TestListLeads_AccumulatorConverges(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(100)

	acc := resource.NewAccumulator(client.ListLeads, resource.NewPageParams(25, nil))
	ctx := context.Background()

	acc.Refresh(ctx)
	for acc.HasMore() {
		acc.LoadMore(ctx)
	}

	set := acc.Snapshot()
	assert.Len(t, set.Items, 100)
	assert.Equal(t, resource.StatusSuccess, set.Status)
	assert.Equal(t, 4, set.Pagination.Page)
	assert.Equal(t, 4, backend.RequestCount())
}

func TestUpdateLeadStatus(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(2)

	res, err := client.UpdateLeadStatus(context.Background(), StatusUpdate{
		LeadID:     2,
		Status:     domain.StatusQualified,
		NextAction: "Send proposal",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, domain.StatusQualified, res.Data.Status)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(backend.LastRequest().Body), &body))
	assert.Equal(t, map[string]string{"status": "Qualified", "next_action": "Send proposal"}, body)
	assert.Equal(t, "/api/leads/2/status", backend.LastRequest().Path)

	stored, _ := backend.Lead(2)
	assert.Equal(t, domain.StatusQualified, stored.Status)
}

func TestUpdateLeadStatus_Invalid(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(1)

	res, err := client.UpdateLeadStatus(context.Background(), StatusUpdate{LeadID: 1, Status: "Bogus"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid status: Bogus", res.Error)
}

func TestDeleteLead(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(1)

	res, err := client.DeleteLead(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Lead deleted", res.Message)

	_, ok := backend.Lead(1)
	assert.False(t, ok)
}

func TestAddLeadTags(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(1)

	res, err := client.AddLeadTags(context.Background(), TagUpdate{LeadID: 1, Tags: []string{"hot", "q3"}})
	require.NoError(t, err)
	assert.True(t, res.Success)

	stored, _ := backend.Lead(1)
	assert.Equal(t, []string{"hot", "q3"}, stored.Tags)
}

func TestContactsAndInteractions(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(1)
	backend.AddContacts(1, domain.Contact{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})

	contacts, err := client.ListContacts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, contacts.Data, 1)
	assert.Equal(t, "Ada Lovelace", contacts.Data[0].FullName())

	created, err := client.CreateInteraction(context.Background(), domain.Interaction{
		CompanyID:       1,
		InteractionType: "Phone Call",
		Channel:         "Phone",
		InteractionDate: "2024-05-01T10:00:00Z",
		Notes:           "Interested in a demo",
	})
	require.NoError(t, err)
	require.True(t, created.Success)
	assert.Equal(t, 1, created.Data.ID)

	list, err := client.ListInteractions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Interested in a demo", list.Data[0].Notes)
}

func TestExportLeads(t *testing.T) {
	client, backend := newTestClient(t, nil)

	res, err := client.ExportLeads(context.Background(), map[string]string{"status": "Won", "industry": ""})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, backend.URL()+"/exports/leads.csv", client.DownloadURL(res.Data))
	assert.JSONEq(t, `{"status":"Won"}`, backend.LastRequest().Body)
}

func TestAnalytics(t *testing.T) {
	client, backend := newTestClient(t, nil)
	backend.SeedLeads(18)

	stats, err := client.LeadStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18, stats.Data.TotalLeads)
	require.Len(t, stats.Data.LeadsByStatus, len(domain.LeadStatuses))
	assert.Equal(t, domain.StatusNew, stats.Data.LeadsByStatus[0].Status)
	assert.Equal(t, 2, stats.Data.LeadsByStatus[0].Count)

	campaigns, err := client.CampaignStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, campaigns.Data.Email.EmailsSent)
}
