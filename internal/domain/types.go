// Package domain defines the lead-generation records exchanged with the backend.
// These types mirror the JSON the REST API sends and are independent of any view.
package domain

import "strconv"

// Lead represents a prospective customer company.
type Lead struct {
	ID             int      `json:"id"`
	CompanyName    string   `json:"company_name"`
	Website        string   `json:"website,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	CompanySize    string   `json:"company_size,omitempty"`
	CurrentChatbot string   `json:"current_chatbot,omitempty"` // chatbot vendor detected on the site, if any
	Description    string   `json:"description,omitempty"`
	City           string   `json:"city,omitempty"`
	State          string   `json:"state,omitempty"`
	Country        string   `json:"country,omitempty"`
	Source         string   `json:"source,omitempty"` // where the lead was found (e.g. "web_scraping")
	Status         string   `json:"status,omitempty"` // one of LeadStatuses; empty means New
	Score          *int     `json:"score,omitempty"`  // 0-100, nil when not scored
	NextAction     string   `json:"next_action,omitempty"`
	NextActionDate string   `json:"next_action_date,omitempty"`
	CreatedAt      string   `json:"created_at,omitempty"` // ISO8601 timestamp
	UpdatedAt      string   `json:"updated_at,omitempty"` // ISO8601 timestamp
	Tags           []string `json:"tags,omitempty"`
}

// RowID returns the lead id as a table row identity.
func (l Lead) RowID() string {
	return strconv.Itoa(l.ID)
}

// EffectiveStatus returns Status, defaulting to StatusNew.
func (l Lead) EffectiveStatus() string {
	if l.Status == "" {
		return StatusNew
	}
	return l.Status
}

// Location joins city and state the way the leads table shows it.
func (l Lead) Location() string {
	switch {
	case l.City != "" && l.State != "":
		return l.City + ", " + l.State
	case l.City != "":
		return l.City
	default:
		return l.State
	}
}

// Contact is a person at a lead company.
type Contact struct {
	ID          int    `json:"id"`
	CompanyID   int    `json:"company_id"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Position    string `json:"position,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// FullName joins first and last name.
func (c Contact) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}

// Interaction is one recorded touchpoint with a lead.
type Interaction struct {
	ID              int    `json:"id,omitempty"`
	CompanyID       int    `json:"company_id"`
	ContactID       int    `json:"contact_id,omitempty"`
	InteractionType string `json:"interaction_type"` // one of InteractionTypes
	Channel         string `json:"channel"`          // one of Channels
	InteractionDate string `json:"interaction_date"` // ISO8601 timestamp
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// StatusCount is one bucket of LeadStats.LeadsByStatus.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// IndustryCount is one bucket of LeadStats.LeadsByIndustry.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
}

// SourceCount is one bucket of LeadStats.LeadsBySource.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// LeadStats is the lead analytics summary.
type LeadStats struct {
	TotalLeads      int             `json:"total_leads"`
	LeadsByStatus   []StatusCount   `json:"leads_by_status"`
	LeadsByIndustry []IndustryCount `json:"leads_by_industry"`
	LeadsBySource   []SourceCount   `json:"leads_by_source"`
	RecentActivity  []Interaction   `json:"recent_activity"`
}

// EmailCampaignStats summarizes email outreach. Rates are fractions in [0, 1].
type EmailCampaignStats struct {
	Total      int     `json:"total"`
	Active     int     `json:"active"`
	EmailsSent int     `json:"emails_sent"`
	OpenRate   float64 `json:"open_rate"`
	ClickRate  float64 `json:"click_rate"`
	ReplyRate  float64 `json:"reply_rate"`
}

// LinkedInCampaignStats summarizes LinkedIn outreach. Rates are fractions in [0, 1].
type LinkedInCampaignStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	ConnectionsSent int     `json:"connections_sent"`
	AcceptanceRate  float64 `json:"acceptance_rate"`
	MessagesSent    int     `json:"messages_sent"`
	ReplyRate       float64 `json:"reply_rate"`
}

// CampaignStats is the campaign analytics summary.
type CampaignStats struct {
	Email    EmailCampaignStats    `json:"email_campaigns"`
	LinkedIn LinkedInCampaignStats `json:"linkedin_campaigns"`
}

// Health is the backend health report.
type Health struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// Healthy reports whether the backend declared itself healthy.
func (h Health) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

// Export is the result of a lead export request.
type Export struct {
	DownloadURL string `json:"download_url"`
}

// Lead status values, in pipeline order.
const (
	StatusNew          = "New"
	StatusContacted    = "Contacted"
	StatusEngaged      = "Engaged"
	StatusQualified    = "Qualified"
	StatusProposalSent = "Proposal Sent"
	StatusNegotiation  = "Negotiation"
	StatusWon          = "Won"
	StatusLost         = "Lost"
	StatusOnHold       = "On Hold"
)

// LeadStatuses lists every valid status in pipeline order.
var LeadStatuses = []string{
	StatusNew,
	StatusContacted,
	StatusEngaged,
	StatusQualified,
	StatusProposalSent,
	StatusNegotiation,
	StatusWon,
	StatusLost,
	StatusOnHold,
}

// Industries lists the target industries.
var Industries = []string{
	"Digital Marketing Agency",
	"SaaS Company",
	"Enterprise IT Solutions",
	"Small Business",
	"Service Business",
	"Plumbing",
	"Electrical Services",
	"Marketing Consultancy",
	"Software Development",
	"IT Support",
}

// CompanySizes lists the company size buckets.
var CompanySizes = []string{
	"Small (1-10)",
	"Medium (11-50)",
	"Large (51-200)",
	"Enterprise (201+)",
}

// InteractionTypes lists the kinds of recorded interactions.
var InteractionTypes = []string{
	"Email Sent",
	"Email Received",
	"Phone Call",
	"LinkedIn Message",
	"LinkedIn Connection",
	"Meeting",
	"Demo",
	"Proposal",
	"Follow Up",
}

// Channels lists the interaction channels.
var Channels = []string{
	"Email",
	"Phone",
	"LinkedIn",
	"Website",
	"In Person",
	"Video Call",
}

// IsValidStatus reports whether s is one of LeadStatuses.
func IsValidStatus(s string) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}
