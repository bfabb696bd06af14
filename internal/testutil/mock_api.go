// Package testutil provides an in-process fake of the lead-generation backend.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fvbommel/sortorder"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

// BasePath is the path prefix the fake serves under.
const BasePath = "/api"

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// RecordedRequest is a request seen by the fake.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// MockAPI is a configurable fake backend for tests.
type MockAPI struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu           sync.RWMutex
	leads        []domain.Lead
	contacts     map[int][]domain.Contact
	interactions map[int][]domain.Interaction
	health       domain.Health
	campaigns    domain.CampaignStats
	overrides    map[string]MockResponse
	statusErrors map[int]string
	nextID       int
	requests     []RecordedRequest
}

// NewMockAPI starts a fake backend with no leads.
func NewMockAPI() *MockAPI {
	m := &MockAPI{
		contacts:     make(map[int][]domain.Contact),
		interactions: make(map[int][]domain.Interaction),
		overrides:    make(map[string]MockResponse),
		statusErrors: make(map[int]string),
		health:       domain.Health{Status: "healthy", Components: map[string]string{"database": "ok"}},
		campaigns: domain.CampaignStats{
			Email:    domain.EmailCampaignStats{Total: 3, Active: 1, EmailsSent: 120, OpenRate: 0.425, ClickRate: 0.071, ReplyRate: 0.033},
			LinkedIn: domain.LinkedInCampaignStats{Total: 2, Active: 1, ConnectionsSent: 80, AcceptanceRate: 0.35, MessagesSent: 40, ReplyRate: 0.125},
		},
		nextID: 1,
	}
	m.mux = m.routes()
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the base URL clients should use, including BasePath.
func (m *MockAPI) URL() string {
	return m.server.URL + BasePath
}

// Close shuts down the fake.
func (m *MockAPI) Close() {
	m.server.Close()
}

// AddLeads appends leads, assigning ids to those without one.
func (m *MockAPI) AddLeads(leads ...domain.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range leads {
		if l.ID == 0 {
			l.ID = m.nextID
		}
		if l.ID >= m.nextID {
			m.nextID = l.ID + 1
		}
		m.leads = append(m.leads, l)
	}
}

// SeedLeads adds n generated leads spread over every status and industry.
func (m *MockAPI) SeedLeads(n int) {
	leads := make([]domain.Lead, 0, n)
	base := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		score := (i * 7) % 101
		leads = append(leads, domain.Lead{
			CompanyName: fmt.Sprintf("Company %d", i+1),
			Website:     fmt.Sprintf("https://company%d.example.com", i+1),
			Industry:    domain.Industries[i%len(domain.Industries)],
			CompanySize: domain.CompanySizes[i%len(domain.CompanySizes)],
			City:        "Springfield",
			State:       "IL",
			Source:      "web_scraping",
			Status:      domain.LeadStatuses[i%len(domain.LeadStatuses)],
			Score:       &score,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
		})
	}
	m.AddLeads(leads...)
}

// AddContacts registers contacts for a lead.
func (m *MockAPI) AddContacts(leadID int, contacts ...domain.Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range contacts {
		c.CompanyID = leadID
		m.contacts[leadID] = append(m.contacts[leadID], c)
	}
}

// SetHealth sets the health report served by /system/health.
func (m *MockAPI) SetHealth(h domain.Health) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health = h
}

// FailStatusUpdate makes status updates for leadID fail with a 500 and msg.
func (m *MockAPI) FailStatusUpdate(leadID int, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusErrors[leadID] = msg
}

// SetResponse overrides every request to path (relative to BasePath).
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[BasePath+path] = resp
}

// Lead returns the stored lead with id.
func (m *MockAPI) Lead(id int) (domain.Lead, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.leads {
		if l.ID == id {
			return l, true
		}
	}
	return domain.Lead{}, false
}

// Requests returns every request seen so far.
func (m *MockAPI) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// LastRequest returns the most recent request.
func (m *MockAPI) LastRequest() RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// RequestCount returns the number of requests seen so far.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

func (m *MockAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	override, ok := m.overrides[r.URL.Path]
	m.mu.Unlock()

	if ok {
		if override.Delay > 0 {
			select {
			case <-time.After(override.Delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			_, _ = w.Write([]byte(override.Body))
		}
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	m.mux.ServeHTTP(w, r)
}

func (m *MockAPI) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/leads", m.listLeads)
	mux.HandleFunc("GET "+BasePath+"/leads/{id}", m.withLead(m.getLead))
	mux.HandleFunc("DELETE "+BasePath+"/leads/{id}", m.withLead(m.deleteLead))
	mux.HandleFunc("PUT "+BasePath+"/leads/{id}/status", m.withLead(m.updateStatus))
	mux.HandleFunc("POST "+BasePath+"/leads/{id}/tags", m.withLead(m.addTags))
	mux.HandleFunc("GET "+BasePath+"/leads/{id}/contacts", m.withLead(m.listContacts))
	mux.HandleFunc("GET "+BasePath+"/leads/{id}/interactions", m.withLead(m.listInteractions))
	mux.HandleFunc("POST "+BasePath+"/leads/{id}/interactions", m.withLead(m.createInteraction))
	mux.HandleFunc("POST "+BasePath+"/leads/export", m.exportLeads)
	mux.HandleFunc("GET "+BasePath+"/analytics/leads", m.leadStats)
	mux.HandleFunc("GET "+BasePath+"/analytics/campaigns", m.campaignStats)
	mux.HandleFunc("GET "+BasePath+"/system/health", m.systemHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockAPI) listLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), resource.DefaultLimit)

	m.mu.RLock()
	matched := make([]domain.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		if matchesLead(l, q) {
			matched = append(matched, l)
		}
	}
	m.mu.RUnlock()

	sortLeads(matched, q.Get("sort"), q.Get("order"))

	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	writeJSON(w, http.StatusOK, map[string]any{
		"leads":      matched[start:end],
		"pagination": resource.NewPaginationInfo(page, limit, len(matched)),
	})
}

func matchesLead(l domain.Lead, q url.Values) bool {
	if s := q.Get("status"); s != "" && l.EffectiveStatus() != s {
		return false
	}
	if ind := q.Get("industry"); ind != "" && l.Industry != ind {
		return false
	}
	if size := q.Get("company_size"); size != "" && l.CompanySize != size {
		return false
	}
	if s := strings.ToLower(q.Get("search")); s != "" &&
		!strings.Contains(strings.ToLower(l.CompanyName), s) &&
		!strings.Contains(strings.ToLower(l.Website), s) {
		return false
	}
	return true
}

func sortLeads(leads []domain.Lead, field, order string) {
	if field == "" {
		return
	}
	less := func(a, b domain.Lead) bool {
		switch field {
		case "score":
			return scoreOf(a) < scoreOf(b)
		case "industry":
			return sortorder.NaturalLess(a.Industry, b.Industry)
		case "status":
			return a.EffectiveStatus() < b.EffectiveStatus()
		case "created_at":
			return a.CreatedAt < b.CreatedAt
		default:
			return sortorder.NaturalLess(a.CompanyName, b.CompanyName)
		}
	}
	sort.SliceStable(leads, func(i, j int) bool {
		if order == "desc" {
			return less(leads[j], leads[i])
		}
		return less(leads[i], leads[j])
	})
}

func scoreOf(l domain.Lead) int {
	if l.Score == nil {
		return -1
	}
	return *l.Score
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// withLead resolves {id} to an index into m.leads, answering 404 otherwise.
func (m *MockAPI) withLead(next func(w http.ResponseWriter, r *http.Request, id int)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid lead id"})
			return
		}
		if _, ok := m.Lead(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Lead not found"})
			return
		}
		next(w, r, id)
	}
}

func (m *MockAPI) getLead(w http.ResponseWriter, _ *http.Request, id int) {
	l, _ := m.Lead(id)
	writeJSON(w, http.StatusOK, l)
}

func (m *MockAPI) deleteLead(w http.ResponseWriter, _ *http.Request, id int) {
	m.mu.Lock()
	for i, l := range m.leads {
		if l.ID == id {
			m.leads = append(m.leads[:i], m.leads[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Lead deleted"})
}

func (m *MockAPI) updateStatus(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		Status         string `json:"status"`
		NextAction     string `json:"next_action"`
		NextActionDate string `json:"next_action_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	if !domain.IsValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid status: " + req.Status})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.statusErrors[id]; ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
		return
	}
	for i := range m.leads {
		if m.leads[i].ID != id {
			continue
		}
		m.leads[i].Status = req.Status
		if req.NextAction != "" {
			m.leads[i].NextAction = req.NextAction
		}
		if req.NextActionDate != "" {
			m.leads[i].NextActionDate = req.NextActionDate
		}
		m.leads[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, m.leads[i])
		return
	}
}

func (m *MockAPI) addTags(w http.ResponseWriter, r *http.Request, id int) {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tags) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No tags given"})
		return
	}

	m.mu.Lock()
	for i := range m.leads {
		if m.leads[i].ID != id {
			continue
		}
		for _, t := range req.Tags {
			if !contains(m.leads[i].Tags, t) {
				m.leads[i].Tags = append(m.leads[i].Tags, t)
			}
		}
	}
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tags added"})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *MockAPI) listContacts(w http.ResponseWriter, _ *http.Request, id int) {
	m.mu.RLock()
	contacts := append([]domain.Contact{}, m.contacts[id]...)
	m.mu.RUnlock()
	writeJSON(w, http.StatusOK, contacts)
}

func (m *MockAPI) listInteractions(w http.ResponseWriter, _ *http.Request, id int) {
	m.mu.RLock()
	interactions := append([]domain.Interaction{}, m.interactions[id]...)
	m.mu.RUnlock()
	writeJSON(w, http.StatusOK, interactions)
}

func (m *MockAPI) createInteraction(w http.ResponseWriter, r *http.Request, id int) {
	var in domain.Interaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}
	if in.InteractionType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "interaction_type is required"})
		return
	}

	m.mu.Lock()
	in.ID = len(m.interactions[id]) + 1
	in.CompanyID = id
	in.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	m.interactions[id] = append(m.interactions[id], in)
	m.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (m *MockAPI) exportLeads(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Export{DownloadURL: BasePath + "/exports/leads.csv"})
}

func (m *MockAPI) leadStats(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := domain.LeadStats{TotalLeads: len(m.leads), RecentActivity: []domain.Interaction{}}
	byStatus := map[string]int{}
	byIndustry := map[string]int{}
	bySource := map[string]int{}
	for _, l := range m.leads {
		byStatus[l.EffectiveStatus()]++
		byIndustry[l.Industry]++
		bySource[l.Source]++
	}
	for _, s := range domain.LeadStatuses {
		if n := byStatus[s]; n > 0 {
			stats.LeadsByStatus = append(stats.LeadsByStatus, domain.StatusCount{Status: s, Count: n})
		}
	}
	for _, ind := range sortedKeys(byIndustry) {
		stats.LeadsByIndustry = append(stats.LeadsByIndustry, domain.IndustryCount{Industry: ind, Count: byIndustry[ind]})
	}
	for _, src := range sortedKeys(bySource) {
		stats.LeadsBySource = append(stats.LeadsBySource, domain.SourceCount{Source: src, Count: bySource[src]})
	}
	writeJSON(w, http.StatusOK, stats)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sortorder.Natural(keys))
	return keys
}

func (m *MockAPI) campaignStats(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, http.StatusOK, m.campaigns)
}

func (m *MockAPI) systemHealth(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, http.StatusOK, m.health)
}
