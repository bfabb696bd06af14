// Package store provides an in-memory cache of the leads loaded by the UI.
// It groups leads into pipeline columns by status and answers the counting
// questions the dashboard and leads screens ask, so views never walk raw
// accumulator pages themselves.
package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fvbommel/sortorder"

	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
)

var (
	// ErrLeadNotFound indicates the requested lead is not cached.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrInvalidStatus indicates a status outside domain.LeadStatuses.
	ErrInvalidStatus = errors.New("invalid status")
)

// Store caches leads by id. It is not safe for concurrent use; the TUI
// touches it only from its Update loop.
type Store struct {
	leads map[int]*domain.Lead

	// status -> lead ids, ordered by company name
	columns map[string][]int

	pagination *resource.PaginationInfo
}

// New creates a new empty Store instance.
func New() *Store {
	return &Store{
		leads:   make(map[int]*domain.Lead),
		columns: make(map[string][]int),
	}
}

// Replace drops every cached lead and stores leads instead.
func (s *Store) Replace(leads []domain.Lead) {
	s.leads = make(map[int]*domain.Lead, len(leads))
	s.Upsert(leads...)
}

// Upsert adds or updates leads. Column mappings are rebuilt afterwards.
func (s *Store) Upsert(leads ...domain.Lead) {
	for _, l := range leads {
		l := l
		s.leads[l.ID] = &l
	}
	s.rebuildColumns()
}

// GetLead returns a copy of the cached lead with id.
func (s *Store) GetLead(id int) (domain.Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return domain.Lead{}, fmt.Errorf("%w: %d", ErrLeadNotFound, id)
	}
	return *l, nil
}

// AllLeads returns every cached lead ordered by id.
func (s *Store) AllLeads() []domain.Lead {
	out := make([]domain.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of cached leads.
func (s *Store) Len() int {
	return len(s.leads)
}

// Columns returns a copy of the status -> lead id mapping.
func (s *Store) Columns() map[string][]int {
	result := make(map[string][]int, len(s.columns))
	for status, ids := range s.columns {
		result[status] = append([]int(nil), ids...)
	}
	return result
}

// ColumnLeadIDs returns the lead ids in one status column.
func (s *Store) ColumnLeadIDs(status string) []int {
	return append([]int{}, s.columns[status]...)
}

// SetStatus moves a cached lead to status and returns the status it had.
func (s *Store) SetStatus(id int, status string) (previous string, err error) {
	if err := ValidateStatus(status); err != nil {
		return "", err
	}
	l, ok := s.leads[id]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrLeadNotFound, id)
	}
	previous = l.EffectiveStatus()
	l.Status = status
	s.rebuildColumns()
	return previous, nil
}

// Remove drops a lead from the cache. Removing an unknown id is a no-op.
func (s *Store) Remove(id int) {
	if _, ok := s.leads[id]; !ok {
		return
	}
	delete(s.leads, id)
	s.rebuildColumns()
}

// SetPagination records the pagination of the last loaded page.
func (s *Store) SetPagination(info *resource.PaginationInfo) {
	if info == nil {
		s.pagination = nil
		return
	}
	p := *info
	s.pagination = &p
}

// Pagination returns the last recorded pagination, or nil.
func (s *Store) Pagination() *resource.PaginationInfo {
	if s.pagination == nil {
		return nil
	}
	p := *s.pagination
	return &p
}

// StatusCounts counts cached leads per status in pipeline order. Statuses
// with no leads are included with a zero count.
func (s *Store) StatusCounts() []domain.StatusCount {
	counts := make([]domain.StatusCount, 0, len(domain.LeadStatuses))
	for _, status := range domain.LeadStatuses {
		counts = append(counts, domain.StatusCount{Status: status, Count: len(s.columns[status])})
	}
	return counts
}

// IndustryCounts counts cached leads per industry, ordered naturally by
// industry name. Leads without an industry are not counted.
func (s *Store) IndustryCounts() []domain.IndustryCount {
	byIndustry := map[string]int{}
	for _, l := range s.leads {
		if l.Industry != "" {
			byIndustry[l.Industry]++
		}
	}
	names := make([]string, 0, len(byIndustry))
	for name := range byIndustry {
		names = append(names, name)
	}
	sort.Sort(sortorder.Natural(names))

	counts := make([]domain.IndustryCount, 0, len(names))
	for _, name := range names {
		counts = append(counts, domain.IndustryCount{Industry: name, Count: byIndustry[name]})
	}
	return counts
}

// rebuildColumns reconstructs the column mapping from the cached leads.
// Leads without a status land in the New column.
func (s *Store) rebuildColumns() {
	s.columns = make(map[string][]int)
	for id, l := range s.leads {
		key := l.EffectiveStatus()
		s.columns[key] = append(s.columns[key], id)
	}
	for _, ids := range s.columns {
		sort.Slice(ids, func(i, j int) bool {
			a, b := s.leads[ids[i]], s.leads[ids[j]]
			if a.CompanyName != b.CompanyName {
				return sortorder.NaturalLess(a.CompanyName, b.CompanyName)
			}
			return a.ID < b.ID
		})
	}
}

// ValidateStatus checks that status is one of domain.LeadStatuses.
func ValidateStatus(status string) error {
	if domain.IsValidStatus(status) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// Clear resets the store to empty state.
func (s *Store) Clear() {
	s.leads = make(map[int]*domain.Lead)
	s.columns = make(map[string][]int)
	s.pagination = nil
}
