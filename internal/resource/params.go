package resource

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Default page parameters.
const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// PageParams identifies one page of a filtered, sorted collection.
type PageParams struct {
	Page    int
	Limit   int
	Filters map[string]string
}

// NewPageParams returns page 1 with the given limit and filters.
func NewPageParams(limit int, filters map[string]string) PageParams {
	p := PageParams{Page: DefaultPage, Limit: limit}
	return p.With(filters)
}

// normalized clamps Page and Limit to their valid ranges.
func (p PageParams) normalized() PageParams {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// With returns a copy of p with partial merged into its filters.
// Keys in partial overwrite existing ones; an empty value clears the filter
// for query purposes but is kept so callers can see it was reset.
func (p PageParams) With(partial map[string]string) PageParams {
	merged := make(map[string]string, len(p.Filters)+len(partial))
	for k, v := range p.Filters {
		merged[k] = v
	}
	for k, v := range partial {
		merged[k] = v
	}
	p.Filters = merged
	return p
}

// Filter returns the value of a filter key.
func (p PageParams) Filter(key string) string {
	return p.Filters[key]
}

// Key returns the identity of p: page, limit and every filter in key order.
func (p PageParams) Key() string {
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(p.Limit))
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Filters[k]))
	}
	return b.String()
}

// Query renders p as URL query values, omitting empty filters.
func (p PageParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	for k, v := range p.Filters {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}

// PaginationInfo describes the position of a fetched page.
// Build it with NewPaginationInfo so TotalPages stays derived.
type PaginationInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationInfo derives TotalPages = ceil(total/limit).
func NewPaginationInfo(page, limit, total int) PaginationInfo {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total < 0 {
		total = 0
	}
	return PaginationInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

// Page is one fetched page of items.
type Page[T any] struct {
	Items      []T
	Pagination PaginationInfo
}
