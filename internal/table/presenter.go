package table

import (
	"fmt"
	"strings"

	"github.com/robby/leadgen/internal/resource"
)

// CheckState is the tri-state of the select-all control.
type CheckState int

const (
	Unchecked CheckState = iota
	Indeterminate
	Checked
)

// Options carries the presenter event callbacks. All are optional.
type Options[R Row] struct {
	OnSort       func(key string, dir Direction)
	OnRowSelect  func(rows []R)
	OnPageChange func(page int)
	OnSearch     func(query string)
}

// Presenter holds the view state of a table over rows of type R.
// It is owned by a single view and is not safe for concurrent use.
type Presenter[R Row] struct {
	columns []Column[R]
	byKey   map[string]int
	opts    Options[R]

	rows        []R
	selected    map[string]struct{}
	search      string
	sortKey     string
	sortDir     Direction
	showFilters bool
}

// NewPresenter validates columns and returns an empty presenter.
func NewPresenter[R Row](columns []Column[R], opts Options[R]) (*Presenter[R], error) {
	byKey := make(map[string]int, len(columns))
	for i, c := range columns {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := byKey[c.Key]; dup {
			return nil, fmt.Errorf("duplicate column key %q", c.Key)
		}
		byKey[c.Key] = i
	}
	return &Presenter[R]{
		columns:  append([]Column[R](nil), columns...),
		byKey:    byKey,
		opts:     opts,
		selected: make(map[string]struct{}),
		sortDir:  Asc,
	}, nil
}

// Columns returns the declared columns.
func (p *Presenter[R]) Columns() []Column[R] {
	return append([]Column[R](nil), p.columns...)
}

// SetRows replaces the loaded rows, keeping the selection.
func (p *Presenter[R]) SetRows(rows []R) {
	p.rows = append([]R(nil), rows...)
}

// ReplaceRows replaces the loaded rows and clears the selection.
func (p *Presenter[R]) ReplaceRows(rows []R) {
	hadSelection := len(p.selected) > 0
	p.rows = append([]R(nil), rows...)
	p.selected = make(map[string]struct{})
	if hadSelection {
		p.emitSelection()
	}
}

// Rows returns every loaded row.
func (p *Presenter[R]) Rows() []R {
	return append([]R(nil), p.rows...)
}

// SetSearch sets the search query.
func (p *Presenter[R]) SetSearch(query string) {
	p.search = query
	if p.opts.OnSearch != nil {
		p.opts.OnSearch(query)
	}
}

// Search returns the current query.
func (p *Presenter[R]) Search() string {
	return p.search
}

// Visible returns the loaded rows matching the search query, in loaded order.
// A row matches when the query is a case-insensitive substring of the text
// form of any column value.
func (p *Presenter[R]) Visible() []R {
	q := strings.ToLower(strings.TrimSpace(p.search))
	if q == "" {
		return p.Rows()
	}

	var out []R
	for _, r := range p.rows {
		if p.matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func (p *Presenter[R]) matches(r R, q string) bool {
	for _, c := range p.columns {
		if strings.Contains(strings.ToLower(Stringify(c.Value(r))), q) {
			return true
		}
	}
	return false
}

// Sort requests a sort on key. Repeating the active column flips the
// direction; a new column starts ascending. Rows are not reordered here:
// the owner is expected to refetch in the new order.
func (p *Presenter[R]) Sort(key string) error {
	i, ok := p.byKey[key]
	if !ok {
		return fmt.Errorf("unknown column %q", key)
	}
	if !p.columns[i].Sortable {
		return fmt.Errorf("column %q is not sortable", key)
	}

	if p.sortKey == key {
		if p.sortDir == Asc {
			p.sortDir = Desc
		} else {
			p.sortDir = Asc
		}
	} else {
		p.sortKey = key
		p.sortDir = Asc
	}

	if p.opts.OnSort != nil {
		p.opts.OnSort(p.sortKey, p.sortDir)
	}
	return nil
}

// SortState returns the active sort column and direction. key is empty
// before the first Sort.
func (p *Presenter[R]) SortState() (key string, dir Direction) {
	return p.sortKey, p.sortDir
}

// ToggleRow selects or deselects one row.
func (p *Presenter[R]) ToggleRow(id string, selected bool) {
	if selected {
		p.selected[id] = struct{}{}
	} else {
		delete(p.selected, id)
	}
	p.emitSelection()
}

// IsSelected reports whether id is selected.
func (p *Presenter[R]) IsSelected(id string) bool {
	_, ok := p.selected[id]
	return ok
}

// SelectAll selects every loaded row, or clears the selection.
func (p *Presenter[R]) SelectAll(selected bool) {
	p.selected = make(map[string]struct{}, len(p.rows))
	if selected {
		for _, r := range p.rows {
			p.selected[r.RowID()] = struct{}{}
		}
	}
	p.emitSelection()
}

// SelectAllState reports the select-all control state over loaded rows.
func (p *Presenter[R]) SelectAllState() CheckState {
	n := p.SelectedCount()
	switch {
	case n == 0:
		return Unchecked
	case n == len(p.rows):
		return Checked
	default:
		return Indeterminate
	}
}

// SelectedRows returns the selected loaded rows in loaded order.
func (p *Presenter[R]) SelectedRows() []R {
	var out []R
	for _, r := range p.rows {
		if _, ok := p.selected[r.RowID()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// SelectedCount counts selected loaded rows.
func (p *Presenter[R]) SelectedCount() int {
	n := 0
	for _, r := range p.rows {
		if _, ok := p.selected[r.RowID()]; ok {
			n++
		}
	}
	return n
}

func (p *Presenter[R]) emitSelection() {
	if p.opts.OnRowSelect != nil {
		p.opts.OnRowSelect(p.SelectedRows())
	}
}

// ToggleFilters flips the filters panel.
func (p *Presenter[R]) ToggleFilters() {
	p.showFilters = !p.showFilters
}

// ShowFilters reports whether the filters panel is open.
func (p *Presenter[R]) ShowFilters() bool {
	return p.showFilters
}

// PrevPage requests the previous page when one exists.
func (p *Presenter[R]) PrevPage(info resource.PaginationInfo) bool {
	if !Window(info).HasPrev {
		return false
	}
	p.changePage(info.Page - 1)
	return true
}

// NextPage requests the next page when one exists.
func (p *Presenter[R]) NextPage(info resource.PaginationInfo) bool {
	if !Window(info).HasNext {
		return false
	}
	p.changePage(info.Page + 1)
	return true
}

func (p *Presenter[R]) changePage(page int) {
	if p.opts.OnPageChange != nil {
		p.opts.OnPageChange(page)
	}
}

// Cell renders the cell of row under column key.
func (p *Presenter[R]) Cell(row R, key string) string {
	i, ok := p.byKey[key]
	if !ok {
		return ""
	}
	c := p.columns[i]
	v := c.Value(row)
	if c.Render != nil {
		return c.Render(v, row)
	}
	return renderers[c.Kind](v)
}
