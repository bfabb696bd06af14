package table

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/robby/leadgen/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type company struct {
	ID       string
	Name     string
	Industry string
	Score    int
	Tags     []string
	Added    time.Time
}

func (c company) RowID() string { return c.ID }

func testColumns() []Column[company] {
	return []Column[company]{
		{Key: "name", Label: "Company", Sortable: true, Value: func(c company) any { return c.Name }},
		{Key: "industry", Label: "Industry", Sortable: true, Kind: KindBadge, Value: func(c company) any { return c.Industry }},
		{Key: "score", Label: "Score", Kind: KindScore, Value: func(c company) any { return c.Score }},
		{Key: "tags", Label: "Tags", Kind: KindList, Value: func(c company) any { return c.Tags }},
		{Key: "added", Label: "Added", Kind: KindDate, Value: func(c company) any { return c.Added }},
	}
}

func testRows() []company {
	return []company{
		{ID: "1", Name: "Acme Dental", Industry: "Healthcare", Score: 80, Tags: []string{"hot"}},
		{ID: "2", Name: "Blue Bakery", Industry: "Restaurant", Score: 40, Tags: []string{"cold", "local"}},
		{ID: "3", Name: "Citrus Law", Industry: "Legal", Score: 65},
	}
}

type events struct {
	sorts    []string
	selects  [][]string
	pages    []int
	searches []string
}

func newTestPresenter(t *testing.T) (*Presenter[company], *events) {
	t.Helper()
	ev := &events{}
	p, err := NewPresenter(testColumns(), Options[company]{
		OnSort: func(key string, dir Direction) { ev.sorts = append(ev.sorts, key+":"+string(dir)) },
		OnRowSelect: func(rows []company) {
			ids := []string{}
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			ev.selects = append(ev.selects, ids)
		},
		OnPageChange: func(page int) { ev.pages = append(ev.pages, page) },
		OnSearch:     func(q string) { ev.searches = append(ev.searches, q) },
	})
	require.NoError(t, err)
	p.SetRows(testRows())
	return p, ev
}

func ids(rows []company) []string {
	out := []string{}
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestPresenter_Search(t *testing.T) {
	p, ev := newTestPresenter(t)

	assert.Equal(t, []string{"1", "2", "3"}, ids(p.Visible()))

	p.SetSearch("BAKERY")
	assert.Equal(t, []string{"2"}, ids(p.Visible()))

	// matches any column, including list values
	p.SetSearch("local")
	assert.Equal(t, []string{"2"}, ids(p.Visible()))

	p.SetSearch("65")
	assert.Equal(t, []string{"3"}, ids(p.Visible()))

	p.SetSearch("nothing")
	assert.Empty(t, p.Visible())

	assert.Equal(t, []string{"BAKERY", "local", "65", "nothing"}, ev.searches)
	assert.Len(t, p.Rows(), 3, "search never drops loaded rows")
}

func TestPresenter_SortToggles(t *testing.T) {
	p, ev := newTestPresenter(t)

	require.NoError(t, p.Sort("name"))
	require.NoError(t, p.Sort("name"))
	require.NoError(t, p.Sort("name"))
	require.NoError(t, p.Sort("industry"))

	assert.Equal(t, []string{"name:asc", "name:desc", "name:asc", "industry:asc"}, ev.sorts)
	key, dir := p.SortState()
	assert.Equal(t, "industry", key)
	assert.Equal(t, Asc, dir)
	assert.Equal(t, []string{"1", "2", "3"}, ids(p.Rows()), "sort does not reorder rows")
}

func TestPresenter_SortRejectsUnsortable(t *testing.T) {
	p, ev := newTestPresenter(t)

	assert.Error(t, p.Sort("score"))
	assert.Error(t, p.Sort("missing"))
	assert.Empty(t, ev.sorts)
}

func TestPresenter_Selection(t *testing.T) {
	p, ev := newTestPresenter(t)

	assert.Equal(t, Unchecked, p.SelectAllState())

	p.ToggleRow("3", true)
	p.ToggleRow("1", true)
	assert.Equal(t, Indeterminate, p.SelectAllState())
	assert.Equal(t, []string{"1", "3"}, ids(p.SelectedRows()), "selected rows keep loaded order")

	p.SelectAll(true)
	assert.Equal(t, Checked, p.SelectAllState())
	assert.Equal(t, 3, p.SelectedCount())

	p.ToggleRow("2", false)
	assert.False(t, p.IsSelected("2"))

	p.SelectAll(false)
	assert.Equal(t, Unchecked, p.SelectAllState())

	want := [][]string{{"3"}, {"1", "3"}, {"1", "2", "3"}, {"1", "3"}, {}}
	if diff := cmp.Diff(want, ev.selects); diff != "" {
		t.Errorf("selection events mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_SetRowsKeepsSelection(t *testing.T) {
	p, _ := newTestPresenter(t)
	p.ToggleRow("2", true)

	more := append(testRows(), company{ID: "4", Name: "Delta Spa"})
	p.SetRows(more)

	assert.True(t, p.IsSelected("2"))
	assert.Equal(t, Indeterminate, p.SelectAllState())
}

func TestPresenter_ReplaceRowsClearsSelection(t *testing.T) {
	p, ev := newTestPresenter(t)
	p.ToggleRow("2", true)

	p.ReplaceRows(testRows()[:1])

	assert.False(t, p.IsSelected("2"))
	assert.Equal(t, []string{}, ev.selects[len(ev.selects)-1])

	n := len(ev.selects)
	p.ReplaceRows(testRows())
	assert.Len(t, ev.selects, n, "no event when nothing was selected")
}

func TestPresenter_Paging(t *testing.T) {
	p, ev := newTestPresenter(t)

	first := resource.NewPaginationInfo(1, 25, 60)
	assert.False(t, p.PrevPage(first))
	assert.True(t, p.NextPage(first))

	last := resource.NewPaginationInfo(3, 25, 60)
	assert.False(t, p.NextPage(last))
	assert.True(t, p.PrevPage(last))

	assert.Equal(t, []int{2, 2}, ev.pages)
}

func TestPresenter_FiltersPanel(t *testing.T) {
	p, _ := newTestPresenter(t)
	assert.False(t, p.ShowFilters())
	p.ToggleFilters()
	assert.True(t, p.ShowFilters())
	p.ToggleFilters()
	assert.False(t, p.ShowFilters())
}

func TestPresenter_Cell(t *testing.T) {
	p, _ := newTestPresenter(t)
	row := company{
		ID: "9", Name: "Echo", Score: 72, Tags: []string{"a", "b"},
		Added: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "Echo", p.Cell(row, "name"))
	assert.Equal(t, "72/100", p.Cell(row, "score"))
	assert.Equal(t, "a, b", p.Cell(row, "tags"))
	assert.Equal(t, "Mar 5, 2024", p.Cell(row, "added"))
	assert.Empty(t, p.Cell(row, "nope"))
}

func TestPresenter_CustomRender(t *testing.T) {
	cols := []Column[company]{{
		Key:    "name",
		Value:  func(c company) any { return c.Name },
		Render: func(v any, c company) string { return Stringify(v) + " (" + c.Industry + ")" },
	}}
	p, err := NewPresenter(cols, Options[company]{})
	require.NoError(t, err)

	assert.Equal(t, "Acme (Legal)", p.Cell(company{Name: "Acme", Industry: "Legal"}, "name"))
}

func TestNewPresenter_Validation(t *testing.T) {
	value := func(c company) any { return c.Name }

	tests := []struct {
		name string
		cols []Column[company]
		want string
	}{
		{"unknown render kind", []Column[company]{{Key: "a", Kind: RenderKind(42), Value: value}}, "unknown render kind"},
		{"duplicate key", []Column[company]{{Key: "a", Value: value}, {Key: "a", Value: value}}, "duplicate column key"},
		{"missing value", []Column[company]{{Key: "a"}}, "missing value accessor"},
		{"empty key", []Column[company]{{Label: "A", Value: value}}, "empty key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPresenter(tt.cols, Options[company]{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRenderKind(t *testing.T) {
	k, err := ParseRenderKind("Badge")
	require.NoError(t, err)
	assert.Equal(t, KindBadge, k)
	assert.Equal(t, "badge", k.String())

	_, err = ParseRenderKind("sparkline")
	assert.Error(t, err)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", Stringify(nil))
	assert.Equal(t, "x, y", Stringify([]string{"x", "y"}))
	assert.Equal(t, "asc", Stringify(Asc))
	assert.Equal(t, "12", Stringify(12))
	assert.Equal(t, "1s", Stringify(time.Second))
}
