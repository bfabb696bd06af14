// Package table is a view-independent presenter over an in-memory row set:
// client-side search, sort requests, selection and page navigation.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is anything with a stable identity.
type Row interface {
	RowID() string
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// RenderKind selects how a column value is turned into cell text.
type RenderKind int

const (
	KindText RenderKind = iota
	KindBadge
	KindDate
	KindScore
	KindLink
	KindList
)

var renderKindTags = map[string]RenderKind{
	"text":  KindText,
	"badge": KindBadge,
	"date":  KindDate,
	"score": KindScore,
	"link":  KindLink,
	"list":  KindList,
}

// ParseRenderKind maps a tag such as "badge" to its RenderKind.
func ParseRenderKind(tag string) (RenderKind, error) {
	k, ok := renderKindTags[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return 0, fmt.Errorf("unknown render kind %q", tag)
	}
	return k, nil
}

func (k RenderKind) String() string {
	for tag, kind := range renderKindTags {
		if kind == k {
			return tag
		}
	}
	return "RenderKind(" + strconv.Itoa(int(k)) + ")"
}

// DateLayout is the layout used by KindDate cells.
const DateLayout = "Jan 2, 2006"

var renderers = map[RenderKind]func(v any) string{
	KindText:  Stringify,
	KindBadge: Stringify,
	KindLink:  Stringify,
	KindList:  Stringify,
	KindDate:  renderDate,
	KindScore: renderScore,
}

func renderDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Format(DateLayout)
		}
		return t
	}
	return Stringify(v)
}

func renderScore(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n) + "/100"
	case *int:
		if n == nil {
			return "-"
		}
		return strconv.Itoa(*n) + "/100"
	}
	return Stringify(v)
}

// Stringify is the searchable text form of a cell value.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Column declares one table column over rows of type R.
type Column[R Row] struct {
	Key      string
	Label    string
	Sortable bool
	Kind     RenderKind

	// Value extracts the raw value, used for search and rendering.
	Value func(R) any
	// Render overrides the kind renderer when set.
	Render func(v any, row R) string
}

func (c Column[R]) validate() error {
	if c.Key == "" {
		return fmt.Errorf("column %q: empty key", c.Label)
	}
	if c.Value == nil {
		return fmt.Errorf("column %q: missing value accessor", c.Key)
	}
	if _, ok := renderers[c.Kind]; !ok {
		return fmt.Errorf("column %q: unknown render kind %d", c.Key, int(c.Kind))
	}
	return nil
}
