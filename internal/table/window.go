package table

import (
	"fmt"

	"github.com/robby/leadgen/internal/resource"
)

// PageWindow is the display range of one page.
type PageWindow struct {
	From, To, Total  int
	Page, TotalPages int
	HasPrev, HasNext bool
}

// Window computes the 1-based range covered by info.
func Window(info resource.PaginationInfo) PageWindow {
	w := PageWindow{
		Total:      info.Total,
		Page:       info.Page,
		TotalPages: info.TotalPages,
		HasPrev:    info.Page > 1,
		HasNext:    info.Page < info.TotalPages,
	}
	if info.Total > 0 {
		w.From = (info.Page-1)*info.Limit + 1
		w.To = min(info.Page*info.Limit, info.Total)
	}
	return w
}

func (w PageWindow) String() string {
	return fmt.Sprintf("Showing %d to %d of %d results", w.From, w.To, w.Total)
}
