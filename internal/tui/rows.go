package tui

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"webmon/internal/api"
	"webmon/internal/checkaction"
	"webmon/internal/reltime"
)

// row is one website on the landing view.
type row struct {
	site    api.Website
	checked *reltime.Stamp
	button  *checkaction.Button
	marked  bool
	// flashUntil highlights the row after its last check time moved.
	flashUntil time.Time
}

// searchText is the text the search box matches against.
func (r *row) searchText() string {
	parts := []string{r.site.Name, r.site.URL}
	parts = append(parts, r.site.KeywordTexts()...)
	return strings.ToLower(strings.Join(parts, " "))
}

// matches reports whether the row contains query, ignoring case. An empty
// query matches everything.
func (r *row) matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return q == "" || strings.Contains(r.searchText(), q)
}

// Available sort orders for the website list.
var sortChoices = []string{"name", "status", "checked", "interval"}

// sortRows orders rows by the chosen criterion, falling back to the name.
func sortRows(rows []*row, by string) {
	byName := func(a, b *row) bool {
		return strings.ToLower(a.site.Name) < strings.ToLower(b.site.Name)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch by {
		case "status":
			if a.site.IsActive != b.site.IsActive {
				return a.site.IsActive
			}
		case "checked":
			// most recently checked first, never-checked last
			if !a.site.LastChecked.Equal(b.site.LastChecked.Time) {
				return a.site.LastChecked.After(b.site.LastChecked.Time)
			}
		case "interval":
			if a.site.CheckInterval != b.site.CheckInterval {
				return a.site.CheckInterval < b.site.CheckInterval
			}
		}
		return byName(a, b)
	})
}

// column is one table column. Narrow columns are hidden when the terminal
// is narrower than the configured breakpoint.
type column struct {
	title  string
	narrow bool
	right  bool
	value  func(r *row) string
}

func (m model) columns() []column {
	cols := []column{
		{title: " ", value: func(r *row) string {
			if r.marked {
				return "[x]"
			}
			return "[ ]"
		}},
		{title: "NAME", value: func(r *row) string { return r.site.Name }},
		{title: "URL", narrow: true, value: func(r *row) string { return r.site.URL }},
		{title: "INTERVAL", narrow: true, right: true, value: func(r *row) string {
			return strconv.Itoa(r.site.CheckInterval) + "s"
		}},
		{title: "STATUS", value: func(r *row) string {
			if r.site.IsActive {
				return "ACTIVE"
			}
			return "PAUSED"
		}},
		{title: "LAST CHECKED", value: func(r *row) string {
			if r.checked.At.IsZero() {
				return "-"
			}
			return r.checked.Text
		}},
		{title: "ACTION", value: func(r *row) string {
			label := r.button.Label()
			if !r.button.Enabled() {
				return m.spinner.View() + " " + label
			}
			return label
		}},
	}
	if !m.narrow() {
		return cols
	}
	visible := cols[:0]
	for _, c := range cols {
		if !c.narrow {
			visible = append(visible, c)
		}
	}
	return visible
}

// narrow reports whether narrow columns should be hidden.
func (m model) narrow() bool {
	return m.width > 0 && m.width < m.opts.NarrowWidth
}

// visibleRows applies the search filter.
func (m model) visibleRows() []*row {
	out := make([]*row, 0, len(m.rows))
	for _, r := range m.rows {
		if r.matches(m.query) {
			out = append(out, r)
		}
	}
	return out
}

// markedRows returns the marked rows that pass the search filter.
func (m model) markedRows() []*row {
	var out []*row
	for _, r := range m.visibleRows() {
		if r.marked {
			out = append(out, r)
		}
	}
	return out
}

// toggleAll marks every visible row, or clears the marks when all visible
// rows are already marked.
func (m model) toggleAll() {
	rows := m.visibleRows()
	all := len(rows) > 0
	for _, r := range rows {
		if !r.marked {
			all = false
			break
		}
	}
	for _, r := range rows {
		r.marked = !all
	}
}
