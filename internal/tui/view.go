package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	figure "github.com/common-nighthawk/go-figure"

	"webmon/internal/locale"
	"webmon/internal/notify"
)

const (
	colSep     = 2
	maxColumn  = 40
	toastWidth = 44
)

var (
	hdrStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	legendStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Bold(true)
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	selectedBg    = lipgloss.NewStyle().Background(lipgloss.Color("4"))
	flashStyle    = lipgloss.NewStyle().Background(lipgloss.Color("10")).Bold(true)
	messageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Bold(true)
	severityColor = map[notify.Severity]lipgloss.Color{
		notify.SeveritySuccess: "10",
		notify.SeverityInfo:    "12",
		notify.SeverityWarning: "11",
		notify.SeverityDanger:  "1",
	}
)

const (
	landingLegend = "A Add   E Edit   D Delete   C Check   Space Mark   / Search   O Sort   X Export   Q Quit"
	detailLegend  = "C Check   E Edit   D Delete   X Export   Y Copy URL   R Reload   Esc Back   Q Quit"
)

// View renders the header, the current view and the notification toasts
// in the top-right corner.
func (m model) View() (out string) {
	if m.quitting {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("recovered from panic while rendering", "panic", r)
			out = m.loc.T(locale.PageError) + "\n"
		}
	}()

	width := m.width
	if width == 0 {
		width = 80
	}
	centerLine := func(s string) string {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s)
	}

	var header strings.Builder
	fig := figure.NewFigure("WEBMON", "", true)
	for _, line := range strings.Split(fig.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		header.WriteString(centerLine(hdrStyle.Render(line)) + "\n")
	}
	legend := landingLegend
	if m.nav.view == viewDetail {
		legend = detailLegend
	}
	header.WriteString(centerLine(legendStyle.Render(legend)) + "\n")
	if s := m.summary(); s != "" {
		header.WriteString(centerLine(summaryStyle.Render(s)) + "\n")
	}
	header.WriteString("\n")

	var overlay string
	switch m.mode {
	case modeAdd:
		overlay = m.form.view("Add website:")
	case modeEdit:
		overlay = m.form.view("Edit website:")
	case modeConfirmDelete:
		overlay = m.confirmText()
	}

	var b strings.Builder
	b.WriteString(header.String())
	if overlay != "" {
		for _, line := range strings.Split(overlay, "\n") {
			b.WriteString(centerLine(line) + "\n")
		}
	} else if m.nav.view == viewDetail {
		for _, line := range m.detailLines(width) {
			b.WriteString(centerLine(line) + "\n")
		}
	} else {
		headerLines := strings.Count(header.String(), "\n")
		for _, line := range m.tableLines(m.height - headerLines - 4) {
			b.WriteString(centerLine(line) + "\n")
		}
	}

	if m.mode == modeSearch || m.query != "" {
		b.WriteString("\n" + centerLine("Search: "+m.search.View()) + "\n")
	}
	if m.message != "" {
		b.WriteString("\n" + centerLine(messageStyle.Render(m.message)) + "\n")
	}
	return overlayRight(b.String(), m.toasts(), width)
}

// summary is the status line fed by the poller.
func (m model) summary() string {
	if m.status == nil {
		return ""
	}
	var parts []string
	if n, ok := m.status.TotalWebsites(); ok {
		parts = append(parts, fmt.Sprintf("Websites %d", n))
	}
	if n, ok := m.status.ActiveWebsites(); ok {
		parts = append(parts, fmt.Sprintf("Active %d", n))
	}
	if n, ok := m.status.RecentChanges(); ok {
		parts = append(parts, fmt.Sprintf("Changes (24h) %d", n))
	}
	if s := m.status.State(); s != "" {
		parts = append(parts, "Server "+s)
	}
	return strings.Join(parts, "   ")
}

func (m model) confirmText() string {
	if len(m.confirmIDs) == 1 {
		name := strconv.FormatInt(m.confirmIDs[0], 10)
		for _, r := range m.rows {
			if r.site.ID == m.confirmIDs[0] {
				name = r.site.Name
			}
		}
		if m.detail != nil && m.detail.site.ID == m.confirmIDs[0] {
			name = m.detail.site.Name
		}
		return fmt.Sprintf("Delete website '%s'? %s (y/n)", name, m.loc.T(locale.ConfirmAction))
	}
	return fmt.Sprintf("Delete %d websites? %s (y/n)", len(m.confirmIDs), m.loc.T(locale.ConfirmAction))
}

// pad fills s with spaces up to w display cells.
func pad(s string, w int, right bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// tableLines renders the website table, scrolled so the cursor stays within
// the available rows. available <= 0 means no height limit is known.
func (m model) tableLines(available int) []string {
	rows := m.visibleRows()
	if len(rows) == 0 {
		if m.query != "" {
			return []string{"No websites match the search."}
		}
		return []string{"No websites yet. Press A to add one."}
	}

	cols := m.columns()
	values := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.title)
	}
	for j, r := range rows {
		values[j] = make([]string, len(cols))
		for i, c := range cols {
			v := ansi.Truncate(c.value(r), maxColumn, "…")
			values[j][i] = v
			if w := lipgloss.Width(v); w > widths[i] {
				widths[i] = w
			}
		}
	}

	sep := strings.Repeat(" ", colSep)
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = pad(c.title, widths[i], c.right)
	}
	lines := []string{strings.Join(titles, sep)}

	if available <= 0 || available > len(rows) {
		available = len(rows)
	}
	start := 0
	if m.cursor >= available {
		start = m.cursor - available + 1
	}
	end := min(start+available, len(rows))

	now := m.opts.Clock.Now()
	for idx := start; idx < end; idx++ {
		r := rows[idx]
		parts := make([]string, len(cols))
		for i, c := range cols {
			cell := pad(values[idx][i], widths[i], c.right)
			if c.title == "STATUS" {
				if r.site.IsActive {
					cell = activeStyle.Render(cell)
				} else {
					cell = pausedStyle.Render(cell)
				}
			}
			parts[i] = cell
		}
		selected := idx == m.cursor && m.mode == modeList
		if r.flashUntil.After(now) && !selected {
			for i, c := range cols {
				if c.title != "STATUS" {
					parts[i] = flashStyle.Render(parts[i])
				}
			}
		}
		if selected {
			for i := range parts {
				parts[i] = selectedBg.Render(parts[i])
			}
		}
		lines = append(lines, strings.Join(parts, sep))
	}
	return lines
}

// detailLines renders one website with its recent changes.
func (m model) detailLines(width int) []string {
	d := m.detail
	if d == nil {
		return []string{"Loading..."}
	}
	status := activeStyle.Render("ACTIVE")
	if !d.site.IsActive {
		status = pausedStyle.Render("PAUSED")
	}
	checked := "-"
	if !d.checked.At.IsZero() {
		checked = d.checked.Text
	}
	keywords := strings.Join(d.site.KeywordTexts(), ", ")
	if keywords == "" {
		keywords = "-"
	}
	action := m.button(d.site.ID)
	label := "[ " + action.Label() + " ]"
	if !action.Enabled() {
		label = m.spinner.View() + " " + label
	}

	field := func(name, value string) string {
		return labelStyle.Render(pad(name, 14, false)) + value
	}
	lines := []string{
		field("Name", d.site.Name),
		field("URL", d.site.URL),
		field("Interval", strconv.Itoa(d.site.CheckInterval)+"s"),
		field("Status", status),
		field("Last checked", checked),
		field("Created", m.loc.Date(d.site.CreatedAt.Time)),
		field("Keywords", keywords),
		"",
		label,
		"",
		labelStyle.Render(fmt.Sprintf("RECENT CHANGES (%d)", d.total)),
	}
	if len(d.changes) == 0 {
		return append(lines, "No changes recorded.")
	}
	limit := max(width-40, 20)
	for _, c := range d.changes {
		summary := c.rec.MatchedKeywords
		if summary == "" {
			summary = strings.SplitN(strings.TrimSpace(c.rec.DiffContent), "\n", 2)[0]
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s",
			pad(c.at.Text, 12, false),
			pad(c.rec.ChangeType, 16, false),
			ansi.Truncate(summary, limit, "…")))
	}
	return lines
}

// toasts renders the visible notifications, oldest first.
func (m model) toasts() []string {
	var lines []string
	for _, n := range m.center.Snapshot() {
		color := severityColor[n.Severity]
		text := n.Message
		if n.Sticky() {
			text += " (n to dismiss)"
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Foreground(color).
			Padding(0, 1).
			Width(toastWidth - 2).
			Render(text)
		lines = append(lines, strings.Split(box, "\n")...)
	}
	return lines
}

// overlayRight draws box over the right edge of the first lines of base.
func overlayRight(base string, box []string, width int) string {
	if len(box) == 0 {
		return base
	}
	lines := strings.Split(base, "\n")
	for len(lines) < len(box) {
		lines = append(lines, "")
	}
	for i, b := range box {
		left := max(width-ansi.StringWidth(b), 0)
		line := ansi.Truncate(lines[i], left, "")
		if gap := left - ansi.StringWidth(line); gap > 0 {
			line += strings.Repeat(" ", gap)
		}
		lines[i] = line + b
	}
	return strings.Join(lines, "\n")
}
