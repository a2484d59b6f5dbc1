// Package tui is the terminal dashboard: a website list (the landing view)
// and a per-website detail view, with a toast overlay for notifications.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"webmon/internal/api"
	"webmon/internal/checkaction"
	"webmon/internal/clock"
	"webmon/internal/errors"
	"webmon/internal/export"
	"webmon/internal/locale"
	"webmon/internal/metrics"
	"webmon/internal/netwatch"
	"webmon/internal/notify"
	"webmon/internal/poller"
	"webmon/internal/reltime"
)

// Backend is the part of the monitor API the dashboard uses. *api.Client
// implements it.
type Backend interface {
	Status(ctx context.Context) (*api.StatusReport, error)
	Check(ctx context.Context, websiteID int64) (api.CheckResult, error)
	Websites(ctx context.Context) ([]api.Website, error)
	Website(ctx context.Context, id int64) (api.Website, error)
	CreateWebsite(ctx context.Context, in api.WebsiteInput) (api.Website, error)
	UpdateWebsite(ctx context.Context, id int64, in api.WebsiteInput) (api.Website, error)
	DeleteWebsite(ctx context.Context, id int64) error
	Changes(ctx context.Context, q api.ChangeQuery) (api.ChangePage, error)
	Export(ctx context.Context, kind string, websiteID int64) ([]byte, error)
}

// Options configures the dashboard. Zero values take the defaults noted.
type Options struct {
	Backend Backend
	// Locale defaults to zh-CN.
	Locale *locale.Locale
	// Clock drives notification expiry and the post-check reload.
	Clock clock.Clock
	// PollInterval defaults to poller.DefaultInterval.
	PollInterval time.Duration
	// ReloadDelay defaults to checkaction.DefaultReloadDelay.
	ReloadDelay time.Duration
	Notify      notify.Options
	// NotifyDuration is how long dashboard messages stay up. It defaults to
	// notify.DefaultDuration.
	NotifyDuration time.Duration
	// NarrowWidth is the terminal width below which the URL and interval
	// columns are hidden.
	NarrowWidth int
	ExportDir   string
	// NetEvents, when set, feeds connectivity transitions to the dashboard.
	NetEvents <-chan netwatch.Event
	// Clipboard defaults to the system clipboard.
	Clipboard func(text string) error
	// ReportPanic receives recovered panics, e.g. to forward them to Sentry.
	ReportPanic func(recovered any)
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

type viewKind int

const (
	viewLanding viewKind = iota
	viewDetail
)

// nav is the current view. It is shared by every copy of the model and
// read by the check controller.
type nav struct {
	view      viewKind
	websiteID int64
}

// modelMode enumerates the input states of the dashboard.
type modelMode int

const (
	modeList modelMode = iota
	modeAdd
	modeEdit
	modeConfirmDelete
	modeSearch
)

// detailState is what the detail view shows.
type detailState struct {
	site    api.Website
	checked *reltime.Stamp
	changes []changeRow
	total   int
}

type changeRow struct {
	rec api.ChangeRecord
	at  *reltime.Stamp
}

type model struct {
	opts Options
	loc  *locale.Locale
	log  *slog.Logger

	center    *notify.Center
	checks    *checkaction.Controller
	poller    *poller.Poller
	exporter  *export.Exporter
	reporter  *netwatch.Reporter
	refresher *reltime.Refresher

	nav     *nav
	rows    []*row
	buttons map[int64]*checkaction.Button
	detail  *detailState
	status  *api.StatusReport
	pollGen int

	cursor int
	width  int
	height int
	mode   modelMode
	sortBy string

	query  string
	search textinput.Model

	form       websiteForm
	editID     int64
	confirmIDs []int64

	spinner  spinner.Model
	message  string
	quitting bool

	changed chan struct{}
	reloads chan struct{}
}

// Messages.
type (
	pollTickMsg      struct{ gen int }
	statusMsg        poller.Result
	websitesMsg      struct {
		sites  []api.Website
		status *api.StatusReport
		err    error
	}
	detailMsg struct {
		site    api.Website
		changes api.ChangePage
		err     error
	}
	checkDoneMsg     struct{ inv *checkaction.Invocation }
	notificationsMsg struct{}
	reloadMsg        struct{}
	netEventMsg      struct{ event netwatch.Event }
	savedMsg         struct {
		site api.Website
		err  error
	}
	deletedMsg struct {
		ids []int64
		err error
	}
	copiedMsg   struct{ err error }
	exportedMsg struct {
		path string
		err  error
	}
	panicMsg struct{ recovered any }
)

// New builds the dashboard model.
func New(opts Options) (tea.Model, error) {
	return newModel(opts)
}

func newModel(opts Options) (model, error) {
	if opts.Backend == nil {
		return model{}, errors.Newf("dashboard needs a backend").
			Component("tui").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if opts.Locale == nil {
		opts.Locale = locale.MustNew(locale.Default)
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.NotifyDuration <= 0 {
		opts.NotifyDuration = notify.DefaultDuration
	}

	m := model{
		opts:    opts,
		loc:     opts.Locale,
		log:     opts.Logger,
		nav:     &nav{view: viewLanding},
		buttons: make(map[int64]*checkaction.Button),
		mode:    modeList,
		sortBy:  sortChoices[0],
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		search:  textinput.New(),
		pollGen: 1,
		changed: make(chan struct{}, 1),
		reloads: make(chan struct{}, 1),
	}
	m.search.Placeholder = "Search"

	m.center = notify.NewCenter(opts.Clock, opts.Notify, opts.Logger.With("component", "notify"), opts.Metrics)
	m.center.OnChange(func([]notify.Notification) { signal(m.changed) })
	m.refresher = reltime.NewRefresher(opts.Locale, opts.Clock.Now)
	m.reporter = netwatch.NewReporter(m.center, opts.Locale, opts.Logger.With("component", "netwatch"), opts.Metrics)
	m.exporter = &export.Exporter{
		Downloader: opts.Backend,
		Sink:       m.center,
		Locale:     opts.Locale,
		Dir:        opts.ExportDir,
		Now:        opts.Clock.Now,
		Logger:     opts.Logger.With("component", "export"),
		Metrics:    opts.Metrics,
	}

	current := m.nav
	checks, err := checkaction.New(checkaction.Config{
		Checker:      opts.Backend,
		Sink:         m.center,
		Locale:       opts.Locale,
		Clock:        opts.Clock,
		OnDetailView: func() bool { return current.view == viewDetail },
		Reload:       func() { signal(m.reloads) },
		ReloadDelay:  opts.ReloadDelay,
		Logger:       opts.Logger.With("component", "checkaction"),
		Metrics:      opts.Metrics,
	})
	if err != nil {
		return model{}, err
	}
	m.checks = checks

	p, err := poller.New(poller.Config{
		Interval:      opts.PollInterval,
		OnLandingView: func() bool { return current.view == viewLanding },
	}, opts.Backend, nil, opts.Logger.With("component", "poller"), opts.Metrics)
	if err != nil {
		return model{}, err
	}
	m.poller = p
	return m, nil
}

// signal wakes a waiter without blocking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Run starts the dashboard in the alternate screen with focus reporting.
func Run(ctx context.Context, opts Options) error {
	m, err := newModel(opts)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// safe runs fn and turns a panic into a panicMsg for the update loop.
func safe(fn func() tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = panicMsg{recovered: r}
			}
		}()
		return fn()
	}
}

func (m model) waitForNotifications() tea.Cmd {
	ch := m.changed
	return func() tea.Msg {
		<-ch
		return notificationsMsg{}
	}
}

func (m model) waitForReload() tea.Cmd {
	ch := m.reloads
	return func() tea.Msg {
		<-ch
		return reloadMsg{}
	}
}

func (m model) waitForNetEvent() tea.Cmd {
	ch := m.opts.NetEvents
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return netEventMsg{event: e}
	}
}

// startPolling begins a new poll cadence, superseding any earlier one.
func (m *model) startPolling() tea.Cmd {
	if !m.poller.Active() {
		return nil
	}
	m.pollGen++
	return m.tickCmd()
}

// tickCmd waits one poll interval before sending a pollTickMsg.
func (m model) tickCmd() tea.Cmd {
	gen := m.pollGen
	return tea.Tick(m.poller.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg{gen: gen}
	})
}

func (m model) pollCmd() tea.Cmd {
	p := m.poller
	return safe(func() tea.Msg {
		return statusMsg(p.PollOnce(context.Background()))
	})
}

func (m model) loadLanding() tea.Cmd {
	backend := m.opts.Backend
	return safe(func() tea.Msg {
		ctx := context.Background()
		sites, err := backend.Websites(ctx)
		if err != nil {
			return websitesMsg{err: err}
		}
		// the status header is best effort
		status, _ := backend.Status(ctx)
		return websitesMsg{sites: sites, status: status}
	})
}

// DetailChangesPerPage is how many change records the detail view lists.
const DetailChangesPerPage = 20

func (m model) loadDetail(id int64) tea.Cmd {
	backend := m.opts.Backend
	return safe(func() tea.Msg {
		ctx := context.Background()
		site, err := backend.Website(ctx, id)
		if err != nil {
			return detailMsg{err: err}
		}
		changes, err := backend.Changes(ctx, api.ChangeQuery{Page: 1, PerPage: DetailChangesPerPage, WebsiteID: id})
		return detailMsg{site: site, changes: changes, err: err}
	})
}

func (m model) execCheck(inv *checkaction.Invocation) tea.Cmd {
	checks := m.checks
	return safe(func() tea.Msg {
		checks.Execute(context.Background(), inv)
		return checkDoneMsg{inv: inv}
	})
}

func (m model) saveCmd(id int64, in api.WebsiteInput) tea.Cmd {
	backend := m.opts.Backend
	return safe(func() tea.Msg {
		ctx := context.Background()
		if id == 0 {
			site, err := backend.CreateWebsite(ctx, in)
			return savedMsg{site: site, err: err}
		}
		site, err := backend.UpdateWebsite(ctx, id, in)
		return savedMsg{site: site, err: err}
	})
}

func (m model) deleteCmd(ids []int64) tea.Cmd {
	backend := m.opts.Backend
	return safe(func() tea.Msg {
		ctx := context.Background()
		var deleted []int64
		for _, id := range ids {
			if err := backend.DeleteWebsite(ctx, id); err != nil {
				return deletedMsg{ids: deleted, err: err}
			}
			deleted = append(deleted, id)
		}
		return deletedMsg{ids: deleted}
	})
}

func (m model) copyCmd(text string) tea.Cmd {
	write := m.opts.Clipboard
	return safe(func() tea.Msg {
		return copiedMsg{err: write(text)}
	})
}

func (m model) exportCmd(kind string, websiteID int64) tea.Cmd {
	e := m.exporter
	return safe(func() tea.Msg {
		path, err := e.Export(context.Background(), kind, websiteID)
		return exportedMsg{path: path, err: err}
	})
}

// Init loads the landing view and starts the background listeners.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.loadLanding(),
		m.tickCmd(),
		m.waitForNotifications(),
		m.waitForReload(),
		m.waitForNetEvent(),
	)
}

// setMessage assigns the inline message shown under the table or form.
func (m *model) setMessage(msg string) {
	m.message = msg
}

// requestFailed reports a failed user action as a danger notification.
func (m model) requestFailed(err error) {
	reason := err.Error()
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		reason = apiErr.Message
	}
	m.log.Warn("request failed", "error", err)
	m.center.Notify(m.loc.T(locale.RequestFailedAt, reason), notify.SeverityDanger, m.opts.NotifyDuration)
}

// recovered is the safety net for faults in the update loop and in
// commands.
func (m model) recovered(r any) {
	m.log.Error("recovered from panic", "panic", r)
	if m.opts.ReportPanic != nil {
		func() {
			defer func() { _ = recover() }()
			m.opts.ReportPanic(r)
		}()
	}
	m.center.Notify(m.loc.T(locale.PageError), notify.SeverityDanger, m.opts.NotifyDuration)
}

// Update implements tea.Model. A panic while handling msg leaves the model
// as it was and posts a generic error notification.
func (m model) Update(msg tea.Msg) (out tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.recovered(r)
			out, cmd = m, nil
		}
	}()
	return m.update(msg)
}

func (m model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.FocusMsg:
		m.refresher.VisibilityChanged(true)
		return m, nil
	case tea.BlurMsg:
		m.refresher.VisibilityChanged(false)
		return m, nil
	case panicMsg:
		m.recovered(msg.recovered)
		return m, nil
	case pollTickMsg:
		// a stale cadence or another view ends the timer
		if msg.gen != m.pollGen || !m.poller.Active() {
			return m, nil
		}
		return m, tea.Batch(m.pollCmd(), m.tickCmd())
	case statusMsg:
		if msg.Err == nil {
			m.status = msg.Report
		}
		return m, nil
	case websitesMsg:
		if msg.err != nil {
			m.requestFailed(msg.err)
			return m, nil
		}
		if msg.status != nil {
			m.status = msg.status
		}
		m.applyWebsites(msg.sites)
		return m, nil
	case detailMsg:
		if msg.err != nil {
			m.requestFailed(msg.err)
			return m, nil
		}
		if m.nav.view == viewDetail && m.nav.websiteID == msg.site.ID {
			m.applyDetail(msg.site, msg.changes)
		}
		return m, nil
	case checkDoneMsg:
		m.checks.Complete(msg.inv)
		return m, nil
	case notificationsMsg:
		return m, m.waitForNotifications()
	case reloadMsg:
		var load tea.Cmd
		if m.nav.view == viewDetail {
			load = m.loadDetail(m.nav.websiteID)
		}
		return m, tea.Batch(load, m.waitForReload())
	case netEventMsg:
		m.reporter.Handle(msg.event)
		return m, m.waitForNetEvent()
	case savedMsg:
		if msg.err != nil {
			m.requestFailed(msg.err)
			return m, nil
		}
		m.center.Notify(m.loc.T(locale.WebsiteSaved), notify.SeveritySuccess, m.opts.NotifyDuration)
		return m, m.reloadCurrent()
	case deletedMsg:
		if msg.err != nil {
			m.requestFailed(msg.err)
		} else {
			m.center.Notify(m.loc.T(locale.WebsiteDeleted), notify.SeveritySuccess, m.opts.NotifyDuration)
		}
		if m.nav.view == viewDetail && containsID(msg.ids, m.nav.websiteID) {
			return m, m.showLanding()
		}
		return m, m.loadLanding()
	case copiedMsg:
		if msg.err != nil {
			m.log.Warn("clipboard write failed", "error", msg.err)
			m.center.Notify(m.loc.T(locale.CopyFailed), notify.SeverityDanger, 3000*time.Millisecond)
		} else {
			m.center.Notify(m.loc.T(locale.Copied), notify.SeveritySuccess, 2000*time.Millisecond)
		}
		return m, nil
	case exportedMsg:
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeEdit:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		}
		if m.nav.view == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// busy reports whether any check is in flight.
func (m model) busy() bool {
	for _, b := range m.buttons {
		if !b.Enabled() {
			return true
		}
	}
	return false
}

func (m model) button(id int64) *checkaction.Button {
	b, ok := m.buttons[id]
	if !ok {
		b = checkaction.NewButton(m.checkLabel())
		m.buttons[id] = b
	}
	return b
}

func (m model) checkLabel() string {
	return m.loc.T(locale.CheckNow)
}

// applyWebsites rebuilds the landing rows, keeping marks and check buttons.
func (m *model) applyWebsites(sites []api.Website) {
	prev := make(map[int64]*row, len(m.rows))
	for _, r := range m.rows {
		prev[r.site.ID] = r
	}
	now := m.opts.Clock.Now()
	rows := make([]*row, 0, len(sites))
	labels := make([]reltime.Label, 0, len(sites))
	for _, s := range sites {
		r := &row{site: s, checked: &reltime.Stamp{At: s.LastChecked.Time}, button: m.button(s.ID)}
		if old, ok := prev[s.ID]; ok {
			r.marked = old.marked
			if !old.site.LastChecked.Equal(s.LastChecked.Time) {
				r.flashUntil = now.Add(2 * time.Second)
			}
		}
		rows = append(rows, r)
		labels = append(labels, r.checked)
	}
	sortRows(rows, m.sortBy)
	m.rows = rows
	m.refresher.Track(labels...)
	if visible := len(m.visibleRows()); m.cursor >= visible {
		m.cursor = max(visible-1, 0)
	}
}

func (m *model) applyDetail(site api.Website, page api.ChangePage) {
	d := &detailState{site: site, checked: &reltime.Stamp{At: site.LastChecked.Time}, total: page.Total}
	labels := []reltime.Label{d.checked}
	for _, rec := range page.Changes {
		cr := changeRow{rec: rec, at: &reltime.Stamp{At: rec.CreatedAt.Time}}
		d.changes = append(d.changes, cr)
		labels = append(labels, cr.at)
	}
	m.detail = d
	m.refresher.Track(labels...)
}

// showLanding switches to the landing view, reloads it and restarts the
// poll cadence.
func (m *model) showLanding() tea.Cmd {
	m.nav.view = viewLanding
	m.nav.websiteID = 0
	m.detail = nil
	return tea.Batch(m.loadLanding(), m.startPolling())
}

func (m *model) showDetail(id int64) tea.Cmd {
	m.nav.view = viewDetail
	m.nav.websiteID = id
	m.detail = nil
	m.pollGen++
	return m.loadDetail(id)
}

func (m model) reloadCurrent() tea.Cmd {
	if m.nav.view == viewDetail {
		return m.loadDetail(m.nav.websiteID)
	}
	return m.loadLanding()
}

// current returns the row under the cursor, or nil.
func (m model) current() *row {
	rows := m.visibleRows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor]
}

// startCheck runs a check from the website's control. A gesture on a busy
// control does nothing.
func (m model) startCheck(id int64) tea.Cmd {
	inv, err := m.checks.Begin(m.button(id), id)
	if err != nil {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.execCheck(inv))
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setMessage("")
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.visibleRows())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Open):
		if r := m.current(); r != nil {
			return m, m.showDetail(r.site.ID)
		}
	case key.Matches(msg, keys.Check):
		if r := m.current(); r != nil {
			return m, m.startCheck(r.site.ID)
		}
	case key.Matches(msg, keys.CheckMarked):
		marked := m.markedRows()
		if len(marked) == 0 {
			m.setMessage(m.loc.T(locale.NothingSelected))
			return m, nil
		}
		var cmds []tea.Cmd
		for _, r := range marked {
			cmds = append(cmds, m.startCheck(r.site.ID))
		}
		return m, tea.Batch(cmds...)
	case key.Matches(msg, keys.Mark):
		if r := m.current(); r != nil {
			r.marked = !r.marked
		}
	case key.Matches(msg, keys.MarkAll):
		m.toggleAll()
	case key.Matches(msg, keys.Add):
		m.mode = modeAdd
		m.editID = 0
		m.form = newWebsiteForm(nil)
	case key.Matches(msg, keys.Edit):
		if r := m.current(); r != nil {
			m.mode = modeEdit
			m.editID = r.site.ID
			m.form = newWebsiteForm(&r.site)
		}
	case key.Matches(msg, keys.Delete):
		if r := m.current(); r != nil {
			m.mode = modeConfirmDelete
			m.confirmIDs = []int64{r.site.ID}
		}
	case key.Matches(msg, keys.DeleteMarked):
		marked := m.markedRows()
		if len(marked) == 0 {
			m.setMessage(m.loc.T(locale.NothingSelected))
			return m, nil
		}
		m.confirmIDs = nil
		for _, r := range marked {
			m.confirmIDs = append(m.confirmIDs, r.site.ID)
		}
		m.mode = modeConfirmDelete
	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		return m, m.search.Focus()
	case key.Matches(msg, keys.Sort):
		next := 0
		for i, c := range sortChoices {
			if c == m.sortBy {
				next = (i + 1) % len(sortChoices)
			}
		}
		m.sortBy = sortChoices[next]
		sortRows(m.rows, m.sortBy)
		m.cursor = 0
		m.setMessage("Sorted by " + m.sortBy)
	case key.Matches(msg, keys.Copy):
		if r := m.current(); r != nil {
			return m, m.copyCmd(r.site.URL)
		}
	case key.Matches(msg, keys.ExportSites):
		return m, m.exportCmd(export.KindWebsites, 0)
	case key.Matches(msg, keys.ExportChanges):
		return m, m.exportCmd(export.KindChanges, 0)
	case key.Matches(msg, keys.Reload):
		return m, m.loadLanding()
	case key.Matches(msg, keys.Dismiss):
		m.center.DismissNewest()
	case key.Matches(msg, keys.DismissAll):
		m.center.Clear()
	case msg.Type == tea.KeyEsc && m.query != "":
		m.query = ""
		m.cursor = 0
	}
	return m, nil
}

func (m model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setMessage("")
	id := m.nav.websiteID
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, keys.Back):
		return m, m.showLanding()
	case key.Matches(msg, keys.Check):
		return m, m.startCheck(id)
	case key.Matches(msg, keys.Edit):
		if m.detail != nil {
			m.mode = modeEdit
			m.editID = id
			m.form = newWebsiteForm(&m.detail.site)
		}
	case key.Matches(msg, keys.Delete):
		m.mode = modeConfirmDelete
		m.confirmIDs = []int64{id}
	case key.Matches(msg, keys.Copy):
		if m.detail != nil {
			return m, m.copyCmd(m.detail.site.URL)
		}
	case key.Matches(msg, keys.ExportSites), key.Matches(msg, keys.ExportChanges):
		return m, m.exportCmd(export.KindChanges, id)
	case key.Matches(msg, keys.Reload):
		return m, m.loadDetail(id)
	case key.Matches(msg, keys.Dismiss):
		m.center.DismissNewest()
	case key.Matches(msg, keys.DismissAll):
		m.center.Clear()
	}
	return m, nil
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.setMessage("")
		return m, nil
	case "tab", "down":
		m.form.next(1)
		return m, nil
	case "shift+tab", "up":
		m.form.next(-1)
		return m, nil
	case "enter":
		if !m.form.last() {
			m.form.next(1)
			return m, nil
		}
		in, err := m.form.input(m.loc)
		if err != nil {
			m.setMessage(err.Error())
			return m, nil
		}
		m.mode = modeList
		m.setMessage("")
		return m, m.saveCmd(m.editID, in)
	}
	return m, m.form.update(msg)
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeList
		ids := append([]int64(nil), m.confirmIDs...)
		m.confirmIDs = nil
		return m, m.deleteCmd(ids)
	case "n", "N", "esc":
		m.mode = modeList
		m.confirmIDs = nil
	}
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeList
		m.search.Blur()
		m.query = ""
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = m.search.Value()
	m.cursor = 0
	return m, cmd
}
