// Package monitor is the interactive terminal page for the plan list. It
// hosts a grid.Grid and adds the page chrome around it: header navigation,
// search banner, dropdown overlay, modals, forms and the session timer.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/client"
	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/session"
	"github.com/marcus/svp/pkg/monitor/modal"
	"github.com/marcus/svp/pkg/monitor/mouse"
)

// statusDuration is how long status messages stay up
const statusDuration = 2 * time.Second

// Options configure NewModel
type Options struct {
	Source          DataSource
	BaseDir         string
	Username        string
	ViewOnly        bool
	PageSize        int
	PageSizes       []int
	SearchID        string
	SessionTimeout  time.Duration
	SessionWarning  time.Duration
	RefreshInterval time.Duration
	Changes         <-chan struct{}
	Now             func() time.Time
}

// ============================================================================
// Messages
// ============================================================================

// TickMsg triggers a periodic refresh
type TickMsg time.Time

// SessionTickMsg drives the inactivity check
type SessionTickMsg time.Time

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}

// PulseEndMsg ends the change highlight started for Generation
type PulseEndMsg struct {
	Generation uint64
}

// ChangeMsg reports that the underlying data changed
type ChangeMsg struct{}

// PlanCanceledMsg is the result of canceling a plan
type PlanCanceledMsg struct {
	Plan *models.Plan
	Err  error
}

// PlanCreatedMsg is the result of initiating a plan
type PlanCreatedMsg struct {
	Plan *models.Plan
	Err  error
}

// SearchSavedMsg is the result of saving a search
type SearchSavedMsg struct {
	Search *models.SavedSearch
	Err    error
}

// SearchDeletedMsg is the result of deleting a saved search
type SearchDeletedMsg struct {
	ID  string
	Err error
}

// InitiateOptionsMsg carries the choices needed to open a form
type InitiateOptionsMsg struct {
	Mode    FormMode
	Options *models.InitiateOptions
	Err     error
}

// ============================================================================
// Model
// ============================================================================

// Model is the bubbletea model of the plan list page
type Model struct {
	Source          DataSource
	BaseDir         string
	Username        string
	ViewOnly        bool
	RefreshInterval time.Duration
	changes         <-chan struct{}

	Width  int
	Height int

	// Data of the last refresh
	Plans       []models.Plan
	GridConfig  *models.GridConfig
	Menu        []models.MenuItem
	Nav         []models.NavItem
	Searches    []models.SavedSearch
	Search      models.SearchValues
	SearchID    string
	LastRefresh time.Time
	Loaded      bool

	// Grid state
	Grid       *grid.Grid
	Layout     planlist.Layout
	host       *gridHost
	pageSize   int
	pageSizes  []int
	Cursor     int
	Scroll     int
	ColCursor  int
	MenuCursor int

	// Text filter being edited
	FilterOpen  bool
	FilterKey   string
	filterInput textinput.Model

	// Change highlight
	Pulsing  bool
	pulseGen uint64

	// Overlays, topmost first
	ModalKind       modalKind
	ActiveModal     *modal.Modal
	PendingCancelID string
	searchIdx       *int
	FormOpen        bool
	FormState       *FormState
	Finder          *FinderState
	Detail          *DetailState

	tracker *session.Tracker
	Expired bool

	StatusMessage string
	StatusIsError bool
	Err           error
	Retryable     bool

	mouse   *mouse.Handler
	hoverID string
}

// NewModel creates the plan list page
func NewModel(opts Options) Model {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = grid.DefaultPageSize
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "filter"
	ti.CharLimit = 100

	m := Model{
		Source:          opts.Source,
		BaseDir:         opts.BaseDir,
		Username:        opts.Username,
		ViewOnly:        opts.ViewOnly,
		RefreshInterval: opts.RefreshInterval,
		changes:         opts.Changes,
		Search:          planlist.DefaultSearchValues(),
		SearchID:        opts.SearchID,
		host:            newGridHost(),
		pageSize:        pageSize,
		pageSizes:       opts.PageSizes,
		filterInput:     ti,
		searchIdx:       new(int),
		tracker:         session.NewTracker(opts.SessionTimeout, opts.SessionWarning, opts.Now),
		mouse:           mouse.NewHandler(),
	}
	m.rebuildGrid(planlist.ResolveLayout(nil))
	return m
}

// rebuildGrid replaces the grid for a new layout. Page size and selection
// carry over; filters and sort are keyed by column and start fresh.
func (m *Model) rebuildGrid(layout planlist.Layout) {
	if m.Grid != nil {
		m.pageSize = m.Grid.PageSize()
	}
	m.Layout = layout

	opts := planlist.GridOptions(layout, m.ViewOnly)
	opts = append(opts, m.host.options()...)
	opts = append(opts, grid.WithPageSize(m.pageSize), grid.WithAnchor(terminalAnchor))
	if len(m.pageSizes) > 0 {
		opts = append(opts, grid.WithPageSizes(m.pageSizes...))
	}
	m.Grid = grid.New(layout.Columns, opts...)
	m.host.attach(m.Grid)
	m.ColCursor = 0
}

// Init starts the first fetch and the timers
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchData(), sessionTick()}
	if m.RefreshInterval > 0 {
		cmds = append(cmds, scheduleRefresh(m.RefreshInterval))
	}
	if m.changes != nil {
		cmds = append(cmds, waitForChange(m.changes))
	}
	return tea.Batch(cmds...)
}

// ============================================================================
// Commands
// ============================================================================

func (m Model) fetchData() tea.Cmd {
	src, username := m.Source, m.Username
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return FetchData(ctx, src, username)
	}
}

func scheduleRefresh(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func sessionTick() tea.Cmd {
	return tea.Tick(session.TickInterval, func(t time.Time) tea.Msg { return SessionTickMsg(t) })
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg { return ClearStatusMsg{} })
}

func (m Model) cancelPlan(id string) tea.Cmd {
	src := m.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		plan, err := src.CancelPlan(ctx, id)
		return PlanCanceledMsg{Plan: plan, Err: err}
	}
}

func (m Model) createPlan(req models.InitiateRequest) tea.Cmd {
	src := m.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		plan, err := src.CreatePlan(ctx, req)
		return PlanCreatedMsg{Plan: plan, Err: err}
	}
}

func (m Model) saveSearch(name string, values models.SearchValues) tea.Cmd {
	src := m.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		saved, err := src.SaveSearch(ctx, name, values)
		return SearchSavedMsg{Search: saved, Err: err}
	}
}

func (m Model) deleteSearch(id string) tea.Cmd {
	src := m.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		return SearchDeletedMsg{ID: id, Err: src.DeleteSearch(ctx, id)}
	}
}

func (m Model) fetchInitiateOptions(mode FormMode) tea.Cmd {
	src := m.Source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		opts, err := src.InitiateOptions(ctx)
		return InitiateOptionsMsg{Mode: mode, Options: opts, Err: err}
	}
}

func (m Model) openPlan(id string, readOnly bool) tea.Cmd {
	src, username := m.Source, m.Username
	return func() tea.Msg {
		return fetchPlanDetail(context.Background(), src, id, username, readOnly)
	}
}

// ============================================================================
// Update
// ============================================================================

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.clampCursor()
		m.repositionMenu()
		if m.Detail != nil {
			m.Detail.resize(m.Width, m.Height)
		}
		if m.FormState != nil {
			w, _ := m.formModalDimensions()
			m.FormState.setWidth(w - 4)
		}
		return m, nil

	case RefreshDataMsg:
		return m.handleRefresh(msg)

	case TickMsg:
		return m, tea.Batch(m.fetchData(), scheduleRefresh(m.RefreshInterval))

	case ChangeMsg:
		return m, tea.Batch(m.fetchData(), waitForChange(m.changes))

	case SessionTickMsg:
		return m.handleSessionTick()

	case PulseEndMsg:
		if msg.Generation == m.pulseGen {
			m.Pulsing = false
		}
		return m, nil

	case ClearStatusMsg:
		m.StatusMessage = ""
		m.StatusIsError = false
		return m, nil

	case PlanDetailMsg:
		if msg.Err != nil {
			cmd := m.setError("Open plan", msg.Err)
			return m, cmd
		}
		m.Detail = newDetailState(msg.Plan, msg.ReadOnly, m.Width, m.Height)
		return m, nil

	case PlanCanceledMsg:
		if msg.Err != nil {
			cmd := m.setError("Cancel failed", msg.Err)
			return m, cmd
		}
		if m.Detail != nil && m.Detail.Plan.ID == msg.Plan.ID {
			m.Detail = newDetailState(msg.Plan, m.Detail.ReadOnly, m.Width, m.Height)
		}
		cmd := tea.Batch(m.setStatus("Canceled "+msg.Plan.Code), m.fetchData())
		return m, cmd

	case PlanCreatedMsg:
		if msg.Err != nil {
			cmd := m.setError("Initiate failed", msg.Err)
			return m, cmd
		}
		cmd := tea.Batch(m.setStatus("Created "+msg.Plan.Code), m.fetchData())
		return m, cmd

	case SearchSavedMsg:
		if msg.Err != nil {
			cmd := m.setError("Save search failed", msg.Err)
			return m, cmd
		}
		m.SearchID = msg.Search.ID
		m.persistActiveSearch()
		cmd := tea.Batch(m.setStatus("Saved search "+msg.Search.Name), m.fetchData())
		return m, cmd

	case SearchDeletedMsg:
		if msg.Err != nil {
			cmd := m.setError("Delete search failed", msg.Err)
			return m, cmd
		}
		if m.SearchID == msg.ID {
			m.SearchID = ""
			m.persistActiveSearch()
		}
		cmd := tea.Batch(m.setStatus("Deleted saved search"), m.fetchData())
		return m, cmd

	case InitiateOptionsMsg:
		if msg.Err != nil {
			cmd := m.setError("Load options failed", msg.Err)
			return m, cmd
		}
		return m.openForm(msg.Mode, msg.Options)

	case FinderSearchMsg:
		if m.Finder != nil {
			m.Finder.apply(msg, m.Plans)
		}
		return m, nil

	case tea.KeyMsg:
		if m.ModalKind != modalTimeout {
			m.tracker.Touch()
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.ModalKind != modalTimeout && msg.Action == tea.MouseActionPress {
			m.tracker.Touch()
		}
		return m.handleMouse(msg)
	}

	// Forms own their internal messages (blink, focus, etc.)
	if m.FormOpen && m.FormState != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

// handleRefresh applies fetched data. Errors keep the previous data on
// screen; unreachable servers offer a retry.
func (m Model) handleRefresh(msg RefreshDataMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Err = msg.Err
		m.Retryable = client.Retryable(msg.Err)
		slog.Debug("monitor refresh failed", "err", msg.Err)
		return m, nil
	}
	m.Err = nil
	m.Retryable = false

	m.Plans = msg.Plans
	m.Menu = msg.Menu
	m.Nav = msg.Nav
	m.Searches = msg.Searches
	m.LastRefresh = msg.Timestamp

	if msg.Config != nil {
		m.GridConfig = msg.Config
		if layout := planlist.ResolveLayout(msg.Config); !reflect.DeepEqual(layout, m.Layout) {
			m.rebuildGrid(layout)
		}
	}
	if !m.Loaded {
		m.Loaded = true
		m.Search = m.searchValues(m.SearchID)
	}
	cmd := m.applyData()
	return m, cmd
}

// defaultSearch returns the configured default search values
func (m Model) defaultSearch() models.SearchValues {
	if m.GridConfig != nil && m.GridConfig.DefaultSearchValues.Statuses != nil {
		return m.GridConfig.DefaultSearchValues
	}
	return planlist.DefaultSearchValues()
}

// searchValues resolves a saved search id against the defaults. Unknown
// ids fall back to the defaults.
func (m Model) searchValues(id string) models.SearchValues {
	defaults := m.defaultSearch()
	if id == "" || id == planlist.DefaultSearchID {
		return defaults
	}
	for _, s := range m.Searches {
		if s.ID == id || s.Name == id {
			return planlist.Merge(defaults, s.Values)
		}
	}
	return defaults
}

// applyData pushes the searched plans into the grid
func (m *Model) applyData() tea.Cmd {
	plans := m.Plans
	if planlist.IsActive(m.Search) {
		plans = planlist.Apply(plans, m.Search)
	}
	before := m.Grid.Generation()
	m.Grid.SetData(models.PlanRows(plans))
	return m.afterGridChange(before)
}

// afterGridChange keeps the cursor on the page and starts the highlight
// when the visible rows were recomputed.
func (m *Model) afterGridChange(before uint64) tea.Cmd {
	m.clampCursor()
	gen := m.Grid.Generation()
	if gen == before {
		return nil
	}
	m.Pulsing = true
	m.pulseGen = gen
	return tea.Tick(grid.PulseDuration, func(time.Time) tea.Msg {
		return PulseEndMsg{Generation: gen}
	})
}

// processHost acts on the callbacks the grid fired during the last event
func (m *Model) processHost() tea.Cmd {
	routes, clear := m.host.drain()
	var cmds []tea.Cmd
	if clear {
		cmds = append(cmds, m.clearSearch())
	}
	for _, r := range routes {
		switch r.Kind {
		case planlist.RouteOpen:
			cmds = append(cmds, m.openPlan(r.PlanID, false))
		case planlist.RouteView:
			cmds = append(cmds, m.openPlan(r.PlanID, true))
		case planlist.RouteConfirmCancel:
			m.openCancelModal(r.PlanID)
		}
	}
	return tea.Batch(cmds...)
}

// clearSearch drops the search parameters and column filters
func (m *Model) clearSearch() tea.Cmd {
	m.Search = m.defaultSearch()
	m.SearchID = ""
	m.persistActiveSearch()
	m.Grid.ResetFilters()
	return m.applyData()
}

// applySearch switches to a saved search, or the defaults
func (m *Model) applySearch(id string) tea.Cmd {
	m.Search = m.searchValues(id)
	m.SearchID = id
	if id == planlist.DefaultSearchID {
		m.SearchID = ""
	}
	m.persistActiveSearch()
	return m.applyData()
}

// persistActiveSearch remembers the active saved search in the project
// config so the next session starts with it.
func (m *Model) persistActiveSearch() {
	if m.BaseDir == "" {
		return
	}
	var err error
	if m.SearchID == "" {
		err = config.ClearActiveSearch(m.BaseDir)
	} else {
		err = config.SetActiveSearch(m.BaseDir, m.SearchID)
	}
	if err != nil {
		slog.Warn("persist active search", "err", err)
	}
}

func (m *Model) handleSessionTick() (tea.Model, tea.Cmd) {
	switch m.tracker.Check() {
	case session.Expired:
		m.Expired = true
		if m.BaseDir != "" {
			if err := session.End(m.BaseDir); err != nil {
				slog.Warn("end session", "err", err)
			}
		}
		return *m, tea.Quit
	case session.Warning:
		if m.ModalKind != modalTimeout {
			m.openTimeoutModal()
		}
	}
	return *m, sessionTick()
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.StatusMessage = text
	m.StatusIsError = false
	return clearStatusAfter()
}

func (m *Model) setError(prefix string, err error) tea.Cmd {
	m.StatusMessage = fmt.Sprintf("%s: %v", prefix, err)
	m.StatusIsError = true
	return clearStatusAfter()
}

// ============================================================================
// Cursor and scrolling
// ============================================================================

// cursorRow returns the row under the cursor
func (m Model) cursorRow() (grid.Row, bool) {
	rows := m.Grid.Rows()
	if m.Cursor < 0 || m.Cursor >= len(rows) {
		return nil, false
	}
	return rows[m.Cursor], true
}

// clampCursor keeps the cursor on the page and the scroll around it
func (m *Model) clampCursor() {
	n := len(m.Grid.Rows())
	m.Cursor = max(0, min(m.Cursor, n-1))
	body := m.bodyRows()
	m.Scroll = max(0, min(m.Scroll, n-body))
	if m.Cursor < m.Scroll {
		m.Scroll = m.Cursor
	}
	if m.Cursor >= m.Scroll+body {
		m.Scroll = m.Cursor - body + 1
	}
}

// scrollBy moves the body and keeps an open dropdown attached to its row
func (m *Model) scrollBy(delta int) {
	n := len(m.Grid.Rows())
	m.Scroll = max(0, min(m.Scroll+delta, n-m.bodyRows()))
	m.Cursor = max(m.Scroll, min(m.Cursor, m.Scroll+m.bodyRows()-1))
	m.repositionMenu()
}

// repositionMenu recomputes the dropdown from its trigger's new place
func (m *Model) repositionMenu() {
	row, ok := m.Grid.MenuRow()
	if !ok {
		return
	}
	if idx := m.pageIndex(row.ID()); idx >= 0 {
		m.Grid.RepositionMenu(m.chevronRect(idx))
	}
}

// currentColumn is the column under the column cursor
func (m Model) currentColumn() (grid.Column, bool) {
	cols := m.Grid.Columns()
	if m.ColCursor < 0 || m.ColCursor >= len(cols) {
		return grid.Column{}, false
	}
	return cols[m.ColCursor], true
}
