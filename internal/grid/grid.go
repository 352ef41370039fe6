package grid

import (
	"slices"
	"time"
)

// PulseDuration is how long hosts highlight the body after the visible row
// set changes.
const PulseDuration = 320 * time.Millisecond

// DefaultPrimaryLabel is shown on the primary button when no action or
// label function supplies one.
const DefaultPrimaryLabel = "Edit Plan"

// DefaultPrimaryIcon is used when neither the host nor the action names an
// icon.
const DefaultPrimaryIcon = "bi-pencil-square"

// LabelFunc derives a per-row string such as a button label or icon.
type LabelFunc func(Row) string

// Static returns a LabelFunc that always yields s.
func Static(s string) LabelFunc {
	return func(Row) string { return s }
}

// Option configures a Grid.
type Option func(*Grid)

// WithActions sets the row actions.
func WithActions(actions ...Action) Option {
	return func(g *Grid) { g.setActions(actions) }
}

// WithPageSizes sets the page sizes offered by the pager.
func WithPageSizes(sizes ...int) Option {
	return func(g *Grid) {
		if len(sizes) > 0 {
			g.pageSizes = slices.Clone(sizes)
		}
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(n int) Option {
	return func(g *Grid) {
		if n > 0 {
			g.pageSize = n
		}
	}
}

// WithSelection enables the selection column. onChange receives proposed
// replacement sets; onSelectAll receives across-pages intents.
func WithSelection(sel Selection, onChange func(Selection), onSelectAll func(SelectIntent)) Option {
	return func(g *Grid) {
		g.selectionEnabled = true
		g.selection = sel
		g.onSelectionChange = onChange
		g.onSelectAll = onSelectAll
	}
}

// WithRowAction sets the callback invoked when an enabled action is chosen.
func WithRowAction(fn func(Action, Row)) Option {
	return func(g *Grid) { g.onRowAction = fn }
}

// WithActionDisabled sets the host rule that disables actions per row.
func WithActionDisabled(fn ActionPredicate) Option {
	return func(g *Grid) { g.isDisabled = fn }
}

// WithRowActionFilter sets the host rule that hides dropdown actions per
// row. Actions for which fn returns false are not listed.
func WithRowActionFilter(fn ActionPredicate) Option {
	return func(g *Grid) { g.rowFilter = fn }
}

// WithPrimaryLabel overrides the primary button label per row.
func WithPrimaryLabel(fn LabelFunc) Option {
	return func(g *Grid) { g.primaryLabel = fn }
}

// WithFallbackLabel sets the label used when the grid has no actions.
func WithFallbackLabel(s string) Option {
	return func(g *Grid) { g.fallbackLabel = s }
}

// WithPrimaryIcon overrides the primary button icon per row.
func WithPrimaryIcon(fn LabelFunc) Option {
	return func(g *Grid) { g.primaryIcon = fn }
}

// WithClearFilters sets the callback behind the filter banner's clear
// button.
func WithClearFilters(fn func()) Option {
	return func(g *Grid) { g.onClearFilters = fn }
}

// WithAnchor sets how the action dropdown is placed relative to its trigger.
func WithAnchor(a Anchor) Option {
	return func(g *Grid) { g.menu = NewActionMenu(a) }
}

// Grid is the interactive table state machine. It is not safe for
// concurrent use; hosts drive it from a single event loop.
type Grid struct {
	columns   []Column
	data      []Row
	actions   []Action
	items     []MenuItem
	pageSizes []int

	page      int
	pageSize  int
	filters   Filters
	sortOrder SortOrder
	menu      *ActionMenu

	selectionEnabled  bool
	selection         Selection
	onSelectionChange func(Selection)
	onSelectAll       func(SelectIntent)

	onRowAction    func(Action, Row)
	onClearFilters func()
	isDisabled     ActionPredicate
	rowFilter      ActionPredicate
	primaryLabel   LabelFunc
	primaryIcon    LabelFunc
	fallbackLabel  string

	visible    []Row
	pageRows   []Row
	generation uint64
}

// New returns a grid over columns with no data.
func New(columns []Column, opts ...Option) *Grid {
	g := &Grid{
		columns:       slices.Clone(columns),
		pageSizes:     slices.Clone(DefaultPageSizes),
		page:          1,
		pageSize:      DefaultPageSize,
		filters:       Filters{},
		menu:          NewActionMenu(DefaultAnchor),
		selection:     Selection{},
		fallbackLabel: DefaultPrimaryLabel,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.refresh()
	return g
}

// ============================================================================
// Inputs
// ============================================================================

// Columns returns the column schema.
func (g *Grid) Columns() []Column {
	return g.columns
}

// SetColumns replaces the schema. Filters and sort order are reset since
// they are keyed by column.
func (g *Grid) SetColumns(columns []Column) {
	g.columns = slices.Clone(columns)
	g.filters = Filters{}
	g.sortOrder = nil
	g.page = 1
	g.refresh()
}

// SetData replaces the full row set. Filters and sort order are kept; the
// page is clamped and a menu whose row disappeared is closed.
func (g *Grid) SetData(rows []Row) {
	g.data = rows
	g.refresh()
}

// Data returns the full row set as supplied.
func (g *Grid) Data() []Row {
	return g.data
}

// SetActions replaces the row actions.
func (g *Grid) SetActions(actions []Action) {
	g.setActions(actions)
}

func (g *Grid) setActions(actions []Action) {
	g.actions = slices.Clone(actions)
	g.items = GroupActions(g.actions)
}

// Actions returns the row actions.
func (g *Grid) Actions() []Action {
	return g.actions
}

// SetSelection replaces the host-owned selection.
func (g *Grid) SetSelection(sel Selection) {
	if sel == nil {
		sel = Selection{}
	}
	g.selection = sel
}

// ============================================================================
// Derived views
// ============================================================================

// refresh recomputes the filtered and sorted rows and the current page.
func (g *Grid) refresh() {
	g.visible = Sort(Filter(g.data, g.columns, g.filters), g.sortOrder)
	g.generation++
	g.repage()
}

// repage clamps the page and recomputes the displayed slice.
func (g *Grid) repage() {
	g.page = ClampPage(g.page, g.TotalPages())
	g.pageRows = PageSlice(g.visible, g.page, g.pageSize)
	if g.menu.IsOpen() {
		if _, ok := g.displayedRow(g.menu.RowID()); !ok {
			g.menu.Close()
		}
	}
}

// Generation changes whenever the filtered and sorted rows are recomputed.
// Hosts key their highlight timers on it.
func (g *Grid) Generation() uint64 {
	return g.generation
}

// Rows returns the rows displayed on the current page.
func (g *Grid) Rows() []Row {
	return g.pageRows
}

// Visible returns every row that passes the filters, in sorted order.
func (g *Grid) Visible() []Row {
	return g.visible
}

// Total returns the number of filtered rows.
func (g *Grid) Total() int {
	return len(g.visible)
}

func (g *Grid) displayedRow(id string) (Row, bool) {
	for _, r := range g.pageRows {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// ============================================================================
// Filters
// ============================================================================

// Filters returns a copy of the column filters.
func (g *Grid) Filters() Filters {
	return g.filters.Clone()
}

// FilterValue returns the stored filter for key. Select columns report
// AllOption when unset.
func (g *Grid) FilterValue(key string) string {
	if v, ok := g.filters[key]; ok {
		return v
	}
	if col, ok := FindColumn(g.columns, key); ok && col.IsSelectFilter() {
		return AllOption
	}
	return ""
}

// SetFilter stores a column filter and returns to page 1.
func (g *Grid) SetFilter(key, value string) {
	next := g.filters.Clone()
	next[key] = value
	g.filters = next
	g.page = 1
	g.refresh()
}

// ResetFilters clears every column filter and returns to page 1.
func (g *Grid) ResetFilters() {
	g.filters = Filters{}
	g.page = 1
	g.refresh()
}

// HasActiveFilters reports whether any column filter constrains rows.
func (g *Grid) HasActiveFilters() bool {
	return g.filters.Any(g.columns)
}

// RequestClearFilters forwards the filter banner's clear action to the host.
func (g *Grid) RequestClearFilters() {
	if g.onClearFilters != nil {
		g.onClearFilters()
	}
}

// ============================================================================
// Sorting
// ============================================================================

// SortOrder returns a copy of the sort levels.
func (g *Grid) SortOrder() SortOrder {
	return slices.Clone(g.sortOrder)
}

// Sort cycles key through asc, desc and unsorted, then returns to page 1.
// Keys of unknown or unsortable columns are ignored.
func (g *Grid) Sort(key string) {
	col, ok := FindColumn(g.columns, key)
	if !ok || !col.IsSortable() {
		return
	}
	g.sortOrder = g.sortOrder.Toggle(key)
	g.page = 1
	g.refresh()
}

// SetSortOrder replaces the sort levels, dropping entries for unknown or
// unsortable columns and repeated keys, then returns to page 1.
func (g *Grid) SetSortOrder(order SortOrder) {
	next := make(SortOrder, 0, len(order))
	for _, e := range order {
		col, ok := FindColumn(g.columns, e.Key)
		if !ok || !col.IsSortable() {
			continue
		}
		if _, _, dup := next.Entry(e.Key); dup {
			continue
		}
		if e.Direction != Desc {
			e.Direction = Asc
		}
		next = append(next, e)
	}
	if len(next) == 0 {
		next = nil
	}
	g.sortOrder = next
	g.page = 1
	g.refresh()
}

// ClearSort removes every sort level and returns to page 1.
func (g *Grid) ClearSort() {
	if len(g.sortOrder) == 0 {
		return
	}
	g.sortOrder = nil
	g.page = 1
	g.refresh()
}

// ============================================================================
// Pagination
// ============================================================================

// Page returns the 1-based current page.
func (g *Grid) Page() int {
	return g.page
}

// PageSize returns the rows per page.
func (g *Grid) PageSize() int {
	return g.pageSize
}

// PageSizes returns the selectable page sizes.
func (g *Grid) PageSizes() []int {
	return g.pageSizes
}

// TotalPages returns the page count, at least 1.
func (g *Grid) TotalPages() int {
	return TotalPages(len(g.visible), g.pageSize)
}

// PageItems returns the page strip for the current page.
func (g *Grid) PageItems() []PageItem {
	return PageItems(g.page, g.TotalPages())
}

// SetPage moves to page, clamped into range.
func (g *Grid) SetPage(page int) {
	g.page = page
	g.repage()
}

// FirstPage moves to page 1.
func (g *Grid) FirstPage() { g.SetPage(1) }

// LastPage moves to the last page.
func (g *Grid) LastPage() { g.SetPage(g.TotalPages()) }

// NextPage advances one page unless already on the last.
func (g *Grid) NextPage() { g.SetPage(g.page + 1) }

// PrevPage goes back one page unless already on the first.
func (g *Grid) PrevPage() { g.SetPage(g.page - 1) }

// SetPageSize changes the rows per page and returns to page 1.
func (g *Grid) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	g.pageSize = n
	g.page = 1
	g.repage()
}

// CyclePageSize switches to the next offered page size, wrapping around.
func (g *Grid) CyclePageSize() {
	if len(g.pageSizes) == 0 {
		return
	}
	idx := slices.Index(g.pageSizes, g.pageSize)
	g.SetPageSize(g.pageSizes[(idx+1)%len(g.pageSizes)])
}

// ============================================================================
// Selection
// ============================================================================

// SelectionEnabled reports whether the selection column is shown.
func (g *Grid) SelectionEnabled() bool {
	return g.selectionEnabled
}

// IsSelected reports whether row is in the host selection.
func (g *Grid) IsSelected(row Row) bool {
	return g.selectionEnabled && g.selection.Has(row.ID())
}

// SelectedCount returns the size of the host selection.
func (g *Grid) SelectedCount() int {
	if !g.selectionEnabled {
		return 0
	}
	return g.selection.Len()
}

// AllOnPageSelected reports whether every displayed row is selected. An
// empty page is never fully selected.
func (g *Grid) AllOnPageSelected() bool {
	if !g.selectionEnabled || len(g.pageRows) == 0 {
		return false
	}
	for _, r := range g.pageRows {
		if !g.selection.Has(r.ID()) {
			return false
		}
	}
	return true
}

// SomeOnPageSelected reports whether any displayed row is selected.
func (g *Grid) SomeOnPageSelected() bool {
	if !g.selectionEnabled {
		return false
	}
	for _, r := range g.pageRows {
		if g.selection.Has(r.ID()) {
			return true
		}
	}
	return false
}

// ToggleRow proposes adding or removing one row id.
func (g *Grid) ToggleRow(id string, checked bool) {
	g.proposeSelection(func(next Selection) {
		if checked {
			next[id] = struct{}{}
		} else {
			delete(next, id)
		}
	})
}

// SelectPage proposes adding every displayed row.
func (g *Grid) SelectPage() {
	g.proposeSelection(func(next Selection) {
		for _, r := range g.pageRows {
			next[r.ID()] = struct{}{}
		}
	})
}

// UnselectPage proposes removing every displayed row.
func (g *Grid) UnselectPage() {
	g.proposeSelection(func(next Selection) {
		for _, r := range g.pageRows {
			delete(next, r.ID())
		}
	})
}

// SelectAcrossPages asks the host to select every row it knows about.
func (g *Grid) SelectAcrossPages() {
	if g.onSelectAll != nil {
		g.onSelectAll(IntentSelect)
	}
}

// UnselectAcrossPages asks the host to clear its selection.
func (g *Grid) UnselectAcrossPages() {
	if g.onSelectAll != nil {
		g.onSelectAll(IntentUnselect)
	}
}

func (g *Grid) proposeSelection(mutate func(Selection)) {
	if !g.selectionEnabled || g.onSelectionChange == nil {
		return
	}
	next := g.selection.Clone()
	mutate(next)
	g.onSelectionChange(next)
}

// ============================================================================
// Row actions
// ============================================================================

// MenuItems returns the grouped action list.
func (g *Grid) MenuItems() []MenuItem {
	return g.items
}

// IsActionDisabled applies the host disable rule.
func (g *Grid) IsActionDisabled(a Action, row Row) bool {
	return g.isDisabled != nil && g.isDisabled(a, row)
}

// PrimaryButton is the always-visible action button of a row.
type PrimaryButton struct {
	Action    Action
	Label     string
	Icon      string
	Disabled  bool
	HasAction bool
}

// Primary resolves the primary button for row.
func (g *Grid) Primary(row Row) PrimaryButton {
	a, disabled, ok := EffectivePrimary(g.items, row, g.isDisabled)
	btn := PrimaryButton{Action: a, Disabled: disabled, HasAction: ok}

	switch {
	case g.primaryLabel != nil && g.primaryLabel(row) != "":
		btn.Label = g.primaryLabel(row)
	case ok && a.Label != "":
		btn.Label = a.Label
	default:
		btn.Label = g.fallbackLabel
	}

	switch {
	case g.primaryIcon != nil && g.primaryIcon(row) != "":
		btn.Icon = g.primaryIcon(row)
	case ok && a.IconLeft != "":
		btn.Icon = a.IconLeft
	default:
		btn.Icon = DefaultPrimaryIcon
	}
	return btn
}

// RowMenu resolves the dropdown entries for row.
func (g *Grid) RowMenu(row Row) []MenuEntry {
	return RowMenu(g.items, row, g.rowFilter, g.isDisabled)
}

// Invoke runs action on row: the menu closes, disabled actions are ignored,
// and enabled ones reach the host. It reports whether the host was called.
func (g *Grid) Invoke(a Action, row Row) bool {
	g.menu.Close()
	if g.IsActionDisabled(a, row) || g.onRowAction == nil {
		return false
	}
	g.onRowAction(a, row)
	return true
}

// InvokePrimary presses the primary button of row.
func (g *Grid) InvokePrimary(row Row) bool {
	btn := g.Primary(row)
	if !btn.HasAction || btn.Disabled {
		return false
	}
	return g.Invoke(btn.Action, row)
}

// ============================================================================
// Action menu
// ============================================================================

// ToggleMenu handles a click on the chevron of rowID, whose button occupies
// trigger. Rows not on the current page are ignored.
func (g *Grid) ToggleMenu(rowID string, trigger Rect) {
	if _, ok := g.displayedRow(rowID); !ok {
		g.menu.Close()
		return
	}
	g.menu.Toggle(rowID, trigger)
}

// RepositionMenu recomputes the dropdown position after scroll or resize.
func (g *Grid) RepositionMenu(trigger Rect) {
	g.menu.Reposition(trigger)
}

// CloseMenu hides the dropdown.
func (g *Grid) CloseMenu() {
	g.menu.Close()
}

// MenuOpen reports whether a dropdown is showing.
func (g *Grid) MenuOpen() bool {
	return g.menu.IsOpen()
}

// MenuRow returns the row whose dropdown is open.
func (g *Grid) MenuRow() (Row, bool) {
	if !g.menu.IsOpen() {
		return nil, false
	}
	return g.displayedRow(g.menu.RowID())
}

// MenuPosition returns the dropdown's top-left corner.
func (g *Grid) MenuPosition() Point {
	return g.menu.Position()
}

// HandleClick closes the dropdown on a click outside it and its trigger.
func (g *Grid) HandleClick(x, y int, dropdown Rect) bool {
	return g.menu.HandleClick(x, y, dropdown)
}
