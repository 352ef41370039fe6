package grid

// Rect is an axis-aligned rectangle in host coordinates (pixels for a
// browser, cells for a terminal). W and H are exclusive extents.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Point is a position in host coordinates.
type Point struct {
	X, Y int
}

// Anchor places a dropdown relative to its trigger: below the trigger by
// GapY and shifted left by OffsetX.
type Anchor struct {
	OffsetX int
	GapY    int
}

// DefaultAnchor matches the pixel offsets of the browser dropdown.
var DefaultAnchor = Anchor{OffsetX: 24, GapY: 4}

// Position returns the fixed top-left corner of a dropdown opened from
// trigger.
func Position(trigger Rect, a Anchor) Point {
	return Point{X: trigger.X - a.OffsetX, Y: trigger.Y + trigger.H + a.GapY}
}

// ActionMenu tracks the single open row action dropdown of a grid.
//
//	closed --Toggle(row)--> open(row)
//	open(row) --Toggle(row) | Close | outside click | row gone--> closed
//	open(a) --Toggle(b)--> open(b)
type ActionMenu struct {
	rowID   string
	trigger Rect
	anchor  Anchor
	pos     Point
}

// NewActionMenu returns a closed menu using anchor for positioning.
func NewActionMenu(anchor Anchor) *ActionMenu {
	return &ActionMenu{anchor: anchor}
}

// IsOpen reports whether a dropdown is showing.
func (m *ActionMenu) IsOpen() bool {
	return m.rowID != ""
}

// RowID returns the id of the row whose menu is open, or "".
func (m *ActionMenu) RowID() string {
	return m.rowID
}

// Position returns the dropdown's top-left corner.
func (m *ActionMenu) Position() Point {
	return m.pos
}

// Trigger returns the rectangle of the button that opened the menu.
func (m *ActionMenu) Trigger() Rect {
	return m.trigger
}

// Toggle handles a click on the chevron of rowID. Clicking the open row's
// trigger closes the menu; any other row's trigger moves it there.
func (m *ActionMenu) Toggle(rowID string, trigger Rect) {
	if rowID == "" || m.rowID == rowID {
		m.Close()
		return
	}
	m.rowID = rowID
	m.Reposition(trigger)
}

// Reposition recomputes the dropdown position from the trigger's current
// rectangle. Hosts call it on scroll and resize while the menu is open.
func (m *ActionMenu) Reposition(trigger Rect) {
	if !m.IsOpen() {
		return
	}
	m.trigger = trigger
	m.pos = Position(trigger, m.anchor)
}

// Close hides the dropdown.
func (m *ActionMenu) Close() {
	m.rowID = ""
	m.trigger = Rect{}
	m.pos = Point{}
}

// HandleClick closes the menu when (x, y) is outside both the dropdown
// bounds and its trigger. It reports whether the menu was closed.
func (m *ActionMenu) HandleClick(x, y int, dropdown Rect) bool {
	if !m.IsOpen() {
		return false
	}
	if dropdown.Contains(x, y) || m.trigger.Contains(x, y) {
		return false
	}
	m.Close()
	return true
}
