package grid

import "testing"

func TestPosition(t *testing.T) {
	trigger := Rect{X: 100, Y: 40, W: 3, H: 20}
	got := Position(trigger, DefaultAnchor)
	if got != (Point{X: 76, Y: 64}) {
		t.Fatalf("Position = %+v", got)
	}
	got = Position(Rect{X: 2, Y: 5, W: 1, H: 1}, Anchor{OffsetX: 10, GapY: 0})
	if got != (Point{X: -8, Y: 6}) {
		t.Fatalf("Position = %+v", got)
	}
}

func TestActionMenuToggle(t *testing.T) {
	m := NewActionMenu(DefaultAnchor)
	if m.IsOpen() {
		t.Fatal("new menu should be closed")
	}
	m.Toggle("r1", Rect{X: 50, Y: 10, W: 4, H: 2})
	if !m.IsOpen() || m.RowID() != "r1" {
		t.Fatalf("expected open on r1, got %q", m.RowID())
	}
	m.Toggle("r2", Rect{X: 50, Y: 20, W: 4, H: 2})
	if m.RowID() != "r2" || m.Position().Y != 26 {
		t.Fatalf("expected move to r2, got %q at %+v", m.RowID(), m.Position())
	}
	m.Toggle("r2", Rect{X: 50, Y: 20, W: 4, H: 2})
	if m.IsOpen() {
		t.Fatal("re-clicking the trigger should close")
	}
}

func TestActionMenuReposition(t *testing.T) {
	m := NewActionMenu(Anchor{OffsetX: 1, GapY: 0})
	m.Reposition(Rect{X: 5, Y: 5, W: 1, H: 1})
	if m.Position() != (Point{}) {
		t.Fatal("closed menu should ignore reposition")
	}
	m.Toggle("r1", Rect{X: 5, Y: 5, W: 1, H: 1})
	m.Reposition(Rect{X: 5, Y: 2, W: 1, H: 1})
	if m.Position() != (Point{X: 4, Y: 3}) {
		t.Fatalf("Position = %+v", m.Position())
	}
}

func TestActionMenuOutsideClick(t *testing.T) {
	m := NewActionMenu(DefaultAnchor)
	trigger := Rect{X: 50, Y: 10, W: 4, H: 2}
	m.Toggle("r1", trigger)
	dropdown := Rect{X: 26, Y: 16, W: 20, H: 5}

	if m.HandleClick(30, 18, dropdown) || !m.IsOpen() {
		t.Fatal("click inside dropdown must not close")
	}
	if m.HandleClick(51, 11, dropdown) || !m.IsOpen() {
		t.Fatal("click on trigger must not close")
	}
	if !m.HandleClick(0, 0, dropdown) || m.IsOpen() {
		t.Fatal("outside click should close")
	}
	if m.HandleClick(0, 0, dropdown) {
		t.Fatal("closed menu reports no close")
	}
}
