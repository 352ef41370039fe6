package modal

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/svp/pkg/monitor/mouse"
)

func confirmModal() *Modal {
	return New("Cancel Plan", WithVariant(VariantDanger), WithPrimaryAction("keep")).
		AddSection(Text("Are you sure?")).
		AddSection(Spacer()).
		AddSection(Buttons(
			Btn(" Cancel Plan ", "confirm", BtnDanger()),
			Btn(" Keep Plan ", "keep"),
		))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRenderRegistersRegions(t *testing.T) {
	m := confirmModal()
	h := mouse.NewHandler()
	out := ansi.Strip(m.Render(80, 24, h))

	for _, want := range []string{"Cancel Plan", "Are you sure?", "Keep Plan", "Esc: close"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}

	ids := map[string]mouse.Rect{}
	for _, r := range h.HitMap.Regions() {
		ids[r.ID] = r.Rect
	}
	for _, id := range []string{RegionBackdrop, RegionBody, "confirm", "keep"} {
		if _, ok := ids[id]; !ok {
			t.Errorf("region %q not registered", id)
		}
	}
	if ids["keep"].X <= ids["confirm"].X {
		t.Errorf("keep should sit right of confirm: %+v %+v", ids["confirm"], ids["keep"])
	}
	if !ids[RegionBody].Contains(ids["keep"].X, ids["keep"].Y) {
		t.Errorf("button outside body: %+v", ids["keep"])
	}

	// the button region must land on the rendered label
	lines := strings.Split(out, "\n")
	r := ids["keep"]
	if r.Y >= len(lines) || !strings.Contains(string([]rune(lines[r.Y])[r.X:]), "Keep Plan") {
		t.Errorf("keep region %+v does not cover its label", r)
	}
}

func TestHandleKey(t *testing.T) {
	m := confirmModal()
	m.Render(80, 24, nil)

	if m.FocusedID() != "keep" {
		t.Fatalf("initial focus = %q, want primary action", m.FocusedID())
	}

	tests := []struct {
		key       string
		wantFocus string
		want      string
	}{
		{"tab", "confirm", ""},
		{"tab", "keep", ""},
		{"shift+tab", "confirm", ""},
		{"enter", "confirm", "confirm"},
		{"x", "confirm", ""},
		{"esc", "confirm", ActionCancel},
	}
	for _, tt := range tests {
		got, _ := m.HandleKey(key(tt.key))
		if got != tt.want || m.FocusedID() != tt.wantFocus {
			t.Errorf("%s: action=%q focus=%q, want %q/%q", tt.key, got, m.FocusedID(), tt.want, tt.wantFocus)
		}
	}
}

func TestHandleMouse(t *testing.T) {
	m := confirmModal()
	h := mouse.NewHandler()
	m.Render(80, 24, h)

	var confirm mouse.Rect
	for _, r := range h.HitMap.Regions() {
		if r.ID == "confirm" {
			confirm = r.Rect
		}
	}

	press := func(x, y int) tea.MouseMsg {
		return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	}

	if got := m.HandleMouse(press(confirm.X+1, confirm.Y), h); got != "confirm" {
		t.Errorf("button click = %q, want confirm", got)
	}
	if got := m.HandleMouse(press(0, 0), h); got != ActionCancel {
		t.Errorf("backdrop click = %q, want cancel", got)
	}

	hover := tea.MouseMsg{X: confirm.X, Y: confirm.Y, Action: tea.MouseActionMotion}
	m.HandleMouse(hover, h)
	if m.hoverID != "confirm" {
		t.Errorf("hoverID = %q", m.hoverID)
	}

	sticky := New("Timeout", WithCloseOnBackdropClick(false)).AddSection(Buttons(Btn("Continue", "continue")))
	h2 := mouse.NewHandler()
	sticky.Render(80, 24, h2)
	if got := sticky.HandleMouse(press(0, 0), h2); got != "" {
		t.Errorf("backdrop click on sticky modal = %q", got)
	}
}

func TestListSection(t *testing.T) {
	sel := 0
	items := []ListItem{{ID: "a", Label: "Alpha"}, {ID: "b", Label: "Bravo"}, {ID: "c", Label: "Charlie"}}
	m := New("Saved Searches").AddSection(List("searches", items, &sel, WithMaxVisible(2)))
	out := ansi.Strip(m.Render(80, 24, nil))

	if !strings.Contains(out, "Alpha") || strings.Contains(out, "Charlie") || !strings.Contains(out, "more below") {
		t.Errorf("list render:\n%s", out)
	}

	m.HandleKey(key("down"))
	if sel != 1 {
		t.Errorf("sel = %d after down", sel)
	}
	if got, _ := m.HandleKey(key("enter")); got != "b" {
		t.Errorf("enter = %q, want b", got)
	}

	empty := New("Saved Searches").AddSection(List("searches", nil, nil, WithEmptyText("No saved searches")))
	if out := ansi.Strip(empty.Render(80, 24, nil)); !strings.Contains(out, "No saved searches") {
		t.Errorf("empty list render:\n%s", out)
	}
}

func TestWhen(t *testing.T) {
	show := false
	m := New("Session").AddSection(When(func() bool { return show }, Text("expiring soon")))
	if strings.Contains(ansi.Strip(m.Render(80, 24, nil)), "expiring soon") {
		t.Error("hidden section rendered")
	}
	show = true
	if !strings.Contains(ansi.Strip(m.Render(80, 24, nil)), "expiring soon") {
		t.Error("visible section missing")
	}
}
