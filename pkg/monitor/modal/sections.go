package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ============================================================================
// Text and spacing
// ============================================================================

type textSection struct {
	text string
}

// Text renders static text wrapped to the modal width.
func Text(s string) Section {
	return &textSection{text: s}
}

func (s *textSection) Render(contentWidth int, _, _ string) RenderedSection {
	return RenderedSection{Content: Body.Width(contentWidth).Render(s.text)}
}

func (s *textSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

type spacerSection struct{}

// Spacer renders a blank line.
func Spacer() Section { return spacerSection{} }

func (spacerSection) Render(int, string, string) RenderedSection {
	return RenderedSection{Content: " "}
}

func (spacerSection) Update(tea.Msg, string) (string, tea.Cmd) { return "", nil }

// ============================================================================
// Buttons
// ============================================================================

// ButtonDef describes one button.
type ButtonDef struct {
	Label  string
	ID     string
	danger bool
}

// ButtonOption configures a button.
type ButtonOption func(*ButtonDef)

// BtnDanger styles the button as destructive.
func BtnDanger() ButtonOption {
	return func(b *ButtonDef) { b.danger = true }
}

// Btn defines a button that returns id when pressed.
func Btn(label, id string, opts ...ButtonOption) ButtonDef {
	b := ButtonDef{Label: label, ID: id}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

type buttonsSection struct {
	buttons []ButtonDef
}

// Buttons renders a row of buttons.
func Buttons(btns ...ButtonDef) Section {
	return &buttonsSection{buttons: btns}
}

func (s *buttonsSection) style(b ButtonDef, focused, hovered bool) lipgloss.Style {
	switch {
	case b.danger && focused:
		return ButtonDangerFocused
	case b.danger && hovered:
		return ButtonDangerHover
	case b.danger:
		return ButtonDanger
	case focused:
		return ButtonFocused
	case hovered:
		return ButtonHover
	default:
		return Button
	}
}

func (s *buttonsSection) Render(_ int, focusID, hoverID string) RenderedSection {
	var parts []string
	var focusables []FocusableInfo
	x := 0
	for i, b := range s.buttons {
		if i > 0 {
			parts = append(parts, "  ")
			x += 2
		}
		r := s.style(b, b.ID == focusID, b.ID == hoverID).Render(b.Label)
		w := lipgloss.Width(r)
		focusables = append(focusables, FocusableInfo{ID: b.ID, OffsetX: x, Width: w, Height: 1})
		parts = append(parts, r)
		x += w
	}
	return RenderedSection{Content: strings.Join(parts, ""), Focusables: focusables}
}

func (s *buttonsSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return "", nil
	}
	if key.String() != "enter" {
		return "", nil
	}
	for _, b := range s.buttons {
		if b.ID == focusID {
			return b.ID, nil
		}
	}
	return "", nil
}

// ============================================================================
// Composition
// ============================================================================

type whenSection struct {
	cond    func() bool
	section Section
}

// When renders section only while cond holds.
func When(cond func() bool, section Section) Section {
	return &whenSection{cond: cond, section: section}
}

func (s *whenSection) Render(contentWidth int, focusID, hoverID string) RenderedSection {
	if !s.cond() {
		return RenderedSection{}
	}
	return s.section.Render(contentWidth, focusID, hoverID)
}

func (s *whenSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if !s.cond() {
		return "", nil
	}
	return s.section.Update(msg, focusID)
}

type customSection struct {
	render func(contentWidth int, focusID, hoverID string) RenderedSection
	update func(msg tea.Msg, focusID string) (string, tea.Cmd)
}

// Custom wraps arbitrary render and update functions. update may be nil.
func Custom(render func(contentWidth int, focusID, hoverID string) RenderedSection,
	update func(msg tea.Msg, focusID string) (string, tea.Cmd)) Section {
	return &customSection{render: render, update: update}
}

func (s *customSection) Render(contentWidth int, focusID, hoverID string) RenderedSection {
	return s.render(contentWidth, focusID, hoverID)
}

func (s *customSection) Update(msg tea.Msg, focusID string) (string, tea.Cmd) {
	if s.update == nil {
		return "", nil
	}
	return s.update(msg, focusID)
}
