package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/svp/pkg/monitor/mouse"
)

// Region ids registered by every modal.
const (
	RegionBackdrop = "modal-backdrop"
	RegionBody     = "modal-body"
)

// ActionCancel is returned when the modal is dismissed with Esc or a
// backdrop click.
const ActionCancel = "cancel"

// Variant selects the border color.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDanger
	VariantWarning
	VariantInfo
)

// Section is one block of modal content.
type Section interface {
	Render(contentWidth int, focusID, hoverID string) RenderedSection
	Update(msg tea.Msg, focusID string) (string, tea.Cmd)
}

// RenderedSection is a section's output plus the focusable elements it
// contains, positioned relative to the section's top-left corner.
type RenderedSection struct {
	Content    string
	Focusables []FocusableInfo
}

// FocusableInfo locates one focusable element within its section.
type FocusableInfo struct {
	ID      string
	OffsetX int
	OffsetY int
	Width   int
	Height  int
}

// Option configures a Modal.
type Option func(*Modal)

// WithWidth sets the outer width.
func WithWidth(w int) Option {
	return func(m *Modal) {
		if w > 0 {
			m.width = w
		}
	}
}

// WithVariant sets the visual style.
func WithVariant(v Variant) Option {
	return func(m *Modal) { m.variant = v }
}

// WithHints shows or hides the key hints line.
func WithHints(show bool) Option {
	return func(m *Modal) { m.hints = show }
}

// WithPrimaryAction sets the action returned by Enter when nothing focused
// claims the key.
func WithPrimaryAction(id string) Option {
	return func(m *Modal) { m.primary = id }
}

// WithCloseOnBackdropClick makes clicks outside the modal dismiss it.
func WithCloseOnBackdropClick(close bool) Option {
	return func(m *Modal) { m.closeOnBackdrop = close }
}

// Modal is a declarative dialog. Build it once, then call Render from
// View and HandleKey/HandleMouse from Update.
type Modal struct {
	title           string
	width           int
	variant         Variant
	hints           bool
	primary         string
	closeOnBackdrop bool

	sections []Section

	focusID    string
	hoverID    string
	focusables []FocusableInfo // absolute positions from the last render
	buttons    map[string]bool
}

// New creates a modal with the given title.
func New(title string, opts ...Option) *Modal {
	m := &Modal{title: title, width: 50, hints: true, closeOnBackdrop: true, buttons: map[string]bool{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddSection appends a section and returns the modal for chaining.
func (m *Modal) AddSection(s Section) *Modal {
	if b, ok := s.(*buttonsSection); ok {
		for _, btn := range b.buttons {
			m.buttons[btn.ID] = true
		}
	}
	m.sections = append(m.sections, s)
	return m
}

// FocusedID returns the id of the focused element.
func (m *Modal) FocusedID() string { return m.focusID }

// SetFocus focuses id.
func (m *Modal) SetFocus(id string) { m.focusID = id }

func (m *Modal) borderColor() lipgloss.Color {
	switch m.variant {
	case VariantDanger:
		return Error
	case VariantWarning:
		return Warning
	case VariantInfo:
		return Info
	default:
		return BorderNormal
	}
}

const (
	borderSize = 1
	padX       = 2
	padY       = 1
)

// Render draws the modal centered on a screenW x screenH canvas and
// registers its hit regions with handler, if non-nil.
func (m *Modal) Render(screenW, screenH int, handler *mouse.Handler) string {
	width := min(m.width, max(screenW-2, 10))
	contentWidth := width - 2*(borderSize+padX)

	var lines []string
	var focusables []FocusableInfo
	lines = append(lines, ModalTitle.Render(m.title), "")

	for _, s := range m.sections {
		r := s.Render(contentWidth, m.focusID, m.hoverID)
		if r.Content == "" && len(r.Focusables) == 0 {
			continue
		}
		top := len(lines)
		for _, f := range r.Focusables {
			f.OffsetY += top
			focusables = append(focusables, f)
		}
		lines = append(lines, strings.Split(r.Content, "\n")...)
	}
	if m.hints {
		lines = append(lines, "", MutedText.Render("Tab: next  Enter: select  Esc: close"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor()).
		Padding(padY, padX).
		Width(width - 2*borderSize).
		Render(strings.Join(lines, "\n"))

	boxW, boxH := lipgloss.Width(box), lipgloss.Height(box)
	x0 := max(0, (screenW-boxW)/2)
	y0 := max(0, (screenH-boxH)/2)
	originX, originY := x0+borderSize+padX, y0+borderSize+padY

	m.focusables = m.focusables[:0]
	for _, f := range focusables {
		f.OffsetX += originX
		f.OffsetY += originY
		m.focusables = append(m.focusables, f)
	}
	if m.focusID == "" || !m.hasFocusable(m.focusID) {
		m.focusID = m.initialFocus()
	}

	if handler != nil {
		handler.HitMap.AddRect(RegionBackdrop, 0, 0, screenW, screenH, nil)
		handler.HitMap.AddRect(RegionBody, x0, y0, boxW, boxH, nil)
		for _, f := range m.focusables {
			handler.HitMap.AddRect(f.ID, f.OffsetX, f.OffsetY, f.Width, f.Height, nil)
		}
	}

	return lipgloss.Place(screenW, screenH, lipgloss.Center, lipgloss.Center, box)
}

func (m *Modal) hasFocusable(id string) bool {
	for _, f := range m.focusables {
		if f.ID == id {
			return true
		}
	}
	return false
}

func (m *Modal) initialFocus() string {
	if m.primary != "" && m.hasFocusable(m.primary) {
		return m.primary
	}
	if len(m.focusables) > 0 {
		return m.focusables[0].ID
	}
	return ""
}

func (m *Modal) cycleFocus(step int) {
	n := len(m.focusables)
	if n == 0 {
		return
	}
	idx := -1
	for i, f := range m.focusables {
		if f.ID == m.focusID {
			idx = i
			break
		}
	}
	m.focusID = m.focusables[((idx+step)%n+n)%n].ID
}

// HandleKey processes a key and returns the chosen action id, if any.
func (m *Modal) HandleKey(msg tea.KeyMsg) (string, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return ActionCancel, nil
	case "tab":
		m.cycleFocus(1)
		return "", nil
	case "shift+tab":
		m.cycleFocus(-1)
		return "", nil
	}

	for _, s := range m.sections {
		if action, cmd := s.Update(msg, m.focusID); action != "" || cmd != nil {
			return action, cmd
		}
	}

	if msg.String() == "enter" {
		if m.buttons[m.focusID] {
			return m.focusID, nil
		}
		return m.primary, nil
	}
	return "", nil
}

// HandleMouse processes a mouse event against the regions registered by
// the last Render and returns the chosen action id, if any.
func (m *Modal) HandleMouse(msg tea.MouseMsg, handler *mouse.Handler) string {
	a := handler.HandleMouse(msg)
	switch a.Type {
	case mouse.ActionHover:
		m.hoverID = ""
		if a.Region != nil && m.hasFocusable(a.Region.ID) {
			m.hoverID = a.Region.ID
		}
	case mouse.ActionClick, mouse.ActionDoubleClick:
		if a.Region == nil {
			return ""
		}
		switch {
		case a.Region.ID == RegionBackdrop:
			if m.closeOnBackdrop {
				return ActionCancel
			}
		case m.buttons[a.Region.ID]:
			m.focusID = a.Region.ID
			return a.Region.ID
		case m.hasFocusable(a.Region.ID):
			m.focusID = a.Region.ID
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
