package monitor

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
)

// DetailState is the plan opened from a row action
type DetailState struct {
	Plan     *models.Plan
	ReadOnly bool
	Viewport viewport.Model
}

func newDetailState(plan *models.Plan, readOnly bool, width, height int) *DetailState {
	d := &DetailState{Plan: plan, ReadOnly: readOnly}
	w, h := detailSize(width, height)
	d.Viewport = viewport.New(w, h)
	d.Viewport.SetContent(RenderPlanMarkdown(plan, w))
	return d
}

// detailSize leaves room for the title and help lines
func detailSize(width, height int) (int, int) {
	return max(20, width-4), max(5, height-4)
}

func (d *DetailState) resize(width, height int) {
	w, h := detailSize(width, height)
	d.Viewport.Width = w
	d.Viewport.Height = h
	d.Viewport.SetContent(RenderPlanMarkdown(d.Plan, w))
}

// RenderPlanMarkdown renders plan with glamour, falling back to the plain
// text layout when the renderer fails.
func RenderPlanMarkdown(plan *models.Plan, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		var out string
		if out, err = r.Render(formatPlanAsMarkdown(plan)); err == nil {
			return out
		}
	}
	slog.Debug("glamour render failed", "err", err)
	return output.FormatPlanLong(plan)
}

// handleDetailKey handles keys while a plan is open
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d := m.Detail
	switch msg.String() {
	case "esc", "q", "backspace":
		m.Detail = nil
		return m, nil
	case "y":
		if err := copyToClipboard(formatPlanAsMarkdown(d.Plan)); err != nil {
			cmd := m.setError("Copy failed", err)
			return m, cmd
		}
		cmd := m.setStatus("Copied " + d.Plan.Code)
		return m, cmd
	case "x":
		if d.ReadOnly || m.ViewOnly || d.Plan.IsComplete() || d.Plan.Status == models.StatusCanceled {
			return m, nil
		}
		m.openCancelModal(d.Plan.ID)
		return m, nil
	}
	var cmd tea.Cmd
	d.Viewport, cmd = d.Viewport.Update(msg)
	return m, cmd
}

// renderDetail draws the open plan
func (m Model) renderDetail() string {
	d := m.Detail
	mode := "edit"
	if d.ReadOnly {
		mode = "view"
	}
	title := titleStyle.Render(d.Plan.Code+"  "+d.Plan.Name) + "  " +
		lipgloss.NewStyle().Foreground(statusColor(d.Plan.Status)).Render(string(d.Plan.Status)) +
		"  " + mutedStyle.Render(planlist.RouteFor(detailAction(mode), d.Plan.Row()).Path())

	help := "esc: back  y: copy  \u2191/\u2193: scroll" // ↑/↓
	if !d.ReadOnly && !m.ViewOnly && !d.Plan.IsComplete() && d.Plan.Status != models.StatusCanceled {
		help += "  x: cancel plan"
	}
	return title + "\n\n" + d.Viewport.View() + "\n" + helpStyle.Render(help)
}

// detailAction is the row action that opens a plan in mode
func detailAction(mode string) grid.Action {
	if mode == "view" {
		return grid.Action{ID: planlist.ActionView}
	}
	return grid.Action{ID: planlist.ActionEdit}
}
