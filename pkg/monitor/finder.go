package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/models"
	"github.com/sahilm/fuzzy"
)

// finderDebounce delays matching until typing pauses
const finderDebounce = 300 * time.Millisecond

// finderLimit caps the number of matches shown
const finderLimit = 10

// FinderSearchMsg runs the match for query generation Seq
type FinderSearchMsg struct {
	Seq int
}

// FinderState is the quick "find plan" overlay
type FinderState struct {
	Input   textinput.Model
	Seq     int
	Results []models.Plan
	Cursor  int
}

// planSource exposes plans to fuzzy matching
type planSource []models.Plan

func (s planSource) String(i int) string {
	p := s[i]
	return p.Code + " " + p.Name + " " + p.PlanFor
}

func (s planSource) Len() int { return len(s) }

func newFinderState() *FinderState {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "plan code or name"
	ti.CharLimit = 100
	ti.Focus()
	return &FinderState{Input: ti}
}

// findPlans returns up to limit plans matching query, best first. An
// empty query matches nothing.
func findPlans(plans []models.Plan, query string, limit int) []models.Plan {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	matches := fuzzy.FindFrom(query, planSource(plans))
	out := make([]models.Plan, 0, min(limit, len(matches)))
	for _, match := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, plans[match.Index])
	}
	return out
}

// apply runs a debounced search unless a newer keystroke superseded it
func (f *FinderState) apply(msg FinderSearchMsg, plans []models.Plan) {
	if msg.Seq != f.Seq {
		return
	}
	f.Results = findPlans(plans, f.Input.Value(), finderLimit)
	f.Cursor = 0
}

func debounceFinder(seq int) tea.Cmd {
	return tea.Tick(finderDebounce, func(time.Time) tea.Msg { return FinderSearchMsg{Seq: seq} })
}

func (m Model) openFinder() (tea.Model, tea.Cmd) {
	m.Finder = newFinderState()
	return m, textinput.Blink
}

// handleFinderKey handles keys while the finder is open
func (m Model) handleFinderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.Finder
	switch msg.String() {
	case "esc":
		m.Finder = nil
		return m, nil
	case "up", "ctrl+p":
		if f.Cursor > 0 {
			f.Cursor--
		}
		return m, nil
	case "down", "ctrl+n":
		if f.Cursor < len(f.Results)-1 {
			f.Cursor++
		}
		return m, nil
	case "enter":
		if f.Cursor >= len(f.Results) {
			return m, nil
		}
		plan := f.Results[f.Cursor]
		m.Finder = nil
		return m, m.openPlan(plan.ID, m.ViewOnly)
	}

	before := f.Input.Value()
	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	if f.Input.Value() == before {
		return m, cmd
	}
	f.Seq++
	return m, tea.Batch(cmd, debounceFinder(f.Seq))
}

// renderFinder draws the finder with its matches
func (m Model) renderFinder() string {
	f := m.Finder
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Find Plan") + "\n\n")
	sb.WriteString(f.Input.View() + "\n\n")
	switch {
	case strings.TrimSpace(f.Input.Value()) == "":
		sb.WriteString(mutedStyle.Render("Type to search by plan code, name or entity") + "\n")
	case len(f.Results) == 0:
		sb.WriteString(mutedStyle.Render("No matching plans") + "\n")
	}
	for i, p := range f.Results {
		line := fmt.Sprintf("%-12s %s  %s", p.Code, p.Name, mutedStyle.Render(p.PlanFor))
		if i == f.Cursor {
			line = cursorRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + helpStyle.Render("enter: open  \u2191/\u2193: move  esc: close")) // ↑/↓
	return sb.String()
}
