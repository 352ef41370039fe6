package monitor

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/svp/internal/output"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/session"
	"github.com/marcus/svp/pkg/monitor/modal"
)

// modalKind identifies the open modal
type modalKind int

const (
	modalNone modalKind = iota
	modalCancel
	modalSearches
	modalTimeout
	modalHelp
	modalMenu
)

// Button and list ids
const (
	btnConfirmCancel = "confirm-cancel"
	btnKeepPlan      = "keep-plan"
	btnContinue      = "continue"
	btnLogout        = "logout"
	btnClose         = "close"
	btnDeleteSearch  = "delete-search"
	listSearches     = "searches"
)

// openCancelModal asks before canceling a plan
func (m *Model) openCancelModal(planID string) {
	code := planID
	for _, p := range m.Plans {
		if p.ID == planID {
			code = p.Code
			break
		}
	}
	md := modal.New(planlist.CancelTitle,
		modal.WithWidth(60),
		modal.WithVariant(modal.VariantDanger),
		modal.WithPrimaryAction(btnKeepPlan))
	md.AddSection(modal.Text(planlist.CancelMessage))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.Text(mutedStyle.Render("Plan " + code)))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.Buttons(
		modal.Btn(" "+planlist.CancelConfirmLabel+" ", btnConfirmCancel, modal.BtnDanger()),
		modal.Btn(" "+planlist.CancelKeepLabel+" ", btnKeepPlan),
	))

	m.ModalKind = modalCancel
	m.ActiveModal = md
	m.PendingCancelID = planID
}

// openSearchesModal lists the saved searches. The first entry restores
// the defaults.
func (m *Model) openSearchesModal() {
	items := []modal.ListItem{{ID: planlist.DefaultSearchID, Label: "Default search"}}
	for _, s := range m.Searches {
		label := s.Name
		if s.ID == m.SearchID {
			label += " (active)"
		}
		items = append(items, modal.ListItem{ID: s.ID, Label: label, Data: s})
	}
	*m.searchIdx = 0

	md := modal.New("Saved Searches",
		modal.WithWidth(50),
		modal.WithVariant(modal.VariantInfo),
		modal.WithHints(true),
		modal.WithPrimaryAction(listSearches))
	md.AddSection(modal.List(listSearches, items, m.searchIdx, modal.WithMaxVisible(10)))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.When(func() bool { return len(m.Searches) > 0 },
		modal.Buttons(modal.Btn(" Delete ", btnDeleteSearch, modal.BtnDanger()), modal.Btn(" Close ", btnClose))))

	m.ModalKind = modalSearches
	m.ActiveModal = md
}

// openTimeoutModal warns that the session is about to expire
func (m *Model) openTimeoutModal() {
	tracker := m.tracker
	md := modal.New("Session Timeout",
		modal.WithWidth(56),
		modal.WithVariant(modal.VariantWarning),
		modal.WithPrimaryAction(btnContinue),
		modal.WithCloseOnBackdropClick(false))
	md.AddSection(modal.Custom(func(int, string, string) modal.RenderedSection {
		left := tracker.Remaining().Round(time.Second)
		return modal.RenderedSection{Content: fmt.Sprintf(
			"Your session will expire in %s due to inactivity.\nDo you want to continue?", formatCountdown(left))}
	}, nil))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.Buttons(
		modal.Btn(" Continue ", btnContinue),
		modal.Btn(" Log Out ", btnLogout, modal.BtnDanger()),
	))

	m.ModalKind = modalTimeout
	m.ActiveModal = md
}

// formatCountdown renders m:ss
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// openMenuModal shows the sidebar menu as a tree
func (m *Model) openMenuModal() {
	lines := output.RenderTreeLines(output.MenuNodes(m.Menu), output.TreeRenderOptions{})
	text := strings.Join(lines, "\n")
	if text == "" {
		text = mutedStyle.Render("No menu entries")
	}
	md := modal.New("Menu", modal.WithWidth(60), modal.WithPrimaryAction(btnClose))
	md.AddSection(modal.Text(text))
	md.AddSection(modal.Spacer())
	md.AddSection(modal.Buttons(modal.Btn(" Close ", btnClose)))

	m.ModalKind = modalMenu
	m.ActiveModal = md
}

func (m *Model) closeModal() {
	m.ModalKind = modalNone
	m.ActiveModal = nil
	m.PendingCancelID = ""
}

// handleModalAction reacts to the action chosen in the open modal
func (m Model) handleModalAction(action string) (tea.Model, tea.Cmd) {
	if action == "" {
		return m, nil
	}
	switch m.ModalKind {
	case modalCancel:
		id := m.PendingCancelID
		m.closeModal()
		if action == btnConfirmCancel && id != "" {
			return m, m.cancelPlan(id)
		}

	case modalTimeout:
		switch action {
		case btnContinue, modal.ActionCancel:
			m.tracker.Continue()
			m.closeModal()
		case btnLogout:
			m.closeModal()
			m.Expired = true
			if m.BaseDir != "" {
				_ = session.End(m.BaseDir)
			}
			return m, tea.Quit
		}

	case modalSearches:
		switch action {
		case modal.ActionCancel, btnClose:
			m.closeModal()
		case btnDeleteSearch:
			idx := *m.searchIdx - 1
			m.closeModal()
			if idx >= 0 && idx < len(m.Searches) {
				return m, m.deleteSearch(m.Searches[idx].ID)
			}
		default:
			m.closeModal()
			cmd := m.applySearch(action)
			status := m.setStatus("Search applied")
			return m, tea.Batch(cmd, status)
		}

	default:
		m.closeModal()
	}
	return m, nil
}
