package monitor

import (
	"github.com/marcus/svp/pkg/monitor/modal"
)

// keyHelp lists the shortcuts of the plan list, one group per block
var keyHelp = []struct {
	title string
	keys  string
}{
	{"NAVIGATE", "  j/k  row    h/l  page    g/G  first/last page    tab  column"},
	{"SORT & FILTER", "  s  sort column    S  clear sort    f  filter column    F  reset filters\n" +
		"  c  clear search    p  search form    L  saved searches    /  find plan"},
	{"SELECT", "  space  row    a  page    A  all pages"},
	{"ACTIONS", "  enter  primary action    o  action menu    x  cancel plan    n  initiate plan\n" +
		"  y  copy plan    Y  copy selected    z  page size    r  refresh    m  menu"},
}

// createHelpModal builds the keyboard help modal
func (m *Model) createHelpModal() *modal.Modal {
	md := modal.New("Site Visit Plans", modal.WithWidth(86), modal.WithPrimaryAction(btnClose))

	md.AddSection(modal.Text(
		"Plans you can access, newest activity first.\n" +
			"Click a header to sort; click again to reverse, a third time to drop it."))
	md.AddSection(modal.Spacer())

	for _, group := range keyHelp {
		md.AddSection(modal.Text(group.title + ":\n" + group.keys))
		md.AddSection(modal.Spacer())
	}

	if m.ViewOnly {
		md.AddSection(modal.Text(mutedStyle.Render("View-only access: plans open read-only.")))
		md.AddSection(modal.Spacer())
	}

	md.AddSection(modal.Buttons(modal.Btn(" Close ", btnClose)))
	return md
}

func (m *Model) openHelpModal() {
	m.ModalKind = modalHelp
	m.ActiveModal = m.createHelpModal()
}
