package monitor

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
)

// FormMode selects which form is open
type FormMode int

const (
	FormModeSearch FormMode = iota
	FormModeInitiate
)

// FormState holds a huh form and the values it edits. Fields are bound by
// pointer, so a FormState must not be copied once built.
type FormState struct {
	Mode  FormMode
	Form  *huh.Form
	Width int

	// Search form
	PlanNameLike   string
	PlanPeriod     string
	Statuses       []string
	Programs       []string
	Divisions      []string
	NeedsAttention bool
	SaveAs         string

	// Initiate form
	PlanForType  string
	Bureau       string
	Division     string
	Program      string
	PeriodType   string
	FiscalYear   int
	CalendarYear int
	PlanName     string
	Team         string
}

// withoutAll drops the All sentinel from a multi-select value
func withoutAll(list []string) []string {
	return slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == grid.AllOption })
}

// orAll maps an empty multi-select value back to the All sentinel
func orAll(list []string) []string {
	if len(list) == 0 {
		return []string{grid.AllOption}
	}
	return list
}

// NewSearchFormState builds the search form prefilled with current
func NewSearchFormState(current models.SearchValues, opts *models.InitiateOptions) *FormState {
	fs := &FormState{
		Mode:           FormModeSearch,
		PlanNameLike:   current.PlanNameLike,
		PlanPeriod:     current.PlanPeriod,
		Statuses:       withoutAll(current.Statuses),
		Programs:       withoutAll(current.Programs),
		Divisions:      withoutAll(current.Divisions),
		NeedsAttention: current.NeedsAttention,
	}
	if fs.PlanPeriod == "" {
		fs.PlanPeriod = grid.AllOption
	}
	if opts == nil {
		opts = &models.InitiateOptions{}
	}

	periods := []string{grid.AllOption}
	for _, y := range opts.FiscalYears {
		periods = append(periods, fmt.Sprintf("FY-%d", y))
	}
	for _, y := range opts.CalendarYears {
		periods = append(periods, fmt.Sprintf("CY-%d", y))
	}
	if !slices.Contains(periods, fs.PlanPeriod) {
		periods = append(periods, fs.PlanPeriod)
	}

	fs.Form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Plan Name").
				Placeholder("any").
				Value(&fs.PlanNameLike),
			huh.NewSelect[string]().
				Title("Plan Period").
				Options(huh.NewOptions(periods...)...).
				Value(&fs.PlanPeriod),
			huh.NewMultiSelect[string]().
				Title("Status").
				Description("none selected means all").
				Options(huh.NewOptions(withoutAll(planlist.StatusOptions())...)...).
				Value(&fs.Statuses),
			huh.NewConfirm().
				Title("Needs attention only").
				Value(&fs.NeedsAttention),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Programs").
				Options(huh.NewOptions(opts.Programs...)...).
				Filterable(true).
				Value(&fs.Programs),
			huh.NewMultiSelect[string]().
				Title("Divisions").
				Options(huh.NewOptions(opts.Divisions...)...).
				Filterable(true).
				Value(&fs.Divisions),
			huh.NewInput().
				Title("Save as").
				Description("leave empty to search without saving").
				CharLimit(100).
				Value(&fs.SaveAs),
		),
	).WithShowHelp(true).WithTheme(huh.ThemeCharm())
	return fs
}

// ToSearchValues converts the search form to search values
func (fs *FormState) ToSearchValues(defaults models.SearchValues) models.SearchValues {
	v := defaults
	v.PlanNameLike = strings.TrimSpace(fs.PlanNameLike)
	v.PlanPeriod = fs.PlanPeriod
	v.Statuses = orAll(fs.Statuses)
	v.Programs = orAll(fs.Programs)
	v.Divisions = orAll(fs.Divisions)
	v.NeedsAttention = fs.NeedsAttention
	v.SearchName = strings.TrimSpace(fs.SaveAs)
	return v
}

// NewInitiateFormState builds the initiate plan form. Entity and year
// fields only show for the chosen plan-for and period types.
func NewInitiateFormState(opts *models.InitiateOptions) *FormState {
	if opts == nil {
		opts = &models.InitiateOptions{}
	}
	fs := &FormState{Mode: FormModeInitiate, PlanForType: "program", PeriodType: "fiscal"}
	if len(opts.FiscalYears) > 0 {
		fs.FiscalYear = opts.FiscalYears[0]
	}
	if len(opts.CalendarYears) > 0 {
		fs.CalendarYear = opts.CalendarYears[0]
	}

	years := func(ys []int) []huh.Option[int] {
		out := make([]huh.Option[int], len(ys))
		for i, y := range ys {
			out[i] = huh.NewOption(fmt.Sprint(y), y)
		}
		return out
	}
	entity := func(title string, choices []string, value *string) *huh.Select[string] {
		return huh.NewSelect[string]().
			Title(title).
			Options(huh.NewOptions(choices...)...).
			Validate(func(s string) error {
				if s == "" {
					return errors.New(strings.ToLower(title) + " is required")
				}
				return nil
			}).
			Value(value)
	}

	fs.Form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Plan For").
				Options(
					huh.NewOption("Bureau", "bureau"),
					huh.NewOption("Division", "division"),
					huh.NewOption("Program", "program"),
				).
				Value(&fs.PlanForType),
			huh.NewSelect[string]().
				Title("Plan Period").
				Options(
					huh.NewOption("Fiscal Year", "fiscal"),
					huh.NewOption("Calendar Year", "calendar"),
				).
				Value(&fs.PeriodType),
		),
		huh.NewGroup(entity("Bureau", opts.Bureaus, &fs.Bureau)).
			WithHideFunc(func() bool { return fs.PlanForType != "bureau" }),
		huh.NewGroup(entity("Division", opts.Divisions, &fs.Division)).
			WithHideFunc(func() bool { return fs.PlanForType != "division" }),
		huh.NewGroup(entity("Program", opts.Programs, &fs.Program)).
			WithHideFunc(func() bool { return fs.PlanForType != "program" }),
		huh.NewGroup(
			huh.NewSelect[int]().Title("Fiscal Year").Options(years(opts.FiscalYears)...).Value(&fs.FiscalYear),
		).WithHideFunc(func() bool { return fs.PeriodType != "fiscal" }),
		huh.NewGroup(
			huh.NewSelect[int]().Title("Calendar Year").Options(years(opts.CalendarYears)...).Value(&fs.CalendarYear),
		).WithHideFunc(func() bool { return fs.PeriodType != "calendar" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Plan Name").
				CharLimit(200).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("plan name is required")
					}
					return nil
				}).
				Value(&fs.PlanName),
			huh.NewSelect[string]().
				Title("Team").
				Options(append([]huh.Option[string]{huh.NewOption("(none)", "")}, huh.NewOptions(opts.Teams...)...)...).
				Value(&fs.Team),
		),
	).WithShowHelp(true).WithTheme(huh.ThemeCharm())
	return fs
}

// ToInitiateRequest converts the initiate form to a create request
func (fs *FormState) ToInitiateRequest() models.InitiateRequest {
	req := models.InitiateRequest{
		PlanForType: fs.PlanForType,
		PeriodType:  fs.PeriodType,
		PlanName:    strings.TrimSpace(fs.PlanName),
		Team:        fs.Team,
	}
	switch fs.PlanForType {
	case "bureau":
		req.Bureau = fs.Bureau
	case "division":
		req.Division = fs.Division
	case "program":
		req.Program = fs.Program
	}
	switch fs.PeriodType {
	case "fiscal":
		req.FiscalYear = fs.FiscalYear
	case "calendar":
		req.CalendarYear = fs.CalendarYear
	}
	return req
}

func (fs *FormState) setWidth(w int) {
	fs.Width = w
	fs.Form = fs.Form.WithWidth(w)
}

func (fs *FormState) title() string {
	if fs.Mode == FormModeInitiate {
		return "Initiate Site Visit Plan"
	}
	return "Search Plans"
}

// formModalDimensions returns the content width/height for the form modal.
func (m Model) formModalDimensions() (int, int) {
	modalWidth := m.Width * 80 / 100
	if modalWidth > 90 {
		modalWidth = 90
	}
	if modalWidth < 50 {
		modalWidth = 50
	}

	modalHeight := m.Height * 85 / 100
	if modalHeight > 35 {
		modalHeight = 35
	}
	if modalHeight < 20 {
		modalHeight = 20
	}

	return modalWidth, modalHeight
}

// openForm opens mode's form once its choices are loaded
func (m Model) openForm(mode FormMode, opts *models.InitiateOptions) (tea.Model, tea.Cmd) {
	if mode == FormModeInitiate {
		if m.ViewOnly {
			return m, nil
		}
		m.FormState = NewInitiateFormState(opts)
	} else {
		m.FormState = NewSearchFormState(m.Search, opts)
	}
	m.FormOpen = true

	// Subtract modal horizontal padding
	modalWidth, _ := m.formModalDimensions()
	m.FormState.setWidth(modalWidth - 4)

	return m, m.FormState.Form.Init()
}

// closeForm closes the form modal and clears state
func (m *Model) closeForm() {
	m.FormOpen = false
	m.FormState = nil
}

// updateForm forwards msg to the open form and acts on its outcome
func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.closeForm()
		return m, nil
	}

	model, cmd := m.FormState.Form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.FormState.Form = f
	}

	switch m.FormState.Form.State {
	case huh.StateAborted:
		m.closeForm()
		return m, nil
	case huh.StateCompleted:
		return m.submitForm()
	}
	return m, cmd
}

// submitForm applies the completed form
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fs := m.FormState
	m.closeForm()

	if fs.Mode == FormModeInitiate {
		return m, m.createPlan(fs.ToInitiateRequest())
	}

	values := fs.ToSearchValues(m.defaultSearch())
	m.Search = values
	m.SearchID = ""
	cmds := []tea.Cmd{m.applyData()}
	if values.SearchName != "" {
		cmds = append(cmds, m.saveSearch(values.SearchName, values))
	} else {
		m.persistActiveSearch()
	}
	return m, tea.Batch(cmds...)
}

// renderForm draws the open form in a bordered box
func (m Model) renderForm() string {
	w, h := m.formModalDimensions()
	body := titleStyle.Render(m.FormState.title()) + "\n\n" + m.FormState.Form.View() +
		"\n" + helpStyle.Render("esc: cancel")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Width(w).
		MaxHeight(h).
		Render(body)
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}
