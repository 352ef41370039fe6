package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcus/svp/internal/grid"
)

// PlanStatus represents the lifecycle state of a site visit plan or section
type PlanStatus string

const (
	StatusNotStarted  PlanStatus = "Not Started"
	StatusInProgress  PlanStatus = "In Progress"
	StatusComplete    PlanStatus = "Complete"
	StatusNotComplete PlanStatus = "Not Complete"
	StatusCanceled    PlanStatus = "Canceled"
)

// AllStatuses lists plan statuses in display order
var AllStatuses = []PlanStatus{
	StatusNotStarted,
	StatusInProgress,
	StatusComplete,
	StatusNotComplete,
	StatusCanceled,
}

// IsValidStatus checks if a status is valid
func IsValidStatus(s PlanStatus) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ParseStatus matches s against the known statuses, ignoring case and
// surrounding whitespace.
func ParseStatus(s string) (PlanStatus, bool) {
	s = strings.TrimSpace(s)
	for _, v := range AllStatuses {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// Section identifiers, in display order
const (
	SectionCoverSheet           = "cover_sheet"
	SectionSelectedEntities     = "selected_entities"
	SectionIdentifiedSiteVisits = "identified_site_visits"
)

// Section is one tracked part of a plan
type Section struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Status PlanStatus `json:"status"`
}

// DefaultSections returns the sections every plan starts with
func DefaultSections() []Section {
	return []Section{
		{ID: SectionCoverSheet, Name: "Cover Sheet", Status: StatusNotStarted},
		{ID: SectionSelectedEntities, Name: "Selected Entities", Status: StatusNotStarted},
		{ID: SectionIdentifiedSiteVisits, Name: "Identified Site Visits", Status: StatusNotStarted},
	}
}

// IsSection reports whether id names one of the plan sections
func IsSection(id string) bool {
	for _, s := range DefaultSections() {
		if s.ID == id {
			return true
		}
	}
	return false
}

// SectionName returns the display name for a known section id, or the id
func SectionName(id string) string {
	for _, s := range DefaultSections() {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// Plan is a site visit plan
type Plan struct {
	ID             string     `json:"id"`
	Code           string     `json:"plan_code"`
	PlanFor        string     `json:"plan_for"`
	Period         string     `json:"plan_period"`
	Name           string     `json:"plan_name"`
	Description    string     `json:"plan_description"`
	SiteVisits     string     `json:"site_visits"`
	Status         PlanStatus `json:"status"`
	TeamName       string     `json:"team_name"`
	NeedsAttention string     `json:"needs_attention"`
	Sections       []Section  `json:"sections"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// FormatPlanCode renders the human-facing plan code for a numeric id
func FormatPlanCode(id int64) string {
	return fmt.Sprintf("PSV-%06d", id)
}

// IncompleteSections returns the names of sections not yet Complete
func (p *Plan) IncompleteSections() []string {
	var names []string
	for _, s := range p.Sections {
		if s.Status != StatusComplete {
			name := s.Name
			if name == "" {
				name = s.ID
			}
			names = append(names, name)
		}
	}
	return names
}

// IsComplete reports whether the plan has been completed
func (p *Plan) IsComplete() bool {
	return p.Status == StatusComplete
}

// Row converts the plan into a grid row. Every cell is a string, matching
// what the REST API returns.
func (p *Plan) Row() grid.Row {
	return grid.Row{
		"id":              p.ID,
		"plan_code":       p.Code,
		"plan_for":        p.PlanFor,
		"plan_period":     p.Period,
		"plan_name":       p.Name,
		"site_visits":     p.SiteVisits,
		"status":          string(p.Status),
		"team_name":       p.TeamName,
		"needs_attention": p.NeedsAttention,
	}
}

// PlanRows converts plans into grid rows
func PlanRows(plans []Plan) []grid.Row {
	rows := make([]grid.Row, len(plans))
	for i := range plans {
		rows[i] = plans[i].Row()
	}
	return rows
}

// InitiateRequest is the payload for creating a plan
type InitiateRequest struct {
	PlanForType  string `json:"planForType" validate:"required,oneof=bureau division program"`
	Bureau       string `json:"bureau" validate:"required_if=PlanForType bureau"`
	Division     string `json:"division" validate:"required_if=PlanForType division"`
	Program      string `json:"program" validate:"required_if=PlanForType program"`
	PeriodType   string `json:"periodType" validate:"required,oneof=fiscal calendar"`
	FiscalYear   int    `json:"fiscalYear,omitempty" validate:"required_if=PeriodType fiscal"`
	CalendarYear int    `json:"calendarYear,omitempty" validate:"required_if=PeriodType calendar"`
	PlanName     string `json:"planName" validate:"required,max=200"`
	Team         string `json:"team"`
}

// PlanFor renders the "plan for" label, e.g. "Program - Ryan White".
// It is empty when the chosen entity is missing.
func (r InitiateRequest) PlanFor() string {
	bureau := strings.TrimSpace(r.Bureau)
	division := strings.TrimSpace(r.Division)
	program := strings.TrimSpace(r.Program)
	switch strings.ToLower(strings.TrimSpace(r.PlanForType)) {
	case "bureau":
		if bureau != "" {
			return "Bureau - " + bureau
		}
	case "division":
		if division != "" {
			return "Division - " + division
		}
	case "program":
		if program != "" {
			return "Program - " + program
		}
	}
	return ""
}

// PlanPeriod renders the period label, e.g. "FY-2026"
func (r InitiateRequest) PlanPeriod() string {
	switch strings.ToLower(strings.TrimSpace(r.PeriodType)) {
	case "fiscal":
		if r.FiscalYear != 0 {
			return fmt.Sprintf("FY-%d", r.FiscalYear)
		}
	case "calendar":
		if r.CalendarYear != 0 {
			return fmt.Sprintf("CY-%d", r.CalendarYear)
		}
	}
	return ""
}

// InitiateOptions are the choices offered by the initiate form
type InitiateOptions struct {
	Bureaus       []string `json:"bureaus"`
	Divisions     []string `json:"divisions"`
	Programs      []string `json:"programs"`
	Teams         []string `json:"teams"`
	FiscalYears   []int    `json:"fiscal_years"`
	CalendarYears []int    `json:"calendar_years"`
}

// SearchField describes one input of the plan search form
type SearchField struct {
	Key        string   `json:"key" yaml:"key"`
	Label      string   `json:"label" yaml:"label"`
	Type       string   `json:"type" yaml:"type"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty"`
	Filterable bool     `json:"filterable,omitempty" yaml:"filterable,omitempty"`
}

// SearchValues are the parameters of a plan search
type SearchValues struct {
	BureauName     string   `json:"bureauName,omitempty" yaml:"bureau_name,omitempty"`
	PlanNameLike   string   `json:"planNameLike" yaml:"plan_name_like"`
	PlanPeriod     string   `json:"planPeriod" yaml:"plan_period"`
	Programs       []string `json:"programs" yaml:"programs"`
	Statuses       []string `json:"statuses" yaml:"statuses"`
	Divisions      []string `json:"divisions" yaml:"divisions"`
	SortMethod     string   `json:"sortMethod,omitempty" yaml:"sort_method,omitempty"`
	SearchName     string   `json:"searchName,omitempty" yaml:"search_name,omitempty"`
	NeedsAttention bool     `json:"needsAttention,omitempty" yaml:"needs_attention,omitempty"`
}

// GridConfig is the server-provided layout of the plan list
type GridConfig struct {
	Columns             []grid.Column `json:"columns" yaml:"columns"`
	CenterAlignColumns  []int         `json:"center_align_columns" yaml:"center_align_columns"`
	RowActions          []grid.Action `json:"row_actions" yaml:"row_actions"`
	SearchFields        []SearchField `json:"search_fields" yaml:"search_fields"`
	DefaultSearchValues SearchValues  `json:"default_search_values" yaml:"default_search_values"`
}

// SavedSearch is a named set of search values
type SavedSearch struct {
	ID        string       `json:"id"`
	Name      string       `json:"name" validate:"required,max=100"`
	Values    SearchValues `json:"values"`
	CreatedAt time.Time    `json:"created_at"`
}

// MenuItem is a sidebar group
type MenuItem struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Expanded bool        `json:"expanded"`
	Children []MenuChild `json:"children"`
}

// MenuChild is an entry of a sidebar group
type MenuChild struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Href   string `json:"href,omitempty"`
	Header bool   `json:"header,omitempty"`
}

// NavItem is a header navigation link
type NavItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Config is the local per-project configuration
type Config struct {
	Username              string `json:"username,omitempty"`
	DefaultPageSize       int    `json:"default_page_size,omitempty"`
	ServerURL             string `json:"server_url,omitempty"`
	Token                 string `json:"token,omitempty"`
	SessionTimeoutMinutes int    `json:"session_timeout_minutes,omitempty"`
	SessionWarningMinutes int    `json:"session_warning_minutes,omitempty"`
	ViewOnly              bool   `json:"view_only,omitempty"`
	ActiveSearchID        string `json:"active_search_id,omitempty"`
}

const (
	defaultSessionTimeout = 15 * time.Minute
	defaultSessionWarning = 2 * time.Minute
)

// SessionTimeout returns the inactivity timeout
func (c *Config) SessionTimeout() time.Duration {
	if c.SessionTimeoutMinutes > 0 {
		return time.Duration(c.SessionTimeoutMinutes) * time.Minute
	}
	return defaultSessionTimeout
}

// SessionWarning returns how long before expiry the warning is shown
func (c *Config) SessionWarning() time.Duration {
	w := defaultSessionWarning
	if c.SessionWarningMinutes > 0 {
		w = time.Duration(c.SessionWarningMinutes) * time.Minute
	}
	if w >= c.SessionTimeout() {
		return c.SessionTimeout() / 2
	}
	return w
}

// PageSize returns the configured default page size, or the grid default
func (c *Config) PageSize() int {
	if c.DefaultPageSize > 0 {
		return c.DefaultPageSize
	}
	return grid.DefaultPageSize
}
