package planlist

import (
	"slices"
	"strings"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
)

// DefaultSearchID names the built-in "reset to defaults" saved search
const DefaultSearchID = "default"

// constrains reports whether a multi-choice list narrows the results
func constrains(list []string) bool {
	return len(list) > 0 && !slices.Contains(list, grid.AllOption)
}

// IsActive reports whether v filters anything out
func IsActive(v models.SearchValues) bool {
	period := v.PlanPeriod
	if period == "" {
		period = grid.AllOption
	}
	return strings.TrimSpace(v.PlanNameLike) != "" ||
		period != grid.AllOption ||
		constrains(v.Statuses) ||
		constrains(v.Programs) ||
		constrains(v.Divisions) ||
		v.NeedsAttention
}

// Matches reports whether plan passes the search parameters
func Matches(p models.Plan, v models.SearchValues) bool {
	planFor := strings.ToLower(p.PlanFor)

	if v.NeedsAttention && strings.ToLower(strings.TrimSpace(p.NeedsAttention)) != "yes" {
		return false
	}
	if like := strings.TrimSpace(v.PlanNameLike); like != "" &&
		!strings.Contains(strings.ToLower(p.Name), strings.ToLower(like)) {
		return false
	}
	if v.PlanPeriod != "" && v.PlanPeriod != grid.AllOption &&
		!strings.Contains(strings.ToLower(p.Period), strings.ToLower(v.PlanPeriod)) {
		return false
	}
	if constrains(v.Statuses) && !slices.Contains(v.Statuses, string(p.Status)) {
		return false
	}
	if constrains(v.Programs) && !containsAny(planFor, v.Programs) {
		return false
	}
	if constrains(v.Divisions) && !containsAny(planFor, v.Divisions) {
		return false
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// Apply returns the plans matching v, in order
func Apply(plans []models.Plan, v models.SearchValues) []models.Plan {
	out := make([]models.Plan, 0, len(plans))
	for _, p := range plans {
		if Matches(p, v) {
			out = append(out, p)
		}
	}
	return out
}

// Merge overlays the non-empty fields of saved onto defaults. The
// needs-attention flag always comes from saved.
func Merge(defaults, saved models.SearchValues) models.SearchValues {
	out := defaults
	if saved.BureauName != "" {
		out.BureauName = saved.BureauName
	}
	if saved.PlanNameLike != "" {
		out.PlanNameLike = saved.PlanNameLike
	}
	if saved.PlanPeriod != "" {
		out.PlanPeriod = saved.PlanPeriod
	}
	if saved.Programs != nil {
		out.Programs = saved.Programs
	}
	if saved.Statuses != nil {
		out.Statuses = saved.Statuses
	}
	if saved.Divisions != nil {
		out.Divisions = saved.Divisions
	}
	if saved.SortMethod != "" {
		out.SortMethod = saved.SortMethod
	}
	out.SearchName = saved.SearchName
	out.NeedsAttention = saved.NeedsAttention
	return out
}

// FromLink builds the search of a status card link: the defaults narrowed
// to one status and optionally to plans needing attention
func FromLink(defaults models.SearchValues, status string, needsAttention bool) models.SearchValues {
	v := defaults
	if status != "" {
		v.Statuses = []string{status}
	}
	v.NeedsAttention = needsAttention
	return v
}

// ToggleOption flips option in a checkbox group. Choosing All clears the
// other options, choosing anything else drops All, and an emptied group
// falls back to All.
func ToggleOption(list []string, option string) []string {
	if option == grid.AllOption {
		return []string{grid.AllOption}
	}
	if slices.Contains(list, option) {
		next := slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == option })
		if len(next) == 0 {
			return []string{grid.AllOption}
		}
		return next
	}
	next := slices.DeleteFunc(slices.Clone(list), func(s string) bool { return s == grid.AllOption })
	return append(next, option)
}
