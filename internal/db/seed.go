package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/svp/internal/models"
)

var seedOptions = map[string][]string{
	OptionBureau:   {"HIV/AIDS Bureau", "Bureau of Primary Health Care", "Maternal and Child Health Bureau"},
	OptionDivision: {"Division of Metropolitan HIV/AIDS Programs", "Division of State HIV/AIDS Programs", "Division of Community HIV/AIDS Programs"},
	OptionProgram:  {"Ryan White Part A", "Ryan White Part B", "Ryan White Part C", "Health Center Program"},
	OptionTeam:     {"Team Alpha", "Team Bravo", "Team Charlie"},
}

var seedMenu = []models.MenuItem{
	{ID: "svp", Label: "Site Visit Plans", Expanded: true, Children: []models.MenuChild{
		{ID: "svp-header", Label: "Plans", Header: true},
		{ID: "svp-list", Label: "Plan List", Href: "/svp/status"},
		{ID: "svp-initiate", Label: "Initiate Plan", Href: "/svp/initiate"},
	}},
	{ID: "reports", Label: "Reports", Children: []models.MenuChild{
		{ID: "reports-visits", Label: "Site Visit Summary", Href: "/reports/visits"},
	}},
}

var seedNav = []models.NavItem{
	{ID: "home", Label: "Home", Href: "/welcome"},
	{ID: "svp", Label: "Site Visit Plans", Href: "/svp/status"},
	{ID: "help", Label: "Help", Href: "/help"},
}

// seedPlanCount is how many sample plans Seed creates, enough to span
// several pages at the default page size
const seedPlanCount = 36

func seedPlans(now time.Time) []models.Plan {
	forLabels := []string{
		"Program - Ryan White Part A",
		"Division - Division of State HIV/AIDS Programs",
		"Bureau - HIV/AIDS Bureau",
		"Program - Health Center Program",
		"Program - Ryan White Part C",
	}
	statuses := []models.PlanStatus{
		models.StatusInProgress, models.StatusNotStarted, models.StatusComplete,
		models.StatusInProgress, models.StatusNotComplete, models.StatusCanceled,
	}
	teams := seedOptions[OptionTeam]

	plans := make([]models.Plan, 0, seedPlanCount)
	for i := 0; i < seedPlanCount; i++ {
		status := statuses[i%len(statuses)]
		year := now.Year() - 1 + i%3
		period := fmt.Sprintf("FY-%d", year)
		if i%4 == 3 {
			period = fmt.Sprintf("CY-%d", year)
		}
		needs := ""
		if i%5 == 1 {
			needs = "Yes"
		}
		if i%7 == 2 {
			needs = "No"
		}
		sections := models.DefaultSections()
		switch status {
		case models.StatusComplete:
			for j := range sections {
				sections[j].Status = models.StatusComplete
			}
		case models.StatusInProgress:
			sections[0].Status = models.StatusComplete
			sections[1].Status = models.StatusInProgress
		}
		visits := fmt.Sprintf("%d", (i*7)%23)
		if i%9 == 4 {
			// some plans have no count yet
			visits = ""
		}
		plans = append(plans, models.Plan{
			PlanFor:        forLabels[i%len(forLabels)],
			Period:         period,
			Name:           fmt.Sprintf("Site Visit Plan %d", i+1),
			Description:    fmt.Sprintf("## Plan %d\n\nMonitoring visits for **%s**.", i+1, forLabels[i%len(forLabels)]),
			SiteVisits:     visits,
			Status:         status,
			TeamName:       teams[i%len(teams)],
			NeedsAttention: needs,
			Sections:       sections,
		})
	}
	return plans
}

// Seed fills an empty database with the grid config, form options, layout
// and sample plans. A database that already holds plans is left untouched.
// It reports whether anything was written.
func (db *DB) Seed(cfg *models.GridConfig) (bool, error) {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM svp_plans`).Scan(&count); err != nil {
		return false, fmt.Errorf("count plans: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if cfg != nil {
		if err := db.SaveGridConfig(cfg); err != nil {
			return false, err
		}
	}
	for _, typ := range []string{OptionBureau, OptionDivision, OptionProgram, OptionTeam} {
		for _, v := range seedOptions[typ] {
			if err := db.AddInitiateOption(typ, v); err != nil {
				return false, err
			}
		}
	}
	if err := db.SaveMenu(seedMenu); err != nil {
		return false, err
	}
	if err := db.SaveHeaderNav(seedNav); err != nil {
		return false, err
	}

	now := db.now()
	err := db.withTx(func(tx *sql.Tx) error {
		for i, p := range seedPlans(now) {
			created := now.Add(-time.Duration(seedPlanCount-i) * 24 * time.Hour)
			if _, err := insertPlan(tx, p, created); err != nil {
				return fmt.Errorf("seed plan %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
