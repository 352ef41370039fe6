package serve

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
)

// maxPageSize bounds page_size on the grid endpoint
const maxPageSize = 1000

// ============================================================================
// GET /health
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"status":       "ok",
		"session_id":   s.sessionID,
		"change_token": s.ChangeToken(),
	}, http.StatusOK)
}

// ============================================================================
// GET /api/svp/plans
// ============================================================================

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := q.Get("username")

	if query := strings.TrimSpace(q.Get("q")); query != "" {
		results, err := s.db.SearchPlansRanked(query, username)
		if err != nil {
			writeDBError(w, err, "plans")
			return
		}
		plans := make([]models.Plan, len(results))
		for i, res := range results {
			plans[i] = res.Plan
		}
		WriteSuccess(w, PlansToDTOs(plans), http.StatusOK)
		return
	}

	plans, err := s.db.ListPlans(username)
	if err != nil {
		writeDBError(w, err, "plans")
		return
	}
	WriteSuccess(w, PlansToDTOs(plans), http.StatusOK)
}

// ============================================================================
// GET /api/svp/plans/{id}
// ============================================================================

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetPlan(r.PathValue("id"))
	if err != nil {
		writeDBError(w, err, "plan")
		return
	}
	WriteSuccess(w, PlanToDTO(plan), http.StatusOK)
}

// ============================================================================
// GET /api/svp/plans/grid
// ============================================================================

// handlePlanGrid runs the plan list through the grid pipeline on the server.
//
// Query parameters:
//
//	search=<saved search id or name>   apply a saved search
//	status=<status>                    narrow to one status
//	needs_attention=true               only plans needing attention
//	filter.<column>=<value>            column filter
//	sort=<key>[:asc|desc],...          sort levels, primary first
//	page, page_size                    pagination
func (s *Server) handlePlanGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs []FieldError
	page, pageSize := 1, grid.DefaultPageSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, FieldError{Field: "page", Rule: "min", Value: v, Expected: 1, Message: "page must be a positive integer"})
		}
		page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			errs = append(errs, FieldError{Field: "page_size", Rule: "range", Value: v, Expected: fmt.Sprintf("1-%d", maxPageSize),
				Message: fmt.Sprintf("page_size must be between 1 and %d", maxPageSize)})
		}
		pageSize = n
	}
	order, err := grid.ParseSortOrder(q.Get("sort"))
	if err != nil {
		errs = append(errs, FieldError{Field: "sort", Rule: "format", Value: q.Get("sort"), Expected: "key[:asc|desc],...", Message: err.Error()})
	}
	if len(errs) > 0 {
		WriteValidation(w, errs)
		return
	}

	cfg, err := s.gridConfig()
	if err != nil {
		writeDBError(w, err, "grid config")
		return
	}

	values := cfg.DefaultSearchValues
	if id := q.Get("search"); id != "" && id != planlist.DefaultSearchID {
		saved, err := s.db.GetSavedSearch(id)
		if err != nil {
			writeDBError(w, err, "saved search")
			return
		}
		values = planlist.Merge(values, saved.Values)
	}
	if q.Get("status") != "" || q.Get("needs_attention") == "true" {
		values = planlist.FromLink(values, q.Get("status"), q.Get("needs_attention") == "true")
	}

	plans, err := s.db.ListPlans(q.Get("username"))
	if err != nil {
		writeDBError(w, err, "plans")
		return
	}
	if planlist.IsActive(values) {
		plans = planlist.Apply(plans, values)
	}

	layout := planlist.ResolveLayout(cfg)
	g := grid.New(layout.Columns, grid.WithPageSize(pageSize))
	g.SetData(models.PlanRows(plans))
	for key, vals := range q {
		if col, ok := strings.CutPrefix(key, "filter."); ok && len(vals) > 0 {
			g.SetFilter(col, vals[0])
		}
	}
	g.SetSortOrder(order)
	g.SetPage(page)

	sortOrder := g.SortOrder()
	if sortOrder == nil {
		sortOrder = grid.SortOrder{}
	}
	WriteSuccess(w, GridDTO{
		Columns:    g.Columns(),
		Rows:       append([]grid.Row{}, g.Rows()...),
		Total:      g.Total(),
		Page:       g.Page(),
		PageSize:   g.PageSize(),
		TotalPages: g.TotalPages(),
		PageItems:  g.PageItems(),
		Sort:       sortOrder,
		Filters:    g.Filters(),
	}, http.StatusOK)
}

// ============================================================================
// GET /api/svp/config
// ============================================================================

// gridConfig returns the stored grid config, falling back to the built-in
// layout, with local .svp/grid.yaml overrides applied.
func (s *Server) gridConfig() (*models.GridConfig, error) {
	cfg, err := s.db.GetGridConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Columns) == 0 && len(cfg.RowActions) == 0 {
		cfg = planlist.DefaultGridConfig()
	}
	overrides, err := config.LoadGridOverrides(s.baseDir)
	if err != nil {
		// a broken local override must not take the API down
		slog.Warn("ignoring grid overrides", "err", err)
		return cfg, nil
	}
	return overrides.Apply(cfg), nil
}

func (s *Server) handleGridConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.gridConfig()
	if err != nil {
		writeDBError(w, err, "grid config")
		return
	}
	WriteSuccess(w, cfg, http.StatusOK)
}

// ============================================================================
// GET /api/svp/initiate/options
// ============================================================================

func (s *Server) handleInitiateOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.db.InitiateOptions()
	if err != nil {
		writeDBError(w, err, "initiate options")
		return
	}
	WriteSuccess(w, opts, http.StatusOK)
}

// ============================================================================
// GET /api/svp/searches
// ============================================================================

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.db.ListSavedSearches()
	if err != nil {
		writeDBError(w, err, "saved searches")
		return
	}
	if searches == nil {
		searches = []models.SavedSearch{}
	}
	WriteSuccess(w, searches, http.StatusOK)
}

// ============================================================================
// GET /api/menu, GET /api/layout/header-nav
// ============================================================================

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.Menu()
	if err != nil {
		writeDBError(w, err, "menu")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	WriteSuccess(w, items, http.StatusOK)
}

func (s *Server) handleHeaderNav(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.HeaderNav()
	if err != nil {
		writeDBError(w, err, "header nav")
		return
	}
	if items == nil {
		items = []models.NavItem{}
	}
	WriteSuccess(w, items, http.StatusOK)
}
