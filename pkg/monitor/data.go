package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marcus/svp/internal/config"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
	"golang.org/x/sync/errgroup"
)

// ErrCompletedPlan is returned when canceling a plan that is already complete
var ErrCompletedPlan = errors.New("completed plans cannot be canceled")

// DataSource is where the monitor reads and writes plans. *client.Client
// satisfies it directly; local projects use NewDBSource.
type DataSource interface {
	ListPlans(ctx context.Context, username string) ([]models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	CreatePlan(ctx context.Context, req models.InitiateRequest) (*models.Plan, error)
	CancelPlan(ctx context.Context, id string) (*models.Plan, error)
	RecordAccess(ctx context.Context, id, username string) error
	GridConfig(ctx context.Context) (*models.GridConfig, error)
	InitiateOptions(ctx context.Context) (*models.InitiateOptions, error)
	Menu(ctx context.Context) ([]models.MenuItem, error)
	HeaderNav(ctx context.Context) ([]models.NavItem, error)
	ListSearches(ctx context.Context) ([]models.SavedSearch, error)
	SaveSearch(ctx context.Context, name string, values models.SearchValues) (*models.SavedSearch, error)
	DeleteSearch(ctx context.Context, id string) error
}

// ============================================================================
// Local database source
// ============================================================================

// dbSource serves the monitor straight from the project database
type dbSource struct {
	db *db.DB
}

// NewDBSource wraps an open database
func NewDBSource(database *db.DB) DataSource {
	return &dbSource{db: database}
}

func (s *dbSource) ListPlans(_ context.Context, username string) ([]models.Plan, error) {
	return s.db.ListPlans(username)
}

func (s *dbSource) GetPlan(_ context.Context, id string) (*models.Plan, error) {
	return s.db.GetPlan(id)
}

func (s *dbSource) CreatePlan(_ context.Context, req models.InitiateRequest) (*models.Plan, error) {
	return s.db.CreatePlan(req)
}

func (s *dbSource) CancelPlan(_ context.Context, id string) (*models.Plan, error) {
	plan, err := s.db.GetPlan(id)
	if err != nil {
		return nil, err
	}
	if plan.IsComplete() {
		return nil, ErrCompletedPlan
	}
	return s.db.CancelPlan(id)
}

func (s *dbSource) RecordAccess(_ context.Context, id, username string) error {
	return s.db.RecordAccess(username, id)
}

// GridConfig falls back to the built-in layout and applies local
// grid.yaml overrides, the same way the API does.
func (s *dbSource) GridConfig(_ context.Context) (*models.GridConfig, error) {
	cfg, err := s.db.GetGridConfig()
	if err != nil {
		return nil, err
	}
	if len(cfg.Columns) == 0 && len(cfg.RowActions) == 0 {
		cfg = planlist.DefaultGridConfig()
	}
	overrides, err := config.LoadGridOverrides(s.db.BaseDir())
	if err != nil {
		slog.Warn("ignoring grid overrides", "err", err)
		return cfg, nil
	}
	return overrides.Apply(cfg), nil
}

func (s *dbSource) InitiateOptions(_ context.Context) (*models.InitiateOptions, error) {
	return s.db.InitiateOptions()
}

func (s *dbSource) Menu(_ context.Context) ([]models.MenuItem, error) {
	return s.db.Menu()
}

func (s *dbSource) HeaderNav(_ context.Context) ([]models.NavItem, error) {
	return s.db.HeaderNav()
}

func (s *dbSource) ListSearches(_ context.Context) ([]models.SavedSearch, error) {
	return s.db.ListSavedSearches()
}

func (s *dbSource) SaveSearch(_ context.Context, name string, values models.SearchValues) (*models.SavedSearch, error) {
	if name == "" {
		name = "Unnamed"
	}
	values.SearchName = name
	return s.db.SaveSearch(name, values)
}

func (s *dbSource) DeleteSearch(_ context.Context, id string) error {
	return s.db.DeleteSavedSearch(id)
}

// ============================================================================
// Fetching
// ============================================================================

// fetchTimeout bounds one refresh
const fetchTimeout = 10 * time.Second

// RefreshDataMsg carries everything the plan list page shows
type RefreshDataMsg struct {
	Plans     []models.Plan
	Config    *models.GridConfig
	Menu      []models.MenuItem
	Nav       []models.NavItem
	Searches  []models.SavedSearch
	Timestamp time.Time
	Err       error
}

// FetchData loads plans, layout config, navigation and saved searches in
// parallel. The first failure cancels the remaining requests.
func FetchData(ctx context.Context, src DataSource, username string) RefreshDataMsg {
	msg := RefreshDataMsg{Timestamp: time.Now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		plans, err := src.ListPlans(ctx, username)
		msg.Plans = plans
		return err
	})
	g.Go(func() error {
		cfg, err := src.GridConfig(ctx)
		msg.Config = cfg
		return err
	})
	g.Go(func() error {
		menu, err := src.Menu(ctx)
		msg.Menu = menu
		return err
	})
	g.Go(func() error {
		nav, err := src.HeaderNav(ctx)
		msg.Nav = nav
		return err
	})
	g.Go(func() error {
		searches, err := src.ListSearches(ctx)
		msg.Searches = searches
		return err
	})
	msg.Err = g.Wait()
	return msg
}

// PlanDetailMsg carries a plan opened from the grid
type PlanDetailMsg struct {
	Plan     *models.Plan
	ReadOnly bool
	Err      error
}

// fetchPlanDetail loads a plan and records that the user opened it.
// A failed access record does not stop the plan from showing.
func fetchPlanDetail(ctx context.Context, src DataSource, id, username string, readOnly bool) PlanDetailMsg {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	plan, err := src.GetPlan(ctx, id)
	if err != nil {
		return PlanDetailMsg{Err: err}
	}
	if username != "" && !readOnly {
		if err := src.RecordAccess(ctx, id, username); err != nil {
			slog.Warn("record access", "plan", id, "err", err)
		}
	}
	return PlanDetailMsg{Plan: plan, ReadOnly: readOnly}
}
