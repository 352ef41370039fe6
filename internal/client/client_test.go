package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
	"github.com/marcus/svp/internal/serve"
)

func TestErrorClassification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/svp/plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "missing":
			serve.WriteError(w, serve.ErrNotFound, "plan not found", http.StatusNotFound)
		case "broken":
			serve.WriteError(w, serve.ErrInternal, "failed to load plan", http.StatusInternalServerError)
		case "garbage":
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, "upstream down")
		default:
			serve.WriteSuccess(w, map[string]string{"id": r.PathValue("id"), "status": "In Progress"}, http.StatusOK)
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := New(ts.URL, "")
	ctx := context.Background()

	tests := []struct {
		id            string
		wantNotFound  bool
		wantStatus    int
		wantRetryable bool
	}{
		{"7", false, 0, false},
		{"missing", true, http.StatusNotFound, false},
		{"broken", false, http.StatusInternalServerError, true},
		{"garbage", false, http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			plan, err := c.GetPlan(ctx, tt.id)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("GetPlan: %v", err)
				}
				if plan.ID != tt.id || plan.Status != models.StatusInProgress {
					t.Errorf("plan = %+v", plan)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if got := errors.Is(err, ErrNotFound); got != tt.wantNotFound {
				t.Errorf("errors.Is(ErrNotFound) = %v", got)
			}
			if got := Retryable(err); got != tt.wantRetryable {
				t.Errorf("Retryable = %v", got)
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url, "").Health(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
	if !Retryable(err) {
		t.Error("unreachable errors should be retryable")
	}
}

func TestBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		serve.WriteSuccess(w, []models.MenuItem{}, http.StatusOK)
	}))
	defer ts.Close()

	if _, err := New(ts.URL, "s3cret").Menu(context.Background()); err != nil {
		t.Fatalf("Menu: %v", err)
	}
	if got != "Bearer s3cret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestGridQueryValues(t *testing.T) {
	q := GridQuery{
		Search:         "mine",
		NeedsAttention: true,
		Filters:        grid.Filters{"status": "Complete"},
		Sort:           grid.SortOrder{{Key: "plan_name", Direction: grid.Desc}, {Key: "plan_code", Direction: grid.Asc}},
		Page:           2,
		PageSize:       20,
	}
	v := q.Values()

	want := map[string]string{
		"search":          "mine",
		"needs_attention": "true",
		"filter.status":   "Complete",
		"sort":            "plan_name:desc,plan_code:asc",
		"page":            "2",
		"page_size":       "20",
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("%s = %q, want %q", k, got, w)
		}
	}
	if v.Has("status") || v.Has("username") {
		t.Errorf("unexpected keys in %v", v)
	}
	if len(GridQuery{}.Values()) != 0 {
		t.Error("zero query should encode nothing")
	}
}

func TestIncompleteSectionsDetails(t *testing.T) {
	err := &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       serve.ErrIncompleteSections,
		Details:    []byte(`{"incomplete_sections":["Cover Sheet","Selected Entities"]}`),
	}
	got := err.IncompleteSections()
	if len(got) != 2 || got[0] != "Cover Sheet" {
		t.Errorf("IncompleteSections = %v", got)
	}
	if (&APIError{Code: serve.ErrValidation}).IncompleteSections() != nil {
		t.Error("validation errors carry no sections")
	}
}

// ============================================================================
// Against a real server
// ============================================================================

func setupServer(t *testing.T) (*Client, *serve.Server) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if _, err := database.Seed(planlist.DefaultGridConfig()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	srv := serve.NewServer(database, dir, "ses_client", serve.ServeConfig{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL, ""), srv
}

func TestClientRoundTrip(t *testing.T) {
	c, _ := setupServer(t)
	ctx := context.Background()

	plans, err := c.ListPlans(ctx, "")
	if err != nil || len(plans) != 36 {
		t.Fatalf("ListPlans = %d, %v", len(plans), err)
	}

	page, err := c.PlanGrid(ctx, GridQuery{Status: "Complete"})
	if err != nil {
		t.Fatalf("PlanGrid: %v", err)
	}
	if page.Total != 6 || len(page.Rows) != 6 {
		t.Errorf("grid total = %d rows = %d", page.Total, len(page.Rows))
	}

	_, err = c.GetPlan(ctx, "PSV-999999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPlan missing: %v", err)
	}

	created, err := c.CreatePlan(ctx, models.InitiateRequest{
		PlanForType: "bureau", Bureau: "HIV/AIDS Bureau",
		PeriodType: "calendar", CalendarYear: 2026,
		PlanName: "Client plan",
	})
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if created.PlanFor != "Bureau - HIV/AIDS Bureau" || created.Period != "CY-2026" {
		t.Errorf("created = %+v", created)
	}

	_, err = c.UpdateStatus(ctx, created.ID, models.StatusComplete)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || len(apiErr.IncompleteSections()) != 3 {
		t.Errorf("complete early: %v", err)
	}

	canceled, err := c.CancelPlan(ctx, created.ID)
	if err != nil || canceled.Status != models.StatusCanceled {
		t.Errorf("CancelPlan = %+v, %v", canceled, err)
	}

	_, err = c.CreatePlan(ctx, models.InitiateRequest{PlanForType: "bureau", PeriodType: "fiscal"})
	if !errors.As(err, &apiErr) || len(apiErr.FieldErrors()) == 0 {
		t.Errorf("invalid create: %v", err)
	}
}

func TestClientSavedSearches(t *testing.T) {
	c, _ := setupServer(t)
	ctx := context.Background()

	values := planlist.DefaultSearchValues()
	values.PlanNameLike = "Plan 1"
	saved, err := c.SaveSearch(ctx, "ones", values)
	if err != nil {
		t.Fatalf("SaveSearch: %v", err)
	}
	list, err := c.ListSearches(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "ones" {
		t.Fatalf("ListSearches = %+v, %v", list, err)
	}
	if err := c.DeleteSearch(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteSearch: %v", err)
	}
	if err := c.DeleteSearch(ctx, saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestSubscribe(t *testing.T) {
	c, srv := setupServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 8)
	go func() {
		_ = c.Subscribe(ctx, "stale-token", func(e Event) { events <- e })
	}()

	select {
	case e := <-events:
		if e.Name != "refresh" {
			t.Fatalf("first event = %q, want refresh for stale id", e.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	srv.NotifyChange()
	select {
	case e := <-events:
		if e.Name != "refresh" || e.ID != srv.ChangeToken() {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for refresh")
	}
}
