package serve

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/planlist"
)

// ============================================================================
// Integration Test Harness
// ============================================================================

// setupIntegrationServer creates a server backed by a seeded SQLite
// database in a temp directory.
func setupIntegrationServer(t *testing.T) (*Server, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Initialize(tmpDir)
	if err != nil {
		t.Fatalf("db.Initialize: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := database.Seed(planlist.DefaultGridConfig()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	srv := NewServer(database, tmpDir, "ses_integ1", ServeConfig{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

// apiEnvelope mirrors Envelope with a raw data payload.
type apiEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorPayload   `json:"error"`
}

// doJSON sends a request and decodes the envelope.
func doJSON(t *testing.T, method, url string, body interface{}) (int, apiEnvelope) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s %s: %v", method, url, err)
	}
	return resp.StatusCode, env
}

func mustData(t *testing.T, env apiEnvelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func newPlanBody() models.InitiateRequest {
	return models.InitiateRequest{
		PlanForType: "program",
		Program:     "Ryan White Part A",
		PeriodType:  "fiscal",
		FiscalYear:  2026,
		PlanName:    "Integration Plan",
		Team:        "Team Alpha",
	}
}

// ============================================================================
// Plans
// ============================================================================

func TestIntegrationListAndGetPlans(t *testing.T) {
	_, base := setupIntegrationServer(t)

	code, env := doJSON(t, "GET", base+"/api/svp/plans", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var plans []PlanDTO
	mustData(t, env, &plans)
	if len(plans) != 36 {
		t.Fatalf("len = %d, want 36", len(plans))
	}

	code, env = doJSON(t, "GET", base+"/api/svp/plans/PSV-000002", nil)
	if code != http.StatusOK {
		t.Fatalf("get by code status = %d", code)
	}
	var plan PlanDTO
	mustData(t, env, &plan)
	if plan.ID != "2" || len(plan.Sections) != 3 {
		t.Errorf("plan = %+v", plan)
	}

	code, env = doJSON(t, "GET", base+"/api/svp/plans/999", nil)
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrNotFound {
		t.Errorf("missing plan: %d %+v", code, env.Error)
	}
}

func TestIntegrationRankedSearch(t *testing.T) {
	_, base := setupIntegrationServer(t)

	code, env := doJSON(t, "GET", base+"/api/svp/plans?q=PSV-000007", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var plans []PlanDTO
	mustData(t, env, &plans)
	if len(plans) == 0 || plans[0].PlanCode != "PSV-000007" {
		t.Errorf("first result = %+v", plans)
	}
}

func TestIntegrationCreatePlan(t *testing.T) {
	_, base := setupIntegrationServer(t)

	code, env := doJSON(t, "POST", base+"/api/svp/plans", newPlanBody())
	if code != http.StatusCreated {
		t.Fatalf("status = %d, error = %+v", code, env.Error)
	}
	var plan PlanDTO
	mustData(t, env, &plan)
	if plan.PlanCode != "PSV-000037" || plan.Status != "In Progress" {
		t.Errorf("plan = %+v", plan)
	}
	if plan.PlanFor != "Program - Ryan White Part A" || plan.PlanPeriod != "FY-2026" {
		t.Errorf("plan for/period = %q / %q", plan.PlanFor, plan.PlanPeriod)
	}
	for _, s := range plan.Sections {
		if s.Status != "Not Started" {
			t.Errorf("section %s = %s", s.ID, s.Status)
		}
	}

	bad := newPlanBody()
	bad.PlanName = ""
	bad.PlanForType = "team"
	code, env = doJSON(t, "POST", base+"/api/svp/plans", bad)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != ErrValidation {
		t.Fatalf("invalid create: %d %+v", code, env.Error)
	}
	raw, _ := json.Marshal(env.Error.Details)
	var details []FieldError
	if err := json.Unmarshal(raw, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if len(details) != 2 {
		t.Errorf("details = %+v", details)
	}
}

func TestIntegrationCompleteRequiresSections(t *testing.T) {
	_, base := setupIntegrationServer(t)

	_, env := doJSON(t, "POST", base+"/api/svp/plans", newPlanBody())
	var plan PlanDTO
	mustData(t, env, &plan)
	planURL := base + "/api/svp/plans/" + plan.ID

	code, env := doJSON(t, "PATCH", planURL, StatusBody{Status: "Complete"})
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != ErrIncompleteSections {
		t.Fatalf("complete early: %d %+v", code, env.Error)
	}

	for _, s := range models.DefaultSections() {
		code, env = doJSON(t, "PATCH", planURL+"/sections/"+s.ID, StatusBody{Status: "complete"})
		if code != http.StatusOK {
			t.Fatalf("section %s: %d %+v", s.ID, code, env.Error)
		}
	}

	code, env = doJSON(t, "PATCH", planURL, StatusBody{Status: "Complete"})
	if code != http.StatusOK {
		t.Fatalf("complete: %d %+v", code, env.Error)
	}
	mustData(t, env, &plan)
	if plan.Status != "Complete" {
		t.Errorf("status = %q", plan.Status)
	}

	code, env = doJSON(t, "DELETE", planURL, nil)
	if code != http.StatusBadRequest {
		t.Errorf("cancel completed plan: %d %+v", code, env.Error)
	}

	code, env = doJSON(t, "PATCH", planURL, StatusBody{Status: "Done"})
	if code != http.StatusBadRequest || env.Error.Code != ErrValidation {
		t.Errorf("invalid status: %d %+v", code, env.Error)
	}
}

func TestIntegrationUnknownSectionRejected(t *testing.T) {
	_, base := setupIntegrationServer(t)

	_, env := doJSON(t, "POST", base+"/api/svp/plans", newPlanBody())
	var plan PlanDTO
	mustData(t, env, &plan)
	planURL := base + "/api/svp/plans/" + plan.ID

	code, env := doJSON(t, "PATCH", planURL+"/sections/bogus", StatusBody{Status: "In Progress"})
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrNotFound {
		t.Fatalf("unknown section: %d %+v", code, env.Error)
	}

	for _, s := range models.DefaultSections() {
		code, env = doJSON(t, "PATCH", planURL+"/sections/"+s.ID, StatusBody{Status: "complete"})
		if code != http.StatusOK {
			t.Fatalf("section %s: %d %+v", s.ID, code, env.Error)
		}
	}
	mustData(t, env, &plan)
	if len(plan.Sections) != len(models.DefaultSections()) {
		t.Errorf("sections = %+v", plan.Sections)
	}

	code, env = doJSON(t, "PATCH", planURL, StatusBody{Status: "complete"})
	if code != http.StatusOK {
		t.Fatalf("complete: %d %+v", code, env.Error)
	}
}

func TestIntegrationCancelPlan(t *testing.T) {
	_, base := setupIntegrationServer(t)

	code, env := doJSON(t, "DELETE", base+"/api/svp/plans/1", nil)
	if code != http.StatusOK {
		t.Fatalf("cancel: %d %+v", code, env.Error)
	}
	var plan PlanDTO
	mustData(t, env, &plan)
	if plan.Status != "Canceled" {
		t.Errorf("status = %q", plan.Status)
	}

	// soft cancel keeps the plan
	code, _ = doJSON(t, "GET", base+"/api/svp/plans/1", nil)
	if code != http.StatusOK {
		t.Errorf("canceled plan should still load, got %d", code)
	}
}

func TestIntegrationCoversheetAndAccess(t *testing.T) {
	_, base := setupIntegrationServer(t)

	code, env := doJSON(t, "PATCH", base+"/api/svp/plans/4/coversheet",
		CoversheetBody{PlanName: "Renamed", PlanDescription: "# Notes"})
	if code != http.StatusOK {
		t.Fatalf("coversheet: %d %+v", code, env.Error)
	}
	var plan PlanDTO
	mustData(t, env, &plan)
	if plan.PlanName != "Renamed" || plan.Description != "# Notes" {
		t.Errorf("plan = %+v", plan)
	}

	code, env = doJSON(t, "PATCH", base+"/api/svp/plans/4/coversheet", CoversheetBody{PlanName: "  "})
	if code != http.StatusBadRequest {
		t.Errorf("blank name: %d", code)
	}

	code, env = doJSON(t, "POST", base+"/api/svp/plans/4/access", AccessBody{Username: "alice"})
	if code != http.StatusOK {
		t.Fatalf("access: %d %+v", code, env.Error)
	}

	_, env = doJSON(t, "GET", base+"/api/svp/plans?username=alice", nil)
	var plans []PlanDTO
	mustData(t, env, &plans)
	accessed := 0
	for _, p := range plans {
		if p.LastAccessedAt != nil {
			accessed++
			if p.ID != "4" {
				t.Errorf("unexpected access on plan %s", p.ID)
			}
		}
	}
	if accessed != 1 {
		t.Errorf("accessed = %d, want 1", accessed)
	}

	code, _ = doJSON(t, "POST", base+"/api/svp/plans/999/access", AccessBody{Username: "alice"})
	if code != http.StatusNotFound {
		t.Errorf("access missing plan: %d", code)
	}
}

// ============================================================================
// Grid snapshot
// ============================================================================

func TestIntegrationPlanGrid(t *testing.T) {
	_, base := setupIntegrationServer(t)

	tests := []struct {
		name      string
		query     string
		wantTotal int
		wantRows  int
		wantPages int
		wantFirst string
	}{
		{"defaults", "", 36, 15, 3, ""},
		{"page size", "?page_size=20&page=2", 36, 16, 2, ""},
		{"clamped page", "?page=99", 36, 6, 3, ""},
		{"status link", "?status=Complete", 6, 6, 1, ""},
		{"column filter", "?filter.plan_code=PSV-000001", 1, 1, 1, "PSV-000001"},
		{"select filter all", "?filter.status=All", 36, 15, 3, ""},
		{"sort desc", "?sort=plan_name:desc&page_size=5", 36, 5, 8, "PSV-000036"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := doJSON(t, "GET", base+"/api/svp/plans/grid"+tt.query, nil)
			if code != http.StatusOK {
				t.Fatalf("status = %d %+v", code, env.Error)
			}
			var g struct {
				Columns    []map[string]interface{} `json:"columns"`
				Rows       []map[string]interface{} `json:"rows"`
				Total      int                      `json:"total"`
				TotalPages int                      `json:"total_pages"`
				Page       int                      `json:"page"`
			}
			mustData(t, env, &g)
			if g.Total != tt.wantTotal || len(g.Rows) != tt.wantRows || g.TotalPages != tt.wantPages {
				t.Errorf("total=%d rows=%d pages=%d, want %d/%d/%d", g.Total, len(g.Rows), g.TotalPages, tt.wantTotal, tt.wantRows, tt.wantPages)
			}
			if g.Columns[0]["key"] != planlist.PlanCodeKey {
				t.Errorf("first column = %v", g.Columns[0]["key"])
			}
			if tt.wantFirst != "" && g.Rows[0]["plan_code"] != tt.wantFirst {
				t.Errorf("first row = %v, want %s", g.Rows[0]["plan_code"], tt.wantFirst)
			}
		})
	}
}

func TestIntegrationPlanGridValidation(t *testing.T) {
	_, base := setupIntegrationServer(t)

	for _, q := range []string{"?page=0", "?page_size=abc", "?page_size=5000", "?sort=plan_name:sideways"} {
		code, env := doJSON(t, "GET", base+"/api/svp/plans/grid"+q, nil)
		if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != ErrValidation {
			t.Errorf("%s: %d %+v", q, code, env.Error)
		}
	}

	code, _ := doJSON(t, "GET", base+"/api/svp/plans/grid?search=missing", nil)
	if code != http.StatusNotFound {
		t.Errorf("unknown saved search: %d", code)
	}
}

// ============================================================================
// Saved searches
// ============================================================================

func TestIntegrationSavedSearches(t *testing.T) {
	_, base := setupIntegrationServer(t)

	values := planlist.DefaultSearchValues()
	values.Statuses = []string{"Complete"}
	code, env := doJSON(t, "POST", base+"/api/svp/searches", SaveSearchBody{Values: values})
	if code != http.StatusCreated {
		t.Fatalf("save: %d %+v", code, env.Error)
	}
	var saved models.SavedSearch
	mustData(t, env, &saved)
	if saved.Name != "Unnamed" || saved.ID == "" {
		t.Errorf("saved = %+v", saved)
	}

	_, env = doJSON(t, "GET", base+"/api/svp/searches", nil)
	var list []models.SavedSearch
	mustData(t, env, &list)
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}

	_, env = doJSON(t, "GET", base+"/api/svp/plans/grid?search="+saved.ID, nil)
	var g struct {
		Total int `json:"total"`
	}
	mustData(t, env, &g)
	if g.Total != 6 {
		t.Errorf("total with saved search = %d, want 6", g.Total)
	}

	code, _ = doJSON(t, "DELETE", base+"/api/svp/searches/"+saved.ID, nil)
	if code != http.StatusOK {
		t.Errorf("delete: %d", code)
	}
	code, env = doJSON(t, "DELETE", base+"/api/svp/searches/"+saved.ID, nil)
	if code != http.StatusNotFound || env.Error.Code != ErrNotFound {
		t.Errorf("second delete: %d %+v", code, env.Error)
	}
}

// ============================================================================
// Config and layout
// ============================================================================

func TestIntegrationConfigAndLayout(t *testing.T) {
	_, base := setupIntegrationServer(t)

	_, env := doJSON(t, "GET", base+"/api/svp/config", nil)
	var cfg models.GridConfig
	mustData(t, env, &cfg)
	if len(cfg.Columns) != 8 || len(cfg.RowActions) != 3 {
		t.Errorf("config = %+v", cfg)
	}

	_, env = doJSON(t, "GET", base+"/api/svp/initiate/options", nil)
	var opts models.InitiateOptions
	mustData(t, env, &opts)
	if len(opts.Bureaus) != 3 || len(opts.FiscalYears) != 2 {
		t.Errorf("options = %+v", opts)
	}

	_, env = doJSON(t, "GET", base+"/api/menu", nil)
	var menu []models.MenuItem
	mustData(t, env, &menu)
	if len(menu) != 2 || len(menu[0].Children) != 3 {
		t.Errorf("menu = %+v", menu)
	}

	_, env = doJSON(t, "GET", base+"/api/layout/header-nav", nil)
	var nav []models.NavItem
	mustData(t, env, &nav)
	if len(nav) != 3 {
		t.Errorf("nav = %+v", nav)
	}
}

// ============================================================================
// Events
// ============================================================================

func TestIntegrationEvents(t *testing.T) {
	srv, base := setupIntegrationServer(t)

	resp, err := http.Get(base + "/api/svp/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case e := <-events:
			return e
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	if e := next(); e != "ping" {
		t.Fatalf("first event = %q, want ping", e)
	}

	// wait until the stream is registered before writing
	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	code, _ := doJSON(t, "DELETE", fmt.Sprintf("%s/api/svp/plans/%d", base, 2), nil)
	if code != http.StatusOK {
		t.Fatalf("cancel: %d", code)
	}
	if e := next(); e != "refresh" {
		t.Errorf("event after write = %q, want refresh", e)
	}
}
