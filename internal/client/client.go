// Package client talks to a running svp serve instance over its REST API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/serve"
)

// ErrUnreachable wraps transport failures: the server is down, the port is
// wrong, or the request timed out. Hosts offer a retry for these.
var ErrUnreachable = errors.New("svp server unreachable")

// ErrNotFound matches any 404 response via errors.Is.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("svp api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("svp api: %s: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// FieldErrors decodes validation details, if any.
func (e *APIError) FieldErrors() []serve.FieldError {
	var out []serve.FieldError
	if len(e.Details) == 0 || json.Unmarshal(e.Details, &out) != nil {
		return nil
	}
	return out
}

// IncompleteSections returns the sections blocking completion, if the
// error is an incomplete_sections rejection.
func (e *APIError) IncompleteSections() []string {
	if e.Code != serve.ErrIncompleteSections {
		return nil
	}
	var d struct {
		Sections []string `json:"incomplete_sections"`
	}
	_ = json.Unmarshal(e.Details, &d)
	return d.Sections
}

// Retryable reports whether err is worth retrying as-is.
func Retryable(err error) bool {
	if errors.Is(err, ErrUnreachable) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}

// Client is a thin typed wrapper over the svp REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL. token may be empty.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Discover finds the local server through its port file.
func Discover(baseDir, token string) (*Client, error) {
	info, err := serve.Discover(baseDir)
	if err != nil {
		return nil, err
	}
	return New(info.URL(), token), nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ============================================================================
// Transport
// ============================================================================

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends a request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrUnreachable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 300 || !env.OK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// ============================================================================
// Health
// ============================================================================

// Health is the /health payload.
type Health struct {
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	ChangeToken string `json:"change_token"`
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ============================================================================
// Plans
// ============================================================================

// ListPlans returns every plan. username adds last-access times.
func (c *Client) ListPlans(ctx context.Context, username string) ([]models.Plan, error) {
	q := url.Values{}
	if username != "" {
		q.Set("username", username)
	}
	var plans []models.Plan
	err := c.do(ctx, http.MethodGet, withQuery("/api/svp/plans", q), nil, &plans)
	return plans, err
}

// SearchPlans returns plans ranked against query.
func (c *Client) SearchPlans(ctx context.Context, query, username string) ([]models.Plan, error) {
	q := url.Values{"q": {query}}
	if username != "" {
		q.Set("username", username)
	}
	var plans []models.Plan
	err := c.do(ctx, http.MethodGet, withQuery("/api/svp/plans", q), nil, &plans)
	return plans, err
}

// GetPlan returns a plan by id or plan code.
func (c *Client) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	var p models.Plan
	if err := c.do(ctx, http.MethodGet, "/api/svp/plans/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan initiates a plan.
func (c *Client) CreatePlan(ctx context.Context, req models.InitiateRequest) (*models.Plan, error) {
	var p models.Plan
	if err := c.do(ctx, http.MethodPost, "/api/svp/plans", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus moves a plan to status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.PlanStatus) (*models.Plan, error) {
	return c.planCall(ctx, http.MethodPatch, "/api/svp/plans/"+url.PathEscape(id), serve.StatusBody{Status: string(status)})
}

// CancelPlan marks a plan Canceled.
func (c *Client) CancelPlan(ctx context.Context, id string) (*models.Plan, error) {
	return c.planCall(ctx, http.MethodDelete, "/api/svp/plans/"+url.PathEscape(id), nil)
}

// UpdateCoversheet renames a plan and replaces its description.
func (c *Client) UpdateCoversheet(ctx context.Context, id, name, description string) (*models.Plan, error) {
	return c.planCall(ctx, http.MethodPatch, "/api/svp/plans/"+url.PathEscape(id)+"/coversheet",
		serve.CoversheetBody{PlanName: name, PlanDescription: description})
}

// UpdateSection sets one section's status.
func (c *Client) UpdateSection(ctx context.Context, id, sectionID string, status models.PlanStatus) (*models.Plan, error) {
	return c.planCall(ctx, http.MethodPatch,
		"/api/svp/plans/"+url.PathEscape(id)+"/sections/"+url.PathEscape(sectionID),
		serve.StatusBody{Status: string(status)})
}

// RecordAccess notes that username opened the plan.
func (c *Client) RecordAccess(ctx context.Context, id, username string) error {
	return c.do(ctx, http.MethodPost, "/api/svp/plans/"+url.PathEscape(id)+"/access",
		serve.AccessBody{Username: username}, nil)
}

func (c *Client) planCall(ctx context.Context, method, path string, body interface{}) (*models.Plan, error) {
	var p models.Plan
	if err := c.do(ctx, method, path, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ============================================================================
// Grid snapshot
// ============================================================================

// GridQuery selects one page of the server-side plan grid.
type GridQuery struct {
	Search         string
	Status         string
	NeedsAttention bool
	Username       string
	Filters        grid.Filters
	Sort           grid.SortOrder
	Page           int
	PageSize       int
}

// Values encodes the query string.
func (q GridQuery) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.NeedsAttention {
		v.Set("needs_attention", "true")
	}
	if q.Username != "" {
		v.Set("username", q.Username)
	}
	for key, val := range q.Filters {
		v.Set("filter."+key, val)
	}
	if len(q.Sort) > 0 {
		v.Set("sort", q.Sort.String())
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	return v
}

// GridPage is one page of the plan grid.
type GridPage struct {
	Columns    []grid.Column   `json:"columns"`
	Rows       []grid.Row      `json:"rows"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
	PageItems  []grid.PageItem `json:"page_items"`
	Sort       grid.SortOrder  `json:"sort"`
	Filters    grid.Filters    `json:"filters"`
}

// PlanGrid fetches one computed page of the plan grid.
func (c *Client) PlanGrid(ctx context.Context, q GridQuery) (*GridPage, error) {
	var page GridPage
	if err := c.do(ctx, http.MethodGet, withQuery("/api/svp/plans/grid", q.Values()), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ============================================================================
// Config, options, layout
// ============================================================================

// GridConfig returns the plan list layout.
func (c *Client) GridConfig(ctx context.Context) (*models.GridConfig, error) {
	var cfg models.GridConfig
	if err := c.do(ctx, http.MethodGet, "/api/svp/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InitiateOptions returns the initiate form choices.
func (c *Client) InitiateOptions(ctx context.Context) (*models.InitiateOptions, error) {
	var opts models.InitiateOptions
	if err := c.do(ctx, http.MethodGet, "/api/svp/initiate/options", nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Menu returns the sidebar menu.
func (c *Client) Menu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := c.do(ctx, http.MethodGet, "/api/menu", nil, &items)
	return items, err
}

// HeaderNav returns the header navigation links.
func (c *Client) HeaderNav(ctx context.Context) ([]models.NavItem, error) {
	var items []models.NavItem
	err := c.do(ctx, http.MethodGet, "/api/layout/header-nav", nil, &items)
	return items, err
}

// ============================================================================
// Saved searches
// ============================================================================

// ListSearches returns the saved searches.
func (c *Client) ListSearches(ctx context.Context) ([]models.SavedSearch, error) {
	var out []models.SavedSearch
	err := c.do(ctx, http.MethodGet, "/api/svp/searches", nil, &out)
	return out, err
}

// SaveSearch stores values under name, replacing a search of the same name.
func (c *Client) SaveSearch(ctx context.Context, name string, values models.SearchValues) (*models.SavedSearch, error) {
	var out models.SavedSearch
	if err := c.do(ctx, http.MethodPost, "/api/svp/searches", serve.SaveSearchBody{Name: name, Values: values}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSearch removes a saved search.
func (c *Client) DeleteSearch(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/svp/searches/"+url.PathEscape(id), nil, nil)
}

// ============================================================================
// Events
// ============================================================================

// Event is one server-sent event.
type Event struct {
	ID   string
	Name string
	Data string
}

// Subscribe streams change events until ctx is done or the connection
// drops. lastID, when set, is sent as Last-Event-ID so a stale client gets
// an immediate refresh.
func (c *Client) Subscribe(ctx context.Context, lastID string, fn func(Event)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/svp/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if lastID != "" {
		req.Header.Set("Last-Event-ID", lastID)
	}

	// the stream outlives the per-request timeout
	stream := &http.Client{Transport: c.http.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: "event stream rejected"}
	}

	var ev Event
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if ev.Name != "" {
				fn(ev)
			}
			ev = Event{}
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
