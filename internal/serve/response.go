// Package serve provides the HTTP API layer for svp serve, including
// response envelopes, DTOs with explicit JSON serialization, and
// request validation helpers.
package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/marcus/svp/internal/db"
	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"github.com/marcus/svp/internal/workflow"
)

// ============================================================================
// Response Envelope
// ============================================================================

// Envelope is the standard response wrapper for all API responses.
// Success: {"ok": true, "data": {...}}
// Error:   {"ok": false, "error": {"code": "...", "message": "...", "details": ...}}
type Envelope struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
}

// ErrorPayload holds structured error information.
type ErrorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError describes a single validation failure on a request field.
type FieldError struct {
	Field    string      `json:"field"`
	Rule     string      `json:"rule"`
	Value    interface{} `json:"value,omitempty"`
	Expected interface{} `json:"expected,omitempty"`
	Message  string      `json:"message"`
}

// Standard error codes mapped to HTTP status codes.
const (
	ErrValidation         = "validation_error"     // 400
	ErrIncompleteSections = "incomplete_sections" // 400
	ErrNotFound           = "not_found"           // 404
	ErrUnauthorized       = "unauthorized"        // 401
	ErrInternal           = "internal"            // 500
)

// WriteSuccess writes a JSON success envelope with the given data and status.
func WriteSuccess(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{OK: true, Data: data}); err != nil {
		slog.Error("write success response", "err", err)
	}
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, code, message string, status int) {
	writeErrorDetails(w, code, message, nil, status)
}

func writeErrorDetails(w http.ResponseWriter, code, message string, details interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		OK: false,
		Error: &ErrorPayload{
			Code:    code,
			Message: message,
			Details: details,
		},
	}); err != nil {
		slog.Error("write error response", "err", err)
	}
}

// WriteValidation writes a 400 validation_error response with field-level details.
func WriteValidation(w http.ResponseWriter, fields []FieldError) {
	writeErrorDetails(w, ErrValidation, "Validation failed", fields, http.StatusBadRequest)
}

// writeDBError maps storage errors to responses. Unknown errors are logged
// and reported as 500 with a generic message.
func writeDBError(w http.ResponseWriter, err error, what string) {
	var incomplete *db.IncompleteSectionsError
	var transition *workflow.TransitionError
	switch {
	case errors.As(err, &incomplete):
		writeErrorDetails(w, ErrIncompleteSections, db.ErrIncompleteSections.Error(),
			map[string]interface{}{"incomplete_sections": incomplete.Sections}, http.StatusBadRequest)
	case errors.Is(err, db.ErrNotFound):
		WriteError(w, ErrNotFound, what+" not found", http.StatusNotFound)
	case errors.As(err, &transition):
		WriteError(w, ErrValidation, transition.Error(), http.StatusBadRequest)
	default:
		slog.Error(what, "err", err)
		WriteError(w, ErrInternal, "failed to load "+what, http.StatusInternalServerError)
	}
}

// ============================================================================
// Plan DTO
// ============================================================================

// SectionDTO is the API representation of a plan section.
type SectionDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// PlanDTO is the API representation of a plan. Sections serialize as []
// when empty and last_accessed_at as null when the user never opened it.
type PlanDTO struct {
	ID             string       `json:"id"`
	PlanCode       string       `json:"plan_code"`
	PlanFor        string       `json:"plan_for"`
	PlanPeriod     string       `json:"plan_period"`
	PlanName       string       `json:"plan_name"`
	Description    string       `json:"plan_description"`
	SiteVisits     string       `json:"site_visits"`
	Status         string       `json:"status"`
	TeamName       string       `json:"team_name"`
	NeedsAttention string       `json:"needs_attention"`
	Sections       []SectionDTO `json:"sections"`
	LastAccessedAt *string      `json:"last_accessed_at"`
	CreatedAt      string       `json:"created_at"`
}

// PlanToDTO converts a models.Plan to a PlanDTO.
func PlanToDTO(p *models.Plan) PlanDTO {
	dto := PlanDTO{
		ID:             p.ID,
		PlanCode:       p.Code,
		PlanFor:        p.PlanFor,
		PlanPeriod:     p.Period,
		PlanName:       p.Name,
		Description:    p.Description,
		SiteVisits:     p.SiteVisits,
		Status:         string(p.Status),
		TeamName:       p.TeamName,
		NeedsAttention: p.NeedsAttention,
		Sections:       make([]SectionDTO, 0, len(p.Sections)),
		LastAccessedAt: nullableTime(p.LastAccessedAt),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
	for _, s := range p.Sections {
		dto.Sections = append(dto.Sections, SectionDTO{ID: s.ID, Name: s.Name, Status: string(s.Status)})
	}
	return dto
}

// PlansToDTOs converts plans to DTOs, never returning nil.
func PlansToDTOs(plans []models.Plan) []PlanDTO {
	dtos := make([]PlanDTO, len(plans))
	for i := range plans {
		dtos[i] = PlanToDTO(&plans[i])
	}
	return dtos
}

// ============================================================================
// Grid snapshot DTO
// ============================================================================

// GridDTO is one page of the plan grid as computed on the server.
type GridDTO struct {
	Columns    []grid.Column    `json:"columns"`
	Rows       []grid.Row       `json:"rows"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	PageItems  []grid.PageItem  `json:"page_items"`
	Sort       []grid.SortEntry `json:"sort"`
	Filters    grid.Filters     `json:"filters"`
}

// ============================================================================
// Request bodies
// ============================================================================

// StatusBody is the payload of PATCH /api/svp/plans/{id}.
type StatusBody struct {
	Status string `json:"status" validate:"required,planstatus"`
}

// CoversheetBody is the payload of PATCH /api/svp/plans/{id}/coversheet.
type CoversheetBody struct {
	PlanName        string `json:"plan_name" validate:"required,max=200"`
	PlanDescription string `json:"plan_description" validate:"max=4000"`
}

// AccessBody is the payload of POST /api/svp/plans/{id}/access.
type AccessBody struct {
	Username string `json:"username" validate:"required,max=100"`
}

// SaveSearchBody is the payload of POST /api/svp/searches.
type SaveSearchBody struct {
	Name   string              `json:"name" validate:"max=100"`
	Values models.SearchValues `json:"values"`
}

// ============================================================================
// Validation
// ============================================================================

// newValidator returns a validator that reports JSON field names and knows
// the plan status enum.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("planstatus", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseStatus(fl.Field().String())
		return ok
	})
	return v
}

// fieldErrors converts validator output to API field errors.
func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Rule: "invalid", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, toFieldError(fe))
	}
	return out
}

func toFieldError(fe validator.FieldError) FieldError {
	f := FieldError{Field: fe.Field(), Rule: fe.Tag(), Value: fe.Value()}
	switch fe.Tag() {
	case "required", "required_if":
		f.Value = nil
		f.Message = fmt.Sprintf("%s is required", fe.Field())
	case "max":
		f.Expected = fe.Param()
		f.Message = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		f.Expected = strings.Fields(fe.Param())
		f.Message = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "planstatus":
		names := make([]string, len(models.AllStatuses))
		for i, s := range models.AllStatuses {
			names[i] = string(s)
		}
		f.Rule = "enum"
		f.Expected = names
		f.Message = fmt.Sprintf("invalid status: %v", fe.Value())
	default:
		f.Message = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return f
}

// decodeAndValidate reads a JSON body into v and validates it. It writes
// the error response itself and reports whether the handler may continue.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, ErrValidation, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		WriteValidation(w, fieldErrors(err))
		return false
	}
	return true
}

// ============================================================================
// Internal Helpers
// ============================================================================

// nullableTime converts a *time.Time to *string (RFC3339), returning nil when input is nil.
func nullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
