package serve

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/marcus/svp/internal/models"
)

// unnamedSearch is stored when a search is saved without a name
const unnamedSearch = "Unnamed"

// ============================================================================
// POST /api/svp/plans - Initiate Plan
// ============================================================================

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var body models.InitiateRequest
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	if body.PlanFor() == "" || body.PlanPeriod() == "" {
		WriteValidation(w, []FieldError{{
			Field:   "planForType",
			Rule:    "required",
			Message: "plan for and plan period are required",
		}})
		return
	}

	plan, err := s.db.CreatePlan(body)
	if err != nil {
		slog.Error("create plan", "err", err)
		WriteError(w, ErrInternal, "failed to create plan", http.StatusInternalServerError)
		return
	}
	slog.Info("plan created", "id", plan.ID, "code", plan.Code)

	s.NotifyChange()
	WriteSuccess(w, PlanToDTO(plan), http.StatusCreated)
}

// ============================================================================
// PATCH /api/svp/plans/{id}/coversheet
// ============================================================================

func (s *Server) handleUpdateCoversheet(w http.ResponseWriter, r *http.Request) {
	var body CoversheetBody
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.PlanName) == "" {
		WriteValidation(w, []FieldError{{Field: "plan_name", Rule: "required", Message: "plan_name is required"}})
		return
	}

	plan, err := s.db.UpdateCoversheet(r.PathValue("id"), body.PlanName, body.PlanDescription)
	if err != nil {
		writeDBError(w, err, "plan")
		return
	}

	s.NotifyChange()
	WriteSuccess(w, PlanToDTO(plan), http.StatusOK)
}

// ============================================================================
// POST /api/svp/plans/{id}/access
// ============================================================================

func (s *Server) handleRecordAccess(w http.ResponseWriter, r *http.Request) {
	var body AccessBody
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	if err := s.db.RecordAccess(body.Username, r.PathValue("id")); err != nil {
		writeDBError(w, err, "plan")
		return
	}
	WriteSuccess(w, map[string]interface{}{"recorded": true}, http.StatusOK)
}

// ============================================================================
// POST /api/svp/searches, DELETE /api/svp/searches/{id}
// ============================================================================

func (s *Server) handleSaveSearch(w http.ResponseWriter, r *http.Request) {
	var body SaveSearchBody
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = unnamedSearch
	}
	body.Values.SearchName = name

	saved, err := s.db.SaveSearch(name, body.Values)
	if err != nil {
		slog.Error("save search", "err", err)
		WriteError(w, ErrInternal, "failed to save search", http.StatusInternalServerError)
		return
	}

	s.NotifyChange()
	WriteSuccess(w, saved, http.StatusCreated)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.db.DeleteSavedSearch(id); err != nil {
		writeDBError(w, err, "saved search")
		return
	}

	s.NotifyChange()
	WriteSuccess(w, map[string]interface{}{"deleted": id}, http.StatusOK)
}
