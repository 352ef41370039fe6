package serve

import (
	"log/slog"
	"net/http"

	"github.com/marcus/svp/internal/models"
)

// ============================================================================
// PATCH /api/svp/plans/{id} - Change Plan Status
// ============================================================================

// handleUpdatePlanStatus moves a plan to a new status. Completing a plan
// fails with incomplete_sections while any section is not Complete.
func (s *Server) handleUpdatePlanStatus(w http.ResponseWriter, r *http.Request) {
	var body StatusBody
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	status, _ := models.ParseStatus(body.Status)
	s.transition(w, r.PathValue("id"), "status", func(id string) (*models.Plan, error) {
		return s.db.UpdatePlanStatus(id, status)
	})
}

// ============================================================================
// DELETE /api/svp/plans/{id} - Cancel Plan
// ============================================================================

// handleCancelPlan marks the plan Canceled. Completed plans cannot be
// canceled.
func (s *Server) handleCancelPlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	plan, err := s.db.GetPlan(id)
	if err != nil {
		writeDBError(w, err, "plan")
		return
	}
	if plan.IsComplete() {
		WriteError(w, ErrValidation, "completed plans cannot be canceled", http.StatusBadRequest)
		return
	}
	s.transition(w, id, "cancel", s.db.CancelPlan)
}

// ============================================================================
// PATCH /api/svp/plans/{id}/sections/{section_id}
// ============================================================================

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var body StatusBody
	if !s.decodeAndValidate(w, r, &body) {
		return
	}
	status, _ := models.ParseStatus(body.Status)
	sectionID := r.PathValue("section_id")
	if !models.IsSection(sectionID) {
		WriteError(w, ErrNotFound, "section not found", http.StatusNotFound)
		return
	}
	s.transition(w, r.PathValue("id"), "section", func(id string) (*models.Plan, error) {
		return s.db.UpdateSectionStatus(id, sectionID, status)
	})
}

// transition applies a status change and writes the updated plan.
func (s *Server) transition(w http.ResponseWriter, id, kind string, apply func(id string) (*models.Plan, error)) {
	plan, err := apply(id)
	if err != nil {
		writeDBError(w, err, "plan")
		return
	}
	slog.Info("plan "+kind, "id", plan.ID, "status", plan.Status)

	s.NotifyChange()
	WriteSuccess(w, PlanToDTO(plan), http.StatusOK)
}
