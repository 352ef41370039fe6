package workflow

import (
	"github.com/marcus/svp/internal/models"
)

// TransitionContext is what guards see of a status change
type TransitionContext struct {
	Plan       *models.Plan
	FromStatus models.PlanStatus
	ToStatus   models.PlanStatus
}

// NewContext describes moving plan to status
func NewContext(plan *models.Plan, to models.PlanStatus) *TransitionContext {
	return &TransitionContext{Plan: plan, FromStatus: plan.Status, ToStatus: to}
}

func (ctx *TransitionContext) planCode() string {
	if ctx.Plan == nil {
		return ""
	}
	return ctx.Plan.Code
}

// GuardResult is the outcome of one guard
type GuardResult struct {
	Passed  bool
	Message string
	Details []string
}

// Guard checks one precondition of a transition
type Guard interface {
	Name() string
	Check(ctx *TransitionContext) GuardResult
}

// SectionsCompleteGuardName identifies SectionsCompleteGuard failures
const SectionsCompleteGuardName = "SectionsCompleteGuard"

// SectionsCompleteGuard requires every section to be Complete. The names
// of the others are reported as details.
type SectionsCompleteGuard struct{}

func (g *SectionsCompleteGuard) Name() string {
	return SectionsCompleteGuardName
}

func (g *SectionsCompleteGuard) Check(ctx *TransitionContext) GuardResult {
	if ctx.Plan == nil {
		return GuardResult{Passed: true}
	}
	incomplete := ctx.Plan.IncompleteSections()
	if len(incomplete) == 0 {
		return GuardResult{Passed: true}
	}
	return GuardResult{
		Passed:  false,
		Message: "all sections must be completed",
		Details: incomplete,
	}
}
