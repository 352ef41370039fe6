// Package workflow defines which plan status changes are allowed and the
// guards that must pass for them.
package workflow

import (
	"github.com/marcus/svp/internal/models"
)

// Transition is one allowed status change
type Transition struct {
	From   models.PlanStatus
	To     models.PlanStatus
	Guards []Guard
}

// working are the statuses of a plan that is still being worked on
var working = []models.PlanStatus{
	models.StatusNotStarted,
	models.StatusInProgress,
	models.StatusNotComplete,
}

// AllTransitions returns every allowed status change.
// Completed plans can be reopened but never canceled. Canceled plans can
// only be reinstated as In Progress.
func AllTransitions() []*Transition {
	var out []*Transition
	for _, from := range working {
		for _, to := range working {
			if from != to {
				out = append(out, &Transition{From: from, To: to})
			}
		}
		out = append(out,
			&Transition{From: from, To: models.StatusComplete, Guards: []Guard{&SectionsCompleteGuard{}}},
			&Transition{From: from, To: models.StatusCanceled},
		)
	}
	return append(out,
		&Transition{From: models.StatusComplete, To: models.StatusInProgress},
		&Transition{From: models.StatusComplete, To: models.StatusNotComplete},
		&Transition{From: models.StatusCanceled, To: models.StatusInProgress},
	)
}

// TransitionName returns a human-readable name for the transition
func TransitionName(from, to models.PlanStatus) string {
	switch {
	case to == models.StatusComplete:
		return "complete"
	case to == models.StatusCanceled:
		return "cancel"
	case from == models.StatusComplete || from == models.StatusCanceled:
		return "reopen"
	case from == models.StatusNotStarted && to == models.StatusInProgress:
		return "start"
	case to == models.StatusNotComplete:
		return "mark not complete"
	default:
		return string(from) + " \u2192 " + string(to) // →
	}
}

// GetTransitionsFrom returns the statuses a plan can move to from status
func GetTransitionsFrom(status models.PlanStatus) []models.PlanStatus {
	var targets []models.PlanStatus
	for _, t := range AllTransitions() {
		if t.From == status {
			targets = append(targets, t.To)
		}
	}
	return targets
}

// StateMachine validates status changes against a transition table
type StateMachine struct {
	transitions map[models.PlanStatus]map[models.PlanStatus]*Transition
}

// NewMachine builds a state machine from transitions
func NewMachine(transitions []*Transition) *StateMachine {
	sm := &StateMachine{transitions: map[models.PlanStatus]map[models.PlanStatus]*Transition{}}
	for _, t := range transitions {
		if sm.transitions[t.From] == nil {
			sm.transitions[t.From] = map[models.PlanStatus]*Transition{}
		}
		sm.transitions[t.From][t.To] = t
	}
	return sm
}

// DefaultMachine returns the plan workflow
func DefaultMachine() *StateMachine {
	return NewMachine(AllTransitions())
}

// IsValidTransition reports whether from -> to is in the table, ignoring
// guards. Staying in the same status is always valid.
func (sm *StateMachine) IsValidTransition(from, to models.PlanStatus) bool {
	if from == to {
		return true
	}
	_, ok := sm.transitions[from][to]
	return ok
}

// Validate checks the change of ctx.Plan to ctx.ToStatus. It returns a
// *TransitionError for a change outside the table, or a *ValidationError
// holding a *GuardError per failed guard.
func (sm *StateMachine) Validate(ctx *TransitionContext) error {
	if ctx.FromStatus == ctx.ToStatus {
		return nil
	}
	t, ok := sm.transitions[ctx.FromStatus][ctx.ToStatus]
	if !ok {
		return &TransitionError{
			From:     ctx.FromStatus,
			To:       ctx.ToStatus,
			Reason:   "not an allowed status change",
			PlanCode: ctx.planCode(),
		}
	}

	var verr ValidationError
	for _, g := range t.Guards {
		if res := g.Check(ctx); !res.Passed {
			verr.Add(&GuardError{
				GuardName: g.Name(),
				Reason:    res.Message,
				Details:   res.Details,
				PlanCode:  ctx.planCode(),
			})
		}
	}
	if verr.HasErrors() {
		return &verr
	}
	return nil
}
