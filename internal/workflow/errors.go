package workflow

import (
	"errors"
	"fmt"

	"github.com/marcus/svp/internal/models"
)

// TransitionError represents an error when a transition is not allowed
type TransitionError struct {
	From     models.PlanStatus
	To       models.PlanStatus
	Reason   string
	PlanCode string
}

func (e *TransitionError) Error() string {
	if e.PlanCode != "" {
		return fmt.Sprintf("cannot move %s from %s to %s: %s", e.PlanCode, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("cannot move from %s to %s: %s", e.From, e.To, e.Reason)
}

// GuardError represents an error when a guard check fails
type GuardError struct {
	GuardName string
	Reason    string
	Details   []string
	PlanCode  string
}

func (e *GuardError) Error() string {
	if e.PlanCode != "" {
		return fmt.Sprintf("%s: %s", e.PlanCode, e.Reason)
	}
	return e.Reason
}

// ValidationError wraps multiple guard failures
type ValidationError struct {
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors", len(e.Errors))
}

// Unwrap exposes the guard failures to errors.As
func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the validation error
func (e *ValidationError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

// HasErrors returns true if there are validation errors
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// FailedGuard returns the failure of the named guard within err
func FailedGuard(err error, name string) (*GuardError, bool) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	for _, e := range verr.Errors {
		var ge *GuardError
		if errors.As(e, &ge) && ge.GuardName == name {
			return ge, true
		}
	}
	return nil, false
}
