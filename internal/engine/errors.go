package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors. Everything except ErrInsufficientFunds is raised before any
// ledger write.
var (
	ErrUnauthorized         = errors.New("caller is not the administrator")
	ErrNotFound             = errors.New("program not found")
	ErrProgramInactive      = errors.New("program is not accepting applications")
	ErrDuplicateApplication = errors.New("identity already applied to this program")
	ErrIneligible           = errors.New("applicant does not meet program thresholds")
	ErrInsufficientFunds    = errors.New("program balance is below the award")
	ErrInvalidProgram       = errors.New("invalid program definition")
	ErrInvalidApplication   = errors.New("invalid application details")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidIdentity      = errors.New("invalid identity")
)

// IneligibleError lists the thresholds an application failed.
type IneligibleError struct {
	Reasons []string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIneligible, strings.Join(e.Reasons, "; "))
}

// Is makes errors.Is(err, ErrIneligible) hold.
func (e *IneligibleError) Is(target error) bool {
	return target == ErrIneligible
}

// ValidationError carries field-level problems for ErrInvalidProgram and
// ErrInvalidApplication.
type ValidationError struct {
	Kind   error
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+" "+v)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}
