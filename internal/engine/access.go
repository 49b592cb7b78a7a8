package engine

import (
	"github.com/stemsi/scholardist/internal/identity"
	"github.com/stemsi/scholardist/internal/model"
)

// AccessController answers administrator and program-state questions.
// The administrator is fixed at construction.
type AccessController struct {
	admin string
}

// NewAccessController canonicalises admin and binds it.
func NewAccessController(admin string) (AccessController, error) {
	canon, err := identity.Normalize(admin)
	if err != nil {
		return AccessController{}, err
	}
	return AccessController{admin: canon}, nil
}

// Administrator returns the canonical administrator identity.
func (a AccessController) Administrator() string {
	return a.admin
}

// IsAdmin reports whether caller is the administrator.
func (a AccessController) IsAdmin(caller string) bool {
	return caller != "" && caller == a.admin
}

// RequireAdmin fails with ErrUnauthorized unless caller is the administrator.
func (a AccessController) RequireAdmin(caller string) error {
	if !a.IsAdmin(caller) {
		return ErrUnauthorized
	}
	return nil
}

// RequireProgramActive fails with ErrProgramInactive for a closed program.
func RequireProgramActive(p *model.Program) error {
	if !p.Active {
		return ErrProgramInactive
	}
	return nil
}
