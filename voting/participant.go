package voting

import (
	"fmt"
	"strings"
)

const (
	RoleAdmin        = "admin"
	RoleDirector     = "director"
	RoleCollaborator = "collaborator"
	RoleTrial        = "trial"
)

const (
	MethodLike    = "like"
	MethodRanking = "ranking"
)

// Participant is one voting actor for the duration of a session. It is
// never stored on its own, only embedded into the vote records it produces.
type Participant struct {
	DisplayName string
	Role        string
	EmployeeID  string
}

func validRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDirector, RoleCollaborator, RoleTrial:
		return true
	}
	return false
}

// Validate applies the entry rules: a name is always required and the
// gated roles must present an employee identifier.
func (p Participant) Validate() error {
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("%w: display name is required", ErrInvalidParticipant)
	}
	if !validRole(p.Role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidParticipant, p.Role)
	}
	if (p.Role == RoleDirector || p.Role == RoleCollaborator) && strings.TrimSpace(p.EmployeeID) == "" {
		return fmt.Errorf("%w: employee identifier is required for role %s", ErrInvalidParticipant, p.Role)
	}
	return nil
}
