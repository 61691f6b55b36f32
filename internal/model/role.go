package model

import "github.com/google/uuid"

// Role is issued by the identity provider and carried in the principal token.
type Role string

const (
	RoleCandidate  Role = "CANDIDAT"
	RoleInstructor Role = "INSTRUCTEUR"
	RoleSupervisor Role = "SUPERVISEUR"
	RoleDirector   Role = "DIRECTEUR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleInstructor, RoleSupervisor, RoleDirector:
		return true
	}
	return false
}

// IsStaff reports whether r belongs to academy personnel.
func (r Role) IsStaff() bool {
	return r == RoleInstructor || r == RoleSupervisor || r == RoleDirector
}

// Principal is the authenticated caller of a core operation.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// Can reports whether the principal's role grants perm.
func (p *Principal) Can(perm Permission) bool {
	if p == nil {
		return false
	}
	for _, granted := range RolePermissions[p.Role] {
		if granted == perm {
			return true
		}
	}
	return false
}

// Owns reports whether the principal acts on its own candidate record.
func (p *Principal) Owns(candidateID uuid.UUID) bool {
	return p != nil && p.ID == candidateID
}
