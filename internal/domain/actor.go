package domain

import "time"

// Role enumerates principals, ordered by breadth of access within a department.
type Role string

const (
	RoleEndUser    Role = "END_USER"
	RoleAgent      Role = "AGENT"
	RoleTeamLead   Role = "TEAM_LEAD"
	RoleManager    Role = "MANAGER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEndUser, RoleAgent, RoleTeamLead, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role works tickets rather than files them.
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleEndUser
}

// IsGlobal reports whether the role is department independent.
func (r Role) IsGlobal() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Actor is an authenticated principal: an end-user or a staff member.
type Actor struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InDepartment reports whether the actor belongs to departmentID.
func (a *Actor) InDepartment(departmentID string) bool {
	return a != nil && a.DepartmentID != nil && *a.DepartmentID == departmentID
}
