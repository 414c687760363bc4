// Package policy resolves what an actor may do with a ticket.
//
// Resolution is a pure function of the actor, the ticket and the
// relationship between them. Rules are kept as a table keyed by role so the
// whole rule set can be inspected and tested as data.
package policy

import "github.com/deskflow/helpdesk-portal/internal/domain"

// Capabilities is the capability set of one actor against one ticket.
type Capabilities struct {
	CanView         bool `json:"can_view"`
	CanEdit         bool `json:"can_edit"`
	CanChangeStatus bool `json:"can_change_status"`
	CanAssign       bool `json:"can_assign"`
}

// None is the empty capability set.
var None = Capabilities{}

// All grants every capability.
var All = Capabilities{CanView: true, CanEdit: true, CanChangeStatus: true, CanAssign: true}

// relation describes how an actor relates to a ticket.
type relation struct {
	sameDepartment bool
	isAssignee     bool
	isCreator      bool
	isRequester    bool
}

type rule func(rel relation, ticket *domain.Ticket) Capabilities

var roleRules = map[domain.Role]rule{
	domain.RoleSuperAdmin: globalRule,
	domain.RoleAdmin:      globalRule,
	domain.RoleManager:    departmentLeadRule,
	domain.RoleTeamLead:   departmentLeadRule,
	domain.RoleAgent:      agentRule,
	domain.RoleEndUser:    endUserRule,
}

var assignRoles = map[domain.Role]struct{}{
	domain.RoleTeamLead:   {},
	domain.RoleManager:    {},
	domain.RoleAdmin:      {},
	domain.RoleSuperAdmin: {},
}

func globalRule(relation, *domain.Ticket) Capabilities {
	return All
}

func departmentLeadRule(rel relation, _ *domain.Ticket) Capabilities {
	if !rel.sameDepartment {
		return None
	}
	return All
}

func agentRule(rel relation, _ *domain.Ticket) Capabilities {
	if !rel.sameDepartment {
		return None
	}
	involved := rel.isAssignee || rel.isCreator
	return Capabilities{
		CanView:         involved,
		CanEdit:         involved,
		CanChangeStatus: true,
	}
}

func endUserRule(rel relation, ticket *domain.Ticket) Capabilities {
	owner := rel.isRequester || rel.isCreator
	editable := ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed
	return Capabilities{
		CanView: owner,
		CanEdit: owner && editable,
	}
}

// Resolve returns the capabilities of actor on ticket.
func Resolve(actor *domain.Actor, ticket *domain.Ticket) Capabilities {
	if actor == nil || ticket == nil || !actor.IsActive {
		return None
	}
	apply, ok := roleRules[actor.Role]
	if !ok {
		return None
	}
	rel := relation{
		sameDepartment: actor.InDepartment(ticket.DepartmentID),
		isAssignee:     ticket.IsAssignedTo(actor.ID),
		isCreator:      ticket.CreatedByID == actor.ID,
		isRequester:    ticket.RequesterID == actor.ID,
	}
	return apply(rel, ticket)
}

// CanAssign reports whether actor may be offered assignment at all,
// independent of any particular ticket.
func CanAssign(actor *domain.Actor) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	_, ok := assignRoles[actor.Role]
	return ok
}

// CanReceiveAssignment reports whether actor may be made a ticket assignee.
func CanReceiveAssignment(actor *domain.Actor) bool {
	return actor != nil && actor.IsActive && actor.Role.IsStaff()
}
