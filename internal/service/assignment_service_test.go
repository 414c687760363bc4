package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

func TestAssignByID(t *testing.T) {
	tickets := new(MockTicketRepository)
	actors := new(MockActorRepository)
	dispatcher, log := newEventLog(events.EventTicketAssigned)
	svc := NewAssignmentService(AssignmentDependencies{TicketRepo: tickets, ActorRepo: actors, Dispatcher: dispatcher})

	tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil)
	actors.On("GetByID", mock.Anything, "agent").Return(actorWith("agent", domain.RoleAgent, deptA), nil)
	tickets.On("ChangeAssignee", mock.Anything, mock.MatchedBy(func(tk *domain.Ticket) bool {
		return *tk.AssigneeID == "agent"
	}), mock.MatchedBy(func(c *domain.Comment) bool {
		return c.Type == domain.CommentTypeAssignment && c.Metadata["new_assignee_id"] == "agent" && c.Metadata["old_assignee_id"] == ""
	})).Return(nil).Once()

	updated, err := svc.AssignByID(context.Background(), actorWith("lead", domain.RoleTeamLead, deptA), "t1", "agent")
	require.NoError(t, err)
	assert.Equal(t, "agent", *updated.AssigneeID)

	published := log.all()
	require.Len(t, published, 1)
	assert.Equal(t, "agent", published[0].Payload.(events.TicketAssignedPayload).AssigneeID)
	assert.Nil(t, published[0].Payload.(events.TicketAssignedPayload).OldAssigneeID)
}

func TestAssignSameAssigneeIsNoop(t *testing.T) {
	tickets := new(MockTicketRepository)
	dispatcher, log := newEventLog(events.EventTicketAssigned)
	svc := NewAssignmentService(AssignmentDependencies{TicketRepo: tickets, Dispatcher: dispatcher})
	ticket := openTicket("t1")
	ticket.AssigneeID = strPtr("agent")

	got, err := svc.Assign(context.Background(), actorWith("admin", domain.RoleAdmin, ""), ticket, actorWith("agent", domain.RoleAgent, deptA))
	require.NoError(t, err)
	assert.Same(t, ticket, got)
	tickets.AssertNotCalled(t, "ChangeAssignee", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, log.all())
}

func TestAssignRejections(t *testing.T) {
	svc := NewAssignmentService(AssignmentDependencies{TicketRepo: new(MockTicketRepository)})
	agent := actorWith("agent", domain.RoleAgent, deptA)

	_, err := svc.Assign(context.Background(), actorWith("agent2", domain.RoleAgent, deptA), openTicket("t1"), agent)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))

	closed := openTicket("t1")
	closed.Status = domain.TicketStatusClosed
	_, err = svc.Assign(context.Background(), actorWith("admin", domain.RoleAdmin, ""), closed, agent)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestResolveAssignee(t *testing.T) {
	actors := new(MockActorRepository)
	svc := NewAssignmentService(AssignmentDependencies{ActorRepo: actors})
	inactive := actorWith("gone", domain.RoleAgent, deptA)
	inactive.IsActive = false
	actors.On("GetByID", mock.Anything, "missing").Return(nil, pgx.ErrNoRows)
	actors.On("GetByID", mock.Anything, "gone").Return(inactive, nil)
	actors.On("GetByID", mock.Anything, "u1").Return(actorWith("u1", domain.RoleEndUser, ""), nil)

	_, err := svc.ResolveAssignee(context.Background(), "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = svc.ResolveAssignee(context.Background(), "gone")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.ResolveAssignee(context.Background(), "u1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = svc.ResolveAssignee(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
