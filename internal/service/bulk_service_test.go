package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

type bulkFixture struct {
	tickets  *MockTicketRepository
	actors   *MockActorRepository
	recorder *MockBulkRecorder
	svc      *BulkService
}

func newBulkFixture(maxItems int) *bulkFixture {
	tickets := new(MockTicketRepository)
	actors := new(MockActorRepository)
	recorder := new(MockBulkRecorder)
	workflow := NewWorkflowService(WorkflowDependencies{TicketRepo: tickets})
	assignments := NewAssignmentService(AssignmentDependencies{TicketRepo: tickets, ActorRepo: actors})
	svc := NewBulkService(BulkDependencies{
		TicketRepo:     tickets,
		Workflow:       workflow,
		Assignments:    assignments,
		Recorder:       recorder,
		MaxConcurrency: 3,
		MaxItems:       maxItems,
	})
	return &bulkFixture{tickets: tickets, actors: actors, recorder: recorder, svc: svc}
}

func TestBulkStatusPartialFailure(t *testing.T) {
	f := newBulkFixture(0)
	closed := openTicket("t2")
	closed.Status = domain.TicketStatusClosed

	f.tickets.On("GetByID", mock.Anything, "t1").Return(openTicket("t1"), nil)
	f.tickets.On("GetByID", mock.Anything, "t2").Return(closed, nil)
	f.tickets.On("GetByID", mock.Anything, "t3").Return(nil, pgx.ErrNoRows)
	f.tickets.On("ChangeStatus", mock.Anything, mock.MatchedBy(func(tk *domain.Ticket) bool { return tk.ID == "t1" }),
		domain.TicketStatusResolved, mock.Anything).Return(nil).Once()
	f.recorder.On("RecordBulk", "status", 1, 2).Once()

	result, err := f.svc.Apply(context.Background(), actorWith("admin", domain.RoleAdmin, ""),
		[]string{"t1", "t2", "t3", "t1", "t2"}, StatusOperation{Status: domain.TicketStatusResolved})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	assert.Equal(t, 3, result.SuccessCount+result.FailureCount, "counts add up to distinct ids")
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "t2")
	assert.Contains(t, result.Errors[1], "t3")
	f.tickets.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
}

func TestBulkAssignToInactiveUserFailsEveryItem(t *testing.T) {
	f := newBulkFixture(0)
	inactive := actorWith("agent-x", domain.RoleAgent, deptA)
	inactive.IsActive = false
	f.actors.On("GetByID", mock.Anything, "agent-x").Return(inactive, nil).Once()
	f.recorder.On("RecordBulk", "assign", 0, 3).Once()

	result, err := f.svc.Apply(context.Background(), actorWith("lead", domain.RoleTeamLead, deptA),
		[]string{"t1", "t2", "t3"}, AssignOperation{AssigneeID: "agent-x"})
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 3, result.FailureCount)
	assert.Len(t, result.Errors, 3)
	f.tickets.AssertNotCalled(t, "ChangeAssignee", mock.Anything, mock.Anything, mock.Anything)
}

func TestBulkAssignToEndUserFailsEveryItem(t *testing.T) {
	f := newBulkFixture(0)
	f.actors.On("GetByID", mock.Anything, "customer").Return(actorWith("customer", domain.RoleEndUser, ""), nil).Once()
	f.recorder.On("RecordBulk", "assign", 0, 2).Once()

	result, err := f.svc.Apply(context.Background(), actorWith("admin", domain.RoleAdmin, ""),
		[]string{"t1", "t2"}, AssignOperation{AssigneeID: "customer"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.FailureCount)
}

func TestBulkAssignSuccess(t *testing.T) {
	f := newBulkFixture(0)
	assignee := actorWith("agent-1", domain.RoleAgent, deptA)
	f.actors.On("GetByID", mock.Anything, "agent-1").Return(assignee, nil).Once()
	for _, id := range []string{"t1", "t2"} {
		f.tickets.On("GetByID", mock.Anything, id).Return(openTicket(id), nil).Once()
	}
	otherDept := openTicket("t3")
	otherDept.DepartmentID = "dept-b"
	f.tickets.On("GetByID", mock.Anything, "t3").Return(otherDept, nil).Once()
	f.tickets.On("ChangeAssignee", mock.Anything, mock.MatchedBy(func(tk *domain.Ticket) bool {
		return tk.IsAssignedTo("agent-1")
	}), mock.MatchedBy(func(c *domain.Comment) bool {
		return c.Type == domain.CommentTypeAssignment && c.AuthorID == nil
	})).Return(nil).Twice()
	f.recorder.On("RecordBulk", "assign", 2, 1).Once()

	result, err := f.svc.Apply(context.Background(), actorWith("lead", domain.RoleTeamLead, deptA),
		[]string{"t1", "t2", "t3"}, AssignOperation{AssigneeID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.Contains(t, result.Errors[0], "t3")
	f.tickets.AssertExpectations(t)
}

func TestBulkAssignRequiresAssignCapability(t *testing.T) {
	f := newBulkFixture(0)
	_, err := f.svc.Apply(context.Background(), actorWith("agent", domain.RoleAgent, deptA),
		[]string{"t1"}, AssignOperation{AssigneeID: "agent-1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestBulkEmptyListIsZeroResult(t *testing.T) {
	f := newBulkFixture(0)
	result, err := f.svc.Apply(context.Background(), actorWith("admin", domain.RoleAdmin, ""), nil,
		StatusOperation{Status: domain.TicketStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.FailureCount)
	assert.Empty(t, result.Errors)
}

func TestBulkRejectsOversizedRequest(t *testing.T) {
	f := newBulkFixture(2)
	_, err := f.svc.Apply(context.Background(), actorWith("admin", domain.RoleAdmin, ""),
		[]string{"t1", "t2", "t3"}, StatusOperation{Status: domain.TicketStatusClosed})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestBulkCancelledContextCountsEveryItem(t *testing.T) {
	f := newBulkFixture(0)
	f.recorder.On("RecordBulk", "status", 0, 10).Once()
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.svc.Apply(ctx, actorWith("admin", domain.RoleAdmin, ""), ids, StatusOperation{Status: domain.TicketStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, 10, result.FailureCount)
	assert.Len(t, result.Errors, 10)
	f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, dedupe([]string{"b", "a", "b", "c", "a"}))
	assert.Empty(t, dedupe(nil))
}
