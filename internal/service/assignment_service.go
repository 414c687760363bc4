package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	actors     repository.ActorRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	ActorRepo  repository.ActorRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		actors:     deps.ActorRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ResolveAssignee loads assigneeID and checks it may hold tickets.
func (s *AssignmentService) ResolveAssignee(ctx context.Context, assigneeID string) (*domain.Actor, error) {
	if assigneeID == "" {
		return nil, apperrors.NewFieldError("assignee_id", "assignee is required")
	}
	assignee, err := s.actors.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.IsActive {
		return nil, apperrors.NewValidationError("assignee is inactive",
			map[string]any{"field": "assignee_id", "assignee_id": assigneeID})
	}
	if !policy.CanReceiveAssignment(assignee) {
		return nil, apperrors.NewValidationError("assignee must be a staff member",
			map[string]any{"field": "assignee_id", "assignee_id": assigneeID})
	}
	return assignee, nil
}

// AssignByID loads the ticket and assignee, then applies Assign.
func (s *AssignmentService) AssignByID(ctx context.Context, actor *domain.Actor, ticketID, assigneeID string) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanAssign {
		return nil, apperrors.NewPermissionDenied("not allowed to assign ticket", map[string]any{"ticket_id": ticket.ID})
	}
	assignee, err := s.ResolveAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	return s.Assign(ctx, actor, ticket, assignee)
}

// Assign hands ticket to assignee. The assignee change and its ASSIGNMENT
// comment are committed together; assigning the current assignee is a no-op.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, assignee *domain.Actor) (*domain.Ticket, error) {
	if !policy.Resolve(actor, ticket).CanAssign {
		return nil, apperrors.NewPermissionDenied("not allowed to assign ticket", map[string]any{"ticket_id": ticket.ID})
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("ticket is closed",
			map[string]any{"ticket_id": ticket.ID, "status": string(ticket.Status)})
	}
	if ticket.IsAssignedTo(assignee.ID) {
		return ticket, nil
	}

	oldAssignee := ticket.AssigneeID
	updated := *ticket
	updated.AssigneeID = strPtr(assignee.ID)

	comment := &domain.Comment{
		TicketID: ticket.ID,
		Type:     domain.CommentTypeAssignment,
		Content:  fmt.Sprintf("Assigned to %s", assignee.Name),
		Metadata: map[string]any{
			"old_assignee_id": derefString(oldAssignee),
			"new_assignee_id": assignee.ID,
			"assigned_by":     actor.ID,
		},
	}
	if err := s.tickets.ChangeAssignee(ctx, &updated, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketAssignedPayload{
			OldAssigneeID: oldAssignee,
			AssigneeID:    assignee.ID,
			CommentID:     comment.ID,
		},
	})
	return &updated, nil
}
