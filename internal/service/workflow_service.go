package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// allowedTransitions lists the legal targets for each status. Open through
// Resolved is the nominal path; any non-terminal ticket may be moved to any
// status, terminal tickets to none.
var allowedTransitions = buildTransitionTable()

func buildTransitionTable() map[domain.TicketStatus]map[domain.TicketStatus]struct{} {
	table := make(map[domain.TicketStatus]map[domain.TicketStatus]struct{}, len(domain.AllTicketStatuses))
	for _, from := range domain.AllTicketStatuses {
		targets := map[domain.TicketStatus]struct{}{}
		if !from.Terminal() {
			for _, to := range domain.AllTicketStatuses {
				targets[to] = struct{}{}
			}
		}
		table[from] = targets
	}
	return table
}

// CanTransition reports whether a ticket in status from may move to status to.
func CanTransition(from, to domain.TicketStatus) bool {
	_, ok := allowedTransitions[from][to]
	return ok
}

// WorkflowService owns ticket status changes.
type WorkflowService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// WorkflowDependencies bundles collaborators for WorkflowService.
type WorkflowDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewWorkflowService creates the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &WorkflowService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
}

// TransitionByID loads the ticket and applies Transition.
func (s *WorkflowService) TransitionByID(ctx context.Context, actor *domain.Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	return s.Transition(ctx, actor, ticket, newStatus)
}

// Transition moves ticket to newStatus on behalf of actor. The stored status
// and its STATUS_CHANGE comment are written in one transaction. Requesting the
// current status of a non-terminal ticket succeeds without writing anything.
func (s *WorkflowService) Transition(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !policy.Resolve(actor, ticket).CanChangeStatus {
		return nil, apperrors.NewPermissionDenied("not allowed to change ticket status",
			map[string]any{"ticket_id": ticket.ID})
	}
	if !newStatus.Valid() || !CanTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidStateTransition(string(ticket.Status), string(newStatus))
	}
	if newStatus == ticket.Status {
		return ticket, nil
	}

	oldStatus := ticket.Status
	updated := *ticket
	updated.Status = newStatus
	if newStatus.Terminal() {
		closedAt := s.now().UTC()
		updated.ClosedAt = &closedAt
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		Type:     domain.CommentTypeStatusChange,
		Content:  fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus),
		Metadata: map[string]any{
			"old_status": string(oldStatus),
			"new_status": string(newStatus),
			"changed_by": actor.ID,
		},
	}

	if err := s.tickets.ChangeStatus(ctx, &updated, oldStatus, comment); err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			return nil, apperrors.NewConflict("ticket status changed concurrently",
				map[string]any{"ticket_id": ticket.ID, "expected_status": string(oldStatus)})
		}
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			CommentID: comment.ID,
		},
	})
	return &updated, nil
}
