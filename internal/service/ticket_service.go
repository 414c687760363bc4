package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

const maxTitleLength = 200

// TicketService coordinates ticket creation, reads and edits.
type TicketService struct {
	tickets     repository.TicketRepository
	departments repository.DepartmentRepository
	actors      repository.ActorRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	DepartmentRepo repository.DepartmentRepository
	ActorRepo      repository.ActorRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload. RequesterID is only
// honoured for staff filing on someone's behalf.
type TicketCreateInput struct {
	DepartmentID string
	Title        string
	Description  string
	Priority     domain.TicketPriority
	RequesterID  *string
}

// TicketUpdateInput holds editable ticket fields; nil leaves a field alone.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
}

// TicketListFilter describes listing filters. Visibility scoping is applied
// on top from the caller's role.
type TicketListFilter struct {
	DepartmentID *string
	AssigneeID   *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// FAQEscalationInput turns an unsatisfying FAQ answer into a ticket.
type FAQEscalationInput struct {
	DepartmentID string
	Question     string
	Answer       string
	Confidence   float64
	Sources      []string
	Priority     domain.TicketPriority
	RequesterID  *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		departments: deps.DepartmentRepo,
		actors:      deps.ActorRepo,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// Create files a new ticket. End users file for themselves; staff may file on
// behalf of another requester, in which case the creator is recorded apart.
func (s *TicketService) Create(ctx context.Context, actor *domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, apperrors.NewFieldError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperrors.NewFieldError("title", "title is too long")
	}
	if description == "" {
		return nil, apperrors.NewFieldError("description", "description is required")
	}
	ticket, err := s.newTicket(ctx, actor, input.DepartmentID, input.RequesterID, input.Priority)
	if err != nil {
		return nil, err
	}
	ticket.Title = title
	ticket.Description = description

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishCreated(ctx, actor, ticket)
	return ticket, nil
}

// EscalateFromFAQ creates a ticket from a FAQ question together with an
// ESCALATION system comment carrying the question and the answer given.
func (s *TicketService) EscalateFromFAQ(ctx context.Context, actor *domain.Actor, input FAQEscalationInput) (*domain.Ticket, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.NewFieldError("question", "question is required")
	}
	if input.Confidence < 0 || input.Confidence > 1 {
		return nil, apperrors.NewFieldError("confidence", "confidence must be between 0 and 1")
	}
	ticket, err := s.newTicket(ctx, actor, input.DepartmentID, input.RequesterID, input.Priority)
	if err != nil {
		return nil, err
	}
	ticket.Title = stringPreview(question, maxTitleLength-3)
	ticket.Description = question

	answer := strings.TrimSpace(input.Answer)
	sources := input.Sources
	if sources == nil {
		sources = []string{}
	}
	comment := &domain.Comment{
		Type:    domain.CommentTypeEscalation,
		Content: "Escalated from FAQ assistant",
		Metadata: map[string]any{
			"question":   question,
			"answer":     answer,
			"confidence": input.Confidence,
			"sources":    sources,
		},
	}
	if err := s.tickets.Create(ctx, ticket, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishCreated(ctx, actor, ticket)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketEscalatedPayload{
			CommentID: comment.ID,
			Question:  stringPreview(question, 120),
		},
	})
	return ticket, nil
}

func (s *TicketService) newTicket(ctx context.Context, actor *domain.Actor, departmentID string, requesterID *string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if actor == nil || !actor.IsActive {
		return nil, apperrors.NewPermissionDenied("inactive actors cannot file tickets", nil)
	}
	if departmentID == "" {
		return nil, apperrors.NewFieldError("department_id", "department is required")
	}
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewFieldError("priority", "unknown priority")
	}

	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewFieldError("department_id", "department is inactive")
	}

	requester := actor.ID
	if requesterID != nil && *requesterID != "" && *requesterID != actor.ID {
		if !actor.Role.IsStaff() {
			return nil, apperrors.NewPermissionDenied("only staff may file tickets for others", nil)
		}
		other, err := s.actors.GetByID(ctx, *requesterID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("requester", map[string]any{"requester_id": *requesterID})
			}
			return nil, apperrors.MapError(err)
		}
		if !other.IsActive {
			return nil, apperrors.NewFieldError("requester_id", "requester is inactive")
		}
		requester = other.ID
	}

	return &domain.Ticket{
		ExternalKey:  generateTicketKey(),
		Status:       domain.TicketStatusOpen,
		Priority:     priority,
		DepartmentID: dept.ID,
		RequesterID:  requester,
		CreatedByID:  actor.ID,
	}, nil
}

func (s *TicketService) publishCreated(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket) {
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			RequesterID:  ticket.RequesterID,
			CreatedByID:  ticket.CreatedByID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
}

// Get returns the ticket and what actor may do with it.
func (s *TicketService) Get(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, policy.Capabilities, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, policy.None, err
	}
	caps := policy.Resolve(actor, ticket)
	if !caps.CanView {
		return nil, policy.None, apperrors.NewPermissionDenied("not allowed to view ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return ticket, caps, nil
}

// Update edits title, description or priority. Priority is staff-only.
func (s *TicketService) Update(ctx context.Context, actor *domain.Actor, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanEdit {
		return nil, apperrors.NewPermissionDenied("not allowed to edit ticket", map[string]any{"ticket_id": ticket.ID})
	}

	updated := *ticket
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
			return nil, apperrors.NewFieldError("title", "title must be 1-200 characters")
		}
		updated.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewFieldError("description", "description is required")
		}
		updated.Description = description
	}
	if input.Priority != nil {
		if !actor.Role.IsStaff() {
			return nil, apperrors.NewPermissionDenied("only staff may change priority", nil)
		}
		if !input.Priority.Valid() {
			return nil, apperrors.NewFieldError("priority", "unknown priority")
		}
		updated.Priority = *input.Priority
	}

	if err := s.tickets.Update(ctx, &updated); err != nil {
		return nil, apperrors.MapError(err)
	}
	return &updated, nil
}

// List returns tickets visible to actor that match filter.
func (s *TicketService) List(ctx context.Context, actor *domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil || !actor.IsActive {
		return nil, apperrors.NewPermissionDenied("inactive actors cannot list tickets", nil)
	}
	repoFilter := repository.TicketFilter{
		DepartmentID: filter.DepartmentID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if !applyVisibilityScope(&repoFilter, actor) {
		return []domain.Ticket{}, nil
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// applyVisibilityScope narrows filter to what actor can view. It returns false
// when actor can see nothing at all.
func applyVisibilityScope(filter *repository.TicketFilter, actor *domain.Actor) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return true
	case domain.RoleManager, domain.RoleTeamLead, domain.RoleAgent:
		if actor.DepartmentID == nil {
			return false
		}
		if filter.DepartmentID != nil && *filter.DepartmentID != *actor.DepartmentID {
			return false
		}
		filter.DepartmentID = actor.DepartmentID
		if actor.Role == domain.RoleAgent {
			filter.InvolvedID = strPtr(actor.ID)
		}
		return true
	case domain.RoleEndUser:
		filter.OwnerID = strPtr(actor.ID)
		return true
	default:
		return false
	}
}
