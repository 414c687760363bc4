package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/events"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// CommentService manages ticket discussion threads.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// CommentDependencies bundles collaborators for CommentService.
type CommentDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// AddCommentInput is a user-authored comment or reply.
type AddCommentInput struct {
	Content         string
	ParentCommentID *string
	IsInternal      bool
}

// NewCommentService creates the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &CommentService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// AddComment appends a comment to the ticket thread, or a reply when
// ParentCommentID is set. Replies nest at most two levels below a root.
func (s *CommentService) AddComment(ctx context.Context, actor *domain.Actor, ticketID string, input AddCommentInput) (*domain.Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewFieldError("content", "content must not be empty")
	}
	if utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return nil, apperrors.NewValidationError("content is too long",
			map[string]any{"field": "content", "max_length": domain.MaxCommentLength})
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanView {
		return nil, apperrors.NewPermissionDenied("not allowed to comment on ticket", map[string]any{"ticket_id": ticket.ID})
	}
	if input.IsInternal && !actor.Role.IsStaff() {
		return nil, apperrors.NewPermissionDenied("only staff may add internal comments", nil)
	}

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   strPtr(actor.ID),
		Type:       domain.CommentTypeComment,
		IsInternal: input.IsInternal,
		Content:    content,
	}

	if input.ParentCommentID != nil && *input.ParentCommentID != "" {
		parent, err := s.checkParent(ctx, actor, ticket.ID, *input.ParentCommentID)
		if err != nil {
			return nil, err
		}
		comment.ParentCommentID = strPtr(parent.ID)
		comment.Type = domain.CommentTypeReply
		if parent.IsInternal {
			comment.IsInternal = true
		}
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			CommentType: comment.Type,
			IsInternal:  comment.IsInternal,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(comment.Content, 120),
		},
	})
	return comment, nil
}

func (s *CommentService) checkParent(ctx context.Context, actor *domain.Actor, ticketID, parentID string) (*domain.Comment, error) {
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("parent comment", map[string]any{"parent_comment_id": parentID})
		}
		return nil, apperrors.MapError(err)
	}
	if parent.IsInternal && !actor.Role.IsStaff() {
		return nil, apperrors.NewNotFound("parent comment", map[string]any{"parent_comment_id": parentID})
	}
	if parent.TicketID != ticketID {
		return nil, apperrors.NewValidationError("parent comment belongs to another ticket",
			map[string]any{"field": "parent_comment_id"})
	}
	if parent.Type.IsSystem() {
		return nil, apperrors.NewValidationError("system comments cannot be replied to",
			map[string]any{"field": "parent_comment_id"})
	}
	depth, err := s.depthOf(ctx, parent)
	if err != nil {
		return nil, err
	}
	if depth >= domain.MaxCommentDepth {
		return nil, apperrors.NewValidationError("reply nesting too deep",
			map[string]any{"field": "parent_comment_id", "max_depth": domain.MaxCommentDepth})
	}
	return parent, nil
}

// depthOf counts ancestors of c, stopping at MaxCommentDepth. A missing
// ancestor ends the walk the same way a root does.
func (s *CommentService) depthOf(ctx context.Context, c *domain.Comment) (int, error) {
	depth := 0
	current := c
	for current.ParentCommentID != nil && depth < domain.MaxCommentDepth {
		ancestor, err := s.comments.GetByID(ctx, *current.ParentCommentID)
		if errors.Is(err, pgx.ErrNoRows) {
			break
		}
		if err != nil {
			return 0, apperrors.MapError(err)
		}
		depth++
		current = ancestor
	}
	return depth, nil
}

// GetThread returns the ticket's comments as trees. End users never see
// internal comments or replies beneath them.
func (s *CommentService) GetThread(ctx context.Context, actor *domain.Actor, ticketID string) ([]*domain.CommentNode, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.Resolve(actor, ticket).CanView {
		return nil, apperrors.NewPermissionDenied("not allowed to view ticket", map[string]any{"ticket_id": ticket.ID})
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	thread := BuildThread(comments)
	if !actor.Role.IsStaff() {
		thread = pruneInternal(thread)
	}
	return thread, nil
}
