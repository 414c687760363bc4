package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// BulkOperation is either AssignOperation or StatusOperation.
type BulkOperation interface {
	Name() string
}

// AssignOperation assigns every ticket to AssigneeID.
type AssignOperation struct {
	AssigneeID string
}

// Name implements BulkOperation.
func (AssignOperation) Name() string { return "assign" }

// StatusOperation moves every ticket to Status.
type StatusOperation struct {
	Status domain.TicketStatus
}

// Name implements BulkOperation.
func (StatusOperation) Name() string { return "status" }

// BulkRecorder receives the outcome of each bulk request.
type BulkRecorder interface {
	RecordBulk(operation string, success, failure int)
}

// BulkService applies one change to many tickets. Tickets are processed
// independently: a failure is reported for that ticket and never undoes the
// others.
type BulkService struct {
	tickets        repository.TicketRepository
	workflow       *WorkflowService
	assignments    *AssignmentService
	recorder       BulkRecorder
	logger         *zap.Logger
	maxConcurrency int
	maxItems       int
}

// BulkDependencies bundles collaborators for BulkService.
type BulkDependencies struct {
	TicketRepo     repository.TicketRepository
	Workflow       *WorkflowService
	Assignments    *AssignmentService
	Recorder       BulkRecorder
	Logger         *zap.Logger
	MaxConcurrency int
	MaxItems       int
}

// NewBulkService creates the service.
func NewBulkService(deps BulkDependencies) *BulkService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.MaxConcurrency <= 0 {
		deps.MaxConcurrency = 8
	}
	return &BulkService{
		tickets:        deps.TicketRepo,
		workflow:       deps.Workflow,
		assignments:    deps.Assignments,
		recorder:       deps.Recorder,
		logger:         deps.Logger,
		maxConcurrency: deps.MaxConcurrency,
		maxItems:       deps.MaxItems,
	}
}

type itemFunc func(ctx context.Context, ticket *domain.Ticket) error

// Apply runs op against every distinct id in ticketIDs. The returned error is
// only set for a malformed request; per-ticket failures are in the result,
// whose counts always add up to the number of distinct ids.
func (s *BulkService) Apply(ctx context.Context, actor *domain.Actor, ticketIDs []string, op BulkOperation) (domain.BulkOperationResult, error) {
	ids := dedupe(ticketIDs)
	if s.maxItems > 0 && len(ids) > s.maxItems {
		return domain.BulkOperationResult{}, apperrors.NewValidationError("too many tickets in one request",
			map[string]any{"field": "ticket_ids", "max_items": s.maxItems, "count": len(ids)})
	}
	if op == nil {
		return domain.BulkOperationResult{}, apperrors.NewFieldError("operation", "operation is required")
	}
	if _, ok := op.(AssignOperation); ok && !policy.CanAssign(actor) {
		return domain.BulkOperationResult{}, apperrors.NewPermissionDenied("not allowed to assign tickets", nil)
	}
	result := domain.BulkOperationResult{Errors: []string{}}
	if len(ids) == 0 {
		return result, nil
	}

	apply, prepErr := s.prepare(ctx, actor, op)

	outcomes := make([]error, len(ids))
	if prepErr != nil {
		for i := range ids {
			outcomes[i] = prepErr
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.maxConcurrency)
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				outcomes[i] = err
				continue
			}
			i, id := i, id
			g.Go(func() error {
				outcomes[i] = s.applyOne(ctx, id, apply)
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, err := range outcomes {
		if err == nil {
			result.SuccessCount++
			continue
		}
		result.FailureCount++
		result.Errors = append(result.Errors, fmt.Sprintf("ticket %s: %s", ids[i], failureMessage(err)))
	}

	if s.recorder != nil {
		s.recorder.RecordBulk(op.Name(), result.SuccessCount, result.FailureCount)
	}
	s.logger.Info("bulk operation finished",
		zap.String("operation", op.Name()),
		zap.String("actor_id", actor.ID),
		zap.Int("requested", len(ids)),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount))
	return result, nil
}

// prepare validates request-wide inputs once and returns the per-ticket step.
// An error here fails every item rather than the request.
func (s *BulkService) prepare(ctx context.Context, actor *domain.Actor, op BulkOperation) (itemFunc, error) {
	switch o := op.(type) {
	case AssignOperation:
		assignee, err := s.assignments.ResolveAssignee(ctx, o.AssigneeID)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, ticket *domain.Ticket) error {
			_, err := s.assignments.Assign(ctx, actor, ticket, assignee)
			return err
		}, nil
	case StatusOperation:
		return func(ctx context.Context, ticket *domain.Ticket) error {
			_, err := s.workflow.Transition(ctx, actor, ticket, o.Status)
			return err
		}, nil
	default:
		return nil, apperrors.NewFieldError("operation", fmt.Sprintf("unsupported operation %T", op))
	}
}

func (s *BulkService) applyOne(ctx context.Context, ticketID string, apply itemFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return err
	}
	return apply(ctx, ticket)
}

func failureMessage(err error) string {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "not processed: " + err.Error()
	}
	return err.Error()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
