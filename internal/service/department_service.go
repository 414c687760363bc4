package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/repository"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// DepartmentService maintains the department tree.
type DepartmentService struct {
	departments repository.DepartmentRepository
	logger      *zap.Logger
}

// DepartmentInput describes a new department.
type DepartmentInput struct {
	Name        string
	Description string
	ParentID    *string
}

// NewDepartmentService creates the service.
func NewDepartmentService(departments repository.DepartmentRepository, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{departments: departments, logger: logger}
}

// List returns active departments.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if depts == nil {
		depts = []domain.Department{}
	}
	return depts, nil
}

// Create adds a department, optionally below an existing parent.
func (s *DepartmentService) Create(ctx context.Context, actor *domain.Actor, input DepartmentInput) (*domain.Department, error) {
	if err := requireGlobal(actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewFieldError("name", "name is required")
	}
	dept := &domain.Department{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if input.ParentID != nil && *input.ParentID != "" {
		if _, err := s.get(ctx, *input.ParentID); err != nil {
			return nil, err
		}
		dept.ParentID = input.ParentID
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("department created", zap.String("department_id", dept.ID), zap.String("actor_id", actor.ID))
	return dept, nil
}

// SetParent moves a department below parentID, or to the top when parentID is
// nil. Moves that would make a department its own ancestor are rejected.
func (s *DepartmentService) SetParent(ctx context.Context, actor *domain.Actor, departmentID string, parentID *string) (*domain.Department, error) {
	if err := requireGlobal(actor); err != nil {
		return nil, err
	}
	dept, err := s.get(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if parentID != nil && *parentID != "" {
		if *parentID == dept.ID {
			return nil, apperrors.NewFieldError("parent_id", "department cannot be its own parent")
		}
		if err := s.checkNoCycle(ctx, dept.ID, *parentID); err != nil {
			return nil, err
		}
		dept.ParentID = parentID
	} else {
		dept.ParentID = nil
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// checkNoCycle walks up from parentID and fails if it reaches departmentID.
func (s *DepartmentService) checkNoCycle(ctx context.Context, departmentID, parentID string) error {
	visited := map[string]struct{}{}
	current := parentID
	for current != "" {
		if current == departmentID {
			return apperrors.NewValidationError("department hierarchy would contain a cycle",
				map[string]any{"field": "parent_id", "department_id": departmentID, "parent_id": parentID})
		}
		if _, ok := visited[current]; ok {
			return apperrors.NewConflict("department hierarchy already contains a cycle", map[string]any{"department_id": current})
		}
		visited[current] = struct{}{}
		ancestor, err := s.get(ctx, current)
		if err != nil {
			return err
		}
		current = derefString(ancestor.ParentID)
	}
	return nil
}

func (s *DepartmentService) get(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

func requireGlobal(actor *domain.Actor) error {
	if actor == nil || !actor.IsActive || !actor.Role.IsGlobal() {
		return apperrors.NewPermissionDenied("administrator role required", nil)
	}
	return nil
}
