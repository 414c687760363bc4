package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

func deptTree(repo *MockDepartmentRepository, parents map[string]string) {
	for id, parent := range parents {
		d := &domain.Department{ID: id, Name: id, IsActive: true}
		if parent != "" {
			d.ParentID = strPtr(parent)
		}
		repo.On("GetByID", mock.Anything, id).Return(d, nil).Maybe()
	}
}

func TestDepartmentCreateRequiresGlobalRole(t *testing.T) {
	svc := NewDepartmentService(new(MockDepartmentRepository), nil)
	_, err := svc.Create(context.Background(), actorWith("mgr", domain.RoleManager, deptA), DepartmentInput{Name: "Ops"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
}

func TestDepartmentCreateUnderParent(t *testing.T) {
	repo := new(MockDepartmentRepository)
	deptTree(repo, map[string]string{"root": ""})
	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Department) bool {
		return d.Name == "Ops" && *d.ParentID == "root" && d.IsActive
	})).Return(nil).Once()

	svc := NewDepartmentService(repo, nil)
	_, err := svc.Create(context.Background(), actorWith("admin", domain.RoleAdmin, ""), DepartmentInput{Name: " Ops ", ParentID: strPtr("root")})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSetParentRejectsCycles(t *testing.T) {
	// root <- a <- b <- c
	repo := new(MockDepartmentRepository)
	deptTree(repo, map[string]string{"root": "", "a": "root", "b": "a", "c": "b"})
	svc := NewDepartmentService(repo, nil)
	admin := actorWith("admin", domain.RoleSuperAdmin, "")

	_, err := svc.SetParent(context.Background(), admin, "a", strPtr("a"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SetParent(context.Background(), admin, "a", strPtr("c"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetParentMovesAndDetaches(t *testing.T) {
	repo := new(MockDepartmentRepository)
	deptTree(repo, map[string]string{"root": "", "a": "root", "b": ""})
	repo.On("Update", mock.Anything, mock.Anything).Return(nil).Twice()
	svc := NewDepartmentService(repo, nil)
	admin := actorWith("admin", domain.RoleAdmin, "")

	moved, err := svc.SetParent(context.Background(), admin, "b", strPtr("a"))
	require.NoError(t, err)
	assert.Equal(t, "a", *moved.ParentID)

	detached, err := svc.SetParent(context.Background(), admin, "a", nil)
	require.NoError(t, err)
	assert.Nil(t, detached.ParentID)
}

func TestSetParentReportsExistingCycle(t *testing.T) {
	repo := new(MockDepartmentRepository)
	deptTree(repo, map[string]string{"x": "y", "y": "x", "n": ""})
	svc := NewDepartmentService(repo, nil)

	_, err := svc.SetParent(context.Background(), actorWith("admin", domain.RoleAdmin, ""), "n", strPtr("x"))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}
