package rbac

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/domain"
	"go-leave/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeRepo struct {
	GetRolePermissionsFn func(ctx context.Context) ([]RolePermissionRow, error)
}

func (f *fakeRepo) GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error) {
	return f.GetRolePermissionsFn(ctx)
}

func setupRBACServiceTest(t *testing.T, rows []RolePermissionRow, err error) Service {
	t.Helper()
	enforcer, eErr := infra.NewEnforcer()
	assert.NoError(t, eErr)

	repo := &fakeRepo{GetRolePermissionsFn: func(ctx context.Context) ([]RolePermissionRow, error) {
		return rows, err
	}}
	return NewService(repo, enforcer, zap.NewNop())
}

func TestService_LoadPolicy_Defaults(t *testing.T) {
	svc := setupRBACServiceTest(t, nil, nil)
	assert.NoError(t, svc.LoadPolicy(context.Background()))

	tests := []struct {
		role, resource, action string
		allowed                bool
	}{
		{domain.RoleEmployee, "leave_request", "create", true},
		{domain.RoleEmployee, "leave_request", "delete", true},
		{domain.RoleEmployee, "leave_request", "delete_any", false},
		{domain.RoleEmployee, "leave_request", "approve", false},
		{domain.RoleEmployee, "leave_balance", "allocate", false},
		{domain.RoleManager, "leave_request", "approve", true},
		{domain.RoleManager, "leave_request", "delete_any", true},
		{domain.RoleManager, "leave_balance", "allocate", true},
		{domain.RoleManager, "employee", "manage", true},
		{"guest", "leave_request", "read", false},
	}

	for _, tt := range tests {
		allowed, err := svc.Enforce(domain.EnforceRequest{Role: tt.role, Resource: tt.resource, Action: tt.action})
		assert.NoError(t, err)
		assert.Equal(t, tt.allowed, allowed, "%s %s:%s", tt.role, tt.resource, tt.action)
	}

	perms, err := svc.Permissions()
	assert.NoError(t, err)
	assert.Len(t, perms, len(DefaultPermissions))
}

func TestService_LoadPolicy_Stored(t *testing.T) {
	svc := setupRBACServiceTest(t, []RolePermissionRow{
		{Role: domain.RoleEmployee, Resource: "leave_request", Action: "approve"},
	}, nil)
	assert.NoError(t, svc.LoadPolicy(context.Background()))

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: domain.RoleEmployee, Resource: "leave_request", Action: "approve"})
	assert.NoError(t, err)
	assert.True(t, allowed)

	// stored policy replaces the defaults entirely
	denied, err := svc.Enforce(domain.EnforceRequest{Role: domain.RoleManager, Resource: "leave_request", Action: "approve"})
	assert.NoError(t, err)
	assert.False(t, denied)

	perms, _ := svc.Permissions()
	assert.Equal(t, []domain.PermissionResponse{
		{Role: domain.RoleEmployee, Resource: "leave_request", Action: "approve"},
	}, perms)
}

func TestService_LoadPolicy_RepoError(t *testing.T) {
	repoErr := errors.New("db down")
	svc := setupRBACServiceTest(t, nil, repoErr)

	err := svc.LoadPolicy(context.Background())
	assert.ErrorIs(t, err, repoErr)

	allowed, err := svc.Enforce(domain.EnforceRequest{Role: domain.RoleManager, Resource: "leave_request", Action: "approve"})
	assert.NoError(t, err)
	assert.False(t, allowed)
}
