package rbac

import (
	"context"

	"go-leave/internal/domain"

	"gorm.io/gorm"
)

type RolePermissionRow struct {
	Role     string `gorm:"primaryKey;type:varchar(20)"`
	Resource string `gorm:"primaryKey;type:varchar(50)"`
	Action   string `gorm:"primaryKey;type:varchar(50)"`
}

func (RolePermissionRow) TableName() string {
	return "role_permissions"
}

// DefaultPermissions is used when the role_permissions table is empty.
var DefaultPermissions = []RolePermissionRow{
	{Role: domain.RoleEmployee, Resource: "leave_request", Action: "create"},
	{Role: domain.RoleEmployee, Resource: "leave_request", Action: "read"},
	{Role: domain.RoleEmployee, Resource: "leave_request", Action: "delete"},
	{Role: domain.RoleEmployee, Resource: "leave_balance", Action: "read"},

	{Role: domain.RoleManager, Resource: "leave_request", Action: "read"},
	{Role: domain.RoleManager, Resource: "leave_request", Action: "read_all"},
	{Role: domain.RoleManager, Resource: "leave_request", Action: "approve"},
	{Role: domain.RoleManager, Resource: "leave_request", Action: "delete"},
	{Role: domain.RoleManager, Resource: "leave_request", Action: "delete_any"},
	{Role: domain.RoleManager, Resource: "leave_balance", Action: "read"},
	{Role: domain.RoleManager, Resource: "leave_balance", Action: "read_all"},
	{Role: domain.RoleManager, Resource: "leave_balance", Action: "allocate"},
	{Role: domain.RoleManager, Resource: "employee", Action: "read"},
	{Role: domain.RoleManager, Resource: "employee", Action: "manage"},
	{Role: domain.RoleManager, Resource: "rbac", Action: "manage"},
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermissionRow, error) {
	var result []RolePermissionRow
	err := r.db.WithContext(ctx).
		Order("role, resource, action").
		Find(&result).Error
	return result, err
}
