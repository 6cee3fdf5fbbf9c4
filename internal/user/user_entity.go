package user

import "time"

const RoleEmployee = "employee"

type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Username  string    `gorm:"column:username;type:varchar(100);uniqueIndex;not null"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	Email     string    `gorm:"column:email;type:varchar(255);not null"`
	Password  string    `gorm:"column:password;type:varchar(255);not null"`
	Role      string    `gorm:"column:role;type:varchar(20);not null;default:employee"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// EmployeeWithBalance is one row of the employee listing joined with the
// balance of a given year. Balance columns are nil when no row exists.
type EmployeeWithBalance struct {
	ID              int64
	Username        string
	Name            string
	Email           string
	TotalDays       *int
	UsedDays        *int
	CarriedOverDays *int
}
