package user

type CreateEmployeeRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type EmployeeResponse struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Year          int    `json:"year"`
	HasBalance    bool   `json:"has_balance"`
	RemainingDays int    `json:"remaining_days"`
}
