package leavebalance

type AllocateRequest struct {
	TotalDays *int `json:"total_days" binding:"required,min=0"`
}

type BalanceResponse struct {
	UserID          int64 `json:"user_id"`
	Year            int   `json:"year"`
	TotalDays       int   `json:"total_days"`
	UsedDays        int   `json:"used_days"`
	CarriedOverDays int   `json:"carried_over_days"`
	RemainingDays   int   `json:"remaining_days"`
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		UserID:          b.UserID,
		Year:            b.Year,
		TotalDays:       b.TotalDays,
		UsedDays:        b.UsedDays,
		CarriedOverDays: b.CarriedOverDays,
		RemainingDays:   b.Remaining(),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
