package leavebalance_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/leavebalance"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	balanceMock "go-leave/internal/leavebalance/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func setupHandlerTest(t *testing.T) (*balanceMock.MockService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := balanceMock.NewMockService(ctrl)
	h := leavebalance.NewHandler(svc, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", int64(7))
		c.Next()
	})
	r.GET("/leave-balance/left", h.GetCurrent)
	r.GET("/leave-balances/me", h.ListMine)
	r.GET("/leave-balances", h.ListByYear)
	r.GET("/leave-balances/users/:user_id", h.ListByUser)
	r.PUT("/leave-balances/users/:user_id/years/:year", h.Allocate)
	return svc, r
}

func TestHandler_GetCurrent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().GetCurrent(gomock.Any(), int64(7)).
			Return(leavebalance.BalanceResponse{UserID: 7, Year: 2025, TotalDays: 12, RemainingDays: 12}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-balance/left", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"remaining_days":12`)
	})

	t.Run("no balance", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().GetCurrent(gomock.Any(), int64(7)).
			Return(leavebalance.BalanceResponse{}, leavebalanceerrors.ErrBalanceNotFound)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-balance/left", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})
}

func TestHandler_ListByYear(t *testing.T) {
	svc, r := setupHandlerTest(t)
	svc.EXPECT().ListByYear(gomock.Any(), 2025).Return([]leavebalance.BalanceResponse{
		{UserID: 1}, {UserID: 2}, {UserID: 3},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-balances?year=2025&page=2&page_size=2", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []leavebalance.BalanceResponse `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 1)
	assert.Equal(t, int64(3), body.Data[0].UserID)
	assert.Equal(t, 3, body.Meta.Total)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-balances?year=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Allocate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Allocate(gomock.Any(), int64(3), 2025, 0).
			Return(leavebalance.BalanceResponse{UserID: 3, Year: 2025}, nil)

		req := httptest.NewRequest(http.MethodPut, "/leave-balances/users/3/years/2025", bytes.NewBufferString(`{"total_days":0}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing body field", func(t *testing.T) {
		_, r := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodPut, "/leave-balances/users/3/years/2025", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("bad user id", func(t *testing.T) {
		_, r := setupHandlerTest(t)

		req := httptest.NewRequest(http.MethodPut, "/leave-balances/users/x/years/2025", bytes.NewBufferString(`{"total_days":3}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("below used", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Allocate(gomock.Any(), int64(3), 2025, 1).
			Return(leavebalance.BalanceResponse{}, leavebalanceerrors.ErrTotalBelowUsed)

		req := httptest.NewRequest(http.MethodPut, "/leave-balances/users/3/years/2025", bytes.NewBufferString(`{"total_days":1}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})
}
