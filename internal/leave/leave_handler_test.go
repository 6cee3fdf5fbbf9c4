package leave_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	leaveMock "go-leave/internal/leave/mock"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func setupHandlerTest(t *testing.T, caps ...string) (*leaveMock.MockService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := leaveMock.NewMockService(ctrl)
	h := leave.NewHandler(svc, zap.NewNop())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", int64(7))
		for _, action := range caps {
			c.Set(middleware.CapabilityKey("leave_request", action), true)
		}
		c.Next()
	})
	r.GET("/leave-requests", h.List)
	r.GET("/leave-requests/all", h.ListAll)
	r.GET("/leave-requests/user/:user_id", h.ListByUser)
	r.GET("/leave-requests/:id", h.GetByID)
	r.POST("/leave-requests", h.Create)
	r.PUT("/leave-requests/:id/approve", h.Approve)
	r.PUT("/leave-requests/:id/reject", h.Reject)
	r.DELETE("/leave-requests/:id", h.Delete)
	return svc, r
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Create(gomock.Any(), int64(7), leave.CreateLeaveRequest{
			Reason:     "trip",
			LeaveDates: []string{"2025-03-12"},
		}).Return(leave.LeaveResponse{ID: "abc", Status: leave.StatusPending}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPost, "/leave-requests", `{"reason":"trip","leave_dates":["2025-03-12"]}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"pending"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, r := setupHandlerTest(t)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPost, "/leave-requests", `{"reason":`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("error codes", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
			code   string
		}{
			{"invalid date", leaveerrors.ErrDateNotInFuture, http.StatusBadRequest, "INVALID_DATE"},
			{"overlap", leaveerrors.ErrLeaveOverlap, http.StatusConflict, "CONFLICT"},
			{"no balance", leavebalanceerrors.ErrNoBalance, http.StatusUnprocessableEntity, "NO_BALANCE"},
			{"quota", leavebalanceerrors.ErrQuotaExceeded, http.StatusUnprocessableEntity, "QUOTA_EXCEEDED"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, r := setupHandlerTest(t)
				svc.EXPECT().Create(gomock.Any(), int64(7), gomock.Any()).Return(leave.LeaveResponse{}, tt.err)

				w := httptest.NewRecorder()
				r.ServeHTTP(w, jsonRequest(http.MethodPost, "/leave-requests", `{"reason":"x","leave_dates":["2025-03-12"]}`))

				assert.Equal(t, tt.status, w.Code)
				assert.Contains(t, w.Body.String(), tt.code)
			})
		}
	})
}

func TestHandler_List(t *testing.T) {
	t.Run("employee sees own", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().ListMine(gomock.Any(), int64(7)).Return([]leave.LeaveResponse{{ID: "a"}}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-requests", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":1`)
	})

	t.Run("manager sees all", func(t *testing.T) {
		svc, r := setupHandlerTest(t, "read_all")
		svc.EXPECT().ListAll(gomock.Any()).Return([]leave.LeaveResponse{{ID: "a"}, {ID: "b"}}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-requests", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":2`)
	})

	t.Run("by user rejects bad id", func(t *testing.T) {
		_, r := setupHandlerTest(t, "read_all")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-requests/user/abc", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Decide(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Approve(gomock.Any(), int64(7), "abc").
			Return(leave.LeaveResponse{ID: "abc", Status: leave.StatusApproved}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/leave-requests/abc/approve", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("approve decided request", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Approve(gomock.Any(), int64(7), "abc").Return(leave.LeaveResponse{}, leaveerrors.ErrInvalidState)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/leave-requests/abc/approve", nil))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_STATE")
	})

	t.Run("reject passes reason", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Reject(gomock.Any(), int64(7), "abc", "busy").
			Return(leave.LeaveResponse{ID: "abc", Status: leave.StatusRejected}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPut, "/leave-requests/abc/reject", `{"reason":"busy"}`))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("reject empty reason", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Reject(gomock.Any(), int64(7), "abc", "").
			Return(leave.LeaveResponse{}, leaveerrors.ErrRejectReasonRequired)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, jsonRequest(http.MethodPut, "/leave-requests/abc/reject", `{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_INPUT")
	})
}

func TestHandler_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		svc, r := setupHandlerTest(t, "delete_any")
		svc.EXPECT().Delete(gomock.Any(), int64(7), true, "abc").Return(true, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/leave-requests/abc", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"deleted":true`)
	})

	t.Run("missing is 404", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Delete(gomock.Any(), int64(7), false, "abc").Return(false, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/leave-requests/abc", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("not owner", func(t *testing.T) {
		svc, r := setupHandlerTest(t)
		svc.EXPECT().Delete(gomock.Any(), int64(7), false, "abc").Return(false, leaveerrors.ErrNotOwner)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/leave-requests/abc", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
