package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavebalance"
	leavebalanceerrors "go-leave/internal/leavebalance/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, userID int64, req CreateLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actorID int64, id string) (LeaveResponse, error)
	Reject(ctx context.Context, actorID int64, id, reason string) (LeaveResponse, error)
	Delete(ctx context.Context, actorID int64, canDeleteAny bool, id string) (bool, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	ListMine(ctx context.Context, userID int64) ([]LeaveResponse, error)
	ListAll(ctx context.Context) ([]LeaveResponse, error)
	ListByUser(ctx context.Context, userID int64) ([]LeaveResponse, error)
}

// BalanceCache drops cached balances after an approval changes them.
type BalanceCache interface {
	Invalidate(ctx context.Context, userID int64, year int)
}

type service struct {
	db           *sql.DB
	repo         Repository
	balances     leavebalance.Repository
	outbox       kafka.OutboxRepository
	cache        BalanceCache
	logger       *zap.Logger
	location     *time.Location
	storeTimeout time.Duration
	clock        func() time.Time
}

type Option func(*service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func WithBalanceCache(cache BalanceCache) Option {
	return func(s *service) { s.cache = cache }
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewService(db *sql.DB, repo Repository, balances leavebalance.Repository, opts ...Option) Service {
	s := &service{
		db:           db,
		repo:         repo,
		balances:     balances,
		logger:       zap.L().Named("leave.service"),
		location:     time.Local,
		storeTimeout: 5 * time.Second,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) today() time.Time {
	now := s.clock().In(s.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) Create(ctx context.Context, userID int64, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("create leave request requested",
		zap.Int64("user_id", userID),
		zap.Strings("leave_dates", req.LeaveDates),
	)

	if userID <= 0 {
		return LeaveResponse{}, leaveerrors.ErrInvalidUserID
	}
	dates, year, err := s.validateCreate(req)
	if err != nil {
		s.logger.Warn("create leave request validation failed", zap.Int64("user_id", userID), zap.Error(err))
		return LeaveResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	overlap, err := s.repo.HasOverlap(ctx, userID, dates)
	if err != nil {
		s.logger.Error("create leave request overlap check failed", zap.Int64("user_id", userID), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	if overlap {
		s.logger.Warn("create leave request overlap detected",
			zap.Int64("user_id", userID),
			zap.Strings("leave_dates", dates.Strings()),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	balance, err := s.balances.Find(ctx, userID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("create leave request without balance", zap.Int64("user_id", userID), zap.Int("year", year))
			return LeaveResponse{}, leavebalanceerrors.ErrNoBalance
		}
		s.logger.Error("create leave request balance lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	if remaining := balance.Remaining(); len(dates) > remaining {
		s.logger.Warn("create leave request over quota",
			zap.Int64("user_id", userID),
			zap.Int("requested", len(dates)),
			zap.Int("remaining", remaining),
		)
		return LeaveResponse{}, leavebalanceerrors.ErrQuotaExceeded.WithMessage(
			fmt.Sprintf("not enough leave quota, remaining: %d, requested: %d", remaining, len(dates)),
		)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave request begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	defer tx.Rollback()

	l := &LeaveRequest{
		ID:         uuid.New(),
		UserID:     userID,
		Reason:     strings.TrimSpace(req.Reason),
		LeaveDates: dates,
		LedgerYear: year,
		Status:     StatusPending,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("create leave request persist failed", zap.Int64("user_id", userID), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}

	if err := s.queueEvent(ctx, tx, events.LeaveRequestCreated, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave request commit failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	s.logger.Info("create leave request success",
		zap.String("leave_request_id", l.ID.String()),
		zap.Int64("user_id", userID),
		zap.Int("days", len(dates)),
	)

	return mapToResponse(*l), nil
}

// validateCreate returns the requested dates sorted ascending and the ledger
// year, taken from the first date in submission order.
func (s *service) validateCreate(req CreateLeaveRequest) (LeaveDates, int, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, 0, leaveerrors.ErrReasonRequired
	}
	if len(req.LeaveDates) == 0 {
		return nil, 0, leaveerrors.ErrDatesRequired
	}

	dates := make(LeaveDates, 0, len(req.LeaveDates))
	seen := make(map[time.Time]struct{}, len(req.LeaveDates))
	for _, raw := range req.LeaveDates {
		d, err := time.Parse(DateLayout, strings.TrimSpace(raw))
		if err != nil {
			return nil, 0, leaveerrors.ErrInvalidDateFormat.WithMessage(
				fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw),
			)
		}
		if _, dup := seen[d]; dup {
			return nil, 0, leaveerrors.ErrDuplicateDates.WithMessage(
				fmt.Sprintf("leave date %s is listed more than once", d.Format(DateLayout)),
			)
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}

	today := s.today()
	for _, d := range dates {
		if !d.After(today) {
			return nil, 0, leaveerrors.ErrDateNotInFuture.WithMessage(
				fmt.Sprintf("the selected leave date (%s) must be a future date", d.Format(DateLayout)),
			)
		}
	}

	return dates.Sorted(), dates[0].Year(), nil
}

func (s *service) Approve(ctx context.Context, actorID int64, id string) (LeaveResponse, error) {
	s.logger.Debug("approve leave request requested",
		zap.String("leave_request_id", id),
		zap.Int64("actor_id", actorID),
	)

	requestID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve leave request begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.findPending(ctx, qtx, requestID)
	if err != nil {
		return LeaveResponse{}, err
	}

	decidedAt := s.clock().UTC()
	affected, err := qtx.Decide(ctx, Decision{
		ID:            l.ID,
		Status:        StatusApproved,
		ApprovedDates: l.LeaveDates,
		DecidedAt:     decidedAt,
		DecidedBy:     actorID,
	})
	if err != nil {
		s.logger.Error("approve leave request persist failed", zap.String("leave_request_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	if affected == 0 {
		s.logger.Warn("approve leave request lost race", zap.String("leave_request_id", id))
		return LeaveResponse{}, leaveerrors.ErrInvalidState
	}

	year := l.LedgerYear
	balance, err := leavebalance.Consume(ctx, s.balances.WithTx(tx), l.UserID, year, len(l.LeaveDates))
	if err != nil {
		if apperror.HasCode(err, apperror.CodeQuotaExceeded) {
			s.logger.Warn("approve leave request over quota",
				zap.String("leave_request_id", id),
				zap.Int64("user_id", l.UserID),
				zap.Int("remaining", balance.Remaining()),
			)
		} else {
			s.logger.Error("approve leave request consume failed", zap.String("leave_request_id", id), zap.Error(err))
		}
		return LeaveResponse{}, apperror.FromStore(err)
	}

	l.Status = StatusApproved
	l.RejectReason = nil
	l.ApprovedDates = l.LeaveDates
	l.DecidedAt = &decidedAt
	l.DecidedBy = &actorID

	if err := s.queueEvent(ctx, tx, events.LeaveRequestDecided, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve leave request commit failed", zap.String("leave_request_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, l.UserID, year)
	}

	s.logger.Info("approve leave request success",
		zap.String("leave_request_id", id),
		zap.Int64("user_id", l.UserID),
		zap.Int("year", year),
		zap.Int("used_days", balance.UsedDays),
	)
	return mapToResponse(*l), nil
}

func (s *service) Reject(ctx context.Context, actorID int64, id, reason string) (LeaveResponse, error) {
	s.logger.Debug("reject leave request requested",
		zap.String("leave_request_id", id),
		zap.Int64("actor_id", actorID),
	)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectReasonRequired
	}
	requestID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject leave request begin tx failed", zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := s.findPending(ctx, qtx, requestID)
	if err != nil {
		return LeaveResponse{}, err
	}

	decidedAt := s.clock().UTC()
	affected, err := qtx.Decide(ctx, Decision{
		ID:           l.ID,
		Status:       StatusRejected,
		RejectReason: &reason,
		DecidedAt:    decidedAt,
		DecidedBy:    actorID,
	})
	if err != nil {
		s.logger.Error("reject leave request persist failed", zap.String("leave_request_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}
	if affected == 0 {
		s.logger.Warn("reject leave request lost race", zap.String("leave_request_id", id))
		return LeaveResponse{}, leaveerrors.ErrInvalidState
	}

	l.Status = StatusRejected
	l.RejectReason = &reason
	l.ApprovedDates = nil
	l.DecidedAt = &decidedAt
	l.DecidedBy = &actorID

	if err := s.queueEvent(ctx, tx, events.LeaveRequestDecided, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject leave request commit failed", zap.String("leave_request_id", id), zap.Error(err))
		return LeaveResponse{}, apperror.FromStore(err)
	}

	s.logger.Info("reject leave request success", zap.String("leave_request_id", id))
	return mapToResponse(*l), nil
}

func (s *service) findPending(ctx context.Context, repo Repository, id uuid.UUID) (*LeaveRequest, error) {
	l, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("find leave request failed", zap.String("leave_request_id", id.String()), zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	if l.Status != StatusPending {
		s.logger.Warn("leave request already decided",
			zap.String("leave_request_id", id.String()),
			zap.String("status", l.Status),
		)
		return nil, leaveerrors.ErrInvalidState
	}
	return l, nil
}

// Delete removes a request in any state and reports whether it existed.
// Days already consumed by an approval stay consumed.
func (s *service) Delete(ctx context.Context, actorID int64, canDeleteAny bool, id string) (bool, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return false, leaveerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if !canDeleteAny {
		l, err := s.repo.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, apperror.FromStore(err)
		}
		if l.UserID != actorID {
			s.logger.Warn("delete leave request by non-owner",
				zap.String("leave_request_id", id),
				zap.Int64("actor_id", actorID),
				zap.Int64("owner_id", l.UserID),
			)
			return false, leaveerrors.ErrNotOwner
		}
	}

	affected, err := s.repo.Delete(ctx, requestID)
	if err != nil {
		s.logger.Error("delete leave request failed", zap.String("leave_request_id", id), zap.Error(err))
		return false, apperror.FromStore(err)
	}

	s.logger.Info("delete leave request",
		zap.String("leave_request_id", id),
		zap.Int64("actor_id", actorID),
		zap.Bool("existed", affected > 0),
	)
	return affected > 0, nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	l, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, apperror.FromStore(err)
	}
	return mapToResponse(*l), nil
}

func (s *service) ListAll(ctx context.Context) ([]LeaveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	requests, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list leave requests failed", zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]LeaveResponse, error) {
	return s.ListByUser(ctx, userID)
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]LeaveResponse, error) {
	if userID <= 0 {
		return nil, leaveerrors.ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	requests, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("list leave requests by user failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperror.FromStore(err)
	}
	return mapToListResponse(requests), nil
}

func (s *service) queueEvent(ctx context.Context, tx *sql.Tx, eventType string, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	payload := events.LeaveRequestEvent{
		EventType:      eventType,
		RequestID:      rid,
		LeaveRequestID: l.ID.String(),
		UserID:         l.UserID,
		Status:         l.Status,
		LeaveDates:     l.LeaveDates.Strings(),
		Reason:         l.Reason,
		OccurredAt:     s.clock().UTC(),
	}
	if l.RejectReason != nil {
		payload.RejectReason = *l.RejectReason
	}
	if l.DecidedBy != nil {
		payload.DecidedBy = *l.DecidedBy
	}

	event, err := kafka.NewOutboxEvent(rid, "leave_request", l.ID.String(), eventType, events.LeaveRequestTopic, payload)
	if err != nil {
		s.logger.Error("leave request event marshal failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}
	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		s.logger.Error("leave request outbox persist failed",
			zap.String("leave_request_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return apperror.FromStore(err)
	}
	return nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:            l.ID.String(),
		UserID:        l.UserID,
		Reason:        l.Reason,
		LeaveDates:    l.LeaveDates.Strings(),
		LedgerYear:    l.LedgerYear,
		Status:        l.Status,
		ApprovedDates: l.ApprovedDates.Strings(),
		RejectReason:  l.RejectReason,
		DecidedBy:     l.DecidedBy,
		CreatedAt:     l.CreatedAt.Format(time.RFC3339),
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}
