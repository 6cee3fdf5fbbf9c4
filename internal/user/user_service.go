package user

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"go-leave/internal/events"
	"go-leave/internal/leave"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	usererrors "go-leave/internal/user/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (UserResponse, error)
	DeleteEmployee(ctx context.Context, id int64) error
	ListEmployees(ctx context.Context) ([]EmployeeResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	requests leave.Repository
	balances leavebalance.Repository
	outbox   kafka.OutboxRepository
	location *time.Location
	clock    func() time.Time
	logger   *zap.Logger
	hashCost int

	storeTimeout time.Duration
}

type Option func(*service)

func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.location = loc
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

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("user.service")
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

// WithHashCost lowers the bcrypt cost, for tests.
func WithHashCost(cost int) Option {
	return func(s *service) { s.hashCost = cost }
}

func NewService(db *sql.DB, repo Repository, requests leave.Repository, balances leavebalance.Repository, opts ...Option) Service {
	s := &service{
		db:       db,
		repo:     repo,
		requests: requests,
		balances: balances,
		location: time.Local,
		clock:    time.Now,
		logger:   zap.L().Named("user.service"),
		hashCost: bcrypt.DefaultCost,

		storeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (UserResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	username := strings.TrimSpace(req.Username)
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if username == "" || name == "" || email == "" {
		return UserResponse{}, usererrors.ErrMissingRequiredFields
	}
	l.Debug("creating employee", zap.String("username", username))

	plain, err := generatePassword()
	if err != nil {
		l.Error("failed to generate password", zap.Error(err))
		return UserResponse{}, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), s.hashCost)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return UserResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		l.Error("username lookup failed", zap.Error(err))
		return UserResponse{}, apperror.FromStore(err)
	}
	if exists {
		return UserResponse{}, usererrors.ErrUsernameTaken
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserResponse{}, apperror.FromStore(err)
	}
	defer tx.Rollback()

	u := &User{
		Username: username,
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     RoleEmployee,
	}
	if err := s.repo.WithTx(tx).Create(ctx, u); err != nil {
		l.Error("failed to create employee", zap.Error(err))
		return UserResponse{}, apperror.FromStore(mapRepositoryError(err))
	}

	if s.outbox != nil {
		rid := contextutil.GetRequestID(ctx)
		event, err := kafka.NewOutboxEvent(rid, "user", int64String(u.ID), events.EmployeeCredentialsIssued, events.EmployeeCredentialsTopic,
			events.EmployeeCredentialsIssuedEvent{
				EventType:         events.EmployeeCredentialsIssued,
				RequestID:         rid,
				UserID:            u.ID,
				Username:          u.Username,
				Name:              u.Name,
				Email:             u.Email,
				TemporaryPassword: plain,
				OccurredAt:        s.clock().UTC(),
			},
		)
		if err != nil {
			return UserResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			l.Error("failed to queue credentials event", zap.Error(err))
			return UserResponse{}, apperror.FromStore(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return UserResponse{}, apperror.FromStore(err)
	}

	l.Info("employee created", zap.Int64("user_id", u.ID))
	return mapToResponse(*u), nil
}

// DeleteEmployee removes the user together with every request, balance and
// carry-over marker that references it.
func (s *service) DeleteEmployee(ctx context.Context, id int64) error {
	l := contextutil.GetLogger(ctx, s.logger)
	if id <= 0 {
		return usererrors.ErrInvalidUserID
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperror.FromStore(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	u, err := qtx.FindByID(ctx, id)
	if err != nil {
		return apperror.FromStore(mapRepositoryError(err))
	}
	if u.Role != RoleEmployee {
		return usererrors.ErrNotAnEmployee
	}

	if err := s.requests.WithTx(tx).DeleteByUser(ctx, id); err != nil {
		l.Error("failed to delete leave requests", zap.Int64("user_id", id), zap.Error(err))
		return apperror.FromStore(err)
	}
	if err := s.balances.WithTx(tx).DeleteByUser(ctx, id); err != nil {
		l.Error("failed to delete leave balances", zap.Int64("user_id", id), zap.Error(err))
		return apperror.FromStore(err)
	}
	if _, err := qtx.Delete(ctx, id); err != nil {
		l.Error("failed to delete user", zap.Int64("user_id", id), zap.Error(err))
		return apperror.FromStore(err)
	}

	if err := tx.Commit(); err != nil {
		return apperror.FromStore(err)
	}

	l.Info("employee deleted", zap.Int64("user_id", id))
	return nil
}

func (s *service) ListEmployees(ctx context.Context) ([]EmployeeResponse, error) {
	year := s.clock().In(s.location).Year()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rows, err := s.repo.FindEmployeesWithBalance(ctx, year)
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	resp := make([]EmployeeResponse, len(rows))
	for i, r := range rows {
		resp[i] = EmployeeResponse{
			ID:       r.ID,
			Username: r.Username,
			Name:     r.Name,
			Email:    r.Email,
			Year:     year,
		}
		if r.TotalDays != nil {
			b := leavebalance.LeaveBalance{
				TotalDays:       *r.TotalDays,
				UsedDays:        deref(r.UsedDays),
				CarriedOverDays: deref(r.CarriedOverDays),
			}
			resp[i].HasBalance = true
			resp[i].RemainingDays = b.Remaining()
		}
	}
	return resp, nil
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func int64String(v int64) string {
	return strconv.FormatInt(v, 10)
}

func mapToResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
