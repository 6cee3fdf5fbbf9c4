package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/shared/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeRepo struct {
	GetByUsernameFn func(ctx context.Context, username string) (*User, error)
	GetByIDFn       func(ctx context.Context, id int64) (*User, error)
}

func (f *fakeRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return f.GetByUsernameFn(ctx, username)
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	return f.GetByIDFn(ctx, id)
}

const testSecret = "test-secret"

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	user := &User{ID: 42, Username: "alice", Name: "Alice", Email: "alice@example.com", Password: string(hashed), Role: "manager"}

	repo := &fakeRepo{
		GetByUsernameFn: func(_ context.Context, username string) (*User, error) {
			switch username {
			case "alice":
				return user, nil
			case "broken":
				return nil, errors.New("connection refused")
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewService(repo, testSecret, time.Hour, zap.NewNop())

	t.Run("issues token carrying id and role", func(t *testing.T) {
		resp, err := svc.Login(ctx, "alice", "s3cret")
		assert.NoError(t, err)
		assert.Equal(t, int64(42), resp.User.ID)
		assert.NotEmpty(t, resp.ExpiresAt)

		token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		assert.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, float64(42), claims["user_id"])
		assert.Equal(t, "manager", claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice", "nope")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "s3cret")
		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("store failure", func(t *testing.T) {
		_, err := svc.Login(ctx, "broken", "s3cret")
		assert.True(t, apperror.IsRetriable(err))
	})
}

func TestService_Me(t *testing.T) {
	repo := &fakeRepo{
		GetByIDFn: func(_ context.Context, id int64) (*User, error) {
			if id == 1 {
				return &User{ID: 1, Username: "alice", Role: "employee"}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewService(repo, testSecret, 0, zap.NewNop())

	resp, err := svc.Me(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "alice", resp.Username)

	_, err = svc.Me(context.Background(), 2)
	assert.ErrorIs(t, err, autherrors.ErrUserNotFound)
}
