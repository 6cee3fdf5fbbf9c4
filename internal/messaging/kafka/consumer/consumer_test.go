package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go-leave/internal/events"
	"go-leave/internal/notifier"
	notifierMock "go-leave/internal/notifier/mock"
	"go-leave/internal/user"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeReader struct {
	queue     []kafkago.Message
	committed []kafkago.Message
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(f.queue) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

type fakeDirectory struct {
	findFn func(ctx context.Context, id int64) (*user.User, error)
}

func (f *fakeDirectory) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return f.findFn(ctx, id)
}

func message(t *testing.T, topic string, offset int64, payload any) kafkago.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	return kafkago.Message{Topic: topic, Offset: offset, Value: raw}
}

func TestConsume_CommitPolicy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{
		cancel: cancel,
		queue: []kafkago.Message{
			{Topic: "t", Offset: 1},
			{Topic: "t", Offset: 2},
			{Topic: "t", Offset: 3},
		},
	}

	handle := func(_ context.Context, msg kafkago.Message) error {
		switch msg.Offset {
		case 2:
			return errors.New("smtp down")
		case 3:
			return errDrop
		}
		return nil
	}

	Consume(ctx, reader, handle, zap.NewNop())

	offsets := make([]int64, 0, len(reader.committed))
	for _, m := range reader.committed {
		offsets = append(offsets, m.Offset)
	}
	assert.Equal(t, []int64{1, 3}, offsets)
}

func TestNotificationHandler_Credentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := notifierMock.NewMockNotifier(ctrl)
	h := NewNotificationHandler(&fakeDirectory{}, n, zap.NewNop())

	n.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notifier.Message) error {
		assert.Equal(t, "budi@example.com", msg.To)
		assert.Contains(t, msg.Body, "Username: budi")
		assert.Contains(t, msg.Body, "Password: Abc123xyz0")
		return nil
	})

	err := h.Handle(context.Background(), message(t, events.EmployeeCredentialsTopic, 0, events.EmployeeCredentialsIssuedEvent{
		EventType:         events.EmployeeCredentialsIssued,
		Username:          "budi",
		Name:              "Budi",
		Email:             "budi@example.com",
		TemporaryPassword: "Abc123xyz0",
	}))
	assert.NoError(t, err)
}

func TestNotificationHandler_LeaveRequest(t *testing.T) {
	directory := &fakeDirectory{findFn: func(_ context.Context, id int64) (*user.User, error) {
		if id == 404 {
			return nil, gorm.ErrRecordNotFound
		}
		if id == 500 {
			return nil, errors.New("db down")
		}
		return &user.User{ID: id, Name: "Sari", Email: "sari@example.com"}, nil
	}}

	t.Run("rejection includes reason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		n := notifierMock.NewMockNotifier(ctrl)
		h := NewNotificationHandler(directory, n, zap.NewNop())

		n.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notifier.Message) error {
			assert.Equal(t, "sari@example.com", msg.To)
			assert.Equal(t, "Leave request rejected", msg.Subject)
			assert.Contains(t, msg.Body, "2025-03-12, 2025-03-13")
			assert.Contains(t, msg.Body, "Reason: busy")
			return nil
		})

		err := h.Handle(context.Background(), message(t, events.LeaveRequestTopic, 0, events.LeaveRequestEvent{
			EventType:    events.LeaveRequestDecided,
			UserID:       3,
			Status:       "rejected",
			LeaveDates:   []string{"2025-03-12", "2025-03-13"},
			RejectReason: "busy",
		}))
		assert.NoError(t, err)
	})

	t.Run("deleted user is dropped", func(t *testing.T) {
		h := NewNotificationHandler(directory, notifierMock.NewMockNotifier(gomock.NewController(t)), zap.NewNop())

		err := h.Handle(context.Background(), message(t, events.LeaveRequestTopic, 0, events.LeaveRequestEvent{
			EventType: events.LeaveRequestCreated,
			UserID:    404,
		}))
		assert.ErrorIs(t, err, errDrop)
	})

	t.Run("lookup failure is retried", func(t *testing.T) {
		h := NewNotificationHandler(directory, notifierMock.NewMockNotifier(gomock.NewController(t)), zap.NewNop())

		err := h.Handle(context.Background(), message(t, events.LeaveRequestTopic, 0, events.LeaveRequestEvent{
			EventType: events.LeaveRequestCreated,
			UserID:    500,
		}))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errDrop)
	})

	t.Run("garbage payload is dropped", func(t *testing.T) {
		h := NewNotificationHandler(directory, notifierMock.NewMockNotifier(gomock.NewController(t)), zap.NewNop())

		err := h.Handle(context.Background(), kafkago.Message{Topic: events.LeaveRequestTopic, Value: []byte("{")})
		assert.ErrorIs(t, err, errDrop)
	})

	t.Run("unknown topic is dropped", func(t *testing.T) {
		h := NewNotificationHandler(directory, notifierMock.NewMockNotifier(gomock.NewController(t)), zap.NewNop())

		err := h.Handle(context.Background(), kafkago.Message{Topic: "other"})
		assert.ErrorIs(t, err, errDrop)
	})
}
