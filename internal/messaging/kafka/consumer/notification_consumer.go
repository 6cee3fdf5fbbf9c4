package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-leave/internal/events"
	"go-leave/internal/notifier"
	"go-leave/internal/user"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserDirectory resolves the mailbox of a leave request's owner.
type UserDirectory interface {
	FindByID(ctx context.Context, id int64) (*user.User, error)
}

type NotificationHandler struct {
	directory UserDirectory
	notifier  notifier.Notifier
	logger    *zap.Logger
}

func NewNotificationHandler(directory UserDirectory, n notifier.Notifier, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &NotificationHandler{
		directory: directory,
		notifier:  n,
		logger:    logger.Named("kafka.consumer.notification"),
	}
}

// Topics lists every topic Handle understands.
func Topics() []string {
	return []string{events.LeaveRequestTopic, events.EmployeeCredentialsTopic}
}

func (h *NotificationHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	var (
		out notifier.Message
		err error
	)

	switch msg.Topic {
	case events.EmployeeCredentialsTopic:
		out, err = h.credentialsMessage(msg.Value)
	case events.LeaveRequestTopic:
		out, err = h.leaveRequestMessage(ctx, msg.Value)
	default:
		return fmt.Errorf("%w: unknown topic %q", errDrop, msg.Topic)
	}
	if err != nil {
		return err
	}

	if err := h.notifier.Send(ctx, out); err != nil {
		if errors.Is(err, notifier.ErrNoRecipient) {
			return fmt.Errorf("%w: %v", errDrop, err)
		}
		return err
	}

	h.logger.Info("notification sent",
		zap.String("topic", msg.Topic),
		zap.String("to", out.To),
		zap.String("subject", out.Subject),
	)
	return nil
}

func (h *NotificationHandler) credentialsMessage(raw []byte) (notifier.Message, error) {
	var event events.EmployeeCredentialsIssuedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return notifier.Message{}, fmt.Errorf("%w: decode credentials event: %v", errDrop, err)
	}

	body := fmt.Sprintf("Hello %s,\n\nYour account has been created.\nUsername: %s\nPassword: %s\n\nPlease change your password after the first login.\n",
		event.Name, event.Username, event.TemporaryPassword)

	return notifier.Message{
		To:      event.Email,
		Subject: "Your account password",
		Body:    body,
	}, nil
}

func (h *NotificationHandler) leaveRequestMessage(ctx context.Context, raw []byte) (notifier.Message, error) {
	var event events.LeaveRequestEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return notifier.Message{}, fmt.Errorf("%w: decode leave request event: %v", errDrop, err)
	}

	owner, err := h.directory.FindByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notifier.Message{}, fmt.Errorf("%w: user %d no longer exists", errDrop, event.UserID)
		}
		return notifier.Message{}, err
	}

	dates := strings.Join(event.LeaveDates, ", ")
	msg := notifier.Message{To: owner.Email}

	switch event.EventType {
	case events.LeaveRequestCreated:
		msg.Subject = "Leave request submitted"
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour leave request for %s is waiting for approval.\n", owner.Name, dates)
	case events.LeaveRequestDecided:
		msg.Subject = "Leave request " + event.Status
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour leave request for %s was %s.\n", owner.Name, dates, event.Status)
		if event.RejectReason != "" {
			msg.Body += "Reason: " + event.RejectReason + "\n"
		}
	default:
		return notifier.Message{}, fmt.Errorf("%w: unknown event type %q", errDrop, event.EventType)
	}

	return msg, nil
}
