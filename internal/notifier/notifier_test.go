package notifier

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	err := n.Send(context.Background(), Message{To: "a@x.io", Subject: "hi", Body: "body"})
	assert.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("notification").Len())

	assert.ErrorIs(t, n.Send(context.Background(), Message{}), ErrNoRecipient)
}

func TestSMTPNotifier_Send(t *testing.T) {
	cfg := SMTPConfig{Host: "mail.local", Port: 2525, From: "hr@x.io"}

	t.Run("delivers", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, zap.NewNop())
		var gotAddr string
		var gotMsg []byte
		n.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr = addr
			gotMsg = msg
			assert.Equal(t, "hr@x.io", from)
			assert.Equal(t, []string{"a@x.io"}, to)
			return nil
		}

		err := n.Send(context.Background(), Message{To: "a@x.io", Subject: "Hello", Body: "line1\nline2"})
		assert.NoError(t, err)
		assert.Equal(t, "mail.local:2525", gotAddr)
		assert.True(t, strings.HasPrefix(string(gotMsg), "From: hr@x.io\r\nTo: a@x.io\r\nSubject: Hello\r\n"))
		assert.True(t, strings.HasSuffix(string(gotMsg), "line1\r\nline2"))
	})

	t.Run("line breaks in headers are stripped", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, zap.NewNop())
		var gotTo []string
		var gotMsg []byte
		n.sendMail = func(_ string, _ smtp.Auth, _ string, to []string, msg []byte) error {
			gotTo = to
			gotMsg = msg
			return nil
		}

		err := n.Send(context.Background(), Message{
			To:      "a@x.io\r\nBcc: spy@evil.io",
			Subject: "Hi\nBcc: spy@evil.io",
			Body:    "body",
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"a@x.ioBcc: spy@evil.io"}, gotTo)

		headers := strings.SplitN(string(gotMsg), "\r\n\r\n", 2)[0]
		for _, line := range strings.Split(headers, "\r\n") {
			assert.False(t, strings.HasPrefix(line, "Bcc:"), "unexpected header %q", line)
		}
		assert.Contains(t, headers, "Subject: HiBcc: spy@evil.io")
	})

	t.Run("transport error", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, zap.NewNop())
		n.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("554 rejected")
		}

		assert.Error(t, n.Send(context.Background(), Message{To: "a@x.io"}))
	})

	t.Run("cancelled context", func(t *testing.T) {
		n := NewSMTPNotifier(cfg, zap.NewNop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, n.Send(ctx, Message{To: "a@x.io"}), context.Canceled)
	})
}
