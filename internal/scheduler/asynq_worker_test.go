package scheduler_test

import (
	"context"
	"testing"

	"go-leave/internal/scheduler"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewWorker(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	noop := func(context.Context, *asynq.Task) error { return nil }

	t.Run("registers handlers and cron", func(t *testing.T) {
		w, err := scheduler.NewWorker(scheduler.WorkerConfig{
			RedisOpts: opts,
			Logger:    zap.NewNop(),
			Handlers:  []scheduler.TaskHandler{{Type: "leave:carry_over", Handler: noop}, {Type: ""}},
			Cron:      []scheduler.CronRegistration{{Spec: "* * * * *", Task: asynq.NewTask("leave:carry_over", nil)}},
		})
		assert.NoError(t, err)
		assert.NotNil(t, w)
	})

	t.Run("invalid cron spec", func(t *testing.T) {
		_, err := scheduler.NewWorker(scheduler.WorkerConfig{
			RedisOpts: opts,
			Logger:    zap.NewNop(),
			Cron:      []scheduler.CronRegistration{{Spec: "every tuesday", Task: asynq.NewTask("x", nil)}},
		})
		assert.Error(t, err)
	})
}
