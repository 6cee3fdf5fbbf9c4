package carryover

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	QueueDefault = "default"
	// TaskCarryOver folds the previous year's unused days into the current year.
	TaskCarryOver = "leave:carry_over"
)

// Payload pins the target year. Zero means the current year when the task runs.
type Payload struct {
	Year int `json:"year,omitempty"`
}

func NewTask(year int) (*asynq.Task, error) {
	body, err := json.Marshal(Payload{Year: year})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCarryOver, body, asynq.Queue(QueueDefault)), nil
}

// Handle runs the job for an asynq task. Storage failures are returned so
// asynq retries the task.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.db == nil || j.balances == nil {
		return errors.New("carry over: dependencies not configured")
	}

	var payload Payload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			j.logger.Warn("carry over payload rejected", zap.Error(err))
			return asynq.SkipRetry
		}
	}
	year := payload.Year
	if year == 0 {
		year = j.CurrentYear()
	}

	_, err := j.Run(ctx, year)
	return err
}
