package tasks

import (
	"encoding/json"
	"time"

	"carebook/models"

	"github.com/hibiken/asynq"
)

const TypeSettleWeek = "ledger:settle-week"

// settleWeekRetention keeps finished tasks around so a duplicate enqueue for
// the same week is rejected by TaskID.
const settleWeekRetention = 24 * time.Hour

// NewSettleWeekTask builds the task that settles the in-flight week of a
// recurring transaction. Settlement failures are not retried.
func NewSettleWeekTask(payload models.SettleWeekPayload, weekOf time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSettleWeek, b)
	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.TaskID(payload.TxID + ":" + models.StartOfWeek(weekOf).Format("2006-01-02")),
		asynq.Retention(settleWeekRetention),
	}

	return task, opts, nil
}
