package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carebook/config"
	"carebook/models"
	"carebook/services/ledger"
	"carebook/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection for the task queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}
}

// InitLedgerWorker runs the settle-week worker in background and returns the
// server so the caller can shut it down.
func InitLedgerWorker(ledgerSvc ledger.LedgerService, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSettleWeek, HandleSettleWeekTask(ledgerSvc, logger))

	go func() {
		logger.Info("ledger worker starting")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("ledger worker failed to start",
					zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))

				if attempts == maxAttempts {
					logger.Fatal("ledger worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

// HandleSettleWeekTask settles one week. Every failure is final: a ledger
// write that did not land is logged and dropped, never replayed.
func HandleSettleWeekTask(ledgerSvc ledger.LedgerService, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.SettleWeekPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("settle-week: invalid payload", zap.Error(err))
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		entry, err := ledgerSvc.SettleWeek(ctx, p.TxID)
		if errors.Is(err, models.ErrNothingToSettle) {
			logger.Info("settle-week: nothing to settle", zap.String("txId", p.TxID))
			return nil
		}
		if err != nil {
			logger.Error("settle-week failed", zap.String("txId", p.TxID), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		logger.Info("settle-week done", zap.String("txId", p.TxID), zap.Time("start", entry.Start.Time))
		return nil
	}
}
