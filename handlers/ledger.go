package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"carebook/models"
	"carebook/services/tasks"
	"carebook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskEnqueuer is the part of *asynq.Client the ledger endpoints need.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// LedgerHandler queues weekly ledger settlement.
type LedgerHandler struct {
	Queue TaskEnqueuer
	Now   func() time.Time
}

func NewLedgerHandler(queue TaskEnqueuer) *LedgerHandler {
	return &LedgerHandler{Queue: queue, Now: time.Now}
}

// SettleWeekHandler handles POST /api/transactions/:txID/settle-week. The
// same week is only queued once.
func (h *LedgerHandler) SettleWeekHandler(c *gin.Context) {
	logger := getLogger(c)
	txID := c.Param("txID")

	task, opts, err := tasks.NewSettleWeekTask(models.SettleWeekPayload{TxID: txID}, h.Now())
	if err != nil {
		logger.Error("Failed to build settle-week task", zap.String("txId", txID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to queue settlement", err.Error())
		return
	}

	info, err := h.Queue.EnqueueContext(c.Request.Context(), task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		c.JSON(http.StatusOK, gin.H{"txId": txID, "queued": false, "message": "settlement already queued for this week"})
		return
	}
	if err != nil {
		logger.Error("Failed to enqueue settle-week task", zap.String("txId", txID), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Failed to queue settlement", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"txId": txID, "queued": true, "taskId": info.ID})
}
