package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReminderRunner triggers one reminder delivery pass.
type ReminderRunner interface {
	RunReminders(ctx context.Context) (int, error)
}

// TasksHandler exposes maintenance operations invoked by external schedulers.
// When a secret is configured the caller must present it, either as an
// X-Api-Key header or as a bearer token.
type TasksHandler struct {
	reminders ReminderRunner
	secret    string
	logger    *zap.Logger
}

// NewTasksHandler constructs a TasksHandler.
func NewTasksHandler(reminders ReminderRunner, secret string, log *zap.Logger) *TasksHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &TasksHandler{reminders: reminders, secret: secret, logger: log}
}

// RunReminders handles POST /tasks/run-reminders.
func (h *TasksHandler) RunReminders(c *gin.Context) {
	if h.secret != "" && !h.authorized(c) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Detail: "Unauthorized"})
		return
	}

	sent, err := h.reminders.RunReminders(c.Request.Context())
	if err != nil {
		h.logger.Error("reminder run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Failed to run reminders"})
		return
	}

	c.JSON(http.StatusOK, RunRemindersResponse{OK: true, Sent: sent})
}

func (h *TasksHandler) authorized(c *gin.Context) bool {
	if key := c.GetHeader("X-Api-Key"); key != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(h.secret)) == 1 {
			return true
		}
	}

	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		if subtle.ConstantTimeCompare([]byte(auth[7:]), []byte(h.secret)) == 1 {
			return true
		}
	}

	return false
}
