package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/internal/apperr"
	"portfolio/internal/models"
	"portfolio/internal/service"
)

const recentMessageCount = 5

// Enqueuer hands work to the maintenance worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, task string, payload map[string]any) (string, error)
}

type summaryResponse struct {
	Counts         map[string]int    `json:"counts"`
	UnreadMessages int               `json:"unreadMessages"`
	RecentMessages []*models.Message `json:"recentMessages"`
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

func (h HandlerSet) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	counters := map[string]counter{
		"projects":       h.svc.Projects,
		"blog":           h.svc.Blog,
		"certifications": h.svc.Certifications,
		"skills":         h.svc.Skills,
	}

	resp := summaryResponse{Counts: make(map[string]int, len(counters)+1)}
	for name, svc := range counters {
		n, err := svc.Count(ctx)
		if err != nil {
			writeError(c, h.log, err)
			return
		}
		resp.Counts[name] = n
	}

	messages, err := h.svc.Messages.List(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp.Counts["messages"] = len(messages)
	for _, m := range messages {
		if m.Status == models.MessageStatusUnread {
			resp.UnreadMessages++
		}
	}

	resp.RecentMessages, err = service.RecentMessages(ctx, h.svc.Messages, recentMessageCount)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type reconcileRequest struct {
	DryRun bool `json:"dryRun"`
}

// Reconcile queues a sweep of unreferenced uploads for the worker.
func (h HandlerSet) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, h.log, bindError(err))
			return
		}
	}
	if h.tasks == nil {
		writeError(c, h.log, apperr.Unavailable(nil, "Maintenance queue is not configured"))
		return
	}

	id, err := h.tasks.Enqueue(c.Request.Context(), service.TaskReconcile, map[string]any{"dryRun": req.DryRun})
	if err != nil {
		writeError(c, h.log, apperr.Unavailable(err, "Could not queue maintenance task"))
		return
	}
	h.log.Info().Str("task_id", id).Bool("dry_run", req.DryRun).Msg("reconcile task queued")
	c.JSON(http.StatusAccepted, gin.H{"taskId": id, "task": service.TaskReconcile})
}
