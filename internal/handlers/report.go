package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"citybasic/internal/models"
	"citybasic/internal/ratelimit"
	"citybasic/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
}

type ReportHandler struct {
	store   ReportStore
	limiter RateLimiter
	log     *zap.SugaredLogger
}

func NewReportHandler(s ReportStore, limiter RateLimiter, log *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{store: s, limiter: limiter, log: log}
}

type reportRequest struct {
	CommentID string `json:"commentId" binding:"required,uuid"`
	Reason    string `json:"reason"`
}

// Create 举报评论，同一用户对同一评论只能举报一次
func (h *ReportHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if limited(c, h.limiter, user.ID, ratelimit.Reports) {
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		respondError(c, http.StatusBadRequest, "reason is required")
		return
	}
	if utf8.RuneCountInString(reason) > models.MaxReportReason {
		respondError(c, http.StatusBadRequest, "reason is too long")
		return
	}
	commentID, err := uuid.Parse(req.CommentID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid commentId")
		return
	}

	report := &models.Report{CommentID: commentID, ReporterID: user.ID, Reason: reason}
	err = h.store.CreateReport(c.Request.Context(), report)
	switch {
	case errors.Is(err, store.ErrAlreadyReported):
		respondError(c, http.StatusConflict, "already reported")
		return
	case errors.Is(err, store.ErrCommentNotFound):
		respondError(c, http.StatusNotFound, "comment not found")
		return
	case err != nil:
		serverError(c, h.log, err, "Failed to submit report")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Report submitted"})
}
