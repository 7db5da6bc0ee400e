package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"citybasic/internal/models"
	"citybasic/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ModerationStore interface {
	PendingReports(ctx context.Context, limit int) ([]models.Report, error)
	SetReportStatus(ctx context.Context, id uuid.UUID, status models.ReportStatus) error
	RecountVotes(ctx context.Context, commentID uuid.UUID) (int, error)
}

// AdminHandler 管理员接口，路由上已挂 AdminRequired
type AdminHandler struct {
	store ModerationStore
	log   *zap.SugaredLogger
}

func NewAdminHandler(s ModerationStore, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{store: s, log: log}
}

// ListReports 待处理举报列表
func (h *AdminHandler) ListReports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	reports, err := h.store.PendingReports(c.Request.Context(), limit)
	if err != nil {
		serverError(c, h.log, err, "Failed to load reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

type reportStatusRequest struct {
	Status models.ReportStatus `json:"status" binding:"required,oneof=reviewed dismissed"`
}

// HandleReport 标记举报为已处理或忽略
func (h *AdminHandler) HandleReport(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req reportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	err := h.store.SetReportStatus(c.Request.Context(), id, req.Status)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to update report")
		return
	}

	h.log.Infow("report handled", "report_id", id, "status", req.Status)
	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

// RecountVotes 重新汇总评论票数，修复缓存计数
func (h *AdminHandler) RecountVotes(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	total, err := h.store.RecountVotes(c.Request.Context(), id)
	if errors.Is(err, store.ErrCommentNotFound) {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to recount votes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "vote_count": total})
}
