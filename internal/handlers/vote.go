package handlers

import (
	"context"
	"errors"
	"net/http"

	"citybasic/internal/models"
	"citybasic/internal/ratelimit"
	"citybasic/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VoteStore interface {
	CastVote(ctx context.Context, userID, commentID uuid.UUID, value int) (int, error)
}

type VoteHandler struct {
	store   VoteStore
	limiter RateLimiter
	log     *zap.SugaredLogger
}

func NewVoteHandler(s VoteStore, limiter RateLimiter, log *zap.SugaredLogger) *VoteHandler {
	return &VoteHandler{store: s, limiter: limiter, log: log}
}

type voteRequest struct {
	CommentID string `json:"commentId" binding:"required,uuid"`
	Value     *int   `json:"value" binding:"required"`
}

// Vote 对评论投票：1 赞同，-1 反对，0 取消
func (h *VoteHandler) Vote(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if limited(c, h.limiter, user.ID, ratelimit.Votes) {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !models.ValidVoteValue(*req.Value) {
		respondError(c, http.StatusBadRequest, "value must be -1, 0 or 1")
		return
	}
	commentID, err := uuid.Parse(req.CommentID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid commentId")
		return
	}

	total, err := h.store.CastVote(c.Request.Context(), user.ID, commentID, *req.Value)
	if errors.Is(err, store.ErrCommentNotFound) {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"vote_count": total,
		"user_vote":  *req.Value,
	})
}
