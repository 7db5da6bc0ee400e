package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf8"

	"citybasic/internal/content"
	"citybasic/internal/middleware"
	"citybasic/internal/models"
	"citybasic/internal/ratelimit"
	"citybasic/internal/store"
	"citybasic/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CommentStore interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, citySlug string, placeSlug *string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	UserVotes(ctx context.Context, userID uuid.UUID, commentIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type CommentHandler struct {
	store   CommentStore
	limiter RateLimiter
	log     *zap.SugaredLogger
}

func NewCommentHandler(s CommentStore, limiter RateLimiter, log *zap.SugaredLogger) *CommentHandler {
	return &CommentHandler{store: s, limiter: limiter, log: log}
}

type createCommentRequest struct {
	Content   string  `json:"content" binding:"required"`
	CitySlug  string  `json:"citySlug" binding:"required"`
	PlaceSlug *string `json:"placeSlug"`
	ParentID  *string `json:"parentId"`
}

// CommentView is a comment as the client renders it.
type CommentView struct {
	*models.Comment
	ContentHTML template.HTML  `json:"content_html"`
	UserVote    int            `json:"user_vote"`
	Replies     []*CommentView `json:"replies,omitempty"`
}

func newCommentView(comment *models.Comment) *CommentView {
	return &CommentView{Comment: comment, ContentHTML: utils.RenderMarkdown(comment.Content)}
}

// Create 发表评论
func (h *CommentHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if limited(c, h.limiter, user.ID, ratelimit.Comments) {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	body := strings.TrimSpace(req.Content)
	if body == "" {
		respondError(c, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(body) > models.MaxCommentLength {
		respondError(c, http.StatusBadRequest, "content is too long")
		return
	}
	if !content.ValidSlug(req.CitySlug) {
		respondError(c, http.StatusBadRequest, "invalid citySlug")
		return
	}
	if req.PlaceSlug != nil && *req.PlaceSlug == "" {
		req.PlaceSlug = nil
	}
	if req.PlaceSlug != nil && !content.ValidSlug(*req.PlaceSlug) {
		respondError(c, http.StatusBadRequest, "invalid placeSlug")
		return
	}

	comment := &models.Comment{
		Content:   body,
		CitySlug:  req.CitySlug,
		PlaceSlug: req.PlaceSlug,
		UserID:    user.ID,
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid parentId")
			return
		}
		comment.ParentID = &parentID
	}

	err := h.store.CreateComment(c.Request.Context(), comment)
	switch {
	case errors.Is(err, store.ErrParentNotFound):
		respondError(c, http.StatusBadRequest, "parent comment not found")
		return
	case errors.Is(err, store.ErrInvalidParent):
		respondError(c, http.StatusBadRequest, "parent comment belongs to another thread")
		return
	case err != nil:
		serverError(c, h.log, err, "Failed to post comment")
		return
	}

	c.JSON(http.StatusCreated, newCommentView(comment))
}

// List 获取城市或地点下的评论树，附带当前用户的投票
func (h *CommentHandler) List(c *gin.Context) {
	citySlug := c.Query("citySlug")
	if !content.ValidSlug(citySlug) {
		respondError(c, http.StatusBadRequest, "invalid citySlug")
		return
	}
	var placeSlug *string
	if p := c.Query("placeSlug"); p != "" {
		if !content.ValidSlug(p) {
			respondError(c, http.StatusBadRequest, "invalid placeSlug")
			return
		}
		placeSlug = &p
	}

	ctx := c.Request.Context()
	comments, err := h.store.ListComments(ctx, citySlug, placeSlug)
	if err != nil {
		serverError(c, h.log, err, "Failed to load comments")
		return
	}

	var votes map[uuid.UUID]int
	if user, ok := middleware.CurrentUser(c); ok && len(comments) > 0 {
		ids := make([]uuid.UUID, len(comments))
		for i := range comments {
			ids[i] = comments[i].ID
		}
		if votes, err = h.store.UserVotes(ctx, user.ID, ids); err != nil {
			serverError(c, h.log, err, "Failed to load comments")
			return
		}
	}

	tree := buildCommentTree(comments, votes)
	c.JSON(http.StatusOK, gin.H{"comments": tree, "total": len(comments)})
}

// Delete 删除自己的评论，回复一并删除
func (h *CommentHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	comment, err := h.store.GetComment(ctx, id)
	if errors.Is(err, store.ErrCommentNotFound) {
		respondError(c, http.StatusNotFound, "comment not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to delete comment")
		return
	}
	if comment.UserID != user.ID && !user.IsAdmin() {
		respondError(c, http.StatusForbidden, "you can only delete your own comments")
		return
	}

	if err := h.store.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, store.ErrCommentNotFound) {
			respondError(c, http.StatusNotFound, "comment not found")
			return
		}
		serverError(c, h.log, err, "Failed to delete comment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// buildCommentTree nests replies under their parents, keeping the input order.
// Replies whose parent is missing are shown at the top level.
func buildCommentTree(comments []models.Comment, votes map[uuid.UUID]int) []*CommentView {
	views := make(map[uuid.UUID]*CommentView, len(comments))
	for i := range comments {
		v := newCommentView(&comments[i])
		v.UserVote = votes[comments[i].ID]
		views[comments[i].ID] = v
	}

	roots := make([]*CommentView, 0)
	for i := range comments {
		v := views[comments[i].ID]
		if pid := comments[i].ParentID; pid != nil {
			if parent, ok := views[*pid]; ok && *pid != comments[i].ID {
				parent.Replies = append(parent.Replies, v)
				continue
			}
		}
		roots = append(roots, v)
	}
	return roots
}
