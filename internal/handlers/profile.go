package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"citybasic/internal/models"
	"citybasic/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
}

type ProfileHandler struct {
	store ProfileStore
	log   *zap.SugaredLogger
}

func NewProfileHandler(s ProfileStore, log *zap.SugaredLogger) *ProfileHandler {
	return &ProfileHandler{store: s, log: log}
}

type profileRequest struct {
	DisplayName string `json:"display_name" binding:"max=50"`
	Bio         string `json:"bio" binding:"max=500"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2,alpha"`
	AvatarURL   string `json:"avatar_url" binding:"omitempty,url,max=500"`
}

// loadProfile 资料尚未创建时返回空资料
func (h *ProfileHandler) loadProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := h.store.GetProfile(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Profile{ID: id}, nil
	}
	return profile, err
}

// Get 当前用户资料
func (h *ProfileHandler) Get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.loadProfile(c.Request.Context(), user.ID)
	if err != nil {
		serverError(c, h.log, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update 保存资料，首次保存时创建
func (h *ProfileHandler) Update(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile := &models.Profile{
		ID:          user.ID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         strings.TrimSpace(req.Bio),
		CountryCode: strings.ToUpper(req.CountryCode),
		AvatarURL:   req.AvatarURL,
	}
	if err := h.store.SaveProfile(c.Request.Context(), profile); err != nil {
		serverError(c, h.log, err, "Failed to save profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Me returns the logged-in user with their profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.loadProfile(c.Request.Context(), user.ID)
	if err != nil {
		serverError(c, h.log, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}
