package handlers

import (
	"context"
	"net/http"

	"citybasic/internal/content"
	"citybasic/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FavoriteChecker reports whether a user saved a place.
type FavoriteChecker interface {
	IsFavorite(ctx context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error)
}

type FavoriteStore interface {
	FavoriteChecker
	ToggleFavorite(ctx context.Context, userID uuid.UUID, placeID, citySlug string) (bool, error)
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
}

type FavoriteHandler struct {
	store FavoriteStore
	log   *zap.SugaredLogger
}

func NewFavoriteHandler(s FavoriteStore, log *zap.SugaredLogger) *FavoriteHandler {
	return &FavoriteHandler{store: s, log: log}
}

type favoriteRequest struct {
	PlaceID  string `json:"placeId" binding:"required,max=100"`
	CitySlug string `json:"citySlug" binding:"required"`
}

// Toggle 切换收藏状态 - 收藏/取消收藏
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !content.ValidSlug(req.CitySlug) {
		respondError(c, http.StatusBadRequest, "invalid citySlug")
		return
	}

	saved, err := h.store.ToggleFavorite(c.Request.Context(), user.ID, req.PlaceID, req.CitySlug)
	if err != nil {
		serverError(c, h.log, err, "Failed to update favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "saved": saved})
}

// List 当前用户的收藏
func (h *FavoriteHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	favorites, err := h.store.ListFavorites(c.Request.Context(), user.ID)
	if err != nil {
		serverError(c, h.log, err, "Failed to load favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}
