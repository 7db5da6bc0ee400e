package handlers

import (
	"errors"
	"net/http"

	"citybasic/internal/content"
	"citybasic/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CityResolver is satisfied by *content.Resolver.
type CityResolver interface {
	City(slug, lang string) (*content.City, error)
	Place(citySlug, placeSlug, lang string) (*content.City, *content.Place, error)
	Slugs() ([]string, error)
	Invalidate(slug string)
	InvalidateAll()
}

type CityHandler struct {
	content   CityResolver
	favorites FavoriteChecker
	log       *zap.SugaredLogger
}

func NewCityHandler(resolver CityResolver, favorites FavoriteChecker, log *zap.SugaredLogger) *CityHandler {
	return &CityHandler{content: resolver, favorites: favorites, log: log}
}

type citySummary struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Summary string `json:"summary"`
}

func requestLanguage(c *gin.Context) string {
	return content.Negotiate(c.Query("lang"), c.GetHeader("Accept-Language"))
}

func setLanguageHeaders(c *gin.Context, lang string) {
	c.Header("Content-Language", lang)
	c.Header("Vary", "Accept-Language")
}

// List 所有城市概要，已损坏的城市文件直接跳过
func (h *CityHandler) List(c *gin.Context) {
	lang := requestLanguage(c)
	slugs, err := h.content.Slugs()
	if err != nil {
		serverError(c, h.log, err, "Failed to list cities")
		return
	}

	cities := make([]citySummary, 0, len(slugs))
	for _, slug := range slugs {
		city, err := h.content.City(slug, lang)
		if err != nil {
			h.log.Warnw("skip unreadable city", "slug", slug, "error", err)
			continue
		}
		cities = append(cities, citySummary{
			Slug:    city.Slug,
			Name:    city.Name,
			Country: city.Country,
			Summary: city.Description.Summary(),
		})
	}

	setLanguageHeaders(c, lang)
	c.JSON(http.StatusOK, gin.H{"cities": cities, "language": lang})
}

// Get 城市详情，翻译缺失时返回英文内容
func (h *CityHandler) Get(c *gin.Context) {
	city, err := h.content.City(c.Param("slug"), requestLanguage(c))
	if errors.Is(err, content.ErrNotFound) {
		respondError(c, http.StatusNotFound, "city not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to load city")
		return
	}

	setLanguageHeaders(c, city.Language)
	c.JSON(http.StatusOK, city)
}

func (h *CityHandler) Place(c *gin.Context) {
	city, place, err := h.content.Place(c.Param("slug"), c.Param("place"), requestLanguage(c))
	if errors.Is(err, content.ErrNotFound) {
		respondError(c, http.StatusNotFound, "place not found")
		return
	}
	if err != nil {
		serverError(c, h.log, err, "Failed to load place")
		return
	}

	resp := gin.H{
		"city":     gin.H{"slug": city.Slug, "name": city.Name, "country": city.Country},
		"place":    place,
		"language": city.Language,
	}
	// 登录用户附带收藏状态
	if user, ok := middleware.CurrentUser(c); ok {
		saved, err := h.favorites.IsFavorite(c.Request.Context(), user.ID, place.ID, city.Slug)
		if err != nil {
			serverError(c, h.log, err, "Failed to load place")
			return
		}
		resp["saved"] = saved
	}

	setLanguageHeaders(c, city.Language)
	c.JSON(http.StatusOK, resp)
}

// Reload 清除内容缓存，带 slug 时只清除该城市
func (h *CityHandler) Reload(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		h.content.InvalidateAll()
		h.log.Infow("content cache purged")
		c.JSON(http.StatusOK, gin.H{"success": true, "scope": "all"})
		return
	}
	if !content.ValidSlug(slug) {
		respondError(c, http.StatusBadRequest, "invalid slug")
		return
	}
	h.content.Invalidate(slug)
	h.log.Infow("content cache invalidated", "slug", slug)
	c.JSON(http.StatusOK, gin.H{"success": true, "scope": slug})
}

// Languages lists the supported locales, English first.
func (h *CityHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": content.Languages,
		"default":   content.DefaultLanguage,
	})
}
