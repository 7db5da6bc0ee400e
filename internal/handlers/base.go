package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"citybasic/internal/middleware"
	"citybasic/internal/models"
	"citybasic/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateLimiter is satisfied by *ratelimit.Limiter.
type RateLimiter interface {
	IsLimited(ctx context.Context, userID uuid.UUID, rule ratelimit.Rule) bool
}

// Error helper
func respondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// serverError logs the real cause and answers with a generic message only.
func serverError(c *gin.Context, log *zap.SugaredLogger, err error, message string) {
	log.Errorw(message, "error", err, "path", c.FullPath())
	respondError(c, http.StatusInternalServerError, message)
}

// requireUser returns the logged-in user or answers 401.
func requireUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return user, true
}

// limited answers 429 when the user exceeded the rule.
func limited(c *gin.Context, limiter RateLimiter, userID uuid.UUID, rule ratelimit.Rule) bool {
	if limiter.IsLimited(c.Request.Context(), userID, rule) {
		respondError(c, http.StatusTooManyRequests, "Too many requests, please slow down")
		return true
	}
	return false
}

// bindError turns a binding failure into a readable 400 message.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		respondError(c, http.StatusBadRequest, "invalid "+fieldName(fe.Field())+": "+fe.Tag())
		return
	}
	respondError(c, http.StatusBadRequest, "invalid request body")
}

func fieldName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
