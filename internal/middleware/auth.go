package middleware

import (
	"context"
	"net/http"
	"strings"

	"citybasic/internal/logging"
	"citybasic/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// UserGetter loads users by id.
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenParser turns a bearer token into a user id.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

// LoadUser retrieves the user from a bearer token or the session and sets it on the context.
// An unknown or invalid identity simply leaves the request anonymous.
func LoadUser(users UserGetter, tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bearerUser(c, tokens)
		if !ok {
			id, ok = sessionUser(c)
		}

		if ok {
			user, err := users.GetUser(c.Request.Context(), id)
			if err == nil {
				c.Set(CheckUserKey, user)
				c.Set(logging.UserIDKey, user.ID.String())
			}
		}
		c.Next()
	}
}

func bearerUser(c *gin.Context, tokens TokenParser) (uuid.UUID, bool) {
	header := c.GetHeader("Authorization")
	if tokens == nil || !strings.HasPrefix(header, "Bearer ") {
		return uuid.Nil, false
	}
	id, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func sessionUser(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := sessions.Default(c).Get(SessionUserKey).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUser returns the user loaded by LoadUser, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// AdminRequired 需要管理员权限，必须放在 AuthRequired 之后
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}
