package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"citybasic/internal/auth"
	"citybasic/internal/middleware"
	"citybasic/internal/models"
	"citybasic/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionStateKey = "oauth_state"
	sessionNextKey  = "oauth_next"
)

// OAuthProvider is satisfied by *auth.Google.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GoogleUserInfo, error)
}

type UserStore interface {
	UpsertGoogleUser(ctx context.Context, identity store.GoogleIdentity) (*models.User, error)
}

type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
}

type AuthHandler struct {
	oauth  OAuthProvider
	users  UserStore
	tokens TokenIssuer
	log    *zap.SugaredLogger
}

func NewAuthHandler(oauth OAuthProvider, users UserStore, tokens TokenIssuer, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{oauth: oauth, users: users, tokens: tokens, log: log}
}

// Login 发起 Google OAuth 登录
func (h *AuthHandler) Login(c *gin.Context) {
	state, err := auth.NewState()
	if err != nil {
		serverError(c, h.log, err, "Failed to start login")
		return
	}

	// 将 state 存储到 session 中,用于验证回调
	session := sessions.Default(c)
	session.Set(sessionStateKey, state)
	session.Set(sessionNextKey, auth.SafeRedirect(c.Query("next")))
	if err := session.Save(); err != nil {
		serverError(c, h.log, err, "Failed to start login")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// Callback 处理 Google OAuth 回调
func (h *AuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	savedState, _ := session.Get(sessionStateKey).(string)
	next, _ := session.Get(sessionNextKey).(string)

	// 清除 state，一次性使用
	session.Delete(sessionStateKey)
	session.Delete(sessionNextKey)
	session.Save()

	if savedState == "" || c.Query("state") != savedState {
		respondError(c, http.StatusBadRequest, "invalid oauth state")
		return
	}
	if e := c.Query("error"); e != "" {
		h.failLogin(c, e)
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	info, err := h.oauth.Exchange(c.Request.Context(), code)
	if errors.Is(err, auth.ErrEmailNotVerified) {
		h.failLogin(c, "email_not_verified")
		return
	}
	if err != nil {
		h.log.Warnw("google oauth exchange failed", "error", err)
		h.failLogin(c, "exchange_failed")
		return
	}

	user, err := h.users.UpsertGoogleUser(c.Request.Context(), store.GoogleIdentity{
		ID:      info.ID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	})
	if err != nil {
		h.log.Errorw("upsert google user", "error", err, "email", info.Email)
		h.failLogin(c, "account_error")
		return
	}

	// 登录
	session.Set(middleware.SessionUserKey, user.ID.String())
	if err := session.Save(); err != nil {
		serverError(c, h.log, err, "Failed to save session")
		return
	}

	h.log.Infow("user logged in", "user_id", user.ID)
	c.Redirect(http.StatusFound, auth.SafeRedirect(next))
}

func (h *AuthHandler) failLogin(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, "/?auth_error="+url.QueryEscape(reason))
}

// Logout 清空 session
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	session.Save()

	if c.Request.Method == http.MethodGet {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Token issues a bearer token for the logged-in session.
func (h *AuthHandler) Token(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		serverError(c, h.log, err, "Failed to issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires.UTC(),
	})
}
