package router

import (
	"net/http"
	"strings"
	"time"

	"citybasic/internal/config"
	"citybasic/internal/handlers"
	"citybasic/internal/logging"
	"citybasic/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "citybasic_session"

// Store is everything the handlers need from persistence; *store.Store implements it.
type Store interface {
	handlers.CommentStore
	handlers.VoteStore
	handlers.ReportStore
	handlers.FavoriteStore
	handlers.ProfileStore
	handlers.ModerationStore
	handlers.UserStore
	middleware.UserGetter
}

// Token issuing and parsing; *auth.Tokens implements it.
type Tokens interface {
	handlers.TokenIssuer
	middleware.TokenParser
}

type Deps struct {
	Config  config.Config
	Log     *zap.SugaredLogger
	Store   Store
	Content handlers.CityResolver
	Limiter handlers.RateLimiter
	OAuth   handlers.OAuthProvider
	Tokens  Tokens
	Health  handlers.HealthCheck
}

func New(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apiCORS(d.Config.CORSOrigins))

	// Setup Sessions
	sessionStore := cookie.NewStore([]byte(d.Config.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, sessionStore))
	r.Use(middleware.LoadUser(d.Store, d.Tokens))
	r.Use(logging.GinLogger(d.Log))

	RegisterRoutes(r, d)
	return r
}

// apiCORS applies CORS to /api only. It runs before routing so preflight
// requests for unregistered OPTIONS routes still get answered.
func apiCORS(origins []string) gin.HandlerFunc {
	handle := corsMiddleware(origins)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			handle(c)
			return
		}
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Authorization", "Content-Type", "Accept-Language"},
		ExposeHeaders: []string{"Content-Length", "Content-Language"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(d.OAuth, d.Store, d.Tokens, d.Log)
	commentHandler := handlers.NewCommentHandler(d.Store, d.Limiter, d.Log)
	voteHandler := handlers.NewVoteHandler(d.Store, d.Limiter, d.Log)
	reportHandler := handlers.NewReportHandler(d.Store, d.Limiter, d.Log)
	favoriteHandler := handlers.NewFavoriteHandler(d.Store, d.Log)
	profileHandler := handlers.NewProfileHandler(d.Store, d.Log)
	cityHandler := handlers.NewCityHandler(d.Content, d.Store, d.Log)
	seoHandler := handlers.NewSEOHandler(d.Config.SiteURL, d.Config.SitemapFile, d.Content, d.Log)
	adminHandler := handlers.NewAdminHandler(d.Store, d.Log)

	r.GET("/health", handlers.Health(d.Health, d.Log))
	r.GET("/robots.txt", seoHandler.RobotsTxt)

	// 登录 (OAuth)
	r.GET("/auth/login", authHandler.Login)       // 跳转 Google
	r.GET("/auth/callback", authHandler.Callback) // Google 回调
	r.GET("/auth/logout", authHandler.Logout)
	r.POST("/auth/logout", authHandler.Logout)

	api := r.Group("/api")
	{
		// 公共接口 (Public)
		api.GET("/sitemap", seoHandler.Sitemap)
		api.GET("/languages", cityHandler.Languages)
		api.GET("/cities", cityHandler.List)
		api.GET("/cities/:slug", cityHandler.Get)
		api.GET("/cities/:slug/places/:place", cityHandler.Place)
		api.GET("/comments", commentHandler.List) // 评论树，登录时带上自己的投票

		// 需要登录 (Protected)
		authorized := api.Group("")
		authorized.Use(middleware.AuthRequired())
		{
			authorized.POST("/comments", commentHandler.Create)
			authorized.DELETE("/comments/:id", commentHandler.Delete)
			authorized.POST("/votes", voteHandler.Vote)
			authorized.POST("/reports", reportHandler.Create)

			authorized.GET("/favorites", favoriteHandler.List)
			authorized.POST("/favorites", favoriteHandler.Toggle)

			authorized.GET("/me", profileHandler.Me)
			authorized.GET("/profile", profileHandler.Get)
			authorized.PUT("/profile", profileHandler.Update)
			authorized.GET("/session/token", authHandler.Token)
		}

		// 管理后台 (Admin)
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/reports", adminHandler.ListReports)
			admin.PATCH("/reports/:id", adminHandler.HandleReport)
			admin.POST("/comments/:id/recount", adminHandler.RecountVotes)
			admin.DELETE("/comments/:id", commentHandler.Delete)
			admin.POST("/content/reload", cityHandler.Reload)
		}
	}
}
