package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/tnpportal/portal/config"
	"github.com/tnpportal/portal/controllers"
	"github.com/tnpportal/portal/metrics"
	"github.com/tnpportal/portal/middleware"
	"github.com/tnpportal/portal/services"
	"github.com/tnpportal/portal/utils"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Config   config.AppConfig
	Posts    *services.PostService
	Query    *services.QueryEngine
	Verifier services.Verifier
	Revoker  controllers.TokenRevoker
	// Metrics and MetricsHandler may be nil.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err == nil {
			r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
			r.Use(ginzap.RecoveryWithZap(gl, true))
		} else {
			utils.Sugar.Warnf("gin logger init failed, falling back to default recovery: %v", err)
			r.Use(gin.Recovery())
		}
	} else {
		r.Use(gin.Recovery())
	}

	r.Use(secure.New(secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		IENoOpen:              true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
	}))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.RequestMetrics(deps.Metrics))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodyBytes))
	}

	r.GET("/api/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "server is running", "status": "OK"})
	})
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	postController := controllers.NewPostController(deps.Posts, deps.Query, deps.Metrics)
	authController := controllers.NewAuthController(deps.Revoker)

	api := r.Group("/api")

	posts := api.Group("/posts")
	posts.GET("", postController.ListPosts)
	posts.GET("/featured/list", postController.FeaturedPosts)
	posts.GET("/category/:category", postController.ListByCategory)
	posts.GET("/search/:query", postController.Search)
	posts.GET("/:id", postController.GetPost)

	protected := posts.Group("")
	protected.Use(middleware.AuthRequired(deps.Verifier), middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	protected.POST("", postController.CreatePost)
	protected.PUT("/:id", postController.UpdatePost)
	protected.DELETE("/:id", postController.DeletePost)
	protected.POST("/:id/like", postController.LikePost)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRequired(deps.Verifier))
	authGroup.GET("/me", authController.Me)
	authGroup.POST("/logout", authController.Logout)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, "not found")
	})

	return r
}
