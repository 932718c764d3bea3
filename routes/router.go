package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quillhq/quill/config"
	"github.com/quillhq/quill/controllers"
	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/utils"
	"github.com/quillhq/quill/workflow"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	// Load config and set Gin mode from configuration
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	store := workflow.NewGormStore(db)
	svc := workflow.NewService(store,
		utils.JWTIssuer{TTL: time.Duration(cfg.TokenTTLHours) * time.Hour},
		utils.BcryptHasher{})

	authController := controllers.NewAuthController(svc)
	postController := controllers.NewPostController(svc)
	publicController := controllers.NewPublicController(svc)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Read surface for authenticated and anonymous callers alike.
	// Visibility narrows with the caller's role inside the service.
	postsGroup := api.Group("/posts")
	postsGroup.Use(middleware.AuthOptional())
	postsGroup.GET("", postController.ListPosts)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.GET("/slug/:slug", postController.GetPostBySlug)

	// Published-only surface, cacheable, never requires a token.
	publicGroup := api.Group("/public/posts")
	publicGroup.GET("", publicController.ListPublished)
	publicGroup.GET("/recent/:limit", publicController.RecentPublished)
	publicGroup.GET("/:slug", publicController.GetPublishedBySlug)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.POST("/posts/drafts", postController.SaveDraft)
	protected.POST("/posts/:id/submit", postController.SubmitPost)
	protected.PATCH("/posts/:id/approve", postController.ApprovePost)
	protected.PATCH("/posts/:id/reject", postController.RejectPost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
