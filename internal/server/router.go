// Package server composes the HTTP gateway: the ordered middleware chain, the
// route table and the terminal error handler.
package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"blog-be/internal/config"
	"blog-be/internal/controllers"
	"blog-be/internal/jwt"
	"blog-be/internal/middleware"
	"blog-be/internal/service"
	"blog-be/internal/upload"
)

const socketPath = "/socket"

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Log         *zap.Logger
	AccessLog   io.Writer
	Uploads     upload.Store
	Tokens      *jwt.JWTService
	Auth        service.AuthService
	Feed        service.FeedService
	Hub         http.Handler
	AuthLimiter *middleware.RateLimiter
}

// NewRouter builds the gin engine. Middleware order matters: everything below
// ErrorHandler reports failures through c.Error, and CORS runs before any step
// that can abort so every response carries its headers.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.SecureHeaders(),
		middleware.Compression(socketPath),
		middleware.AccessLog(d.AccessLog),
		middleware.Metrics(),
		middleware.ErrorHandler(d.Log),
		middleware.Recovery(),
		middleware.CORS(),
		middleware.JSONBodyLimit(d.Config.JSONBodyLimit),
		middleware.Upload(d.Uploads, d.Config.MaxUploadBytes, d.Log),
	)
	router.NoRoute(middleware.NotFound)

	authController := controllers.NewAuthController(d.Auth)
	feedController := controllers.NewFeedController(d.Feed)
	qrcodeController := controllers.NewQRCodeController(d.Feed, d.Config.FrontendURL)
	requireAuth := middleware.AuthMiddleware(d.Tokens)

	router.Static("/"+upload.URLPrefix, d.Uploads.Dir())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET(socketPath, gin.WrapH(d.Hub))

	auth := router.Group("/auth")
	auth.Use(d.AuthLimiter.LimitMiddleware())
	{
		auth.PUT("/signup", authController.Signup)
		auth.POST("/signup", authController.Signup)
		auth.POST("/login", authController.Login)
		auth.GET("/status", requireAuth, authController.GetStatus)
		auth.PATCH("/status", requireAuth, authController.UpdateStatus)
	}

	feed := router.Group("/feed")
	{
		// Public so the code can be printed and shared.
		feed.GET("/post/:postId/qrcode", qrcodeController.GenerateQRCode)

		protected := feed.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/posts", feedController.GetPosts)
			protected.POST("/post", feedController.CreatePost)
			protected.GET("/post/:postId", feedController.GetPost)
			protected.PUT("/post/:postId", feedController.UpdatePost)
			protected.DELETE("/post/:postId", feedController.DeletePost)
		}
	}

	return router
}
