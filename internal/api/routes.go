package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"artfolio/internal/api/middleware"
	"artfolio/internal/auth"
	"artfolio/internal/config"
	"artfolio/internal/generation"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
)

// Dependencies 汇总路由需要的服务。Redis、Subscriber、Queue 可为 nil：
// 分别关闭限流与登录锁定、WebSocket 通知、异步生成。
type Dependencies struct {
	Config      *config.Config
	Repo        repository.Repository
	Store       storage.Store
	Generator   *generation.Service
	AuthService *auth.AuthService
	Redis       redisKV
	Subscriber  notifySubscriber
	Queue       taskEnqueuer
	Logger      *slog.Logger
}

// RegisterRoutes 注册 /v1 路由与 /files 静态对象访问。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config
	limits := cfg.RateLimit

	redisClient := deps.Redis
	if redisClient == nil {
		redisClient = noopKV{}
	}

	artistHandler := NewArtistHandler(
		deps.Repo,
		deps.AuthService,
		deps.Store,
		cfg.Clamd.Address,
		cfg.Upload.MaxFileBytes,
		cfg.Upload.MaxMediaFiles,
		deps.Logger,
	)
	authHandler := NewAuthHandler(deps.Repo, deps.AuthService, redisClient, deps.Logger)
	portfolioHandler := NewPortfolioHandler(deps.Repo, deps.Store, deps.Generator, deps.Queue, cfg.Worker.MaxRetry, deps.Logger)
	templateHandler := NewTemplateHandler()
	fileHandler := NewFileHandler(deps.Store)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	var limiter redisRateCounter
	if deps.Redis != nil {
		limiter = deps.Redis
	}

	router.GET("/files/*key", fileHandler.ServeFile)
	router.HEAD("/files/*key", fileHandler.ServeFile)

	v1 := router.Group("/v1")
	{
		if deps.Subscriber != nil {
			wsHandler := NewWsHandler(deps.Subscriber, deps.AuthService, deps.Logger, nil)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		v1.GET("/templates", templateHandler.ListTemplates)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", rateLimit(limiter, "login", limits.Login, limits.Window), authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/password", authMiddleware, authHandler.ChangePassword)
		}

		artistGroup := v1.Group("/artists")
		{
			artistGroup.POST("", rateLimit(limiter, "register", limits.Register, limits.Window), artistHandler.Register)
			artistGroup.GET("", artistHandler.ListArtists)
			artistGroup.GET("/:id", artistHandler.GetArtist)
			artistGroup.GET("/:id/portfolios", artistHandler.ListArtistPortfolios)
			artistGroup.PUT("/:id", authMiddleware, artistHandler.UpdateArtist)
			artistGroup.DELETE("/:id", authMiddleware, artistHandler.DeleteArtist)
			artistGroup.POST("/:id/media", authMiddleware, artistHandler.UploadMedia)
			artistGroup.DELETE("/:id/media", authMiddleware, artistHandler.DeleteMedia)
		}

		portfolioGroup := v1.Group("/portfolios")
		{
			portfolioGroup.POST("", authMiddleware, portfolioHandler.CreatePortfolio)
			portfolioGroup.GET("/:id", portfolioHandler.GetPortfolio)
			portfolioGroup.PUT("/:id", authMiddleware, portfolioHandler.UpdatePortfolio)
			portfolioGroup.DELETE("/:id", authMiddleware, portfolioHandler.DeletePortfolio)
			portfolioGroup.GET("/:id/preview", portfolioHandler.PreviewPortfolio)
			portfolioGroup.POST("/:id/generate",
				authMiddleware,
				rateLimit(limiter, "generate", limits.Generate, limits.Window),
				portfolioHandler.GeneratePortfolio,
			)
			portfolioGroup.GET("/:id/documents", portfolioHandler.ListDocuments)
		}
	}
}
