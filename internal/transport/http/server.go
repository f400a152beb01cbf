package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "docchat/internal/app"
	"docchat/internal/bootstrap"
	"docchat/internal/cache"
	rabbitmqClient "docchat/internal/platform/rabbitmq"
	"docchat/internal/ragbackend"
	"docchat/internal/repository"
	"docchat/internal/transport/http/handler"
	"docchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	sessionRepo := repository.NewChatSessionRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmqClient.NewAuditPublisher(app.MQConn, app.Config.RabbitMQ.AuditQueue)
	backend := ragbackend.NewClient(
		app.Config.Backend.BaseURL,
		time.Duration(app.Config.Backend.TimeoutSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		publisher,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	documentService := appsvc.NewDocumentService(
		docRepo,
		backend,
		historyCache,
		publisher,
		app.Config.Upload.TempDir,
		app.Config.Upload.MaxSizeMB,
	)
	chatService := appsvc.NewChatService(sessionRepo, messageRepo, backend, historyCache, publisher)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService)
	chatHandler := handler.NewChatHandler(chatService)

	api := router.Group("/api")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.GET("/me", authHandler.Me)
	authed.GET("/documents", documentHandler.List)
	authed.DELETE("/documents/:id", documentHandler.Delete)
	authed.POST("/upload-pdf", documentHandler.Upload)
	authed.POST("/chat", chatHandler.Ask)
	authed.GET("/chat-history", chatHandler.History)

	return router
}
