package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"parts-assist/internal/ai"
	appsvc "parts-assist/internal/app"
	"parts-assist/internal/bootstrap"
	"parts-assist/internal/cache"
	"parts-assist/internal/platform/rabbitmq"
	"parts-assist/internal/repository"
	"parts-assist/internal/retrieval"
	"parts-assist/internal/transport/http/handler"
	"parts-assist/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLog(app.Log), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	productRepo := repository.NewProductRepository(app.MySQL)
	guideRepo := repository.NewGuideRepository(app.MySQL)
	compatRepo := repository.NewCompatibilityRepository(app.MySQL)
	sessionRepo := repository.NewChatSessionRepository(app.MySQL)
	messageRepo := repository.NewChatMessageRepository(app.MySQL)

	embedder := ai.NewEmbedder(app.AIClient, app.EmbeddingConfig())
	engine := retrieval.NewEngine(
		embedder,
		productRepo,
		guideRepo,
		app.Config.Retrieval.SearchLimit,
		app.Config.Retrieval.SimilarityThreshold,
	)
	resolver := retrieval.NewResolver(engine, compatRepo)
	aggregator := retrieval.NewAggregator(engine, resolver, app.Config.Retrieval.ContextLimit)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewTranscriptPublisher(app.MQConn, app.Config.RabbitMQ.TranscriptQueue)

	catalogService := appsvc.NewCatalogService(engine, resolver, productRepo, guideRepo)
	chatService := appsvc.NewChatService(
		sessionRepo,
		messageRepo,
		aggregator,
		publisher,
		historyCache,
		app.AIClient,
		app.ChatConfig(),
		app.Config.LLM.MaxContextMessage,
		app.Log,
	)

	catalogHandler := handler.NewCatalogHandler(catalogService)
	chatHandler := handler.NewChatHandler(chatService)

	api := router.Group("/api")

	products := api.Group("/products")
	products.POST("/search", catalogHandler.Search)
	products.POST("/compatibility", catalogHandler.CheckCompatibility)
	products.GET("/detail/:part_number", catalogHandler.GetProduct)
	products.GET("/detail/:part_number/installation-guide", catalogHandler.GetInstallationGuide)

	chat := api.Group("/chat")
	chat.POST("", chatHandler.SendMessage)
	chat.POST("/stream", chatHandler.StreamMessage)
	chat.GET("/history/:session_id", chatHandler.GetHistory)

	return router
}
