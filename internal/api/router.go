package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Haiikyu/reveelbox-sub005/internal/api/handlers"
	"github.com/Haiikyu/reveelbox-sub005/internal/api/middleware"
	"github.com/Haiikyu/reveelbox-sub005/internal/broadcast"
	"github.com/Haiikyu/reveelbox-sub005/internal/config"
	"github.com/Haiikyu/reveelbox-sub005/internal/repository"
	"github.com/Haiikyu/reveelbox-sub005/internal/service"
	"github.com/Haiikyu/reveelbox-sub005/internal/websocket"
	"github.com/Haiikyu/reveelbox-sub005/pkg/database"
	jwtutil "github.com/Haiikyu/reveelbox-sub005/pkg/jwt"
	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
	"github.com/Haiikyu/reveelbox-sub005/pkg/payments"
	"github.com/Haiikyu/reveelbox-sub005/pkg/ratelimit"
)

// SetupRouter API 라우터 설정
// ctx가 취소되면 Redis 구독 루프가 종료된다
func SetupRouter(ctx context.Context, cfg *config.Config, db *database.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	jwtManager := jwtutil.NewManager(cfg.JWTSecret, cfg.JWTExpiration)
	paymentClient := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey)

	// Repository 초기화
	userRepo := repository.NewUserRepository(db)
	battleRepo := repository.NewBattleRepository(db)
	participantRepo := repository.NewParticipantRepository(db)

	// Service 초기화
	publisher := broadcast.NewPublisher(rdb)
	lootService, err := service.NewLootService(service.DefaultCatalogue(), nil)
	if err != nil {
		panic("Invalid box catalogue: " + err.Error())
	}
	userService := service.NewUserService(userRepo, cfg.StartingBalance)
	battleService := service.NewBattleService(battleRepo, participantRepo, userRepo, lootService, publisher)
	paymentService := service.NewPaymentService(
		paymentClient,
		userRepo,
		service.DefaultCoinPacks(),
		cfg.PaymentSuccessURL,
		cfg.PaymentCancelURL,
	)

	// WebSocket Hub 초기화 및 시작
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Redis 배틀 채널 구독 -> Hub로 중계
	subscriber := broadcast.NewSubscriber(rdb, wsHub.Dispatch)
	go subscriber.Run(ctx)
	logger.Info("Battle event subscriber started")

	// Rate limiter 초기화
	authLimiter := ratelimit.NewRateLimiter(10, 1) // 인증 시도: 버킷 10개, 초당 1개 충전
	battleLimiter := ratelimit.NewRedisRateLimiter(rdb, "ratelimit:battle")

	// Handler 초기화
	authHandler := handlers.NewAuthHandler(userService, jwtManager)
	userHandler := handlers.NewUserHandler(userService)
	battleHandler := handlers.NewBattleHandler(battleService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.PaymentWebhookSecret)
	wsHandler := handlers.NewWebSocketHandler(wsHub, battleService)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// Auth routes
	auth := router.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter, middleware.DefaultKeyFunc))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// User routes
	users := router.Group("/users")
	users.Use(middleware.Auth(jwtManager))
	{
		users.GET("/me", userHandler.GetCurrentUser)
	}

	// Battle routes
	battles := router.Group("/battles")
	{
		battles.GET("", battleHandler.ListBattles)
		battles.GET("/:id", battleHandler.GetBattle)
		battles.GET("/:id/loot", battleHandler.BattleLoot)
		battles.GET("/:id/ws", wsHandler.SubscribeBattle)

		// 상태 변경 엔드포인트는 Redis 분산 rate limit 적용
		mutate := battles.Group("")
		mutate.Use(middleware.RedisRateLimit(battleLimiter, 30, time.Minute, middleware.DefaultKeyFunc))
		{
			mutate.POST("", middleware.Auth(jwtManager), battleHandler.CreateBattle)
			mutate.POST("/:id/join", middleware.Auth(jwtManager), battleHandler.JoinBattle)
			mutate.POST("/:id/ready", middleware.Auth(jwtManager), battleHandler.ReadyBattle)
			mutate.POST("/:id/start", middleware.Auth(jwtManager), battleHandler.StartBattle)
			mutate.POST("/:id/add-bot", battleHandler.AddBot)
			mutate.POST("/:id/open", battleHandler.OpenBox)
			mutate.POST("/:id/end", battleHandler.EndBattle)
		}
	}

	// Payment routes
	paymentsGroup := router.Group("/payments")
	{
		paymentsGroup.GET("/packs", paymentHandler.ListPacks)
		paymentsGroup.POST("/checkout", middleware.Auth(jwtManager), paymentHandler.Checkout)
		paymentsGroup.POST("/webhook", paymentHandler.Webhook)
	}

	return router
}
