package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/joho/godotenv"
  "github.com/redis/go-redis/v9"

  "github.com/supplier-portal/assistant-backend/internal/db"
  "github.com/supplier-portal/assistant-backend/internal/handlers"
  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/middleware"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/seed"
  "github.com/supplier-portal/assistant-backend/internal/server"
  "github.com/supplier-portal/assistant-backend/internal/services"
  "github.com/supplier-portal/assistant-backend/internal/socket"
  "github.com/supplier-portal/assistant-backend/internal/utils"
)

func main() {
  // .env is optional; real deployments set the environment directly.
  _ = godotenv.Load()

  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Environment Variables
  log.Info("Attempting to load environment variables for Main now...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
  redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)
  allowOrigins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log)

  // Postgres Setup
  log.Info("Setting Up Postgres from Main now...")
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("DB init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()
  log.Info("Postgres Setup From Main Successful :)")

  // Repositories Setup
  log.Info("Setting Up Repositories from Main now...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  chatMessageRepo := repos.NewChatMessageRepo(thePG, log)
  chatRatingRepo := repos.NewChatRatingRepo(thePG, log)
  supportRequestRepo := repos.NewSupportRequestRepo(thePG, log)
  log.Info("Repositories Set Up From Main Successful :)")

  // Seed Setup
  log.Info("Attempting to Seed The Postgres From Main now...")
  if err := seed.SeedAll(thePG, userRepo); err != nil {
    log.Warn("Failed to seed data :(", "error", err)
  }
  log.Info("Seeding of Postgres From Main Successful :)")

  // Redis Setup
  log.Info("Setting Up Redis Client From Main Now :)")
  redisClient := redis.NewClient(&redis.Options{
    Addr:     redisAddress,
    Password: redisPassword,
    DB:       0,
  })

  // Websocket Setup
  log.Info("Setting Up Websocket Hub From Main Now :)")
  wsHub := socket.NewHub(log)
  log.Info("Websocket Hub Set Up From Main Successful :)")

  // Redis PubSub
  log.Info("Setting Up Redis PubSub From Main Now :)")
  redisChanName := "supplier_portal_hub_broadcast"
  redisPubSub, err := socket.NewRedisPubSub(log, redisClient, redisChanName)
  if err != nil {
    log.Warn("Failed to init redis pubsub", "error", err)
  } else {
    if err := redisPubSub.StartSubscriber(wsHub); err != nil {
      log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
    } else {
      wsHub.SetRedisPubSub(redisPubSub)
      log.Info("Redis pubsub is active!")
    }
  }

  // Services Setup
  log.Info("Setting up Services from Main now...")
  emailService, err := services.NewEmailService(log)
  if err != nil {
    log.Warn("Could not init EmailService", "error", err)
  }
  textService, err := services.NewTextService(log)
  if err != nil {
    log.Warn("Could not init TextService", "error", err)
  }
  var avatarService services.AvatarService
  bucketService, err := services.NewBucketService(context.Background(), log)
  if err != nil {
    log.Warn("Could not init BucketService; avatars disabled", "error", err)
  } else {
    avatarService, err = services.NewAvatarService(log, bucketService)
    if err != nil {
      log.Warn("Could not init AvatarService; avatars disabled", "error", err)
    }
  }
  modelService, err := services.NewModelService(log)
  if err != nil {
    log.Warn("Could not init ModelService; using keyword knowledge base only", "error", err)
  }
  assistantService := services.NewAssistantService(log, modelService)
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  meService := services.NewMeService(thePG, log, userRepo)
  chatService := services.NewChatService(thePG, log, chatMessageRepo, chatRatingRepo, assistantService, wsHub)
  supportService := services.NewSupportService(thePG, log, supportRequestRepo, chatMessageRepo, userRepo, emailService, textService, wsHub, redisClient)
  adminService := services.NewAdminService(thePG, log, userRepo, chatMessageRepo, userTokenRepo)
  log.Info("Services Set Up From Main Successful :)")

  // Handler Setup
  log.Info("Setting Up Handlers from Main now...")
  authHandler := handlers.NewAuthHandler(authService)
  meHandler := handlers.NewMeHandler(meService)
  chatHandler := handlers.NewChatHandler(chatService, assistantService)
  supportHandler := handlers.NewSupportHandler(supportService)
  adminHandler := handlers.NewAdminHandler(adminService)
  healthHandler := handlers.NewHealthHandler(thePG)
  wsHandler := handlers.WsHandler(wsHub, log)
  log.Info("Handlers Set Up From Main Successful :)")

  // MiddleWare Setup
  log.Info("Setting Up Middleware from Main now...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)
  log.Info("Middleware Set Up From Main Successful :)")

  // Router Setup
  log.Info("Setting Up Router from Main now...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:    authHandler,
    AuthMiddleware: authMiddleware,
    MeHandler:      meHandler,
    ChatHandler:    chatHandler,
    SupportHandler: supportHandler,
    AdminHandler:   adminHandler,
    HealthHandler:  healthHandler,
    WsHandler:      wsHandler,
    AllowOrigins:   strings.Split(allowOrigins, ","),
  })
  log.Info("Router Set Up From Main Successful :)")

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }

  // On Shutdown
  if redisPubSub != nil {
    redisPubSub.Stop()
  }
}
