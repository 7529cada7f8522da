package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/supplier-portal/assistant-backend/internal/handlers"
  "github.com/supplier-portal/assistant-backend/internal/middleware"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type RouterConfig struct {
  AuthHandler    *handlers.AuthHandler
  AuthMiddleware *middleware.AuthMiddleware
  MeHandler      *handlers.MeHandler
  ChatHandler    *handlers.ChatHandler
  SupportHandler *handlers.SupportHandler
  AdminHandler   *handlers.AdminHandler
  HealthHandler  *handlers.HealthHandler
  WsHandler      gin.HandlerFunc
  AllowOrigins   []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  //-----------------------------------------
  // Cors Setup
  //-----------------------------------------
  allowOrigins := cfg.AllowOrigins
  if len(allowOrigins) == 0 {
    allowOrigins = []string{"http://localhost:3000"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     allowOrigins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))
  router.Use(middleware.AttachRequestContext())

  //-----------------------------------------
  // Health Routes
  //-----------------------------------------
  router.GET("/api/health", cfg.HealthHandler.Health)

  //-----------------------------------------
  // Public Routes
  //-----------------------------------------
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

  //------------------------------------------
  // Protected Routes
  //------------------------------------------
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  protected.GET("/ws", cfg.WsHandler)

  //Me
  protected.GET("/users/me", cfg.MeHandler.GetMe)

  //Chat
  protected.POST("/ai-query", cfg.ChatHandler.AIQuery)
  protected.GET("/chat-history", cfg.ChatHandler.ListChats)
  protected.POST("/chat-history", cfg.ChatHandler.SendMessage)
  protected.GET("/chat-history-summary", cfg.ChatHandler.GetSummary)
  protected.GET("/chat-history/:chatId", cfg.ChatHandler.GetConversation)
  protected.DELETE("/chat-history/:chatId", cfg.ChatHandler.DeleteChat)
  protected.POST("/chat-history/:chatId/finish", cfg.ChatHandler.FinishChat)
  protected.PATCH("/chat-history/:messageId", cfg.ChatHandler.PatchMetadata)

  //Support
  protected.POST("/call-operator", cfg.SupportHandler.CallOperator)
  support := protected.Group("/support-requests")
  support.Use(cfg.AuthMiddleware.RequireRole(types.RoleOperator, types.RoleAdmin))
  support.GET("", cfg.SupportHandler.ListActive)
  support.POST("/:chatId/resolve", cfg.SupportHandler.Resolve)

  //Admin
  admin := protected.Group("/users")
  admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
  admin.GET("", cfg.AdminHandler.ListUsers)
  admin.POST("/:id/role", cfg.AdminHandler.UpdateUserRole)
  admin.PATCH("/:id/active", cfg.AdminHandler.SetUserActive)

  // Separate prefix: /users/:id/chats would collide with /users/me in the
  // route tree.
  userChats := protected.Group("/user-chats")
  userChats.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
  userChats.GET("/:id", cfg.AdminHandler.ListUserChats)

  return router
}
