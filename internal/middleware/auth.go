package middleware

import (
  "net/http"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  middlewareLogger := log.With("Middleware", "AuthMiddleware")
  return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    tokenString := extractTokenFromAll(c)
    if tokenString == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Необходима авторизация"})
      return
    }
    ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
    if err != nil {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Необходима авторизация"})
      return
    }
    c.Request = c.Request.WithContext(ctx)
    rd := requestdata.GetRequestData(ctx)
    if rd == nil || rd.UserID == uuid.Nil {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "forbidden - invalid user id"})
      return
    }
  }
}

// RequireRole layers on top of RequireAuth; the request is rejected unless
// the caller holds one of the given roles.
func (am *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
  return func(c *gin.Context) {
    am.RequireAuth()(c)
    if c.IsAborted() {
      return
    }
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil {
      c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "request data missing"})
      return
    }
    for _, r := range roles {
      if rd.Role == r {
        return
      }
    }
    am.log.Warn("Role check failed", "userID", rd.UserID, "role", rd.Role, "required", roles)
    c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "insufficient permissions"})
  }
}

func extractTokenFromAll(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  if qToken := c.Query("token"); qToken != "" {
    return qToken
  }
  return ""
}
