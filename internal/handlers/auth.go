package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/supplier-portal/assistant-backend/internal/services"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
  var req struct {
    Username    string `json:"username"`
    Email       string `json:"email"`
    Password    string `json:"password"`
    PhoneNumber string `json:"phone_number,omitempty"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  user := types.User{
    Username: req.Username,
    Email:    req.Email,
    Password: req.Password,
  }
  if req.PhoneNumber != "" {
    user.PhoneNumber = &req.PhoneNumber
  }
  accessToken, refreshToken, created, err := ah.authService.RegisterUser(c.Request.Context(), &user)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "token_type":    "bearer",
    "user_id":       created.ID,
    "username":      created.Username,
    "email":         created.Email,
    "role":          created.Role,
  })
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    Username string `json:"username"`
    Password string `json:"password"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  accessToken, refreshToken, user, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
  if err != nil {
    c.JSON(http.StatusUnauthorized, gin.H{"detail": "Неверное имя пользователя или пароль"})
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "token_type":    "bearer",
    "user_id":       user.ID,
    "username":      user.Username,
    "email":         user.Email,
    "role":          user.Role,
  })
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  accessToken, refreshToken, err := ah.authService.Refresh(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "token_type":    "bearer",
  })
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.Logout(c.Request.Context()); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"success": true})
}
