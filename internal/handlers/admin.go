package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/supplier-portal/assistant-backend/internal/services"
)

type AdminHandler struct {
  adminService services.AdminService
}

func NewAdminHandler(adminService services.AdminService) *AdminHandler {
  return &AdminHandler{adminService: adminService}
}

func (ah *AdminHandler) ListUsers(c *gin.Context) {
  skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
  limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
  users, total, err := ah.adminService.ListUsers(c.Request.Context(), skip, limit)
  if err != nil {
    c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

func (ah *AdminHandler) UpdateUserRole(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
    return
  }
  var req struct {
    Role string `json:"role"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "role is required"})
    return
  }
  user, err := ah.adminService.UpdateUserRole(c.Request.Context(), userID, req.Role)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, user)
}

func (ah *AdminHandler) SetUserActive(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
    return
  }
  var req struct {
    IsActive *bool `json:"is_active"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "is_active is required"})
    return
  }
  user, err := ah.adminService.SetUserActive(c.Request.Context(), userID, *req.IsActive)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, user)
}

func (ah *AdminHandler) ListUserChats(c *gin.Context) {
  userID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
    return
  }
  items, err := ah.adminService.ListUserChats(c.Request.Context(), userID)
  if err != nil {
    c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, items)
}
