package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/supplier-portal/assistant-backend/internal/services"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type SupportHandler struct {
  supportService services.SupportService
}

func NewSupportHandler(supportService services.SupportService) *SupportHandler {
  return &SupportHandler{supportService: supportService}
}

func (sh *SupportHandler) CallOperator(c *gin.Context) {
  var req struct {
    ChatID string `json:"chat_id"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.ChatID == "" {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "chat_id is required"})
    return
  }
  request, created, err := sh.supportService.CallOperator(c.Request.Context(), req.ChatID)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "status":  "success",
    "created": created,
    "request": request,
  })
}

func (sh *SupportHandler) ListActive(c *gin.Context) {
  views, err := sh.supportService.ListActive(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  if views == nil {
    views = []*types.SupportRequestView{}
  }
  c.JSON(http.StatusOK, views)
}

func (sh *SupportHandler) Resolve(c *gin.Context) {
  chatID := c.Param("chatId")
  if err := sh.supportService.Resolve(c.Request.Context(), chatID); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"status": "success"})
}
