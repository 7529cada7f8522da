package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/supplier-portal/assistant-backend/internal/services"
)

type MeHandler struct {
  meService services.MeService
}

func NewMeHandler(meService services.MeService) *MeHandler {
  return &MeHandler{meService: meService}
}

func (mh *MeHandler) GetMe(c *gin.Context) {
  user, err := mh.meService.GetMe(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, user)
}
