package middleware

import (
  "github.com/gin-gonic/gin"

  "github.com/supplier-portal/assistant-backend/internal/errordata"
)

// AttachRequestContext seeds the per-request error slot so services deeper
// in the call chain can report degraded behavior without failing the request.
func AttachRequestContext() gin.HandlerFunc {
  return func(c *gin.Context) {
    ctx := c.Request.Context()
    ctx = errordata.WithErrorData(ctx)
    c.Request = c.Request.WithContext(ctx)
    c.Next()
  }
}
