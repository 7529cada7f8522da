package handlers

import (
  "context"
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/gorilla/websocket"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/socket"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

var upgrader = websocket.Upgrader{
  CheckOrigin: func(r *http.Request) bool {
    return true
  },
}

func WsHandler(hub *socket.Hub, log *logger.Logger) gin.HandlerFunc {
  return func(c *gin.Context) {
    rd := requestdata.GetRequestData(c.Request.Context())
    if rd == nil || rd.UserID == uuid.Nil {
      c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
      return
    }
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
      log.Warn("Failed to upgrade to websocket", "error", err)
      return
    }

    // Detach from the HTTP request context so the connection outlives it.
    ctx, cancel := context.WithCancel(context.Background())
    client := socket.NewClient(conn, hub, rd.UserID, rd.Role, cancel, log)

    channels := []string{socket.UserChannel(rd.UserID)}
    if rd.Role == types.RoleOperator || rd.Role == types.RoleAdmin {
      channels = append(channels, socket.OperatorsChannel)
    }
    hub.Subscribe(client, channels)

    go client.ReadLoop(ctx)
    go client.WriteLoop(ctx)
  }
}
