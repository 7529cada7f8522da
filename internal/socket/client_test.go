package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/supplier-portal/assistant-backend/internal/logger"
	"github.com/supplier-portal/assistant-backend/internal/types"
)

// dialTestConn upgrades a throwaway HTTP server connection so shutdown
// paths run against a real websocket.
func dialTestConn(t *testing.T) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// Both pump goroutines defer close on shutdown; the second call must be a
// no-op instead of closing Outbound twice.
func TestClose_SecondCallIsNoOp(t *testing.T) {
	hub := NewHub(logger.NewNop())
	conn := dialTestConn(t)
	client := NewClient(conn, hub, uuid.New(), types.RoleUser, func() {}, logger.NewNop())
	hub.Subscribe(client, []string{UserChannel(client.UserID)})

	require.NotPanics(t, func() {
		client.close()
		client.close()
	})

	_, ok := <-client.Outbound
	require.False(t, ok)
}
