package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/domain/persistence"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/storage"
)

func setup(t *testing.T) (*websocket.Conn, *command.Workspace) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	adapter, err := persistence.NewAdapter(storage.NewMemory(), persistence.Options{PublicURL: "http://localhost:8000/"})
	require.NoError(t, err)
	ws, _, err := command.Open(context.Background(), adapter, "", command.Options{})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/ws", NewHandler(ws, monitoring.NewMetrics(prometheus.NewRegistry()), nil).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, ws
}

func read(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestConnectReceivesView(t *testing.T) {
	conn, ws := setup(t)

	msg := read(t, conn)
	assert.Equal(t, "connected", msg["type"])
	assert.NotEmpty(t, msg["subscriber"])
	assert.Contains(t, msg, "view")
	assert.Equal(t, 1, ws.Notifier().Subscribers())
}

func TestChangesAreStreamed(t *testing.T) {
	conn, ws := setup(t)
	read(t, conn)

	res, err := ws.Execute(context.Background(), command.ActionCreateFolder, command.Params{Name: "Live"})
	require.NoError(t, err)
	require.True(t, res.Success)

	msg := read(t, conn)
	assert.Equal(t, "change", msg["type"])
	assert.Equal(t, "create-folder", msg["event"].(map[string]interface{})["reason"])

	items := msg["view"].(map[string]interface{})["items"].([]interface{})
	assert.Len(t, items, 2)
}

func TestClientMessages(t *testing.T) {
	conn, _ := setup(t)
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", read(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "view"}))
	assert.Equal(t, "view", read(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "chat"}))
	msg := read(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "unknown message type", msg["message"])
}
