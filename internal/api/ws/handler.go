package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/filedeck/internal/domain/command"
	"github.com/GriffinCanCode/filedeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	eventBuffer  = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API is already open to any origin via CORS
	},
}

// Handler streams workspace changes to WebSocket clients
type Handler struct {
	ws      *command.Workspace
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(ws *command.Workspace, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ws: ws, metrics: metrics, logger: logger}
}

// conn serialises writes; gorilla allows one concurrent writer.
type conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// HandleConnection upgrades the request and streams change events until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	wc := &conn{Conn: raw}
	defer wc.Close()

	subID, events, cancel := h.ws.Notifier().Subscribe(eventBuffer)
	defer cancel()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	logger := h.logger.With(zap.String("subscriber", subID))
	logger.Debug("Subscriber connected")

	h.send(wc, "connected", map[string]interface{}{
		"type":       "connected",
		"subscriber": subID,
		"view":       h.ws.View(),
	})

	done := make(chan struct{})
	go h.pump(wc, events, done)
	defer close(done)

	for {
		var msg types.WSMessage
		if err := wc.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "ping":
			h.send(wc, "pong", map[string]interface{}{"type": "pong"})
		case "view":
			h.send(wc, "view", map[string]interface{}{"type": "view", "view": h.ws.View()})
		default:
			h.sendError(wc, "unknown message type")
		}
	}
}

// pump forwards events and keeps the connection alive.
func (h *Handler) pump(wc *conn, events <-chan command.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			err := h.send(wc, "change", map[string]interface{}{
				"type":  "change",
				"event": ev,
				"view":  h.ws.View(),
			})
			if err != nil {
				return
			}
		case <-ticker.C:
			wc.mu.Lock()
			err := wc.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			wc.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(wc *conn, msgType string, data interface{}) error {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	_ = wc.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wc.WriteJSON(data); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msgType)
	}
	return nil
}

func (h *Handler) sendError(wc *conn, msg string) error {
	return h.send(wc, "error", map[string]interface{}{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}
