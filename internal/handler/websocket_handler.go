package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Sagararora90/ynme/internal/hub"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second

	defaultBufferSize     = 4096
	defaultMaxMessageSize = 8 << 20 // audio chunks arrive base64-encoded inline
)

// BusWSHandler handles WebSocket connections for /ws.
type BusWSHandler struct {
	hub            *hub.Hub
	dispatcher     *hub.Dispatcher
	jwtSecret      string
	maxMessageSize int64
	upgrader       websocket.Upgrader
	logger         *zap.Logger
}

// NewBusWSHandler creates the message-bus WebSocket handler. Zero sizes fall
// back to defaults.
func NewBusWSHandler(h *hub.Hub, d *hub.Dispatcher, jwtSecret string, readBufferSize, writeBufferSize int, maxMessageSize int64, logger *zap.Logger) *BusWSHandler {
	if readBufferSize <= 0 {
		readBufferSize = defaultBufferSize
	}
	if writeBufferSize <= 0 {
		writeBufferSize = defaultBufferSize
	}
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}
	return &BusWSHandler{
		hub:            h,
		dispatcher:     d,
		jwtSecret:      jwtSecret,
		maxMessageSize: maxMessageSize,
		logger:         logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the bus loop. A token query parameter
// is verified when present; a missing or bad token still gets a connection,
// since membership comes from register_device, not from the handshake.
func (h *BusWSHandler) ServeWS(c *gin.Context) {
	authUserID := h.verifyToken(c.Query("token"))

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	client, cleanup := h.hub.Register(authUserID)
	defer cleanup()

	go h.writePump(conn, client)
	h.readPump(c.Request.Context(), conn, client)
}

func (h *BusWSHandler) readPump(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer h.dispatcher.HandleDisconnect(context.WithoutCancel(ctx), client)
	conn.SetReadLimit(h.maxMessageSize)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		h.dispatcher.HandleMessage(ctx, client, data)
	}
}

func (h *BusWSHandler) writePump(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		_ = conn.Close()
	}()
	for data := range client.Send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// verifyToken validates a handshake JWT and returns its user id, or "" when
// absent or invalid.
func (h *BusWSHandler) verifyToken(token string) string {
	if token == "" || h.jwtSecret == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(h.jwtSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		h.logger.Debug("handshake token rejected", zap.Error(err))
		return ""
	}
	for _, key := range []string{"sub", "userId", "id"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
