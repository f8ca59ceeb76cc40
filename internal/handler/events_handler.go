package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/middleware"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
	"github.com/TatianaIng96/driverflow-service/prometheus"
)

const (
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
	pongWait       = pingPeriod + 10*time.Second
	subscribeQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced by the echo middleware; tokens authenticate the socket
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Events streams membership change events over a websocket. Operators
// receive their own events, super admins receive all of them.
func (h *Handler) Events(c echo.Context) error {
	log := logger.FromContext(c)
	if h.hub == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "error": "event stream disabled"})
	}
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "authentication required"})
	}
	scope := ""
	if !claims.IsSuperAdmin() {
		scope = claims.Operator()
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the error response
		log.Warn("WebSocket upgrade failed", zap.Error(err))
		return nil
	}
	defer conn.Close()

	ch, unsubscribe := h.hub.Subscribe(scope, subscribeQueue)
	defer unsubscribe()

	prometheus.WebsocketConnected(1)
	defer prometheus.WebsocketConnected(-1)
	log.Info("WS connected", zap.String("user_id", claims.UserID), zap.String("operator_id", scope))
	defer log.Info("WS disconnected", zap.String("user_id", claims.UserID))

	// the reader only handles control frames and notices when the peer goes away
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case ev, open := <-ch:
			if !open {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				log.Debug("WS write failed", zap.Error(err))
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
