package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"team_match_service/internal/notification/domain"
	"team_match_service/pkg/logger"
	"team_match_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// NotificationWebsocketHandler streams new feed entries to a connected
// client. The subscription lives exactly as long as the socket.
type NotificationWebsocketHandler struct {
	feedUC *FeedUseCase
}

// NewNotificationWebsocketHandler create NotificationWebsocketHandler
func NewNotificationWebsocketHandler(feedUC *FeedUseCase) *NotificationWebsocketHandler {
	return &NotificationWebsocketHandler{feedUC: feedUC}
}

// pushConn the write surface the stream uses on its socket.
type pushConn interface {
	WriteJSON(v interface{}) error
}

// HandleConnection websocket session entry point
func (h *NotificationWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	logger.Log.Info("notification session start", zap.String("userID", userID))

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("notification session close", zap.String("userID", userID))
		conn.Close()
		cancel()
	}()

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// the socket allows a single writer at a time; the subscription
	// callback and the ping loop both write
	var writeMu sync.Mutex

	if err := h.stream(ctxClose, conn, &writeMu, userID); err != nil {
		return
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	// the read loop only detects disconnects; the stream is one-way
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// stream open the feed subscription and push entries down the socket. A
// failed subscribe pushes a reconnect signal before reporting the error,
// so the client never sees a silent drop.
func (h *NotificationWebsocketHandler) stream(ctx context.Context, conn pushConn, writeMu *sync.Mutex, userID string) error {
	err := h.feedUC.Subscribe(ctx, userID, func(payload []byte) {
		var n domain.Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			logger.Log.Errorf("unmarshal bus payload failed:", err)
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(pushPayload(n)); err != nil {
			logger.Log.Errorf("websocket write error:", err)
		}
	})
	if err != nil {
		logger.Log.Errorf("subscribe failed:", err)
		writeMu.Lock()
		defer writeMu.Unlock()
		if werr := conn.WriteJSON(reconnectPayload(err)); werr != nil {
			logger.Log.Errorf("websocket write error:", werr)
		}
		return err
	}
	return nil
}

func pushPayload(n domain.Notification) map[string]interface{} {
	return map[string]interface{}{
		"action":       "notify",
		"notification": n,
	}
}

func reconnectPayload(err error) map[string]interface{} {
	return map[string]interface{}{
		"action": "reconnect",
		"error":  err.Error(),
	}
}
