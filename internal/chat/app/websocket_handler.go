package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"team_match_service/internal/chat/domain"
	"team_match_service/internal/chat/repository"
	errprocess "team_match_service/pkg/err"
	"team_match_service/pkg/logger"
	"team_match_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler builds one chat session per accepted connection.
// It holds only the shared use cases; everything connection-bound lives in
// the session.
type ChatWebsocketHandler struct {
	roomUC    *RoomUseCase
	messageUC *MessageUseCase
	pubSub    repository.PubSub
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(
	roomUC *RoomUseCase,
	messageUC *MessageUseCase,
	pubSub repository.PubSub,
) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		roomUC:    roomUC,
		messageUC: messageUC,
		pubSub:    pubSub,
	}
}

// sessionConn the write surface a session uses on its socket.
type sessionConn interface {
	WriteJSON(v interface{}) error
}

// chatSession one live chat view. It owns the user-channel subscription
// for badge pushes plus at most one room-channel subscription for the
// currently open room; both are bound to contexts so navigation and
// disconnects tear down this session's subscriptions and nobody else's.
// The socket allows a single writer at a time, so every write takes
// writeMu: bus forwards, action responses, and pings all race otherwise.
type chatSession struct {
	roomUC    *RoomUseCase
	messageUC *MessageUseCase
	pubSub    repository.PubSub
	conn      sessionConn
	userID    string

	writeMu    sync.Mutex
	roomCancel context.CancelFunc
}

func (h *ChatWebsocketHandler) newSession(conn sessionConn, userID string) *chatSession {
	return &chatSession{
		roomUC:    h.roomUC,
		messageUC: h.messageUC,
		pubSub:    h.pubSub,
		conn:      conn,
		userID:    userID,
	}
}

// HandleConnection websocket session entry point
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	logger.Log.Info("websocket session start", zap.String("userID", userID))

	s := h.newSession(conn, userID)

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("userID", userID))
		conn.Close()
		s.cancelRoomSubscription()
		cancel()
	}()

	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		return nil
	})

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// badge pushes: messages landing in any of the user's rooms
	err := s.pubSub.Subscribe(ctxClose, repository.UserChannel(userID), func(payload []byte) {
		s.forwardMessage(payload)
	})
	if err != nil {
		s.sendResponse(domain.WSResponse{
			Action: string(domain.Reconnect),
			Error:  err.Error(),
		})
	}

	go func() {
		for {
			select {
			case <-ticker.C:
				s.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				s.writeMu.Unlock()
				if err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		s.execWebsocketAction(ctx, mt, message)
	}
}

func (s *chatSession) execWebsocketAction(ctx context.Context, mt int, msg []byte) {
	switch mt {
	case websocket.TextMessage:
		s.textMessageAction(ctx, msg)
	default:
		s.sendError("unknown message type")
	}
}

func (s *chatSession) textMessageAction(ctx context.Context, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err)
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch req.Action {

	case string(domain.ListRooms):
		summaries, err := s.roomUC.ListRooms(ctx, s.userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["rooms"] = summaries
		}

	case string(domain.CreateDirect):
		room, err := s.roomUC.FindOrCreateDirectRoom(ctx, s.userID, req.OtherUserID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["room"] = room
		}

	case string(domain.EnterRoom):
		// opening the room is the read event
		if err := s.messageUC.MarkRoomRead(ctx, req.RoomID, s.userID, time.Now().UTC()); err != nil {
			resp.Error = err.Error()
			break
		}
		history, err := s.messageUC.History(ctx, req.RoomID, s.userID)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		resp.Success = true
		resp.Payload["messages"] = history

		s.cancelRoomSubscription()
		ctxRoom, cancelRoom := context.WithCancel(context.Background())
		s.roomCancel = cancelRoom

		subErr := s.pubSub.Subscribe(ctxRoom, repository.RoomChannel(req.RoomID), func(payload []byte) {
			s.forwardMessage(payload)
		})
		if subErr != nil {
			cancelRoom()
			s.roomCancel = nil
			resp.Success = false
			resp.Action = string(domain.Reconnect)
			resp.Error = subErr.Error()
		}

	case string(domain.LoadHistory):
		before := time.Now().UTC()
		if req.Before != "" {
			parsed, err := time.Parse(time.RFC3339Nano, req.Before)
			if err != nil {
				resp.Error = errprocess.Wrap(errprocess.KindValidation, "parse before", err).Error()
				break
			}
			before = parsed
		}
		page, err := s.messageUC.HistoryBefore(ctx, req.RoomID, s.userID, before, req.Limit)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["messages"] = page
		}

	case string(domain.LeaveRoom):
		s.cancelRoomSubscription()
		resp.Success = true
		resp.Payload["leave_room"] = req.RoomID

	case string(domain.SendMessage):
		sent, err := s.messageUC.Send(ctx, req.RoomID, s.userID, req.Content,
			domain.MessageType(req.MessageType), req.Metadata)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["message_id"] = sent.ID
		}

	case string(domain.ReadRoom):
		if err := s.messageUC.MarkRoomRead(ctx, req.RoomID, s.userID, time.Now().UTC()); err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
		}

	case string(domain.GetUnread):
		infos, err := s.messageUC.UnreadByRoom(ctx, s.userID)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Success = true
			resp.Payload["unread"] = infos
		}

	default:
		resp.Error = "unknown action"
	}

	s.sendResponse(resp)
}

func (s *chatSession) cancelRoomSubscription() {
	if s.roomCancel != nil {
		s.roomCancel()
		s.roomCancel = nil
	}
}

// forwardMessage decode one bus payload and push it down the socket.
func (s *chatSession) forwardMessage(payload []byte) {
	var result domain.Message
	if err := json.Unmarshal(payload, &result); err != nil {
		logger.Log.Errorf("unmarshal bus payload failed:", err)
		return
	}

	s.sendResponse(domain.WSResponse{
		Action:  string(domain.NotifyMessage),
		Success: true,
		Payload: map[string]interface{}{
			"message": result,
		},
	})
}

func (s *chatSession) sendResponse(resp domain.WSResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(resp); err != nil {
		logger.Log.Errorf("websocket write error:", err)
	}
}

func (s *chatSession) sendError(msg string) {
	s.sendResponse(domain.WSResponse{
		Success: false,
		Error:   errprocess.New(errprocess.KindValidation, msg).Error(),
	})
}
