package transport

import (
	"encoding/json"
	"log/slog"

	"dm-lab/domain"
	"dm-lab/runtime"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// inboundFrame is the wire shape of every client -> server websocket event.
type inboundFrame struct {
	Type       string `json:"type"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	MessageID  string `json:"messageId"`
	IsTyping   bool   `json:"isTyping"`
}

type WsGateway struct {
	log          *slog.Logger
	hub          *Hub
	orchestrator *runtime.Orchestrator
}

func NewWsGateway(log *slog.Logger, hub *Hub, orchestrator *runtime.Orchestrator) *WsGateway {
	return &WsGateway{log: log, hub: hub, orchestrator: orchestrator}
}

// Upgrade rejects plain HTTP requests and connections without a user id,
// mirroring the handshake guard of the REST surface.
func (g *WsGateway) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if c.Query("userId") == "" {
		g.log.Warn("Websocket handshake rejected: no userId provided")
		return fiber.ErrBadRequest
	}
	return c.Next()
}

// Handler owns one connection: register with the hub, mark the user online,
// pump outbound pushes, and feed inbound frames into the command pool.
// Teardown runs the stale-disconnect guard on both the hub and the registry.
func (g *WsGateway) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := conn.Query("userId")
		handle := domain.Handle{UserID: userID, ConnID: uuid.NewString()}

		client := g.hub.Register(userID, handle.ConnID)
		g.orchestrator.Presence().Connect(handle)
		defer func() {
			g.hub.Unregister(client)
			g.orchestrator.Presence().Disconnect(handle)
		}()

		go func() {
			for {
				select {
				case <-client.Done:
					_ = conn.Close()
					return
				case data := <-client.Send:
					if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				g.log.Debug("Client disconnected", "user", userID)
				return
			}
			g.dispatch(userID, data)
		}
	})
}

func (g *WsGateway) dispatch(userID string, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		g.log.Debug("Unparseable frame", "user", userID, "error", err)
		return
	}

	switch frame.Type {
	case "send":
		g.orchestrator.Dispatch(domain.SendMessageCommand{
			SenderID:   userID,
			ReceiverID: frame.ReceiverID,
			Content:    frame.Content,
		})
	case "ackDelivered", "ackRead":
		messageID, err := uuid.Parse(frame.MessageID)
		if err != nil {
			g.log.Debug("Unparseable message id", "user", userID, "error", err)
			return
		}
		if frame.Type == "ackDelivered" {
			g.orchestrator.Dispatch(domain.AckDeliveredCommand{
				MessageID: messageID,
				SenderID:  frame.SenderID,
			})
			return
		}
		g.orchestrator.Dispatch(domain.AckReadCommand{
			MessageID: messageID,
			SenderID:  frame.SenderID,
		})
	case "readConversation":
		g.orchestrator.Dispatch(domain.ReadConversationCommand{
			ReceiverID: userID,
			SenderID:   frame.SenderID,
		})
	case "typing":
		g.orchestrator.Dispatch(domain.TypingCommand{
			SenderID:   userID,
			ReceiverID: frame.ReceiverID,
			IsTyping:   frame.IsTyping,
		})
	default:
		g.log.Debug("Unknown frame type", "user", userID, "type", frame.Type)
	}
}
