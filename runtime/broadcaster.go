package runtime

import (
	"context"
	"log/slog"
	"time"

	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/domain/event"
)

// Broadcaster translates domain events into outbound pushes on the bus.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries: a push to an offline recipient is silent loss, and
// a full event queue drops the event rather than stall the state mutation
// that produced it. The durable row is the only guaranteed record.
type Broadcaster struct {
	log    *slog.Logger
	bus    contract.Bus
	events chan event.DomainEvent
}

func NewBroadcaster(log *slog.Logger, bus contract.Bus, bufferSize int) *Broadcaster {
	return &Broadcaster{
		log:    log,
		bus:    bus,
		events: make(chan event.DomainEvent, bufferSize),
	}
}

// Publish enqueues an event without blocking. Events are enqueued after the
// state mutation commits, so ordering per message follows store order.
func (b *Broadcaster) Publish(e event.DomainEvent) {
	select {
	case b.events <- e:
	default:
		b.log.Debug("Event queue full, dropping event")
	}
}

func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			b.log.Debug("Stopping worker")
			return nil
		case e, ok := <-b.events:
			if !ok {
				return nil
			}
			b.dispatch(e)
		}
	}
}

// dispatch routes one event to its channels:
//   - new message: both parties' private channels, so the sender's client
//     also reflects the canonical stored copy
//   - status change: original sender only, the receiver already knows
//   - typing: receiver only, dropped if offline
//   - presence: the shared broadcast channel, unfiltered
func (b *Broadcaster) dispatch(e event.DomainEvent) {
	switch evt := e.(type) {
	case event.MessageCreated:
		payload := toMessagePayload(evt.Message)
		b.bus.PushToUser(evt.Message.ReceiverID, payload)
		b.bus.PushToUser(evt.Message.SenderID, payload)
	case event.StatusChanged:
		b.bus.PushToUser(evt.SenderID, StatusPayload{
			Type:      "status",
			MessageID: evt.MessageID.String(),
			Status:    evt.Status.String(),
			Timestamp: evt.At,
		})
	case event.TypingSignal:
		b.bus.PushToUser(evt.ReceiverID, TypingPayload{
			Type:       "typing",
			SenderID:   evt.SenderID,
			ReceiverID: evt.ReceiverID,
			IsTyping:   evt.IsTyping,
		})
	case event.PresenceChanged:
		b.bus.Broadcast(PresencePayload{
			Type:      "presence",
			UserID:    evt.Change.UserID,
			Status:    evt.Change.Status.String(),
			Timestamp: evt.Change.At,
		})
	default:
		b.log.Debug("Unroutable event", "event", e)
	}
}

// MessagePayload is the wire shape of a message on a private channel.
type MessagePayload struct {
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	ReceiverID  string     `json:"receiverId"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	SentAt      time.Time  `json:"sentAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

type StatusPayload struct {
	Type      string    `json:"type"`
	MessageID string    `json:"messageId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type TypingPayload struct {
	Type       string `json:"type"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type PresencePayload struct {
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessagePayload(message domain.Message) MessagePayload {
	return MessagePayload{
		Type:        "message",
		ID:          message.ID.String(),
		SenderID:    message.SenderID,
		ReceiverID:  message.ReceiverID,
		Content:     message.Content,
		Status:      message.Status.String(),
		SentAt:      message.SentAt,
		DeliveredAt: message.DeliveredAt,
		ReadAt:      message.ReadAt,
	}
}
