package workers

import (
	"context"
	"log/slog"
	"time"

	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/services"
)

// Ensure *DispatchWorker implements the contract.Worker interface at compile
// time, so a signature drift fails here instead of in another package.
var _ contract.Worker = (*DispatchWorker)(nil)

// DispatchWorker is one unit of the inbound command pool. It applies the
// state mutation synchronously through the lifecycle service; only after the
// store committed does it hand the resulting event to the publisher.
type DispatchWorker struct {
	messages  services.IMessageService
	commands  chan domain.Command
	publisher contract.EventPublisher
	log       *slog.Logger
}

func NewDispatchWorker(messages services.IMessageService,
	commands chan domain.Command, publisher contract.EventPublisher,
	log *slog.Logger) *DispatchWorker {
	return &DispatchWorker{
		messages:  messages,
		commands:  commands,
		publisher: publisher,
		log:       log,
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.handle(cmd)
		}
	}
}

func (w *DispatchWorker) handle(cmd domain.Command) {
	switch c := cmd.(type) {
	case domain.SendMessageCommand:
		message, err := w.messages.Send(c)
		if err != nil {
			w.log.Warn("Rejected message", "sender", c.Actor(), "error", err)
			return
		}
		w.publisher.Publish(event.MessageCreated{Message: message})

	case domain.AckDeliveredCommand:
		message, outcome, err := w.messages.MarkDelivered(c.MessageID)
		w.publishStatus(c.SenderID, message, outcome, err)

	case domain.AckReadCommand:
		message, outcome, err := w.messages.MarkRead(c.MessageID)
		w.publishStatus(c.SenderID, message, outcome, err)

	case domain.ReadConversationCommand:
		count, err := w.messages.MarkConversationRead(c.ReceiverID, c.SenderID)
		if err != nil {
			w.log.Error("Conversation read failed",
				"receiver", c.ReceiverID, "sender", c.SenderID, "error", err)
			return
		}
		w.log.Debug("Conversation read", "receiver", c.ReceiverID, "count", count)

	case domain.TypingCommand:
		w.publisher.Publish(event.TypingSignal{
			SenderID:   c.SenderID,
			ReceiverID: c.ReceiverID,
			IsTyping:   c.IsTyping,
			At:         time.Now().UTC(),
		})

	default:
		w.log.Debug("Unhandled command", "actor", cmd.Actor())
	}
}

// publishStatus notifies the original sender, and only when the transition
// actually applied. NotFound and AlreadySatisfied are quiet: a late or
// duplicate acknowledgment is expected traffic, not an error.
func (w *DispatchWorker) publishStatus(senderID string, message domain.Message,
	outcome domain.Outcome, err error) {
	if err != nil {
		w.log.Error("Transition failed", "error", err)
		return
	}
	if outcome != domain.OutcomeApplied {
		w.log.Debug("Transition no-op", "outcome", outcome.String())
		return
	}
	at := message.DeliveredAt
	if message.Status == domain.StatusRead {
		at = message.ReadAt
	}
	evt := event.StatusChanged{
		MessageID: message.ID,
		SenderID:  senderID,
		Status:    message.Status,
		At:        time.Now().UTC(),
	}
	if at != nil {
		evt.At = *at
	}
	w.publisher.Publish(evt)
}
