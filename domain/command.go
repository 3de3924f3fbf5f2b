package domain

import "github.com/google/uuid"

// Command is an inbound client intent, dispatched to the worker pool.
type Command interface {
	// Actor is the user the intent originates from, used for logging.
	Actor() string
}

type SendMessageCommand struct {
	SenderID   string
	ReceiverID string
	Content    string
}

func (c SendMessageCommand) Actor() string { return c.SenderID }

// AckDeliveredCommand acknowledges that the receiver's device got the message.
// SenderID is the original sender, the party to notify of the status change.
type AckDeliveredCommand struct {
	MessageID uuid.UUID
	SenderID  string
}

func (c AckDeliveredCommand) Actor() string { return c.SenderID }

type AckReadCommand struct {
	MessageID uuid.UUID
	SenderID  string
}

func (c AckReadCommand) Actor() string { return c.SenderID }

// ReadConversationCommand marks every unread message from SenderID to
// ReceiverID as read in one batch.
type ReadConversationCommand struct {
	ReceiverID string
	SenderID   string
}

func (c ReadConversationCommand) Actor() string { return c.ReceiverID }

// TypingCommand carries no persistence: it is pushed through as-is and
// dropped when the receiver is offline.
type TypingCommand struct {
	SenderID   string
	ReceiverID string
	IsTyping   bool
}

func (c TypingCommand) Actor() string { return c.SenderID }
