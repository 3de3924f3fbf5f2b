package event

import (
	"time"

	"dm-lab/domain"

	"github.com/google/uuid"
)

// DomainEvent is anything the broadcaster can push to connected clients.
type DomainEvent interface {
	OccurredAt() time.Time
}

// MessageCreated carries the canonical stored copy, including the id and
// timestamp the store assigned. Both parties receive it.
type MessageCreated struct {
	Message domain.Message
}

func (e MessageCreated) OccurredAt() time.Time { return e.Message.SentAt }

// StatusChanged notifies the original sender that a message advanced to
// DELIVERED or READ. The receiver triggered the transition and is not echoed.
type StatusChanged struct {
	MessageID uuid.UUID
	SenderID  string
	Status    domain.Status
	At        time.Time
}

func (e StatusChanged) OccurredAt() time.Time { return e.At }

type PresenceChanged struct {
	Change domain.PresenceChange
}

func (e PresenceChanged) OccurredAt() time.Time { return e.Change.At }

type TypingSignal struct {
	SenderID   string
	ReceiverID string
	IsTyping   bool
	At         time.Time
}

func (e TypingSignal) OccurredAt() time.Time { return e.At }
