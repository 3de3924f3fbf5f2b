package domain

import "time"

// Conversation is a derived view, never stored: one entry per counterpart
// the viewer has exchanged at least one non-deleted message with.
type Conversation struct {
	CounterpartID     string
	CounterpartEmail  string
	CounterpartName   string
	LastMessage       string
	LastMessageAt     time.Time
	UnreadCount       int
	CounterpartStatus PresenceStatus
}
