package transport

import (
	"time"

	"dm-lab/domain"

	"github.com/samber/lo"
)

type MessageResponse struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"senderId"`
	ReceiverID  string     `json:"receiverId"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	SentAt      time.Time  `json:"sentAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
}

type ConversationResponse struct {
	CounterpartID     string    `json:"otherUserId"`
	CounterpartEmail  string    `json:"otherUserEmail"`
	CounterpartName   string    `json:"otherUsername"`
	LastMessage       string    `json:"lastMessageContent"`
	LastMessageAt     time.Time `json:"lastMessageTime"`
	UnreadCount       int       `json:"unreadCount"`
	CounterpartStatus string    `json:"otherUserStatus"`
}

func toMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(item domain.Message, _ int) MessageResponse {
		return MessageResponse{
			ID:          item.ID.String(),
			SenderID:    item.SenderID,
			ReceiverID:  item.ReceiverID,
			Content:     item.Content,
			Status:      item.Status.String(),
			SentAt:      item.SentAt,
			DeliveredAt: item.DeliveredAt,
			ReadAt:      item.ReadAt,
		}
	})
}

func toConversationResponses(conversations []domain.Conversation) []ConversationResponse {
	return lo.Map(conversations, func(item domain.Conversation, _ int) ConversationResponse {
		return ConversationResponse{
			CounterpartID:     item.CounterpartID,
			CounterpartEmail:  item.CounterpartEmail,
			CounterpartName:   item.CounterpartName,
			LastMessage:       item.LastMessage,
			LastMessageAt:     item.LastMessageAt,
			UnreadCount:       item.UnreadCount,
			CounterpartStatus: item.CounterpartStatus.String(),
		}
	})
}
