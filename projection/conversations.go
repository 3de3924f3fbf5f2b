// Package projection builds derived read models from stored rows. It holds
// no mutable state of its own: every call recomputes from scratch, so there
// is no staleness to manage and nothing to invalidate. The full scan is a
// known scaling limit, accepted by contract.
package projection

import (
	"sort"

	"dm-lab/contract"
	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/repositories"
)

type ConversationIndex struct {
	messages repositories.IMessageRepository
	users    repositories.IUserRepository
	presence contract.PresenceReader
}

func NewConversationIndex(messages repositories.IMessageRepository,
	users repositories.IUserRepository, presence contract.PresenceReader) *ConversationIndex {
	return &ConversationIndex{messages: messages, users: users, presence: presence}
}

// ForUser derives the viewer's conversation list: one entry per counterpart,
// carrying the latest message, the unread count, and the counterpart's live
// status. Sorted by last-message timestamp descending; equal timestamps
// order by counterpart id so results are reproducible.
func (c *ConversationIndex) ForUser(viewerID string) ([]domain.Conversation, error) {
	rows, err := c.messages.GetMessagesInvolving(viewerID)
	if err != nil {
		return nil, err
	}

	partitions := make(map[string][]repositories.DiskMessage)
	for _, row := range rows {
		counterpart := row.SenderID
		if counterpart == viewerID {
			counterpart = row.ReceiverID
		}
		partitions[counterpart] = append(partitions[counterpart], row)
	}

	conversations := make([]domain.Conversation, 0, len(partitions))
	for counterpartID, partition := range partitions {
		last := partition[0]
		unread := 0
		for _, row := range partition {
			if row.SentAt.After(last.SentAt) {
				last = row
			}
			if row.ReceiverID == viewerID && row.Status != domain.StatusRead.String() {
				unread++
			}
		}

		counterpart, err := c.users.GetUserByID(counterpartID)
		if err == errors.ErrUserNotFound {
			// A row referencing a vanished profile cannot build an entry.
			continue
		}
		if err != nil {
			return nil, err
		}

		status := domain.PresenceOffline
		if c.presence.IsOnline(counterpartID) {
			status = domain.PresenceOnline
		}

		conversations = append(conversations, domain.Conversation{
			CounterpartID:     counterpartID,
			CounterpartEmail:  counterpart.Email,
			CounterpartName:   counterpart.Username,
			LastMessage:       last.Content,
			LastMessageAt:     last.SentAt,
			UnreadCount:       unread,
			CounterpartStatus: status,
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		if conversations[i].LastMessageAt.Equal(conversations[j].LastMessageAt) {
			return conversations[i].CounterpartID < conversations[j].CounterpartID
		}
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})
	return conversations, nil
}
