package projection

import (
	"testing"
	"time"

	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/mocks"
	"dm-lab/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func row(sender, receiver, content, status string, at time.Time) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Status:     status,
		SentAt:     at,
	}
}

func TestConversationIndex_ForUser(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	presenceMock := mocks.NewMockPresenceReader(ctrl)

	at := time.Now().UTC()
	messagesMock.EXPECT().GetMessagesInvolving("bob").Return([]repositories.DiskMessage{
		row("alice", "bob", "first", "READ", at),
		row("alice", "bob", "latest from alice", "SENT", at.Add(2*time.Minute)),
		row("bob", "alice", "reply", "READ", at.Add(time.Minute)),
		row("clara", "bob", "hi", "DELIVERED", at.Add(3*time.Minute)),
	}, nil)

	usersMock.EXPECT().GetUserByID("alice").
		Return(repositories.User{ID: "alice", Email: "alice@example.com", Username: "Alice"}, nil)
	usersMock.EXPECT().GetUserByID("clara").
		Return(repositories.User{ID: "clara", Email: "clara@example.com", Username: "Clara"}, nil)
	presenceMock.EXPECT().IsOnline("alice").Return(true)
	presenceMock.EXPECT().IsOnline("clara").Return(false)

	index := NewConversationIndex(messagesMock, usersMock, presenceMock)
	conversations, err := index.ForUser("bob")
	req.NoError(err)
	req.Len(conversations, 2)

	// Newest conversation first.
	req.Equal("clara", conversations[0].CounterpartID)
	req.Equal("hi", conversations[0].LastMessage)
	req.Equal(1, conversations[0].UnreadCount)
	req.Equal(domain.PresenceOffline, conversations[0].CounterpartStatus)

	req.Equal("alice", conversations[1].CounterpartID)
	req.Equal("Alice", conversations[1].CounterpartName)
	req.Equal("latest from alice", conversations[1].LastMessage)
	// Bob's own outbound reply never counts as unread.
	req.Equal(1, conversations[1].UnreadCount)
	req.Equal(domain.PresenceOnline, conversations[1].CounterpartStatus)
}

func TestConversationIndex_TieBreakOnEqualTimestamps(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	presenceMock := mocks.NewMockPresenceReader(ctrl)

	at := time.Now().UTC()
	messagesMock.EXPECT().GetMessagesInvolving("bob").Return([]repositories.DiskMessage{
		row("clara", "bob", "from clara", "READ", at),
		row("alice", "bob", "from alice", "READ", at),
	}, nil)
	usersMock.EXPECT().GetUserByID(gomock.Any()).
		DoAndReturn(func(id string) (repositories.User, error) {
			return repositories.User{ID: id, Username: id}, nil
		}).Times(2)
	presenceMock.EXPECT().IsOnline(gomock.Any()).Return(false).Times(2)

	index := NewConversationIndex(messagesMock, usersMock, presenceMock)
	conversations, err := index.ForUser("bob")
	req.NoError(err)
	req.Len(conversations, 2)

	// Equal timestamps order by counterpart id so the result is stable.
	req.Equal("alice", conversations[0].CounterpartID)
	req.Equal("clara", conversations[1].CounterpartID)
}

func TestConversationIndex_SkipsVanishedProfiles(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	usersMock := mocks.NewMockIUserRepository(ctrl)
	presenceMock := mocks.NewMockPresenceReader(ctrl)

	at := time.Now().UTC()
	messagesMock.EXPECT().GetMessagesInvolving("bob").Return([]repositories.DiskMessage{
		row("ghost", "bob", "boo", "SENT", at),
		row("alice", "bob", "hello", "SENT", at),
	}, nil)
	usersMock.EXPECT().GetUserByID("ghost").
		Return(repositories.User{}, errors.ErrUserNotFound)
	usersMock.EXPECT().GetUserByID("alice").
		Return(repositories.User{ID: "alice", Username: "Alice"}, nil)
	presenceMock.EXPECT().IsOnline("alice").Return(false)

	index := NewConversationIndex(messagesMock, usersMock, presenceMock)
	conversations, err := index.ForUser("bob")
	req.NoError(err)
	req.Len(conversations, 1)
	req.Equal("alice", conversations[0].CounterpartID)
}

func TestConversationIndex_EmptyHistory(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	messagesMock := mocks.NewMockIMessageRepository(ctrl)
	messagesMock.EXPECT().GetMessagesInvolving("bob").Return(nil, nil)

	index := NewConversationIndex(messagesMock,
		mocks.NewMockIUserRepository(ctrl), mocks.NewMockPresenceReader(ctrl))
	conversations, err := index.ForUser("bob")
	req.NoError(err)
	req.Empty(conversations)
}
