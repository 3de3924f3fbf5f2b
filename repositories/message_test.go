package repositories

import (
	"fmt"
	"testing"
	"time"

	"dm-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Store_And_Get_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	at := time.Now().UTC()
	stored, err := repository.StoreMessage(DiskMessage{
		SenderID:   "alice",
		ReceiverID: "bob",
		Content:    "this message will self destruct in 5 seconds",
		Lang:       "en",
		Status:     "SENT",
		SentAt:     at,
	})
	req.NoError(err)
	req.NotEmpty(stored.ID)

	fetched, err := repository.GetMessage(stored.ID)
	req.NoError(err)
	req.Equal(stored.ID, fetched.ID)
	req.Equal("alice", fetched.SenderID)
	req.Equal("bob", fetched.ReceiverID)
	req.Equal("SENT", fetched.Status)
	req.True(fetched.SentAt.Equal(at))
	req.Nil(fetched.DeliveredAt)
	req.Nil(fetched.ReadAt)
}

func Test_Get_Missing_Message(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	stored, err := repository.StoreMessage(DiskMessage{
		SenderID: "alice", ReceiverID: "bob",
		Content: "hello", Status: "SENT", SentAt: time.Now().UTC(),
	})
	req.NoError(err)

	other := stored
	other.ID[0] ^= 0xff
	_, err = repository.GetMessage(other.ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Update_Message_Preserves_Identity(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	stored, err := repository.StoreMessage(DiskMessage{
		SenderID: "alice", ReceiverID: "bob",
		Content: "hello", Status: "SENT", SentAt: time.Now().UTC(),
	})
	req.NoError(err)

	deliveredAt := time.Now().UTC()
	stored.Status = "DELIVERED"
	stored.DeliveredAt = &deliveredAt
	req.NoError(repository.UpdateMessage(stored))

	fetched, err := repository.GetMessage(stored.ID)
	req.NoError(err)
	req.Equal("DELIVERED", fetched.Status)
	req.NotNil(fetched.DeliveredAt)
	req.True(fetched.DeliveredAt.Equal(deliveredAt))
}

func Test_Get_Conversation_Orders_And_Paginates(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	at := time.Now().UTC()
	for i := 0; i < 5; i++ {
		sender, receiver := "alice", "bob"
		if i%2 == 1 {
			sender, receiver = "bob", "alice"
		}
		_, err := repository.StoreMessage(DiskMessage{
			SenderID:   sender,
			ReceiverID: receiver,
			Content:    fmt.Sprintf("message %d", i),
			Status:     "SENT",
			SentAt:     at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
	}
	// Noise from an unrelated pair must never leak in.
	_, err := repository.StoreMessage(DiskMessage{
		SenderID: "clara", ReceiverID: "bob",
		Content: "other pair", Status: "SENT", SentAt: at,
	})
	req.NoError(err)

	// First page, newest first, both directions of the pair.
	page, err := repository.GetConversation("alice", "bob", 0, 3)
	req.NoError(err)
	req.Len(page, 3)
	req.Equal("message 4", page[0].Content)
	req.Equal("message 3", page[1].Content)
	req.Equal("message 2", page[2].Content)

	// Pair order must not matter.
	reversed, err := repository.GetConversation("bob", "alice", 0, 3)
	req.NoError(err)
	req.Equal(page, reversed)

	// Second page carries the remainder.
	page, err = repository.GetConversation("alice", "bob", 1, 3)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("message 1", page[0].Content)
	req.Equal("message 0", page[1].Content)

	// Past the end is empty, not an error.
	page, err = repository.GetConversation("alice", "bob", 5, 3)
	req.NoError(err)
	req.Empty(page)
}

func Test_Get_Conversation_Skips_Deleted_Rows(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	at := time.Now().UTC()
	var deleted DiskMessage
	for i := 0; i < 3; i++ {
		stored, err := repository.StoreMessage(DiskMessage{
			SenderID: "alice", ReceiverID: "bob",
			Content: fmt.Sprintf("message %d", i),
			Status:  "SENT", SentAt: at.Add(time.Duration(i) * time.Minute),
		})
		req.NoError(err)
		if i == 1 {
			deleted = stored
		}
	}

	deleted.IsDeleted = true
	req.NoError(repository.UpdateMessage(deleted))

	page, err := repository.GetConversation("alice", "bob", 0, 10)
	req.NoError(err)
	req.Len(page, 2)
	req.Equal("message 2", page[0].Content)
	req.Equal("message 0", page[1].Content)
}

func Test_Unread_Queries(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	at := time.Now().UTC()
	store := func(sender, receiver, status string) DiskMessage {
		stored, err := repository.StoreMessage(DiskMessage{
			SenderID: sender, ReceiverID: receiver,
			Content: "hello", Status: status, SentAt: at,
		})
		req.NoError(err)
		return stored
	}

	store("alice", "bob", "SENT")
	store("alice", "bob", "DELIVERED")
	store("alice", "bob", "READ")
	store("clara", "bob", "SENT")
	store("bob", "alice", "SENT")

	unread, err := repository.GetUnreadByReceiver("bob")
	req.NoError(err)
	req.Len(unread, 3)

	between, err := repository.GetUnreadBetween("bob", "alice")
	req.NoError(err)
	req.Len(between, 2)

	involving, err := repository.GetMessagesInvolving("alice")
	req.NoError(err)
	req.Len(involving, 4)
}

func Test_Unread_Queries_Exclude_Deleted(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), nil)

	stored, err := repository.StoreMessage(DiskMessage{
		SenderID: "alice", ReceiverID: "bob",
		Content: "hello", Status: "SENT", SentAt: time.Now().UTC(),
	})
	req.NoError(err)

	stored.IsDeleted = true
	req.NoError(repository.UpdateMessage(stored))

	unread, err := repository.GetUnreadByReceiver("bob")
	req.NoError(err)
	req.Empty(unread)

	involving, err := repository.GetMessagesInvolving("bob")
	req.NoError(err)
	req.Empty(involving)

	// Direct lookup by id still works for the soft-deleted row.
	fetched, err := repository.GetMessage(stored.ID)
	req.NoError(err)
	req.True(fetched.IsDeleted)
}
