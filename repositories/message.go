//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"dm-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) (DiskMessage, error)
	GetMessage(id uuid.UUID) (DiskMessage, error)
	UpdateMessage(message DiskMessage) error
	GetConversation(userA, userB string, page, size int) ([]DiskMessage, error)
	GetUnreadByReceiver(receiverID string) ([]DiskMessage, error)
	GetUnreadBetween(receiverID, senderID string) ([]DiskMessage, error)
	GetMessagesInvolving(userID string) ([]DiskMessage, error)
}

// DiskMessage is the repository-level representation of a message row.
type DiskMessage struct {
	ID          uuid.UUID
	SenderID    string
	ReceiverID  string
	Content     string
	Lang        string
	Status      string
	SentAt      time.Time
	DeliveredAt *time.Time
	ReadAt      *time.Time
	IsDeleted   bool
}

// diskRecord is the CBOR shape actually written to Badger. Timestamps are
// stored as Unix nanoseconds to keep the encoding deterministic.
type diskRecord struct {
	ID          string `cbor:"1,keyasint"`
	SenderID    string `cbor:"2,keyasint"`
	ReceiverID  string `cbor:"3,keyasint"`
	Content     string `cbor:"4,keyasint"`
	Lang        string `cbor:"5,keyasint"`
	Status      string `cbor:"6,keyasint"`
	SentAt      int64  `cbor:"7,keyasint"`
	DeliveredAt *int64 `cbor:"8,keyasint"`
	ReadAt      *int64 `cbor:"9,keyasint"`
	IsDeleted   bool   `cbor:"10,keyasint"`
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

const msgPrefix = "msg:"

func messageKey(id uuid.UUID) []byte {
	return []byte(msgPrefix + id.String())
}

// pairKey builds the conversation index key. The pair is ordered
// lexicographically so both directions of a conversation share one prefix,
// and the 19-digit zero-padded timestamp makes keys sort chronologically.
// The trailing UUID disambiguates two messages in the same nanosecond.
func pairKey(userA, userB string, at time.Time, id uuid.UUID) []byte {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return []byte(fmt.Sprintf("conv:%s:%s:%019d:%s", lo, hi, at.UnixNano(), id))
}

func pairPrefix(userA, userB string) []byte {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return []byte(fmt.Sprintf("conv:%s:%s:", lo, hi))
}

// StoreMessage assigns the row its identity and persists it together with
// its conversation index entry. The index key never changes afterwards
// because id and sentAt are immutable, so updates only rewrite the row.
func (m MessageRepository) StoreMessage(message DiskMessage) (DiskMessage, error) {
	message.ID = uuid.New()
	data, err := cbor.Marshal(toDiskRecord(message))
	if err != nil {
		return DiskMessage{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(message.ID), data); err != nil {
			return err
		}
		idxKey := pairKey(message.SenderID, message.ReceiverID, message.SentAt, message.ID)
		return txn.Set(idxKey, []byte(message.ID.String()))
	})
	if err != nil {
		return DiskMessage{}, err
	}
	return message, nil
}

func (m MessageRepository) GetMessage(id uuid.UUID) (DiskMessage, error) {
	var record diskRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return cbor.Unmarshal(value, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return DiskMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return DiskMessage{}, err
	}
	return toDiskMessage(record)
}

func (m MessageRepository) UpdateMessage(message DiskMessage) error {
	data, err := cbor.Marshal(toDiskRecord(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message.ID), data)
	})
}

// GetConversation walks the conversation index in reverse to return the page
// sorted by sentAt descending. Soft-deleted rows are skipped before the
// page window is applied so pages stay full.
func (m MessageRepository) GetConversation(userA, userB string, page, size int) ([]DiskMessage, error) {
	if page < 0 || size <= 0 {
		return nil, nil
	}
	var messages []DiskMessage
	offset := page * size
	seen := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := pairPrefix(userA, userB)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var idStr string
			err := it.Item().Value(func(value []byte) error {
				idStr = string(value)
				return nil
			})
			if err != nil {
				return err
			}
			row, err := m.getInTxn(txn, idStr)
			if err != nil {
				return err
			}
			if row.IsDeleted {
				continue
			}
			if seen < offset {
				seen++
				continue
			}
			messages = append(messages, row)
			if len(messages) == size {
				return nil
			}
		}
		return nil
	})
	return messages, err
}

func (m MessageRepository) getInTxn(txn *badger.Txn, id string) (DiskMessage, error) {
	item, err := txn.Get([]byte(msgPrefix + id))
	if err != nil {
		return DiskMessage{}, err
	}
	var record diskRecord
	if err := item.Value(func(value []byte) error {
		return cbor.Unmarshal(value, &record)
	}); err != nil {
		return DiskMessage{}, err
	}
	return toDiskMessage(record)
}

func (m MessageRepository) GetUnreadByReceiver(receiverID string) ([]DiskMessage, error) {
	return m.scan(func(row DiskMessage) bool {
		return !row.IsDeleted && row.ReceiverID == receiverID && row.Status != "READ"
	})
}

func (m MessageRepository) GetUnreadBetween(receiverID, senderID string) ([]DiskMessage, error) {
	return m.scan(func(row DiskMessage) bool {
		return !row.IsDeleted &&
			row.ReceiverID == receiverID &&
			row.SenderID == senderID &&
			row.Status != "READ"
	})
}

func (m MessageRepository) GetMessagesInvolving(userID string) ([]DiskMessage, error) {
	return m.scan(func(row DiskMessage) bool {
		return !row.IsDeleted && (row.SenderID == userID || row.ReceiverID == userID)
	})
}

// scan is a full pass over every message row. Unread and conversation-list
// queries recompute from scratch on every call; correctness over speed is
// the contract here, an incremental index is a known possible enhancement.
func (m MessageRepository) scan(keep func(DiskMessage) bool) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record diskRecord
			err := it.Item().Value(func(value []byte) error {
				return cbor.Unmarshal(value, &record)
			})
			if err != nil {
				return err
			}
			row, err := toDiskMessage(record)
			if err != nil {
				return err
			}
			if keep(row) {
				messages = append(messages, row)
			}
		}
		return nil
	})
	return messages, err
}

func toDiskRecord(message DiskMessage) diskRecord {
	record := diskRecord{
		ID:         message.ID.String(),
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Content:    message.Content,
		Lang:       message.Lang,
		Status:     message.Status,
		SentAt:     message.SentAt.UnixNano(),
		IsDeleted:  message.IsDeleted,
	}
	if message.DeliveredAt != nil {
		nanos := message.DeliveredAt.UnixNano()
		record.DeliveredAt = &nanos
	}
	if message.ReadAt != nil {
		nanos := message.ReadAt.UnixNano()
		record.ReadAt = &nanos
	}
	return record
}

func toDiskMessage(record diskRecord) (DiskMessage, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return DiskMessage{}, err
	}
	if record.Status != "SENT" && record.Status != "DELIVERED" && record.Status != "READ" {
		return DiskMessage{}, fmt.Errorf("%w: %q", errors.ErrUnknownStatus, record.Status)
	}
	message := DiskMessage{
		ID:         parsedID,
		SenderID:   record.SenderID,
		ReceiverID: record.ReceiverID,
		Content:    record.Content,
		Lang:       record.Lang,
		Status:     record.Status,
		SentAt:     time.Unix(0, record.SentAt).UTC(),
		IsDeleted:  record.IsDeleted,
	}
	if record.DeliveredAt != nil {
		at := time.Unix(0, *record.DeliveredAt).UTC()
		message.DeliveredAt = &at
	}
	if record.ReadAt != nil {
		at := time.Unix(0, *record.ReadAt).UTC()
		message.ReadAt = &at
	}
	return message, nil
}
