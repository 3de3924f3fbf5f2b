//go:generate go run go.uber.org/mock/mockgen -source=otp.go -destination=../mocks/mock_otp_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"dm-lab/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

type IOtpRepository interface {
	StoreToken(email string, purpose domain.Purpose, token OtpToken) error
	// RecentTokens returns the live tokens for an (email, purpose) pair,
	// newest first.
	RecentTokens(email string, purpose domain.Purpose) ([]OtpToken, error)
	MarkUsed(token OtpToken) error
}

// OtpToken holds an argon2id hash of the code, never the code itself.
// Key is the Badger key the token was read from; it travels with the token
// so MarkUsed can rewrite the exact row.
type OtpToken struct {
	Key        string `cbor:"-"`
	HashedCode string `cbor:"1,keyasint"`
	CreatedAt  int64  `cbor:"2,keyasint"`
	ExpiresAt  int64  `cbor:"3,keyasint"`
	Used       bool   `cbor:"4,keyasint"`
}

type OtpRepository struct {
	db *badger.DB
	// retention bounds the rate-limit window: Badger expires token rows by
	// TTL after this duration, so RecentTokens only ever sees the window.
	retention time.Duration
}

func NewOtpRepository(db *badger.DB, retention time.Duration) OtpRepository {
	return OtpRepository{db: db, retention: retention}
}

func otpPrefix(email string, purpose domain.Purpose) []byte {
	return []byte(fmt.Sprintf("otp:%s:%s:", email, purpose))
}

func (o OtpRepository) StoreToken(email string, purpose domain.Purpose, token OtpToken) error {
	key := fmt.Sprintf("%s%019d:%s", otpPrefix(email, purpose), token.CreatedAt, uuid.NewString())
	data, err := cbor.Marshal(token)
	if err != nil {
		return err
	}
	return o.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(o.retention)
		return txn.SetEntry(entry)
	})
}

func (o OtpRepository) RecentTokens(email string, purpose domain.Purpose) ([]OtpToken, error) {
	var tokens []OtpToken
	err := o.db.View(func(txn *badger.Txn) error {
		prefix := otpPrefix(email, purpose)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var token OtpToken
			key := string(it.Item().Key())
			err := it.Item().Value(func(value []byte) error {
				return cbor.Unmarshal(value, &token)
			})
			if err != nil {
				return err
			}
			token.Key = key
			tokens = append(tokens, token)
		}
		return nil
	})
	return tokens, err
}

// MarkUsed rewrites the row in place so a code can never verify twice.
// The remaining TTL keeps counting from the original creation for the
// rate-limit window, so the new entry reuses the retention duration minus
// the token's age.
func (o OtpRepository) MarkUsed(token OtpToken) error {
	token.Used = true
	data, err := cbor.Marshal(token)
	if err != nil {
		return err
	}
	age := time.Since(time.Unix(0, token.CreatedAt))
	ttl := o.retention - age
	if ttl <= 0 {
		ttl = time.Minute
	}
	return o.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(token.Key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}
