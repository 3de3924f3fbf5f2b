//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"dm-lab/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(email, username string) (User, error)
	GetUserByEmail(email string) (User, error)
	GetUserByID(id string) (User, error)
	EmailExists(email string) (bool, error)
}

// User is the repository-level profile row.
type User struct {
	ID        string `cbor:"1,keyasint"`
	Email     string `cbor:"2,keyasint"`
	Username  string `cbor:"3,keyasint"`
	Bio       string `cbor:"4,keyasint"`
	Avatar    string `cbor:"5,keyasint"`
	CreatedAt int64  `cbor:"6,keyasint"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userEmailKey(email string) []byte { return []byte("user:email:" + email) }
func userIDKey(id string) []byte       { return []byte("user:id:" + id) }

// CreateUser persists a new profile under both its email key and an id key,
// so conversation counterparts can be resolved by id later.
func (u UserRepository) CreateUser(email, username string) (User, error) {
	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Username:  username,
		CreatedAt: time.Now().UTC().Unix(),
	}
	data, err := cbor.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userEmailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userEmailKey(email), data); err != nil {
			return err
		}
		return txn.Set(userIDKey(user.ID), data)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByEmail(email string) (User, error) {
	return u.get(userEmailKey(email))
}

func (u UserRepository) GetUserByID(id string) (User, error) {
	return u.get(userIDKey(id))
}

func (u UserRepository) EmailExists(email string) (bool, error) {
	_, err := u.GetUserByEmail(email)
	if err == errors.ErrUserNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u UserRepository) get(key []byte) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return cbor.Unmarshal(value, &user)
		})
	})
	if err == badger.ErrKeyNotFound {
		return User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
