//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"dm-lab/domain"
	"dm-lab/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; supervision handles panics and restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Bus is the outbound side of the transport: per-user private channels plus
// one shared broadcast channel. Pushes are fire-and-forget; an unreachable
// recipient is silent loss, never an error.
type Bus interface {
	PushToUser(userID string, payload any)
	Broadcast(payload any)
}

// EventPublisher enqueues a domain event for fan-out. Never blocks.
type EventPublisher interface {
	Publish(e event.DomainEvent)
}

// Verifier issues and checks one-time codes. The core never looks inside.
type Verifier interface {
	RequestCode(email string, purpose domain.Purpose) error
	VerifyCode(email, code string, purpose domain.Purpose) (bool, error)
}

// PresenceReader is the read-only presence lookup used by projections.
type PresenceReader interface {
	IsOnline(userID string) bool
}

// Mailer delivers a one-time code out of band.
type Mailer interface {
	SendCode(to, code string, purpose domain.Purpose) error
}
