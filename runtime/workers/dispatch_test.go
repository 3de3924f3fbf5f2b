package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"dm-lab/domain"
	"dm-lab/domain/event"
	"dm-lab/errors"
	"dm-lab/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func runDispatchWorker(t *testing.T, worker *DispatchWorker, commands chan domain.Command, cmds ...domain.Command) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()
	for _, cmd := range cmds {
		commands <- cmd
	}
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch worker did not stop")
	}
}

func TestDispatchWorker_SendPublishesMessageCreated(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	serviceMock := mocks.NewMockIMessageService(ctrl)
	publisherMock := mocks.NewMockEventPublisher(ctrl)

	cmd := domain.SendMessageCommand{SenderID: "alice", ReceiverID: "bob", Content: "hello"}
	stored := domain.Message{
		ID: uuid.New(), SenderID: "alice", ReceiverID: "bob",
		Content: "hello", Status: domain.StatusSent, SentAt: time.Now().UTC(),
	}
	serviceMock.EXPECT().Send(cmd).Return(stored, nil).Times(1)

	var published event.DomainEvent
	publisherMock.EXPECT().Publish(gomock.Any()).
		Do(func(e event.DomainEvent) { published = e }).
		Times(1)

	commands := make(chan domain.Command, 1)
	worker := NewDispatchWorker(serviceMock, commands, publisherMock, slog.Default())
	runDispatchWorker(t, worker, commands, cmd)

	created, ok := published.(event.MessageCreated)
	req.True(ok)
	req.Equal(stored, created.Message)
}

func TestDispatchWorker_RejectedSendPublishesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	serviceMock := mocks.NewMockIMessageService(ctrl)
	publisherMock := mocks.NewMockEventPublisher(ctrl)

	cmd := domain.SendMessageCommand{SenderID: "alice", ReceiverID: "alice", Content: "hi"}
	serviceMock.EXPECT().Send(cmd).
		Return(domain.Message{}, errors.ErrSelfAddressed).Times(1)
	// A rejected message never reaches the publisher.
	publisherMock.EXPECT().Publish(gomock.Any()).Times(0)

	commands := make(chan domain.Command, 1)
	worker := NewDispatchWorker(serviceMock, commands, publisherMock, slog.Default())
	runDispatchWorker(t, worker, commands, cmd)
}

func TestDispatchWorker_AckReadPublishesStatusChanged(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	serviceMock := mocks.NewMockIMessageService(ctrl)
	publisherMock := mocks.NewMockEventPublisher(ctrl)

	id := uuid.New()
	readAt := time.Now().UTC()
	message := domain.Message{
		ID: id, SenderID: "alice", ReceiverID: "bob",
		Status: domain.StatusRead, ReadAt: &readAt, DeliveredAt: &readAt,
	}
	serviceMock.EXPECT().MarkRead(id).Return(message, domain.OutcomeApplied, nil).Times(1)

	var published event.DomainEvent
	publisherMock.EXPECT().Publish(gomock.Any()).
		Do(func(e event.DomainEvent) { published = e }).
		Times(1)

	commands := make(chan domain.Command, 1)
	worker := NewDispatchWorker(serviceMock, commands, publisherMock, slog.Default())
	runDispatchWorker(t, worker, commands, domain.AckReadCommand{MessageID: id, SenderID: "alice"})

	changed, ok := published.(event.StatusChanged)
	req.True(ok)
	req.Equal(id, changed.MessageID)
	req.Equal("alice", changed.SenderID)
	req.Equal(domain.StatusRead, changed.Status)
	req.True(changed.At.Equal(readAt))
}

func TestDispatchWorker_NoOpAckStaysQuiet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	serviceMock := mocks.NewMockIMessageService(ctrl)
	publisherMock := mocks.NewMockEventPublisher(ctrl)

	id := uuid.New()
	serviceMock.EXPECT().MarkDelivered(id).
		Return(domain.Message{}, domain.OutcomeNotFound, nil).Times(1)
	// Publish must never be called for a no-op.
	publisherMock.EXPECT().Publish(gomock.Any()).Times(0)

	commands := make(chan domain.Command, 1)
	worker := NewDispatchWorker(serviceMock, commands, publisherMock, slog.Default())
	runDispatchWorker(t, worker, commands, domain.AckDeliveredCommand{MessageID: id, SenderID: "alice"})
}

func TestDispatchWorker_TypingPassesThrough(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	serviceMock := mocks.NewMockIMessageService(ctrl)
	publisherMock := mocks.NewMockEventPublisher(ctrl)

	var published event.DomainEvent
	publisherMock.EXPECT().Publish(gomock.Any()).
		Do(func(e event.DomainEvent) { published = e }).
		Times(1)

	commands := make(chan domain.Command, 1)
	worker := NewDispatchWorker(serviceMock, commands, publisherMock, slog.Default())
	runDispatchWorker(t, worker, commands, domain.TypingCommand{
		SenderID: "alice", ReceiverID: "bob", IsTyping: true,
	})

	signal, ok := published.(event.TypingSignal)
	req.True(ok)
	req.Equal("bob", signal.ReceiverID)
	req.True(signal.IsTyping)
}
