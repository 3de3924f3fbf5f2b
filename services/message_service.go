//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dm-lab/domain"
	"dm-lab/errors"
	"dm-lab/moderation"
	"dm-lab/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageService interface {
	Send(cmd domain.SendMessageCommand) (domain.Message, error)
	MarkDelivered(id uuid.UUID) (domain.Message, domain.Outcome, error)
	MarkRead(id uuid.UUID) (domain.Message, domain.Outcome, error)
	MarkConversationRead(receiverID, senderID string) (int, error)
	SoftDelete(id uuid.UUID) (domain.Outcome, error)
	GetConversation(userA, userB string, page, size int) ([]domain.Message, error)
	GetUnreadMessages(receiverID string) ([]domain.Message, error)
	GetUnreadCount(receiverID, senderID string) (int, error)
}

const lockStripes = 64

// MessageService owns the SENT -> DELIVERED -> READ state machine.
// Transitions are read-modify-write under a per-message striped lock so two
// concurrent acknowledgments for the same message serialize; the transition
// table then makes the late one a no-op instead of a blind overwrite.
type MessageService struct {
	repository repositories.IMessageRepository
	censor     *moderation.Moderator
	log        *slog.Logger
	now        func() time.Time
	locks      [lockStripes]sync.Mutex
}

func NewMessageService(repository repositories.IMessageRepository,
	censor *moderation.Moderator, log *slog.Logger) *MessageService {
	return &MessageService{
		repository: repository,
		censor:     censor,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *MessageService) lockFor(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(id[:])
	return &s.locks[h.Sum32()%lockStripes]
}

// Send validates, censors, and persists a new message in SENT state. The
// store assigns the identity; the returned copy is the canonical row both
// parties will be pushed.
func (s *MessageService) Send(cmd domain.SendMessageCommand) (domain.Message, error) {
	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if cmd.SenderID == cmd.ReceiverID {
		return domain.Message{}, errors.ErrSelfAddressed
	}

	var censoredWords []string
	if s.censor != nil {
		content, censoredWords = s.censor.Censor(content)
	}
	if len(censoredWords) > 0 {
		s.log.Warn("Censored words in outbound message",
			"sender", cmd.SenderID, "count", len(censoredWords))
	}

	row := repositories.DiskMessage{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Content:    content,
		Lang:       moderation.DetectLang(content),
		Status:     domain.StatusSent.String(),
		SentAt:     s.now(),
	}
	stored, err := s.repository.StoreMessage(row)
	if err != nil {
		return domain.Message{}, fmt.Errorf("storing message: %w", err)
	}
	return toMessage(stored)
}

// MarkDelivered advances a SENT message to DELIVERED. A missing id is a
// no-op (late or duplicate acknowledgment), as is a message already past
// SENT; neither regresses status nor touches existing timestamps.
func (s *MessageService) MarkDelivered(id uuid.UUID) (domain.Message, domain.Outcome, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	row, err := s.repository.GetMessage(id)
	if err == errors.ErrMessageNotFound {
		return domain.Message{}, domain.OutcomeNotFound, nil
	}
	if err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}

	message, err := toMessage(row)
	if err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}
	if !message.Status.CanAdvance(domain.StatusDelivered) {
		return message, domain.OutcomeAlreadySatisfied, nil
	}

	now := s.now()
	row.Status = domain.StatusDelivered.String()
	row.DeliveredAt = &now
	if err := s.repository.UpdateMessage(row); err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}
	message, err = toMessage(row)
	return message, domain.OutcomeApplied, err
}

// MarkRead advances any non-READ message to READ. When delivery was never
// acknowledged, deliveredAt is backfilled to the read timestamp so the
// ordering invariant sentAt <= deliveredAt <= readAt always holds.
func (s *MessageService) MarkRead(id uuid.UUID) (domain.Message, domain.Outcome, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	row, err := s.repository.GetMessage(id)
	if err == errors.ErrMessageNotFound {
		return domain.Message{}, domain.OutcomeNotFound, nil
	}
	if err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}

	message, err := toMessage(row)
	if err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}
	if message.Status == domain.StatusRead {
		return message, domain.OutcomeAlreadySatisfied, nil
	}

	now := s.now()
	row.Status = domain.StatusRead.String()
	row.ReadAt = &now
	if row.DeliveredAt == nil {
		row.DeliveredAt = &now
	}
	if err := s.repository.UpdateMessage(row); err != nil {
		return domain.Message{}, domain.OutcomeNotFound, err
	}
	message, err = toMessage(row)
	return message, domain.OutcomeApplied, err
}

// MarkConversationRead transitions every unread message from senderID to
// receiverID into READ with one shared timestamp for the whole batch.
// Returns the number of messages transitioned.
func (s *MessageService) MarkConversationRead(receiverID, senderID string) (int, error) {
	unread, err := s.repository.GetUnreadBetween(receiverID, senderID)
	if err != nil {
		return 0, err
	}

	now := s.now()
	count := 0
	for _, row := range unread {
		lock := s.lockFor(row.ID)
		lock.Lock()
		// Re-read under the lock: a concurrent ack may have won the race.
		current, err := s.repository.GetMessage(row.ID)
		if err != nil {
			lock.Unlock()
			if err == errors.ErrMessageNotFound {
				continue
			}
			return count, err
		}
		if current.Status == domain.StatusRead.String() {
			lock.Unlock()
			continue
		}
		current.Status = domain.StatusRead.String()
		current.ReadAt = &now
		if current.DeliveredAt == nil {
			current.DeliveredAt = &now
		}
		err = s.repository.UpdateMessage(current)
		lock.Unlock()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// SoftDelete flips the removal flag; the row stays readable by id but
// disappears from every listing and aggregate.
func (s *MessageService) SoftDelete(id uuid.UUID) (domain.Outcome, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	row, err := s.repository.GetMessage(id)
	if err == errors.ErrMessageNotFound {
		return domain.OutcomeNotFound, nil
	}
	if err != nil {
		return domain.OutcomeNotFound, err
	}
	if row.IsDeleted {
		return domain.OutcomeAlreadySatisfied, nil
	}
	row.IsDeleted = true
	if err := s.repository.UpdateMessage(row); err != nil {
		return domain.OutcomeNotFound, err
	}
	return domain.OutcomeApplied, nil
}

func (s *MessageService) GetConversation(userA, userB string, page, size int) ([]domain.Message, error) {
	rows, err := s.repository.GetConversation(userA, userB, page, size)
	if err != nil {
		return nil, err
	}
	return toMessages(rows)
}

func (s *MessageService) GetUnreadMessages(receiverID string) ([]domain.Message, error) {
	rows, err := s.repository.GetUnreadByReceiver(receiverID)
	if err != nil {
		return nil, err
	}
	return toMessages(rows)
}

func (s *MessageService) GetUnreadCount(receiverID, senderID string) (int, error) {
	rows, err := s.repository.GetUnreadBetween(receiverID, senderID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func toMessages(rows []repositories.DiskMessage) ([]domain.Message, error) {
	var firstErr error
	messages := lo.FilterMap(rows, func(row repositories.DiskMessage, _ int) (domain.Message, bool) {
		message, err := toMessage(row)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return message, err == nil
	})
	return messages, firstErr
}

func toMessage(row repositories.DiskMessage) (domain.Message, error) {
	status, err := domain.ParseStatus(row.Status)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %q", err, row.Status)
	}
	return domain.Message{
		ID:          row.ID,
		SenderID:    row.SenderID,
		ReceiverID:  row.ReceiverID,
		Content:     row.Content,
		Lang:        row.Lang,
		Status:      status,
		SentAt:      row.SentAt,
		DeliveredAt: row.DeliveredAt,
		ReadAt:      row.ReadAt,
		IsDeleted:   row.IsDeleted,
	}, nil
}
