package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

// Broadcaster pushes a freshly persisted message to connected participants.
type Broadcaster interface {
	BroadcastMessage(message *models.Message, recipientID string)
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.Message
	RecipientID  string
}

// ChatService is the message lifecycle controller: it creates outbound
// messages, persists them, schedules the sent -> delivered -> read
// progression and kicks off the webhook notification.
type ChatService struct {
	store       store.Store
	scheduler   *StatusScheduler
	notifier    Notifier
	audio       AudioStore
	broadcaster Broadcaster
	feed        MessageFeed
}

func NewChatService(
	st store.Store,
	scheduler *StatusScheduler,
	notifier Notifier,
	audio AudioStore,
	broadcaster Broadcaster,
	feed MessageFeed,
) *ChatService {
	return &ChatService{
		store:       st,
		scheduler:   scheduler,
		notifier:    notifier,
		audio:       audio,
		broadcaster: broadcaster,
		feed:        feed,
	}
}

func (s *ChatService) ListConversations(ctx context.Context, actorID string) ([]models.ConversationSummary, error) {
	return s.store.Conversations().ListForParticipant(ctx, actorID)
}

func (s *ChatService) ListMessages(ctx context.Context, actorID, conversationID string) ([]models.Message, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.Conversations().GetForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return s.store.Messages().ListByConversation(ctx, conversationID)
}

// SubscribeMessages opens a feed subscription for a conversation the actor
// participates in. Subscriptions carry the same access rule as the poll read
// path: outsiders get ErrForbidden and never see a snapshot.
func (s *ChatService) SubscribeMessages(
	ctx context.Context,
	actorID string,
	conversationID string,
	fn func([]models.Message),
) (Subscription, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.Conversations().GetForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return s.feed.Subscribe(conversationID, fn), nil
}

func (s *ChatService) SendText(
	ctx context.Context,
	actorID string,
	conversationID string,
	content string,
) (*ChatDelivery, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrInvalidInput
	}

	return s.send(ctx, actorID, conversationID, models.MessageTypeText, trimmed, nil)
}

func (s *ChatService) SendAudio(
	ctx context.Context,
	actorID string,
	conversationID string,
	audio []byte,
	durationSeconds int,
) (*ChatDelivery, error) {
	if len(audio) == 0 || durationSeconds < 0 || conversationID == "" {
		return nil, ErrInvalidInput
	}

	// Check access before the upload so a rejected send cannot leave an
	// orphaned object behind.
	if _, err := s.store.Conversations().GetForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	messageID := uuid.NewString()
	content, err := s.audio.StoreAudio(ctx, audio, messageID)
	if err != nil {
		return nil, err
	}

	duration := durationSeconds
	return s.sendWithID(ctx, messageID, actorID, conversationID, models.MessageTypeAudio, content, &duration)
}

func (s *ChatService) send(
	ctx context.Context,
	actorID string,
	conversationID string,
	messageType models.MessageType,
	content string,
	duration *int,
) (*ChatDelivery, error) {
	return s.sendWithID(ctx, uuid.NewString(), actorID, conversationID, messageType, content, duration)
}

func (s *ChatService) sendWithID(
	ctx context.Context,
	messageID string,
	actorID string,
	conversationID string,
	messageType models.MessageType,
	content string,
	duration *int,
) (*ChatDelivery, error) {
	if conversationID == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.store.Conversations().GetForParticipant(ctx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	sender, err := s.store.Users().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	message := &models.Message{
		ID:             messageID,
		ConversationID: conversation.ID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		Type:           messageType,
		Content:        content,
		Status:         models.StatusSent,
		Duration:       duration,
		CreatedAt:      time.Now().UTC(),
	}

	// The append is the one real failure path: if it does not land, the send
	// is aborted and nothing else happens.
	if err := s.store.Messages().Append(ctx, message); err != nil {
		return nil, err
	}

	if err := s.store.Conversations().Touch(ctx, conversation.ID, message.CreatedAt); err != nil {
		log.Printf("chat: touch conversation %s: %v", conversation.ID, err)
	}

	s.scheduler.Schedule(message.ID)

	recipientID := conversation.OtherParticipant(sender.ID)
	if s.notifier != nil {
		go s.notify(message, sender, recipientID)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMessage(message, recipientID)
	}

	return &ChatDelivery{
		Conversation: conversation,
		Message:      message,
		RecipientID:  recipientID,
	}, nil
}

func (s *ChatService) notify(message *models.Message, sender *models.User, recipientID string) {
	ctx := context.Background()

	recipientName := ""
	if recipient, err := s.store.Users().GetByID(ctx, recipientID); err == nil {
		recipientName = recipient.Name
	} else {
		log.Printf("chat: resolve recipient %s: %v", recipientID, err)
	}

	s.notifier.Notify(ctx, WebhookPayload{
		Event:          "message_sent",
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		RecipientID:    recipientID,
		RecipientName:  recipientName,
		MessageType:    message.Type,
		Content:        message.Content,
		Timestamp:      message.CreatedAt.Format(time.RFC3339),
		Status:         message.Status,
		Duration:       message.Duration,
	})
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
