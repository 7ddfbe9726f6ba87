package store

import (
	"context"
	"errors"
	"time"

	"github.com/javeriarizwan/chatclone/internal/models"
)

var (
	// ErrNotFound is returned when a user, conversation or message does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStatusRegression is returned when an update would move a message
	// status backwards along sent -> delivered -> read.
	ErrStatusRegression = errors.New("status regression")
)

// MessageStore is the contract shared by the in-memory and postgres
// implementations. ListByConversation always returns messages ordered
// ascending by creation time.
type MessageStore interface {
	Append(ctx context.Context, message *models.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) error
}

type ConversationStore interface {
	// CreateOrGet returns the existing conversation between the two users,
	// creating it if absent. The pair is unordered.
	CreateOrGet(ctx context.Context, ownerID, contactID string) (*models.Conversation, error)
	GetForParticipant(ctx context.Context, conversationID, participantID string) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, participantID string) ([]models.ConversationSummary, error)
	Touch(ctx context.Context, conversationID string, at time.Time) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	ListContacts(ctx context.Context, userID string) ([]models.User, error)
	SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
}

// Store bundles the three entity stores behind one handle so callers can
// swap the memory and postgres variants without caring which one they got.
type Store interface {
	Users() UserStore
	Conversations() ConversationStore
	Messages() MessageStore
}
