package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
)

// MemoryStore keeps everything in process memory. Data is gone on restart,
// which is the intended behavior of the local mode.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	conversations map[string]*models.Conversation
	messages      []*models.Message
	messageByID   map[string]*models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]*models.User),
		conversations: make(map[string]*models.Conversation),
		messageByID:   make(map[string]*models.Message),
	}
}

func (s *MemoryStore) Users() UserStore                 { return (*memoryUsers)(s) }
func (s *MemoryStore) Conversations() ConversationStore { return (*memoryConversations)(s) }
func (s *MemoryStore) Messages() MessageStore           { return (*memoryMessages)(s) }

type memoryUsers MemoryStore

func (s *memoryUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	clone := *user
	s.users[user.ID] = &clone
	return nil
}

func (s *memoryUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (s *memoryUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Phone == phone {
			clone := *user
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryUsers) ListContacts(_ context.Context, userID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]models.User, 0)
	for _, conversation := range s.conversations {
		if !conversation.HasParticipant(userID) {
			continue
		}
		other, ok := s.users[conversation.OtherParticipant(userID)]
		if !ok {
			continue
		}
		contacts = append(contacts, *other)
	}

	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Name < contacts[j].Name })
	return contacts, nil
}

func (s *memoryUsers) SetPresence(_ context.Context, userID string, online bool, lastSeen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.IsOnline = online
	seen := lastSeen
	user.LastSeen = &seen
	return nil
}

type memoryConversations MemoryStore

func (s *memoryConversations) CreateOrGet(_ context.Context, ownerID, contactID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return nil, ErrNotFound
	}
	if _, ok := s.users[contactID]; !ok {
		return nil, ErrNotFound
	}

	for _, conversation := range s.conversations {
		if conversation.HasParticipant(ownerID) && conversation.HasParticipant(contactID) {
			clone := *conversation
			return &clone, nil
		}
	}

	now := time.Now().UTC()
	conversation := &models.Conversation{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		ContactID: contactID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.conversations[conversation.ID] = conversation
	clone := *conversation
	return &clone, nil
}

func (s *memoryConversations) GetForParticipant(_ context.Context, conversationID, participantID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conversation, ok := s.conversations[conversationID]
	if !ok || !conversation.HasParticipant(participantID) {
		return nil, ErrNotFound
	}
	clone := *conversation
	return &clone, nil
}

func (s *memoryConversations) ListForParticipant(_ context.Context, participantID string) ([]models.ConversationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]models.ConversationSummary, 0)
	for _, conversation := range s.conversations {
		if !conversation.HasParticipant(participantID) {
			continue
		}

		summary := models.ConversationSummary{Conversation: *conversation}
		if contact, ok := s.users[conversation.OtherParticipant(participantID)]; ok {
			clone := *contact
			summary.Contact = &clone
		}

		for _, message := range s.messages {
			if message.ConversationID != conversation.ID {
				continue
			}
			if summary.LastMessage == nil || message.CreatedAt.After(summary.LastMessage.CreatedAt) {
				clone := *message
				summary.LastMessage = &clone
			}
			if message.SenderID != participantID && message.Status != models.StatusRead {
				summary.UnreadCount++
			}
		}

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

func (s *memoryConversations) Touch(_ context.Context, conversationID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}
	conversation.UpdatedAt = at
	return nil
}

type memoryMessages MemoryStore

func (s *memoryMessages) Append(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[message.ConversationID]; !ok {
		return ErrNotFound
	}

	clone := *message
	s.messages = append(s.messages, &clone)
	s.messageByID[clone.ID] = &clone
	return nil
}

func (s *memoryMessages) ListByConversation(_ context.Context, conversationID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]models.Message, 0)
	for _, message := range s.messages {
		if message.ConversationID == conversationID {
			messages = append(messages, *message)
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (s *memoryMessages) UpdateStatus(_ context.Context, messageID string, status models.MessageStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messageByID[messageID]
	if !ok {
		return ErrNotFound
	}
	if status.Rank() <= message.Status.Rank() {
		return ErrStatusRegression
	}
	message.Status = status
	return nil
}
