package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/repository"
)

// PostgresStore adapts the pgx repositories to the Store contract.
type PostgresStore struct {
	users         *repository.UserRepository
	conversations *repository.ConversationRepository
	messages      *repository.MessageRepository
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		users:         repository.NewUserRepository(db),
		conversations: repository.NewConversationRepository(db),
		messages:      repository.NewMessageRepository(db),
	}
}

func (s *PostgresStore) Users() UserStore                 { return &pgUsers{repo: s.users} }
func (s *PostgresStore) Conversations() ConversationStore { return &pgConversations{repo: s.conversations} }
func (s *PostgresStore) Messages() MessageStore           { return &pgMessages{repo: s.messages} }

type pgUsers struct {
	repo *repository.UserRepository
}

func (s *pgUsers) Create(ctx context.Context, user *models.User) error {
	return s.repo.Create(ctx, user)
}

func (s *pgUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	return user, mapNoRows(err)
}

func (s *pgUsers) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.repo.GetByPhone(ctx, phone)
	return user, mapNoRows(err)
}

func (s *pgUsers) ListContacts(ctx context.Context, userID string) ([]models.User, error) {
	return s.repo.ListContacts(ctx, userID)
}

func (s *pgUsers) SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	return s.repo.SetPresence(ctx, userID, online, lastSeen)
}

type pgConversations struct {
	repo *repository.ConversationRepository
}

func (s *pgConversations) CreateOrGet(ctx context.Context, ownerID, contactID string) (*models.Conversation, error) {
	return s.repo.CreateOrGet(ctx, ownerID, contactID)
}

func (s *pgConversations) GetForParticipant(ctx context.Context, conversationID, participantID string) (*models.Conversation, error) {
	conversation, err := s.repo.GetForParticipant(ctx, conversationID, participantID)
	return conversation, mapNoRows(err)
}

func (s *pgConversations) ListForParticipant(ctx context.Context, participantID string) ([]models.ConversationSummary, error) {
	return s.repo.ListForParticipant(ctx, participantID)
}

func (s *pgConversations) Touch(ctx context.Context, conversationID string, at time.Time) error {
	return s.repo.Touch(ctx, conversationID, at)
}

type pgMessages struct {
	repo *repository.MessageRepository
}

func (s *pgMessages) Append(ctx context.Context, message *models.Message) error {
	return s.repo.Insert(ctx, message)
}

func (s *pgMessages) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	return s.repo.ListByConversation(ctx, conversationID)
}

func (s *pgMessages) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) error {
	advanced, err := s.repo.UpdateStatus(ctx, messageID, status)
	if err != nil {
		return err
	}
	if !advanced {
		return ErrStatusRegression
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
