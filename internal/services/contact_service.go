package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
	"github.com/javeriarizwan/chatclone/pkg/utils"
)

// ContactService creates contacts and the two-party conversation that comes
// with them. Adding the same number twice lands on the same conversation.
type ContactService struct {
	store store.Store
}

func NewContactService(st store.Store) *ContactService {
	return &ContactService{store: st}
}

type ContactResult struct {
	Contact      *models.User         `json:"contact"`
	Conversation *models.Conversation `json:"conversation"`
}

func (s *ContactService) AddContact(ctx context.Context, actorID, name, phone string) (*ContactResult, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, ErrInvalidInput
	}

	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, ErrInvalidInput
	}

	actor, err := s.store.Users().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if actor.Phone == normalized {
		return nil, ErrSelfContact
	}

	contact, err := s.store.Users().GetByPhone(ctx, normalized)
	if errors.Is(err, store.ErrNotFound) {
		contact = &models.User{
			ID:    uuid.NewString(),
			Name:  trimmedName,
			Phone: normalized,
		}
		if err := s.store.Users().Create(ctx, contact); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	conversation, err := s.store.Conversations().CreateOrGet(ctx, actorID, contact.ID)
	if err != nil {
		return nil, err
	}

	return &ContactResult{Contact: contact, Conversation: conversation}, nil
}

func (s *ContactService) ListContacts(ctx context.Context, actorID string) ([]models.User, error) {
	return s.store.Users().ListContacts(ctx, actorID)
}
