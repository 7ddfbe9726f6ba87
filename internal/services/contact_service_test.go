package services

import (
	"context"
	"errors"
	"testing"

	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

func TestAddContactCreatesUserAndConversation(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewContactService(st)
	ctx := context.Background()

	you := &models.User{ID: "user-you", Name: "You", Phone: "+15550100"}
	if err := st.Users().Create(ctx, you); err != nil {
		t.Fatalf("create user: %v", err)
	}

	result, err := service.AddContact(ctx, you.ID, "Alice", "+1 (555) 010-1")
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if result.Contact.Name != "Alice" || result.Contact.Phone != "+15550101" {
		t.Fatalf("unexpected contact: %+v", result.Contact)
	}
	if !result.Conversation.HasParticipant(you.ID) || !result.Conversation.HasParticipant(result.Contact.ID) {
		t.Fatalf("conversation missing participants: %+v", result.Conversation)
	}

	// Adding the same number again must land on the same conversation.
	again, err := service.AddContact(ctx, you.ID, "Alice A.", "+15550101")
	if err != nil {
		t.Fatalf("AddContact again: %v", err)
	}
	if again.Conversation.ID != result.Conversation.ID {
		t.Fatalf("expected conversation %s, got %s", result.Conversation.ID, again.Conversation.ID)
	}
	if again.Contact.ID != result.Contact.ID {
		t.Fatalf("expected contact %s, got %s", result.Contact.ID, again.Contact.ID)
	}

	contacts, err := service.ListContacts(ctx, you.ID)
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != result.Contact.ID {
		t.Fatalf("unexpected contacts: %+v", contacts)
	}
}

func TestAddContactRejectsSelfAndBadInput(t *testing.T) {
	st := store.NewMemoryStore()
	service := NewContactService(st)
	ctx := context.Background()

	you := &models.User{ID: "user-you", Name: "You", Phone: "+15550100"}
	if err := st.Users().Create(ctx, you); err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := service.AddContact(ctx, you.ID, "Me", "+15550100"); !errors.Is(err, ErrSelfContact) {
		t.Fatalf("expected ErrSelfContact, got %v", err)
	}
	if _, err := service.AddContact(ctx, you.ID, "", "+15550101"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := service.AddContact(ctx, you.ID, "Alice", "nope"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad phone, got %v", err)
	}
	if _, err := service.AddContact(ctx, "ghost", "Alice", "+15550101"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unknown actor, got %v", err)
	}
}
