package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/javeriarizwan/chatclone/internal/models"
)

func seedUsers(t *testing.T, st *MemoryStore) (string, string) {
	t.Helper()
	ctx := context.Background()

	you := &models.User{ID: "u1", Name: "You", Phone: "+15550100"}
	alice := &models.User{ID: "u2", Name: "Alice", Phone: "+15550101"}
	if err := st.Users().Create(ctx, you); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Users().Create(ctx, alice); err != nil {
		t.Fatalf("create: %v", err)
	}
	return you.ID, alice.ID
}

func TestMemoryConversationCreateOrGetIsIdempotent(t *testing.T) {
	st := NewMemoryStore()
	you, alice := seedUsers(t, st)
	ctx := context.Background()

	first, err := st.Conversations().CreateOrGet(ctx, you, alice)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	// Same pair from either side lands on the same conversation.
	second, err := st.Conversations().CreateOrGet(ctx, alice, you)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same conversation, got %s and %s", first.ID, second.ID)
	}

	if _, err := st.Conversations().CreateOrGet(ctx, you, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown participant, got %v", err)
	}
}

func TestMemoryMessagesListAscending(t *testing.T) {
	st := NewMemoryStore()
	you, alice := seedUsers(t, st)
	ctx := context.Background()

	conversation, err := st.Conversations().CreateOrGet(ctx, you, alice)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	// Insert out of order on purpose.
	for _, spec := range []struct {
		id     string
		offset time.Duration
	}{{"b", time.Minute}, {"c", 2 * time.Minute}, {"a", 0}} {
		err := st.Messages().Append(ctx, &models.Message{
			ID:             spec.id,
			ConversationID: conversation.ID,
			SenderID:       you,
			SenderName:     "You",
			Type:           models.MessageTypeText,
			Content:        spec.id,
			Status:         models.StatusSent,
			CreatedAt:      base.Add(spec.offset),
		})
		if err != nil {
			t.Fatalf("append %s: %v", spec.id, err)
		}
	}

	messages, err := st.Messages().ListByConversation(ctx, conversation.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"a", "b", "c"} {
		if messages[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, messages[i].ID)
		}
	}
}

func TestMemoryMessageAppendRequiresConversation(t *testing.T) {
	st := NewMemoryStore()
	err := st.Messages().Append(context.Background(), &models.Message{
		ID:             "m1",
		ConversationID: "missing",
		Type:           models.MessageTypeText,
		Status:         models.StatusSent,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdateStatusIsForwardOnly(t *testing.T) {
	st := NewMemoryStore()
	you, alice := seedUsers(t, st)
	ctx := context.Background()

	conversation, err := st.Conversations().CreateOrGet(ctx, you, alice)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	message := &models.Message{
		ID:             "m1",
		ConversationID: conversation.ID,
		SenderID:       you,
		SenderName:     "You",
		Type:           models.MessageTypeText,
		Content:        "hi",
		Status:         models.StatusSent,
		CreatedAt:      time.Now().UTC(),
	}
	if err := st.Messages().Append(ctx, message); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := st.Messages().UpdateStatus(ctx, "m1", models.StatusDelivered); err != nil {
		t.Fatalf("advance to delivered: %v", err)
	}
	if err := st.Messages().UpdateStatus(ctx, "m1", models.StatusRead); err != nil {
		t.Fatalf("advance to read: %v", err)
	}

	for _, status := range []models.MessageStatus{models.StatusSent, models.StatusDelivered, models.StatusRead} {
		if err := st.Messages().UpdateStatus(ctx, "m1", status); !errors.Is(err, ErrStatusRegression) {
			t.Fatalf("status %s: expected ErrStatusRegression, got %v", status, err)
		}
	}

	if err := st.Messages().UpdateStatus(ctx, "missing", models.StatusRead); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryListForParticipantBuildsSummaries(t *testing.T) {
	st := NewMemoryStore()
	you, alice := seedUsers(t, st)
	ctx := context.Background()

	conversation, err := st.Conversations().CreateOrGet(ctx, you, alice)
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}

	base := time.Now().UTC()
	for i, spec := range []struct {
		id     string
		sender string
		status models.MessageStatus
	}{
		{"m1", alice, models.StatusRead},
		{"m2", alice, models.StatusDelivered},
		{"m3", you, models.StatusSent},
	} {
		err := st.Messages().Append(ctx, &models.Message{
			ID:             spec.id,
			ConversationID: conversation.ID,
			SenderID:       spec.sender,
			SenderName:     spec.sender,
			Type:           models.MessageTypeText,
			Content:        spec.id,
			Status:         spec.status,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %s: %v", spec.id, err)
		}
	}

	summaries, err := st.Conversations().ListForParticipant(ctx, you)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}

	summary := summaries[0]
	if summary.Contact == nil || summary.Contact.ID != alice {
		t.Fatalf("expected contact %s, got %+v", alice, summary.Contact)
	}
	if summary.LastMessage == nil || summary.LastMessage.ID != "m3" {
		t.Fatalf("expected last message m3, got %+v", summary.LastMessage)
	}
	// Only m2 is from the other side and not yet read.
	if summary.UnreadCount != 1 {
		t.Fatalf("expected unread count 1, got %d", summary.UnreadCount)
	}
}

func TestMemoryPresence(t *testing.T) {
	st := NewMemoryStore()
	you, _ := seedUsers(t, st)
	ctx := context.Background()

	seen := time.Now().UTC()
	if err := st.Users().SetPresence(ctx, you, true, seen); err != nil {
		t.Fatalf("set presence: %v", err)
	}

	user, err := st.Users().GetByID(ctx, you)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !user.IsOnline || user.LastSeen == nil || !user.LastSeen.Equal(seen) {
		t.Fatalf("presence not recorded: %+v", user)
	}

	if err := st.Users().SetPresence(ctx, "missing", true, seen); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
