package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

func testPayload(conversationID string) WebhookPayload {
	duration := 7
	return WebhookPayload{
		Event:          "message_sent",
		MessageID:      "msg-1",
		ConversationID: conversationID,
		SenderID:       "user-you",
		SenderName:     "You",
		RecipientID:    "user-alice",
		RecipientName:  "Alice",
		MessageType:    models.MessageTypeAudio,
		Content:        "data:audio/webm;base64,AAAA",
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Status:         models.StatusSent,
		Duration:       &duration,
	}
}

func TestWebhookGetTransportEncodesQueryParameters(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	notifier := NewWebhookNotifier(server.URL, TransportGet, st.Messages(), nil)
	notifier.Notify(context.Background(), testPayload("conv-1"))

	require.NotNil(t, captured, "webhook endpoint was never called")
	assert.Equal(t, http.MethodGet, captured.Method)

	query := captured.URL.Query()
	assert.Equal(t, "message_sent", query.Get("event"))
	assert.Equal(t, "msg-1", query.Get("messageId"))
	assert.Equal(t, "conv-1", query.Get("conversationId"))
	assert.Equal(t, "You", query.Get("senderName"))
	assert.Equal(t, "Alice", query.Get("recipientName"))
	assert.Equal(t, "audio", query.Get("messageType"))
	assert.Equal(t, "sent", query.Get("status"))
	assert.Equal(t, "7", query.Get("duration"))
}

func TestWebhookPostTransportSendsJSONBody(t *testing.T) {
	var received WebhookPayload
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	notifier := NewWebhookNotifier(server.URL, TransportPost, st.Messages(), nil)
	notifier.Notify(context.Background(), testPayload("conv-1"))

	require.True(t, called)
	assert.Equal(t, "msg-1", received.MessageID)
	assert.Equal(t, models.MessageTypeAudio, received.MessageType)
	require.NotNil(t, received.Duration)
	assert.Equal(t, 7, *received.Duration)
}

func TestWebhookReplyIsPersistedAsAIAgentMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":{"type":"text","content":"Hello from the bot"}}`))
	}))
	defer server.Close()

	st := store.NewMemoryStore()
	_, _, conversation := seedConversation(t, st)

	var pushedRecipient string
	notifier := NewWebhookNotifier(server.URL, TransportGet, st.Messages(), func(_ *models.Message, recipientID string) {
		pushedRecipient = recipientID
	})
	notifier.Notify(context.Background(), testPayload(conversation.ID))

	messages, err := st.Messages().ListByConversation(context.Background(), conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	reply := messages[0]
	assert.Equal(t, "ai-agent", reply.SenderID)
	assert.Equal(t, "AI Agent", reply.SenderName)
	assert.Equal(t, "Hello from the bot", reply.Content)
	// Replies bypass the lifecycle: they land already delivered and no
	// scheduler ever touches them.
	assert.Equal(t, models.StatusDelivered, reply.Status)
	assert.Equal(t, "user-you", pushedRecipient)
}

func TestWebhookFailuresAreSwallowed(t *testing.T) {
	st := store.NewMemoryStore()
	_, _, conversation := seedConversation(t, st)

	original := appendMessage(t, st, conversation.ID, "user-you")

	cases := map[string]*WebhookNotifier{
		"no url configured": NewWebhookNotifier("", TransportGet, st.Messages(), nil),
		"unreachable host":  NewWebhookNotifier("http://127.0.0.1:1", TransportGet, st.Messages(), nil),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()
	cases["non-2xx response"] = NewWebhookNotifier(server.URL, TransportPost, st.Messages(), nil)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer garbage.Close()
	cases["malformed reply body"] = NewWebhookNotifier(garbage.URL, TransportGet, st.Messages(), nil)

	for name, notifier := range cases {
		notifier.Notify(context.Background(), testPayload(conversation.ID))

		status := messageStatus(t, st, conversation.ID, original.ID)
		assert.Equal(t, models.StatusSent, status, "%s must not touch the original message", name)

		messages, err := st.Messages().ListByConversation(context.Background(), conversation.ID)
		require.NoError(t, err)
		assert.Len(t, messages, 1, "%s must not create a reply", name)
	}
}
