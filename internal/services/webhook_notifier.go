package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
)

const (
	// TransportGet reports the message as query parameters on a GET request,
	// matching the original webhook relay. TransportPost sends a JSON body.
	TransportGet  = "get"
	TransportPost = "post"

	aiAgentID   = "ai-agent"
	aiAgentName = "AI Agent"

	webhookUserAgent = "chatclone-webhook/1.0"
)

type WebhookPayload struct {
	Event          string               `json:"event"`
	MessageID      string               `json:"messageId"`
	ConversationID string               `json:"conversationId"`
	SenderID       string               `json:"senderId"`
	SenderName     string               `json:"senderName"`
	RecipientID    string               `json:"recipientId"`
	RecipientName  string               `json:"recipientName"`
	MessageType    models.MessageType   `json:"messageType"`
	Content        string               `json:"content"`
	Timestamp      string               `json:"timestamp"`
	Status         models.MessageStatus `json:"status"`
	Duration       *int                 `json:"duration,omitempty"`
}

// Notifier reports a just-sent message to an external endpoint. Implementations
// must never surface failures to the sender.
type Notifier interface {
	Notify(ctx context.Context, payload WebhookPayload)
}

// WebhookNotifier delivers fire-and-forget notifications to a configured URL
// and ingests an optional synthetic reply from the response body. A reply is
// written straight to the store with status delivered: it skips the send
// validation and the status scheduler on purpose, mirroring the upstream
// AI-responder contract.
type WebhookNotifier struct {
	url        string
	transport  string
	httpClient *http.Client
	messages   store.MessageStore
	onReply    func(message *models.Message, recipientID string)
}

// NewWebhookNotifier builds a notifier. onReply may be nil; when set it runs
// after a synthetic reply has been persisted, so the push channel can fan the
// reply out without the poller having to catch it first.
func NewWebhookNotifier(
	webhookURL string,
	transport string,
	messages store.MessageStore,
	onReply func(message *models.Message, recipientID string),
) *WebhookNotifier {
	return &WebhookNotifier{
		url:        webhookURL,
		transport:  transport,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		messages:   messages,
		onReply:    onReply,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, payload WebhookPayload) {
	if n.url == "" {
		log.Println("webhook: no URL configured, skipping notification")
		return
	}

	req, err := n.buildRequest(ctx, payload)
	if err != nil {
		log.Printf("webhook: build request: %v", err)
		return
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		log.Printf("webhook: send %s: %v", payload.MessageID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Printf("webhook: send %s: status %d: %s", payload.MessageID, resp.StatusCode, bytes.TrimSpace(body))
		return
	}

	n.ingestReply(ctx, payload, resp.Body)
}

func (n *WebhookNotifier) buildRequest(ctx context.Context, payload WebhookPayload) (*http.Request, error) {
	if n.transport == TransportPost {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", webhookUserAgent)
		return req, nil
	}

	target, err := url.Parse(n.url)
	if err != nil {
		return nil, fmt.Errorf("parse webhook url: %w", err)
	}

	params := target.Query()
	params.Set("event", payload.Event)
	params.Set("messageId", payload.MessageID)
	params.Set("conversationId", payload.ConversationID)
	params.Set("senderId", payload.SenderID)
	params.Set("senderName", payload.SenderName)
	params.Set("recipientId", payload.RecipientID)
	params.Set("recipientName", payload.RecipientName)
	params.Set("messageType", string(payload.MessageType))
	params.Set("content", payload.Content)
	params.Set("timestamp", payload.Timestamp)
	params.Set("status", string(payload.Status))
	if payload.Duration != nil {
		params.Set("duration", strconv.Itoa(*payload.Duration))
	}
	target.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", webhookUserAgent)
	return req, nil
}

type webhookReply struct {
	Type           models.MessageType `json:"type"`
	Content        string             `json:"content"`
	Duration       *int               `json:"duration,omitempty"`
	ConversationID string             `json:"conversationId,omitempty"`
	RecipientID    string             `json:"recipientId,omitempty"`
}

func (n *WebhookNotifier) ingestReply(ctx context.Context, payload WebhookPayload, body io.Reader) {
	var envelope struct {
		Reply *webhookReply `json:"reply"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&envelope); err != nil {
		// A body that is not structured data means no reply, not an error.
		return
	}

	reply := envelope.Reply
	if reply == nil || reply.Content == "" {
		return
	}
	if !reply.Type.Valid() {
		reply.Type = models.MessageTypeText
	}

	conversationID := reply.ConversationID
	if conversationID == "" {
		conversationID = payload.ConversationID
	}

	message := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       aiAgentID,
		SenderName:     aiAgentName,
		Type:           reply.Type,
		Content:        reply.Content,
		Status:         models.StatusDelivered,
		Duration:       reply.Duration,
		CreatedAt:      time.Now().UTC(),
	}

	if err := n.messages.Append(ctx, message); err != nil {
		log.Printf("webhook: persist reply for %s: %v", payload.MessageID, err)
		return
	}

	if n.onReply != nil {
		// The reply goes back to whoever sent the original message, unless
		// the endpoint addressed someone else explicitly.
		recipientID := reply.RecipientID
		if recipientID == "" {
			recipientID = payload.SenderID
		}
		n.onReply(message, recipientID)
	}
}
