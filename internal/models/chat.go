package models

import "time"

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
)

func (t MessageType) Valid() bool {
	return t == MessageTypeText || t == MessageTypeAudio
}

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// Rank orders statuses along the sent -> delivered -> read progression.
// Unknown statuses rank below sent so they can never overwrite a real one.
func (s MessageStatus) Rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

func (s MessageStatus) Valid() bool {
	return s.Rank() > 0
}

type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ContactID string    `json:"contact_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OtherParticipant returns the participant that is not the given user.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.OwnerID == userID {
		return c.ContactID
	}
	return c.OwnerID
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.OwnerID == userID || c.ContactID == userID
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversation_id"`
	SenderID       string        `json:"sender_id"`
	SenderName     string        `json:"sender_name"`
	Type           MessageType   `json:"type"`
	Content        string        `json:"content"`
	Status         MessageStatus `json:"status"`
	Duration       *int          `json:"duration,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	Contact     *User    `json:"contact,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}
