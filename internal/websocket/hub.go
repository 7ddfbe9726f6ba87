package chatws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *delivery
}

type delivery struct {
	message     *models.Message
	recipientID string
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte

	sendMu sync.Mutex
	closed bool

	mu            sync.Mutex
	subscriptions map[string]services.Subscription
}

type sender interface {
	SendText(ctx context.Context, actorID, conversationID, content string) (*services.ChatDelivery, error)
	SubscribeMessages(ctx context.Context, actorID, conversationID string, fn func([]models.Message)) (services.Subscription, error)
}

// Event is the wire format in both directions. Incoming frames use type
// "message", "subscribe" or "unsubscribe"; outgoing frames add "messages"
// (feed snapshots) and "error".
type Event struct {
	Type           string           `json:"type"`
	ConversationID string           `json:"conversation_id,omitempty"`
	Content        string           `json:"content,omitempty"`
	Message        *models.Message  `json:"message,omitempty"`
	Messages       []models.Message `json:"messages,omitempty"`
	Error          string           `json:"error,omitempty"`
	Timestamp      string           `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *delivery, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		userID:        userID,
		send:          make(chan []byte, 32),
		subscriptions: make(map[string]services.Subscription),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.closeSend()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastMessage pushes a persisted message to the sender's and the
// recipient's open connections. Satisfies services.Broadcaster.
func (h *Hub) BroadcastMessage(message *models.Message, recipientID string) {
	h.broadcast <- &delivery{message: message, recipientID: recipientID}
}

func (h *Hub) deliver(d *delivery) {
	encoded, err := json.Marshal(Event{
		Type:           "message",
		ConversationID: d.message.ConversationID,
		Message:        d.message,
		Timestamp:      services.FormatChatTimestamp(d.message.CreatedAt),
	})
	if err != nil {
		log.Printf("chat hub encode message: %v", err)
		return
	}

	h.sendToUser(d.message.SenderID, encoded)
	if d.recipientID != "" && d.recipientID != d.message.SenderID {
		h.sendToUser(d.recipientID, encoded)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.enqueue(payload) {
			delete(set, client)
			client.closeSend()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// enqueue hands a frame to the write pump. Feed callbacks and hub deliveries
// run on different goroutines, so the closed flag keeps them off the channel
// once the hub has let go of the client.
func (c *Client) enqueue(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump consumes client frames until the connection drops. Feed
// subscriptions opened here are stopped on the way out, which is what closes
// the poll loop when a conversation view goes away.
func (c *Client) ReadPump(service sender) {
	defer func() {
		c.stopAllSubscriptions()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming Event
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}

		switch incoming.Type {
		case "message":
			// The service broadcasts back through the hub, so there is
			// nothing to echo here.
			if _, err := service.SendText(context.Background(), c.userID, incoming.ConversationID, incoming.Content); err != nil {
				c.writeError("failed to send message")
			}
		case "subscribe":
			c.subscribe(incoming.ConversationID, service)
		case "unsubscribe":
			c.unsubscribe(incoming.ConversationID)
		default:
			c.writeError("unsupported message type")
		}
	}
}

// subscribe opens a feed subscription through the service so the same
// participant rule guards the socket and the poll read path.
func (c *Client) subscribe(conversationID string, service sender) {
	if conversationID == "" {
		c.writeError("invalid conversation id")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subscriptions[conversationID]; ok {
		return
	}

	sub, err := service.SubscribeMessages(context.Background(), c.userID, conversationID, func(messages []models.Message) {
		encoded, err := json.Marshal(Event{
			Type:           "messages",
			ConversationID: conversationID,
			Messages:       messages,
			Timestamp:      services.FormatChatTimestamp(time.Now().UTC()),
		})
		if err != nil {
			log.Printf("chat hub encode snapshot: %v", err)
			return
		}
		c.enqueue(encoded)
	})
	if err != nil {
		c.writeError("cannot subscribe to this conversation")
		return
	}

	c.subscriptions[conversationID] = sub
}

func (c *Client) unsubscribe(conversationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sub, ok := c.subscriptions[conversationID]; ok {
		sub.Stop()
		delete(c.subscriptions, conversationID)
	}
}

func (c *Client) stopAllSubscriptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, sub := range c.subscriptions {
		sub.Stop()
		delete(c.subscriptions, id)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(Event{
		Type:      "error",
		Error:     message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	if !c.enqueue(payload) {
		c.hub.Unregister(c)
	}
}
