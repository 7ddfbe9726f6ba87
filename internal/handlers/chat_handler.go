package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
	chatws "github.com/javeriarizwan/chatclone/internal/websocket"
	"github.com/javeriarizwan/chatclone/pkg/utils"
)

const maxAudioBytes = 10 << 20

type chatApplicationService interface {
	ListConversations(ctx context.Context, actorID string) ([]models.ConversationSummary, error)
	ListMessages(ctx context.Context, actorID, conversationID string) ([]models.Message, error)
	SendText(ctx context.Context, actorID, conversationID, content string) (*services.ChatDelivery, error)
	SendAudio(ctx context.Context, actorID, conversationID string, audio []byte, durationSeconds int) (*services.ChatDelivery, error)
	SubscribeMessages(ctx context.Context, actorID, conversationID string, fn func([]models.Message)) (services.Subscription, error)
}

type presenceStore interface {
	SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	presence  presenceStore
	jwtSecret string
}

func NewChatHandler(
	service chatApplicationService,
	hub *chatws.Hub,
	presence presenceStore,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		service:   service,
		hub:       hub,
		presence:  presence,
		jwtSecret: jwtSecret,
	}
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversations, err := h.service.ListConversations(c.Context(), userID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetMessages returns the full ascending history. This is the poll read path:
// clients re-fetch on an interval and replace their view wholesale.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID := c.Params("id")
	messages, err := h.service.ListMessages(c.Context(), userID, conversationID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	delivery, err := h.service.SendText(c.Context(), userID, c.Params("id"), req.Content)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) SendAudio(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Audio file is required"})
	}
	if fileHeader.Size > maxAudioBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "Audio file too large"})
	}

	duration, err := strconv.Atoi(strings.TrimSpace(c.FormValue("duration", "0")))
	if err != nil || duration < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid duration"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read audio file"})
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil || len(audio) > maxAudioBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read audio file"})
	}

	delivery, err := h.service.SendAudio(c.Context(), userID, c.Params("id"), audio, duration)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": delivery.Message})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(string)
	client := chatws.NewClient(h.hub, conn, userID)

	h.hub.Register(client)
	h.setPresence(userID, true)

	go client.WritePump()
	client.ReadPump(h.service)

	h.setPresence(userID, false)
}

func (h *ChatHandler) setPresence(userID string, online bool) {
	if h.presence == nil || userID == "" {
		return
	}
	if err := h.presence.SetPresence(context.Background(), userID, online, time.Now().UTC()); err != nil {
		log.Printf("chat: set presence for %s: %v", userID, err)
	}
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	claims, err := utils.ValidateToken(tokenString, h.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.Signup || claims.UserID == "" {
		return nil, errors.New("not a session token")
	}
	return claims, nil
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
