package handlers

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
)

type contactApplicationService interface {
	AddContact(ctx context.Context, actorID, name, phone string) (*services.ContactResult, error)
	ListContacts(ctx context.Context, actorID string) ([]models.User, error)
}

type ContactHandler struct {
	service  contactApplicationService
	validate *validator.Validate
}

func NewContactHandler(service contactApplicationService) *ContactHandler {
	return &ContactHandler{
		service:  service,
		validate: validator.New(),
	}
}

type addContactRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

func (h *ContactHandler) AddContact(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req addContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact"})
	}

	result, err := h.service.AddContact(c.Context(), userID, req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contact"})
		case errors.Is(err, services.ErrSelfContact):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot add yourself"})
		case errors.Is(err, services.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add contact"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *ContactHandler) ListContacts(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	contacts, err := h.service.ListContacts(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list contacts"})
	}

	return c.JSON(fiber.Map{"contacts": contacts})
}
