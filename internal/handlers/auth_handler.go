package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
	"github.com/javeriarizwan/chatclone/pkg/utils"
)

type authApplicationService interface {
	RequestCode(ctx context.Context, phone string) (string, error)
	VerifyCode(ctx context.Context, phone, code string) (*services.VerifyResult, error)
	CompleteProfile(ctx context.Context, phone, name, avatarURL string) (*models.User, string, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

type AuthHandler struct {
	service   authApplicationService
	jwtSecret string
	devMode   bool
	validate  *validator.Validate
}

func NewAuthHandler(service authApplicationService, jwtSecret string, devMode bool) *AuthHandler {
	return &AuthHandler{
		service:   service,
		jwtSecret: jwtSecret,
		devMode:   devMode,
		validate:  validator.New(),
	}
}

type requestCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

type verifyCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=7,max=20"`
	Code  string `json:"code" validate:"required,len=6"`
}

type completeProfileRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	var req requestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid phone number"})
	}

	code, err := h.service.RequestCode(c.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid phone number"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to request code"})
	}

	response := fiber.Map{"message": "Verification code sent"}
	// No SMS provider is wired; outside development the code stays server-side.
	if h.devMode {
		response["code"] = code
	}
	return c.JSON(response)
}

func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	result, err := h.service.VerifyCode(c.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid phone number"})
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired code"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify code"})
		}
	}

	if result.User == nil {
		return c.JSON(fiber.Map{
			"status":       "profile_required",
			"signup_token": result.SignupToken,
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"token":  result.Token,
		"user":   result.User,
	})
}

func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	phone, err := h.parseSignupPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired signup token"})
	}

	var req completeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid profile"})
	}

	user, token, err := h.service.CompleteProfile(c.Context(), phone, req.Name, req.AvatarURL)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid profile"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create profile"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.service.Me(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load user"})
	}

	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) parseSignupPhone(c *fiber.Ctx) (string, error) {
	authHeader := strings.TrimSpace(c.Get("Authorization"))
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("missing signup token")
	}

	claims, err := utils.ValidateToken(parts[1], h.jwtSecret)
	if err != nil {
		return "", err
	}
	if !claims.Signup || claims.Phone == "" {
		return "", errors.New("not a signup token")
	}
	return claims.Phone, nil
}
