package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/store"
	"github.com/javeriarizwan/chatclone/pkg/utils"
)

type pendingCode struct {
	hash      string
	expiresAt time.Time
}

// AuthService implements the phone login flow: request a code, verify it,
// complete a profile for first-time numbers. Codes live in memory only; no
// SMS provider is wired, so development mode echoes the code back.
type AuthService struct {
	users     store.UserStore
	jwtSecret string
	codeTTL   time.Duration

	mu    sync.Mutex
	codes map[string]pendingCode
}

func NewAuthService(users store.UserStore, jwtSecret string, codeTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		codeTTL:   codeTTL,
		codes:     make(map[string]pendingCode),
	}
}

// RequestCode issues a fresh 6 digit code for the phone number and returns it
// to the caller, which decides whether it may be exposed.
func (s *AuthService) RequestCode(_ context.Context, phone string) (string, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return "", ErrInvalidInput
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	hash, err := utils.HashCode(code)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	s.mu.Lock()
	s.codes[normalized] = pendingCode{hash: hash, expiresAt: time.Now().Add(s.codeTTL)}
	s.mu.Unlock()

	return code, nil
}

type VerifyResult struct {
	User        *models.User
	Token       string
	SignupToken string
}

// VerifyCode checks the code for the phone number. Known numbers get a
// session token; unknown ones get a short-lived signup token for profile
// completion.
func (s *AuthService) VerifyCode(ctx context.Context, phone, code string) (*VerifyResult, error) {
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if len(strings.TrimSpace(code)) != 6 {
		return nil, ErrInvalidCode
	}

	s.mu.Lock()
	pending, ok := s.codes[normalized]
	s.mu.Unlock()

	if !ok || time.Now().After(pending.expiresAt) || !utils.CheckCode(code, pending.hash) {
		return nil, ErrInvalidCode
	}

	s.mu.Lock()
	delete(s.codes, normalized)
	s.mu.Unlock()

	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			signupToken, err := utils.GenerateSignupToken(normalized, s.jwtSecret)
			if err != nil {
				return nil, err
			}
			return &VerifyResult{SignupToken: signupToken}, nil
		}
		return nil, err
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{User: user, Token: token}, nil
}

// CompleteProfile creates the user for a verified phone number.
func (s *AuthService) CompleteProfile(ctx context.Context, phone, name, avatarURL string) (*models.User, string, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, "", ErrInvalidInput
	}

	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return nil, "", ErrInvalidInput
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, "", err
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      trimmedName,
		Phone:     phone,
		AvatarURL: avatarURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
