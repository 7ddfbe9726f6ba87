package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
	"github.com/javeriarizwan/chatclone/internal/store"
)

const testSecret = "test-secret"

func newAuthTestApp() (*fiber.App, *store.MemoryStore) {
	st := store.NewMemoryStore()
	service := services.NewAuthService(st.Users(), testSecret, 5*time.Minute)
	handler := NewAuthHandler(service, testSecret, true)

	app := fiber.New()
	app.Post("/api/auth/code", handler.RequestCode)
	app.Post("/api/auth/verify", handler.VerifyCode)
	app.Post("/api/auth/profile", handler.CompleteProfile)
	return app, st
}

func postJSON(t *testing.T, app *fiber.App, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}

	decoded := make(map[string]any)
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	resp.Body.Close()
	return resp, decoded
}

func TestPhoneSignupFlow(t *testing.T) {
	app, st := newAuthTestApp()

	// Request a code; development mode echoes it back.
	resp, body := postJSON(t, app, "/api/auth/code", `{"phone":"+1 (555) 010-0199"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("request code: expected 200, got %d", resp.StatusCode)
	}
	code, _ := body["code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code in dev mode, got %q", code)
	}

	// Unknown number: verification hands out a signup token.
	resp, body = postJSON(t, app, "/api/auth/verify", `{"phone":"+15550100199","code":"`+code+`"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "profile_required" {
		t.Fatalf("expected profile_required, got %v", body["status"])
	}
	signupToken, _ := body["signup_token"].(string)
	if signupToken == "" {
		t.Fatal("expected signup token")
	}

	// Complete the profile and receive a session token.
	resp, body = postJSON(t, app, "/api/auth/profile", `{"name":"Javeria"}`, signupToken)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("profile: expected 201, got %d", resp.StatusCode)
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatal("expected session token")
	}

	user, err := st.Users().GetByPhone(context.Background(), "+15550100199")
	if err != nil {
		t.Fatalf("user not created: %v", err)
	}
	if user.Name != "Javeria" {
		t.Fatalf("unexpected name: %q", user.Name)
	}
}

func TestVerifyKnownUserReturnsSessionToken(t *testing.T) {
	app, st := newAuthTestApp()

	existing := &models.User{ID: "u1", Name: "Javeria", Phone: "+15550100100"}
	if err := st.Users().Create(context.Background(), existing); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, body := postJSON(t, app, "/api/auth/code", `{"phone":"+15550100100"}`, "")
	code, _ := body["code"].(string)

	resp, body := postJSON(t, app, "/api/auth/verify", `{"phone":"+15550100100","code":"`+code+`"}`, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected ok, got %v", body["status"])
	}
	if token, _ := body["token"].(string); token == "" {
		t.Fatal("expected session token")
	}
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	app, _ := newAuthTestApp()

	postJSON(t, app, "/api/auth/code", `{"phone":"+15550100100"}`, "")

	resp, _ := postJSON(t, app, "/api/auth/verify", `{"phone":"+15550100100","code":"000000"}`, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequestCodeRejectsBadPhone(t *testing.T) {
	app, _ := newAuthTestApp()

	resp, _ := postJSON(t, app, "/api/auth/code", `{"phone":"abc"}`, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
