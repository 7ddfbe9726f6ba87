package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/javeriarizwan/chatclone/internal/config"
	"github.com/javeriarizwan/chatclone/internal/handlers"
	"github.com/javeriarizwan/chatclone/internal/middleware"
	"github.com/javeriarizwan/chatclone/internal/models"
	"github.com/javeriarizwan/chatclone/internal/services"
	"github.com/javeriarizwan/chatclone/internal/store"
	chatws "github.com/javeriarizwan/chatclone/internal/websocket"
)

// RegisterRoutes wires the store, services and handlers and mounts the HTTP
// and websocket surface. db is nil in memory mode.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	var st store.Store
	if cfg.StoreMode == "postgres" {
		st = store.NewPostgresStore(db)
	} else {
		st = store.NewMemoryStore()
	}

	chatHub := chatws.NewHub()
	go chatHub.Run()

	var audioStore services.AudioStore
	if cfg.AudioContentMode == "object" {
		audioStore = services.NewSupabaseAudioStore(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	} else {
		audioStore = services.NewInlineAudioStore()
	}

	notifier := services.NewWebhookNotifier(
		cfg.WebhookURL,
		cfg.WebhookTransport,
		st.Messages(),
		func(message *models.Message, recipientID string) {
			chatHub.BroadcastMessage(message, recipientID)
		},
	)

	scheduler := services.NewStatusScheduler(
		st.Messages(),
		services.NewRealClock(),
		cfg.DeliveredDelay,
		cfg.ReadDelay,
	)

	feed := services.NewPollingFeed(st.Messages(), cfg.PollInterval)

	authService := services.NewAuthService(st.Users(), cfg.JWTSecret, cfg.VerifyCodeTTL)
	contactService := services.NewContactService(st)
	chatService := services.NewChatService(st, scheduler, notifier, audioStore, chatHub, feed)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecret, cfg.IsDevelopment())
	contactHandler := handlers.NewContactHandler(contactService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, st.Users(), cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/code", authHandler.RequestCode)
	auth.Post("/verify", authHandler.VerifyCode)
	auth.Post("/profile", authHandler.CompleteProfile)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	contacts := protected.Group("/contacts")
	contacts.Get("", contactHandler.ListContacts)
	contacts.Post("", contactHandler.AddContact)

	conversations := protected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/audio", chatHandler.SendAudio)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return nil
}
