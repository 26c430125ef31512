package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dom/courier-backend/internal/api/handlers"
	"github.com/dom/courier-backend/internal/api/middleware"
	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/websocket"
)

func NewRouter(services *service.Services, tokens *auth.TokenService, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handlers.NewAuthHandler(services.Auth)
	userHandler := handlers.NewUserHandler(services.User)
	chatHandler := handlers.NewChatHandler(services.Chat)
	groupHandler := handlers.NewGroupHandler(services.Group)
	messageHandler := handlers.NewMessageHandler(services.Message)
	wsHandler := handlers.NewWebSocketHandler(hub, tokens)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/confirm-email", authHandler.ConfirmEmail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(tokens))
				r.Post("/logout", authHandler.Logout)
				r.Get("/sessions", authHandler.Sessions)
			})
		})

		// WebSocket endpoint authenticates via query token
		r.Get("/ws", wsHandler.Connect)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", userHandler.Me)
				r.Put("/me/profile", userHandler.UpdateProfile)
				r.Put("/me/shortname", userHandler.UpdateShortname)
				r.Get("/by-shortname/{shortname}", userHandler.GetByShortname)
			})

			r.Route("/chats", func(r chi.Router) {
				r.Get("/", chatHandler.List)
				r.Post("/one-to-one", chatHandler.CreateOneToOne)
				r.Post("/personal", chatHandler.CreatePersonal)
				r.Get("/{chatId}", chatHandler.Get)

				r.Route("/{chatId}/messages", func(r chi.Router) {
					r.Get("/", messageHandler.List)
					r.Post("/", messageHandler.Send)
					r.Put("/{messageId}", messageHandler.Update)
					r.Delete("/{messageId}", messageHandler.Delete)
				})
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", groupHandler.Create)
				r.Get("/by-shortname/{shortname}", groupHandler.GetByShortname)
				r.Put("/{chatId}", groupHandler.Update)
				r.Delete("/{chatId}", groupHandler.Delete)
				r.Post("/{chatId}/join", groupHandler.Join)
				r.Post("/{chatId}/leave", groupHandler.Leave)
				r.Post("/{chatId}/make-public", groupHandler.MakePublic)
				r.Post("/{chatId}/make-private", groupHandler.MakePrivate)
			})
		})
	})

	return r
}
