package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatbackend/internal/blob"
	"chatbackend/internal/config"
	"chatbackend/internal/domain"
	"chatbackend/internal/service"

	_ "chatbackend/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Auth      *service.AuthService
	Users     *service.UserService
	Chats     *service.ChatService
	Messages  *service.MessageService
	WebSocket http.Handler
	Gatherer  prometheus.Gatherer
	Log       *slog.Logger
}

// NewRouter constructs the main HTTP router and wires routes, services, and middleware.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOriginList(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The socket outlives any request timeout, so it sits outside that group.
	r.Get("/ws", d.WebSocket.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout(cfg)))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"message": cfg.AppName,
				"version": "1.0.0",
				"docs":    "/docs",
			})
		})

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})

		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

		// Swagger documentation
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/docs/doc.json"), //The url pointing to API definition
		))

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/user", func(r chi.Router) {
				// Registration and login stay open whatever the surface settings.
				r.Post("/", handleCreateUser(d.Users, d.Log))
				r.Post("/login", handleLogin(d.Auth, d.Log))

				r.Group(func(r chi.Router) {
					r.Use(guard(d.Auth, cfg.AuthRequiredFor(config.SurfaceUser), d.Log))
					r.Get("/", handleListUsers(d.Users, d.Log))
					r.Get("/{id}/friends", handleListFriends(d.Users, d.Log))
					r.Get("/{id}", handleGetUser(d.Users, d.Log))
					r.Patch("/{id}/update", handleUpdateUser(d.Users, d.Log))
					r.Post("/{id}/status", handleToggleStatus(d.Users, d.Log))
					r.Patch("/{id}/friend", handleAddFriend(d.Users, d.Log))
					r.Delete("/{id}/friend", handleRemoveFriend(d.Users, d.Log))
					r.Delete("/{id}/delete", handleDeleteUser(d.Users, d.Log))
				})
			})

			r.Route("/chat", func(r chi.Router) {
				r.Use(guard(d.Auth, cfg.AuthRequiredFor(config.SurfaceChat), d.Log))
				r.Get("/user/{userId}", handleListUserChats(d.Chats, d.Log))
				// {id} is the owner's user id on create and the chat id elsewhere.
				r.Post("/{id}", handleCreateChat(d.Chats, d.Log))
				r.Get("/{id}", handleGetChat(d.Chats, d.Log))
				r.Patch("/{id}", handleToggleStrict(d.Chats, d.Log))
				r.Delete("/{id}", handleDeleteChat(d.Chats, d.Log))
				r.Get("/{id}/messages", handleChatMessages(d.Chats, d.Log))
				r.Post("/{id}/add-member", handleAddMember(d.Chats, d.Log))
				r.Post("/{id}/remove-member", handleRemoveMember(d.Chats, d.Log))
				r.Patch("/{id}/update-name", handleRenameChat(d.Chats, d.Log))
				r.Post("/{id}/upload-image", handleUpload(d.Chats, blob.ImageProfile, d.Log))
				r.Post("/{id}/upload-file", handleUpload(d.Chats, blob.FileProfile, d.Log))
			})

			r.Route("/message", func(r chi.Router) {
				r.Use(guard(d.Auth, cfg.AuthRequiredFor(config.SurfaceMessage), d.Log))
				r.Get("/", handleListMessages(d.Messages, d.Log))
				r.Get("/{id}", handleGetMessage(d.Messages, d.Log))
			})
		})
	})

	return r
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout <= 0 {
		return 60 * time.Second
	}
	return cfg.RequestTimeout
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an error kind to its status code. Only classified errors
// expose their message; anything else is logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	msg, public := domain.PublicMessage(err)
	status := http.StatusInternalServerError
	switch {
	case !public:
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		msg = "Internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads the request body into v. An empty body leaves v zeroed.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.Validation("invalid JSON body")
	}
	return nil
}
