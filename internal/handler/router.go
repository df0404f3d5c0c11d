package handler

import (
	"net/http"

	"notes-server/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RouterConfig gathers the handlers and cross-cutting pieces the HTTP surface
// is assembled from. WebSocket and Health may be nil.
type RouterConfig struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Notes     *NoteHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler

	Authenticator middleware.Authenticator
	Logger        zerolog.Logger
	TracerName    string
	CORS          middleware.CORSOptions
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	if cfg.TracerName != "" {
		r.Use(middleware.TracingMiddleware(cfg.TracerName))
	}
	r.Use(middleware.LoggerMiddleware(cfg.Logger))

	if cfg.Health != nil {
		r.HandleFunc("/health", cfg.Health.Health).Methods("GET")
	}
	r.HandleFunc("/register", cfg.Auth.Register).Methods("POST")
	r.HandleFunc("/token", cfg.Auth.Token).Methods("POST")
	if cfg.WebSocket != nil {
		r.HandleFunc("/ws", cfg.WebSocket.HandleConnection).Methods("GET")
	}

	protected := r.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.Authenticator))

	protected.HandleFunc("/", cfg.Users.Home).Methods("GET")
	protected.HandleFunc("/users/me", cfg.Users.GetMe).Methods("GET")

	protected.HandleFunc("/note", cfg.Notes.Create).Methods("POST")
	protected.HandleFunc("/note", cfg.Notes.List).Methods("GET")
	protected.HandleFunc("/note/{id}", cfg.Notes.Get).Methods("GET")
	protected.HandleFunc("/note/{id}", cfg.Notes.Update).Methods("PUT")
	protected.HandleFunc("/note/{id}", cfg.Notes.Delete).Methods("DELETE")
	protected.HandleFunc("/note/{id}/versions", cfg.Notes.Versions).Methods("GET")

	if len(cfg.CORS.AllowedOrigins) == 0 {
		return r
	}
	return middleware.CORSMiddleware(cfg.CORS)(r)
}
