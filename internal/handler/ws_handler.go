package handler

import (
	"net/http"

	"notes-server/internal/middleware"
	"notes-server/internal/websocket"
	"notes-server/pkg/response"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	auth     middleware.Authenticator
	upgrader ws.Upgrader
}

// NewWebSocketHandler accepts upgrades from any of allowedOrigins, or from any
// origin when the list is empty or contains "*".
func NewWebSocketHandler(manager *websocket.Manager, auth middleware.Authenticator, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		auth:    auth,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// HandleConnection authenticates with the bearer header or, for browsers that
// cannot set headers on upgrade requests, the token query parameter.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(r); err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			response.Unauthorized(w, "Missing authorization token")
			return
		}
	}

	user, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		logger.Debug().Err(err).Msg("websocket token rejected")
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		response.Unauthorized(w, "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	if err := h.manager.Connect(conn, user.ID); err != nil {
		logger.Warn().Err(err).Str("user", user.Username).Msg("websocket connection rejected")
		return
	}
	logger.Info().Str("user", user.Username).Msg("websocket connected")
}
