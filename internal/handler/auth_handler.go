package handler

import (
	"errors"
	"net/http"

	"notes-server/internal/domain"
	"notes-server/internal/service"
	"notes-server/pkg/response"

	"github.com/rs/zerolog"
)

type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Info().Str("username", user.Username).Msg("user registered")
	response.Created(w, user.ToResponse())
}

// Token exchanges HTTP basic credentials for a signed bearer token, returned
// as the plain-text body.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	username, pw, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="notes"`)
		response.Unauthorized(w, "Missing basic credentials")
		return
	}

	token, err := h.authService.IssueToken(r.Context(), username, pw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", `Basic realm="notes"`)
		}
		writeError(w, r, err)
		return
	}

	response.Text(w, http.StatusOK, token)
}
