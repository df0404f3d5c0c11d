package handler

import (
	"net/http"

	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	response.Text(w, http.StatusOK, "Hello "+user.Username)
}

// GetMe reads the caller's profile from the store rather than echoing the
// principal resolved by the auth middleware.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	profile, err := h.userService.GetByID(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, profile.ToResponse())
}
