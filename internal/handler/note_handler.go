package handler

import (
	"net/http"

	"notes-server/internal/domain"
	"notes-server/internal/middleware"
	"notes-server/internal/service"
	"notes-server/pkg/response"

	"github.com/gorilla/mux"
)

type NoteHandler struct {
	service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.service.Create(r.Context(), middleware.GetUser(r), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, note.ToResponse())
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.ListByOwner(r.Context(), middleware.GetUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*domain.NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, note.ToResponse())
	}

	response.Success(w, out)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.service.Get(r.Context(), middleware.GetUser(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, note.ToResponse())
}

func (h *NoteHandler) Versions(w http.ResponseWriter, r *http.Request) {
	note, err := h.service.GetWithVersions(r.Context(), middleware.GetUser(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, note.ToVersionsResponse())
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateNoteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	note, err := h.service.Update(r.Context(), middleware.GetUser(r), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, note.ToResponse())
}

// Delete answers 200 with an empty body.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.GetUser(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}

	response.Empty(w, http.StatusOK)
}
