package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
)

func (h *UserHTTPHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var params usecase.CreateGroupParams
	if !h.decodeJSON(w, r, &params) {
		return
	}

	group, err := h.groupUsecase.CreateGroup(r.Context(), params, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *UserHTTPHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupUsecase.ListGroups(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

func (h *UserHTTPHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groupUsecase.FindGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

func (h *UserHTTPHandler) GetGroupMembers(w http.ResponseWriter, r *http.Request) {
	users, err := h.groupUsecase.FindGroupMembers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHTTPHandler) SetGroupMembers(w http.ResponseWriter, r *http.Request) {
	var req payload.SetGroupMembersRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.groupUsecase.SetGroupMembers(r.Context(), chi.URLParam(r, "id"), req.Users, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
