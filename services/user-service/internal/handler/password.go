package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/payload"
)

func (h *UserHTTPHandler) AdminChangePassword(w http.ResponseWriter, r *http.Request) {
	var req payload.AdminChangePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.passwordUsecase.AdminChangePassword(
		r.Context(),
		chi.URLParam(r, "id"),
		req.Password,
		req.ConfirmPassword,
		actorID(r),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *UserHTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ChangePasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.passwordUsecase.ChangePassword(
		r.Context(),
		chi.URLParam(r, "id"),
		req.CurrentPassword,
		req.NewPassword,
		actorID(r),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
