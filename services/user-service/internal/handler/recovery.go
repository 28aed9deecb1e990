package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
	"github.com/vasapolrittideah/platform-api/shared/utilities"
)

func (h *UserHTTPHandler) RequestRecovery(w http.ResponseWriter, r *http.Request) {
	var req payload.RecoveryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.recoveryUsecase.RequestRecovery(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *UserHTTPHandler) ValidateRecoveryToken(w http.ResponseWriter, r *http.Request) {
	if err := h.recoveryUsecase.ValidateRecoveryToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, usecase.OperationResult{Status: true, Message: usecase.MessageOperationSuccess})
}

func (h *UserHTTPHandler) ConsumeRecovery(w http.ResponseWriter, r *http.Request) {
	var req payload.ConsumeRecoveryRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	result, err := h.recoveryUsecase.ConsumeRecovery(
		r.Context(),
		chi.URLParam(r, "token"),
		req.NewPassword,
		utilities.ClientInfoFromRequest(r),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
