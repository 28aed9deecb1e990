package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
)

const defaultAuditLimit = 50

// ListUsers paginates when page or limit is given and lists every user otherwise.
func (h *UserHTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	roles := splitList(query.Get("roles"))

	if query.Get("page") == "" && query.Get("limit") == "" {
		users, err := h.userUsecase.FindUsers(r.Context(), roles)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
		return
	}

	page, err := parseIntParam(query.Get("page"), "page")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := parseIntParam(query.Get("limit"), "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.userUsecase.PaginateUsers(r.Context(), usecase.PaginateUsersParams{
		Limit:     limit,
		Page:      page,
		Search:    query.Get("search"),
		OrderBy:   query.Get("orderBy"),
		OrderDesc: strings.EqualFold(query.Get("order"), "desc"),
		Roles:     roles,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *UserHTTPHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var params usecase.CreateUserParams
	if !h.decodeJSON(w, r, &params) {
		return
	}

	user, err := h.userUsecase.CreateUser(r.Context(), params, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHTTPHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("includeDeleted"))

	user, err := h.userUsecase.FindUser(r.Context(), chi.URLParam(r, "id"), usecase.FindUserOptions{
		IncludeDeleted: includeDeleted,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHTTPHandler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.userUsecase.FindUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHTTPHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var params usecase.UpdateUserParams
	if !h.decodeJSON(w, r, &params) {
		return
	}

	user, err := h.userUsecase.UpdateUser(r.Context(), chi.URLParam(r, "id"), params, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHTTPHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	result, err := h.userUsecase.DeleteUser(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *UserHTTPHandler) GetUserAudit(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultAuditLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := parseIntParam(raw, "limit")
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		limit = parsed
	}

	records, err := h.userUsecase.FindUserAudit(r.Context(), chi.URLParam(r, "id"), limit, actorID(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func parseIntParam(raw, field string) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0, &usecase.ValidationError{Fields: map[string]string{field: field + " must be a positive number"}}
	}

	return value, nil
}

// splitList parses a comma separated query value.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}
