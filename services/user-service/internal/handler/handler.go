package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/payload"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/middleware"
)

// UserHTTPHandler serves the user service REST API.
type UserHTTPHandler struct {
	authUsecase     usecase.AuthUsecase
	userUsecase     usecase.UserUsecase
	recoveryUsecase usecase.RecoveryUsecase
	passwordUsecase usecase.PasswordUsecase
	groupUsecase    usecase.GroupUsecase
	avatarUsecase   usecase.AvatarUsecase
	maxAvatarBytes  int64
	logger          *zerolog.Logger
}

func NewUserHTTPHandler(
	authUsecase usecase.AuthUsecase,
	userUsecase usecase.UserUsecase,
	recoveryUsecase usecase.RecoveryUsecase,
	passwordUsecase usecase.PasswordUsecase,
	groupUsecase usecase.GroupUsecase,
	avatarUsecase usecase.AvatarUsecase,
	maxAvatarBytes int64,
	logger *zerolog.Logger,
) *UserHTTPHandler {
	return &UserHTTPHandler{
		authUsecase:     authUsecase,
		userUsecase:     userUsecase,
		recoveryUsecase: recoveryUsecase,
		passwordUsecase: passwordUsecase,
		groupUsecase:    groupUsecase,
		avatarUsecase:   avatarUsecase,
		maxAvatarBytes:  maxAvatarBytes,
		logger:          logger,
	}
}

const (
	messageValidationFailed   = "validation.failed"
	messageInvalidBody        = "common.invalidBody"
	messageGroupNotFound      = "group.notFound"
	messageTokenExpired       = "auth.tokenExpired"
	messageInvalidToken       = "auth.invalidToken"
	messageInvalidCredentials = "auth.invalidCredentials"
	messageUserInactive       = "auth.userInactive"
	messageUnauthorized       = "auth.unauthorized"
	messageForbidden          = "auth.forbidden"
	messageDeliveryFailed     = "recovery.deliveryFailed"
	messagePartialSync        = "group.partialSync"
)

// writeError maps a usecase error to its status code and response body.
// Unexpected errors are logged and answered with a generic message.
func (h *UserHTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *usecase.ValidationError
		credentialErr *usecase.WrongCredentialError
		partialErr    *usecase.PartialSyncError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Message:     messageValidationFailed,
			InputErrors: validationErr.Fields,
		})
	case errors.As(err, &credentialErr):
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Message:     credentialErr.Message,
			InputErrors: map[string]string{credentialErr.Field: credentialErr.Message},
		})
	case errors.As(err, &partialErr):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("group sync stopped midway")
		writeJSON(w, http.StatusInternalServerError, payload.ErrorResponse{
			Message: messagePartialSync,
			Applied: partialErr.Applied,
			Pending: partialErr.Pending,
		})
	case errors.Is(err, usecase.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, usecase.MessageUserNotFound)
	case errors.Is(err, usecase.ErrGroupNotFound):
		writeMessage(w, http.StatusNotFound, messageGroupNotFound)
	case errors.Is(err, usecase.ErrTokenExpired):
		writeMessage(w, http.StatusUnauthorized, messageTokenExpired)
	case errors.Is(err, usecase.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, messageInvalidToken)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, messageInvalidCredentials)
	case errors.Is(err, usecase.ErrForbidden):
		writeMessage(w, http.StatusForbidden, messageForbidden)
	case errors.Is(err, usecase.ErrUserInactive):
		writeMessage(w, http.StatusForbidden, messageUserInactive)
	case errors.Is(err, middleware.ErrMissingAuthorization), errors.Is(err, middleware.ErrInvalidAuthorization):
		writeMessage(w, http.StatusUnauthorized, messageUnauthorized)
	case errors.Is(err, usecase.ErrRecoveryDelivery):
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("recovery email delivery failed")
		writeMessage(w, http.StatusBadGateway, messageDeliveryFailed)
	default:
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, usecase.MessageOperationFail)
	}
}

func (h *UserHTTPHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, messageInvalidBody)
		return false
	}

	return true
}

// requireActor rejects tokens that verify but name no user, such as tokens
// minted for another purpose with the same secret.
func (h *UserHTTPHandler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := actorID(r)
		if _, err := bson.ObjectIDFromHex(id); err != nil {
			h.writeError(w, r, middleware.ErrInvalidAuthorization)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// actorID returns the id of the authenticated caller.
func actorID(r *http.Request) string {
	claims, ok := middleware.ClaimsFromContext[*usertypes.JWTClaims](r.Context())
	if !ok {
		return ""
	}

	return claims.UserID
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.ErrorResponse{Message: message})
}
