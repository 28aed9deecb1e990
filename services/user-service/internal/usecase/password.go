package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/shared/security"
)

// PasswordUsecase defines the credential change use cases.
type PasswordUsecase interface {
	// AdminChangePassword sets the password of user id without knowing the
	// current one. Only administrators may call it.
	AdminChangePassword(ctx context.Context, id, password, confirmation, actorID string) (*OperationResult, error)

	// ChangePassword sets the password of user id after verifying the current
	// one. Callers other than the account owner must be administrators.
	ChangePassword(ctx context.Context, id, currentPassword, newPassword, actorID string) (*OperationResult, error)
}

const (
	MessagePasswordMismatch = "Password doesn't match"
	MessagePasswordChange   = "PasswordChange"
	MessagePasswordChanged  = "Password Changed"

	OperationChangePasswordAdmin = "changePasswordAdmin"
)

type passwordUsecase struct {
	userRepo          repository.UserRepository
	authz             *authorizer
	recorder          audit.Recorder
	minPasswordLength int
	logger            *zerolog.Logger
}

func NewPasswordUsecase(
	userRepo repository.UserRepository,
	recorder audit.Recorder,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) PasswordUsecase {
	return &passwordUsecase{
		userRepo:          userRepo,
		authz:             newAuthorizer(userRepo, userServiceCfg.AdminRoleID),
		recorder:          recorder,
		minPasswordLength: userServiceCfg.MinPasswordLength,
		logger:            logger,
	}
}

func (u *passwordUsecase) AdminChangePassword(
	ctx context.Context,
	id, password, confirmation, actorID string,
) (*OperationResult, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	if password != confirmation {
		return &OperationResult{Status: false, Message: MessagePasswordMismatch}, nil
	}

	if err := checkPasswordLength("password", password, u.minPasswordLength); err != nil {
		return nil, err
	}

	user, err := u.setPassword(ctx, id, password)
	if err != nil {
		return nil, err
	}

	action := model.AuditChangePasswordAdmin
	if actorID == user.ID.Hex() {
		action = model.AuditUserPasswordChange
	}
	u.recorder.Record(ctx, actorObjectID(actorID), user.ID, action)

	return &OperationResult{
		Status:    true,
		Message:   MessagePasswordChange,
		Operation: OperationChangePasswordAdmin,
	}, nil
}

func (u *passwordUsecase) ChangePassword(
	ctx context.Context,
	id, currentPassword, newPassword, actorID string,
) (*OperationResult, error) {
	if err := u.authz.requireSelfOrAdmin(ctx, actorID, id); err != nil {
		return nil, err
	}

	if err := checkPasswordLength("newPassword", newPassword, u.minPasswordLength); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUser(ctx, id, repository.GetUserOptions{})
	if err != nil {
		return nil, userLookupError("find user", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &WrongCredentialError{Field: "currentPassword", Message: MessageWrongPassword}
	}

	if _, err := u.setPassword(ctx, id, newPassword); err != nil {
		return nil, err
	}

	action := model.AuditAdminPasswordChange
	if actorID == user.ID.Hex() {
		action = model.AuditUserPasswordChange
	}
	u.recorder.Record(ctx, actorObjectID(actorID), user.ID, action)

	return &OperationResult{Status: true, Message: MessagePasswordChanged}, nil
}

func (u *passwordUsecase) setPassword(ctx context.Context, id, password string) (*model.User, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.UpdateUser(ctx, id, repository.UpdateUserParams{Password: &passwordHash})
	if err != nil {
		return nil, userLookupError("update password", err)
	}

	return user, nil
}
