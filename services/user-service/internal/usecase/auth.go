package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/auth"
	"github.com/vasapolrittideah/platform-api/shared/security"
	"github.com/vasapolrittideah/platform-api/shared/utilities"
	"github.com/vasapolrittideah/platform-api/shared/validation"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Login(ctx context.Context, params LoginParams, client utilities.ClientInfo) (*usertypes.Tokens, error)
	Register(ctx context.Context, params RegisterParams, client utilities.ClientInfo) (*usertypes.Tokens, error)
}

// LoginParams defines the parameters for user login. Identifier is either a
// username or an email address.
type LoginParams struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Username string `json:"username" validate:"required,min=3,max=64,username"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name"     validate:"required"`
}

type authUsecase struct {
	userRepo          repository.UserRepository
	sessions          *sessionIssuer
	recorder          audit.Recorder
	validator         *validation.Validator
	minPasswordLength int
	logger            *zerolog.Logger
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	recorder audit.Recorder,
	jwtAuth auth.JWTAuthenticator,
	validator *validation.Validator,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:          userRepo,
		sessions:          newSessionIssuer(sessionRepo, jwtAuth, userServiceCfg.Token),
		recorder:          recorder,
		validator:         validator,
		minPasswordLength: userServiceCfg.MinPasswordLength,
		logger:            logger,
	}
}

func (u *authUsecase) Login(
	ctx context.Context,
	params LoginParams,
	client utilities.ClientInfo,
) (*usertypes.Tokens, error) {
	if err := validateStruct(u.validator, params); err != nil {
		return nil, err
	}

	var (
		user *model.User
		err  error
	)
	if strings.Contains(params.Identifier, "@") {
		user, err = u.userRepo.GetUserByEmail(ctx, params.Identifier)
	} else {
		user, err = u.userRepo.GetUserByUsername(ctx, params.Identifier)
	}
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, &PersistenceError{Op: "find user", Err: err}
	}

	if ok, err := security.VerifyPassword(params.Password, user.Password); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	return u.sessions.createAuthSession(ctx, user.ID.Hex(), model.SessionOriginLogin, client)
}

func (u *authUsecase) Register(
	ctx context.Context,
	params RegisterParams,
	client utilities.ClientInfo,
) (*usertypes.Tokens, error) {
	if err := validateStruct(u.validator, params); err != nil {
		return nil, err
	}
	if err := checkPasswordLength("password", params.Password, u.minPasswordLength); err != nil {
		return nil, err
	}

	user, err := insertUser(ctx, u.userRepo, &model.User{
		Username: params.Username,
		Email:    params.Email,
		Name:     params.Name,
		Active:   true,
	}, params.Password)
	if err != nil {
		return nil, err
	}

	u.recorder.Record(ctx, nil, user.ID, model.AuditUserRegistered)

	return u.sessions.createAuthSession(ctx, user.ID.Hex(), model.SessionOriginRegister, client)
}

func checkPasswordLength(field, password string, minLength int) error {
	if len([]rune(password)) < minLength {
		return newValidationError(field, fmt.Sprintf("%s must be at least %d characters in length", field, minLength))
	}

	return nil
}
