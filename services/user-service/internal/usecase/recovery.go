package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/email"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/auth"
	"github.com/vasapolrittideah/platform-api/shared/security"
	"github.com/vasapolrittideah/platform-api/shared/utilities"
)

// RecoveryUsecase defines the business logic of the password recovery flow.
type RecoveryUsecase interface {
	// RequestRecovery issues a single use recovery token for the account
	// registered with address and mails the recovery link.
	RequestRecovery(ctx context.Context, address string) (*OperationResult, error)

	// ValidateRecoveryToken checks that token is authentic, unexpired and unused.
	ValidateRecoveryToken(ctx context.Context, token string) error

	// ConsumeRecovery sets a new password using token and opens a session.
	ConsumeRecovery(
		ctx context.Context,
		token, newPassword string,
		client utilities.ClientInfo,
	) (*OperationResult, error)
}

type recoveryUsecase struct {
	userRepo       repository.UserRepository
	tokenRepo      repository.RecoveryTokenRepository
	txRunner       repository.TxRunner
	sessions       *sessionIssuer
	recorder       audit.Recorder
	sender         email.RecoverySender
	jwtAuth        auth.JWTAuthenticator
	userServiceCfg *config.UserServiceConfig
	logger         *zerolog.Logger
	now            func() time.Time
}

// NewRecoveryUsecase creates a new instance of RecoveryUsecase.
func NewRecoveryUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.RecoveryTokenRepository,
	sessionRepo repository.SessionRepository,
	txRunner repository.TxRunner,
	recorder audit.Recorder,
	sender email.RecoverySender,
	jwtAuth auth.JWTAuthenticator,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) RecoveryUsecase {
	return &recoveryUsecase{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		txRunner:       txRunner,
		sessions:       newSessionIssuer(sessionRepo, jwtAuth, userServiceCfg.Token),
		recorder:       recorder,
		sender:         sender,
		jwtAuth:        jwtAuth,
		userServiceCfg: userServiceCfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (u *recoveryUsecase) RequestRecovery(ctx context.Context, address string) (*OperationResult, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, newValidationError("email", "email is a required field")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, address)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &PersistenceError{Op: "find user", Err: err}
		}

		if u.userServiceCfg.RevealUnknownRecoveryEmail {
			return &OperationResult{Status: false, Message: MessageUserNotFound}, nil
		}
		// Unknown addresses get the same answer as known ones.
		return &OperationResult{Status: true, Message: MessageOperationSuccess}, nil
	}

	if err := u.tokenRepo.InvalidateUserTokens(ctx, user.ID); err != nil {
		return nil, &PersistenceError{Op: "invalidate recovery tokens", Err: err}
	}

	expiresIn := u.userServiceCfg.Token.RecoveryTokenExpiresIn
	tokenStr, jti, err := u.generateRecoveryToken(user.ID.Hex(), expiresIn)
	if err != nil {
		return nil, err
	}

	if _, err := u.tokenRepo.CreateToken(ctx, &model.RecoveryToken{
		UserID:    user.ID,
		JTI:       jti,
		Used:      false,
		ExpiresAt: u.now().Add(expiresIn),
	}); err != nil {
		return nil, &PersistenceError{Op: "store recovery token", Err: err}
	}

	link := strings.TrimRight(u.userServiceCfg.AppWebURL, "/") + "/recovery/" + tokenStr

	sent, err := u.sender.SendRecoveryEmail(ctx, user.Email, link, user)
	if err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send recovery email")
		return nil, fmt.Errorf("%w: %w", ErrRecoveryDelivery, err)
	}

	u.recorder.Record(ctx, &user.ID, user.ID, model.AuditPasswordRecovery)

	if !sent {
		return &OperationResult{Status: false, Message: MessageOperationFail}, nil
	}

	return &OperationResult{Status: true, Message: MessageOperationSuccess}, nil
}

func (u *recoveryUsecase) ValidateRecoveryToken(ctx context.Context, token string) error {
	claims, err := u.parseRecoveryToken(token)
	if err != nil {
		return err
	}

	record, err := u.tokenRepo.GetTokenByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenNotFound
		}
		return &PersistenceError{Op: "find recovery token", Err: err}
	}

	if record.Used {
		return ErrTokenAlreadyUsed
	}

	if !u.now().Before(record.ExpiresAt) {
		return ErrTokenExpired
	}

	return nil
}

func (u *recoveryUsecase) ConsumeRecovery(
	ctx context.Context,
	token, newPassword string,
	client utilities.ClientInfo,
) (*OperationResult, error) {
	claims, err := u.parseRecoveryToken(token)
	if err != nil {
		return nil, err
	}

	if err := checkPasswordLength("newPassword", newPassword, u.userServiceCfg.MinPasswordLength); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	var (
		user   *model.User
		tokens *usertypes.Tokens
	)
	err = u.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := u.tokenRepo.ClaimToken(ctx, claims.ID, u.now())
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrTokenAlreadyUsed
			}
			return &PersistenceError{Op: "claim recovery token", Err: err}
		}

		if record.UserID.Hex() != claims.UserID {
			return ErrInvalidToken
		}

		user, err = u.userRepo.UpdateUser(ctx, claims.UserID, repository.UpdateUserParams{
			Password: &passwordHash,
		})
		if err != nil {
			if isNotFound(err) {
				return ErrInvalidToken
			}
			return &PersistenceError{Op: "update password", Err: err}
		}

		tokens, err = u.sessions.createAuthSession(ctx, user.ID.Hex(), model.SessionOriginRecovery, client)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.recorder.Record(ctx, &user.ID, user.ID, model.AuditUserRecoveryPasswordChange)

	return &OperationResult{
		Status:  true,
		Token:   tokens.AccessToken,
		Message: MessageOperationSuccess,
	}, nil
}

// parseRecoveryToken verifies token and checks that it was issued for recovery.
func (u *recoveryUsecase) parseRecoveryToken(token string) (*usertypes.RecoveryClaims, error) {
	var claims usertypes.RecoveryClaims
	if _, err := u.jwtAuth.ValidateTokenWithClaims(
		token,
		u.userServiceCfg.Token.RecoveryTokenSecret,
		&claims,
	); err != nil {
		return nil, err
	}

	if claims.Operation != usertypes.RecoveryOperation || claims.ID == "" || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return &claims, nil
}

// generateRecoveryToken creates a recovery JWT with a unique JTI.
func (u *recoveryUsecase) generateRecoveryToken(userID string, expiresIn time.Duration) (string, string, error) {
	jti := uuid.NewString()

	claims := usertypes.RecoveryClaims{
		UserID:           userID,
		Operation:        usertypes.RecoveryOperation,
		RegisteredClaims: u.jwtAuth.RegisteredClaims(userID, jti, expiresIn),
	}

	tokenStr, err := u.jwtAuth.GenerateToken(claims, u.userServiceCfg.Token.RecoveryTokenSecret)
	if err != nil {
		return "", "", err
	}

	return tokenStr, jti, nil
}
