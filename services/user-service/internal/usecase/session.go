package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/auth"
	"github.com/vasapolrittideah/platform-api/shared/utilities"
)

// sessionIssuer opens authenticated sessions. It is shared by login,
// registration and recovery.
type sessionIssuer struct {
	sessionRepo repository.SessionRepository
	jwtAuth     auth.JWTAuthenticator
	tokenCfg    config.TokenConfig
	now         func() time.Time
}

func newSessionIssuer(
	sessionRepo repository.SessionRepository,
	jwtAuth auth.JWTAuthenticator,
	tokenCfg config.TokenConfig,
) *sessionIssuer {
	return &sessionIssuer{
		sessionRepo: sessionRepo,
		jwtAuth:     jwtAuth,
		tokenCfg:    tokenCfg,
		now:         time.Now,
	}
}

func (s *sessionIssuer) createAuthSession(
	ctx context.Context,
	userID, origin string,
	client utilities.ClientInfo,
) (*usertypes.Tokens, error) {
	session, err := s.sessionRepo.CreateSession(ctx, &model.Session{
		UserID:    userID,
		Origin:    origin,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "create session", Err: err}
	}

	accessToken, err := s.generateToken(
		userID,
		session.ID.Hex(),
		s.tokenCfg.AccessTokenSecret,
		s.tokenCfg.AccessTokenExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateToken(
		userID,
		session.ID.Hex(),
		s.tokenCfg.RefreshTokenSecret,
		s.tokenCfg.RefreshTokenExpiresIn,
	)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := s.sessionRepo.UpdateTokens(ctx, session.ID.Hex(), repository.UpdateTokensParams{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		AccessTokenExpiresAt:  now.Add(s.tokenCfg.AccessTokenExpiresIn),
		RefreshTokenExpiresAt: now.Add(s.tokenCfg.RefreshTokenExpiresIn),
	}); err != nil {
		return nil, &PersistenceError{Op: "update session tokens", Err: err}
	}

	return &usertypes.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *sessionIssuer) generateToken(userID, sessionID, secret string, expiresIn time.Duration) (string, error) {
	claims := usertypes.JWTClaims{
		UserID:           userID,
		SessionID:        sessionID,
		RegisteredClaims: s.jwtAuth.RegisteredClaims(userID, uuid.NewString(), expiresIn),
	}

	return s.jwtAuth.GenerateToken(claims, secret)
}

// actorObjectID converts the authenticated caller id. An empty or malformed id
// is treated as a system action.
func actorObjectID(actorID string) *bson.ObjectID {
	if actorID == "" {
		return nil
	}

	objectID, err := bson.ObjectIDFromHex(actorID)
	if err != nil {
		return nil
	}

	return &objectID
}
