package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

// RecoveryTokenRepository defines the interface for recovery token bookkeeping.
type RecoveryTokenRepository interface {
	CreateToken(ctx context.Context, token *model.RecoveryToken) (*model.RecoveryToken, error)
	GetTokenByJTI(ctx context.Context, jti string) (*model.RecoveryToken, error)
	// ClaimToken atomically marks an unused, unexpired token as used. It returns
	// mongo.ErrNoDocuments when the token is unknown, expired or already used.
	ClaimToken(ctx context.Context, jti string, now time.Time) (*model.RecoveryToken, error)
	InvalidateUserTokens(ctx context.Context, userID bson.ObjectID) error
}

const recoveryTokenCollection = "recovery_tokens"

type recoveryTokenMongoRepository struct {
	db *mongo.Database
}

func NewRecoveryTokenMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) RecoveryTokenRepository {
	collection := db.Collection(recoveryTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create recovery token indexes")
	}

	return &recoveryTokenMongoRepository{db: db}
}

func (r *recoveryTokenMongoRepository) CreateToken(
	ctx context.Context,
	token *model.RecoveryToken,
) (*model.RecoveryToken, error) {
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now

	result, err := r.db.Collection(recoveryTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return token, nil
}

func (r *recoveryTokenMongoRepository) GetTokenByJTI(ctx context.Context, jti string) (*model.RecoveryToken, error) {
	result := r.db.Collection(recoveryTokenCollection).FindOne(ctx, bson.M{"jti": jti})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.RecoveryToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *recoveryTokenMongoRepository) ClaimToken(
	ctx context.Context,
	jti string,
	now time.Time,
) (*model.RecoveryToken, error) {
	result := r.db.Collection(recoveryTokenCollection).FindOneAndUpdate(
		ctx,
		bson.M{
			"jti":        jti,
			"used":       false,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"used": true, "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.RecoveryToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *recoveryTokenMongoRepository) InvalidateUserTokens(ctx context.Context, userID bson.ObjectID) error {
	_, err := r.db.Collection(recoveryTokenCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "used": false},
		bson.M{"$set": bson.M{"used": true, "updated_at": time.Now()}},
	)

	return err
}
