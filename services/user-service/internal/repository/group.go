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

// GroupRepository defines the interface for group-related database operations.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *model.Group) (*model.Group, error)
	GetGroup(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
}

const groupCollection = "groups"

type groupMongoRepository struct {
	db *mongo.Database
}

func NewGroupMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) GroupRepository {
	_, err := db.Collection(groupCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create group indexes")
	}

	return &groupMongoRepository{db: db}
}

func (r *groupMongoRepository) CreateGroup(ctx context.Context, group *model.Group) (*model.Group, error) {
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	result, err := r.db.Collection(groupCollection).InsertOne(ctx, group)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		group.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return group, nil
}

func (r *groupMongoRepository) GetGroup(ctx context.Context, id string) (*model.Group, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(groupCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var group model.Group
	if err := result.Decode(&group); err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *groupMongoRepository) ListGroups(ctx context.Context) ([]*model.Group, error) {
	cursor, err := r.db.Collection(groupCollection).Find(
		ctx,
		bson.M{},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	groups := make([]*model.Group, 0)
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	return groups, nil
}
