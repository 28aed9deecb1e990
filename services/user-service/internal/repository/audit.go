package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

// AuditRepository persists audit records. Records are append only.
type AuditRepository interface {
	CreateRecord(ctx context.Context, record *model.AuditRecord) (*model.AuditRecord, error)
	ListRecordsBySubject(ctx context.Context, subjectID string, limit int64) ([]*model.AuditRecord, error)
}

const auditCollection = "user_audits"

type auditMongoRepository struct {
	db *mongo.Database
}

func NewAuditMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AuditRepository {
	_, err := db.Collection(auditCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create audit indexes")
	}

	return &auditMongoRepository{db: db}
}

func (r *auditMongoRepository) CreateRecord(
	ctx context.Context,
	record *model.AuditRecord,
) (*model.AuditRecord, error) {
	result, err := r.db.Collection(auditCollection).InsertOne(ctx, record)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		record.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return record, nil
}

func (r *auditMongoRepository) ListRecordsBySubject(
	ctx context.Context,
	subjectID string,
	limit int64,
) ([]*model.AuditRecord, error) {
	objectID, err := parseObjectID(subjectID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultPageLimit
	}

	cursor, err := r.db.Collection(auditCollection).Find(
		ctx,
		bson.M{"subject": objectID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := make([]*model.AuditRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	return records, nil
}
