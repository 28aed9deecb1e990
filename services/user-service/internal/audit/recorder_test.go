package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

type mockAuditRepo struct {
	records   []*model.AuditRecord
	createErr error
}

func (m *mockAuditRepo) CreateRecord(_ context.Context, record *model.AuditRecord) (*model.AuditRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	record.ID = bson.NewObjectID()
	m.records = append(m.records, record)
	return record, nil
}

func (m *mockAuditRepo) ListRecordsBySubject(context.Context, string, int64) ([]*model.AuditRecord, error) {
	return m.records, nil
}

func TestRecorder_Record(t *testing.T) {
	logger := zerolog.Nop()
	repo := &mockAuditRepo{}
	r := NewRecorder(repo, &logger)

	actor := bson.NewObjectID()
	subject := bson.NewObjectID()
	r.Record(context.Background(), &actor, subject, model.AuditUserModified)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	require.NotNil(t, record.Actor)
	assert.Equal(t, actor, *record.Actor)
	assert.Equal(t, subject, record.Subject)
	assert.Equal(t, model.AuditUserModified, record.Action)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestRecorder_SystemActor(t *testing.T) {
	logger := zerolog.Nop()
	repo := &mockAuditRepo{}
	r := NewRecorder(repo, &logger)

	zero := bson.NilObjectID
	r.Record(context.Background(), nil, bson.NewObjectID(), model.AuditUserCreated)
	r.Record(context.Background(), &zero, bson.NewObjectID(), model.AuditUserCreated)

	require.Len(t, repo.records, 2)
	assert.Nil(t, repo.records[0].Actor)
	assert.Nil(t, repo.records[1].Actor)
}

func TestRecorder_SwallowsRepositoryErrors(t *testing.T) {
	logger := zerolog.Nop()
	repo := &mockAuditRepo{createErr: errors.New("connection reset")}
	r := NewRecorder(repo, &logger)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), nil, bson.NewObjectID(), model.AuditUserDeleted)
	})
	assert.Empty(t, repo.records)
}
