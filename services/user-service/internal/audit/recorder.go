// Package audit records who did what to which account.
package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
)

// Recorder writes one audit record per identity-affecting mutation.
// Record is best-effort: failures are logged and never reach the caller.
type Recorder interface {
	Record(ctx context.Context, actor *bson.ObjectID, subject bson.ObjectID, action string)
}

type recorder struct {
	repo   repository.AuditRepository
	logger *zerolog.Logger
	now    func() time.Time
}

// NewRecorder returns a Recorder persisting to repo.
func NewRecorder(repo repository.AuditRepository, logger *zerolog.Logger) Recorder {
	return &recorder{repo: repo, logger: logger, now: time.Now}
}

// Record stores the action. A nil or zero actor is stored as a system action.
func (r *recorder) Record(ctx context.Context, actor *bson.ObjectID, subject bson.ObjectID, action string) {
	if actor != nil && actor.IsZero() {
		actor = nil
	}

	record := &model.AuditRecord{
		Actor:     actor,
		Subject:   subject,
		Action:    action,
		CreatedAt: r.now().UTC(),
	}

	if _, err := r.repo.CreateRecord(ctx, record); err != nil {
		r.logger.Error().
			Err(err).
			Str("action", action).
			Str("subject", subject.Hex()).
			Msg("failed to record audit event")
	}
}
