package worker

// audit_worker.go
// Appends workflow transitions to the audit log. The log is append-only and
// unordered with respect to notification writes — no cross-record invariant.

import (
	"context"
	"encoding/json"

	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/rs/zerolog/log"
)

// AuditWorker processes audit jobs from QueueAudit.
type AuditWorker struct {
	repo repository.AuditRepository
}

func NewAuditWorker(repo repository.AuditRepository) *AuditWorker {
	return &AuditWorker{repo: repo}
}

// Process writes one audit row. A failed write is logged and dropped: audit
// is best-effort relative to the primary transition it describes.
func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AuditJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("audit_worker: invalid payload")
		return
	}

	entry := &model.AuditLog{
		ActorID:      payload.ActorID,
		ActionType:   payload.ActionType,
		ResourceType: payload.ResourceType,
		ResourceID:   payload.ResourceID,
		OldValue:     payload.OldValue,
		NewValue:     payload.NewValue,
	}
	if err := w.repo.Record(ctx, entry); err != nil {
		log.Error().
			Err(err).
			Str("action", payload.ActionType).
			Str("resource_id", payload.ResourceID.String()).
			Msg("audit_worker: failed to record audit entry")
		return
	}
	log.Debug().
		Str("action", payload.ActionType).
		Str("resource_id", payload.ResourceID.String()).
		Msg("audit_worker: entry recorded")
}
