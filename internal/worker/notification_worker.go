package worker

// notification_worker.go
// Fans a workflow event out to its recipients. Each recipient gets a
// persisted notifications row; delivery goes to the external webhook through
// the circuit breaker. A failed delivery schedules the row for the retry
// cron instead of blocking the pool.

import (
	"context"
	"encoding/json"
	"time"

	"staffhub/internal/infra"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/rs/zerolog/log"
)

// MaxNotificationRetries before a row is parked in ERROR and sent to the DLQ.
const MaxNotificationRetries = 5

// NotificationWorker processes fan-out jobs from QueueNotification.
type NotificationWorker struct {
	repo    repository.NotificationRepository
	webhook *infra.WebhookClient
	cb      *infra.CircuitBreaker
}

func NewNotificationWorker(repo repository.NotificationRepository, webhook *infra.WebhookClient, cb *infra.CircuitBreaker) *NotificationWorker {
	return &NotificationWorker{repo: repo, webhook: webhook, cb: cb}
}

// Process persists one notification row per recipient and attempts first
// delivery. Failures never propagate — the retry cron owns re-drives.
func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return
	}
	if len(payload.RecipientIDs) == 0 {
		log.Debug().Str("event", payload.Event).Msg("notification_worker: no recipients — skipping")
		return
	}

	body, err := json.Marshal(payload.Payload)
	if err != nil {
		body = []byte("{}")
	}

	for _, recipientID := range payload.RecipientIDs {
		n := &model.Notification{
			Event:       payload.Event,
			ActorID:     payload.ActorID,
			SubjectID:   payload.SubjectID,
			RecipientID: recipientID,
			Payload:     string(body),
			Status:      model.NotificationPending,
		}
		if err := w.repo.Create(ctx, n); err != nil {
			log.Error().Err(err).Str("event", payload.Event).Msg("notification_worker: failed to persist notification")
			continue
		}
		w.Deliver(ctx, n)
	}
}

// Deliver attempts one webhook delivery and records the outcome on the row.
// Shared with the retry cron.
func (w *NotificationWorker) Deliver(ctx context.Context, n *model.Notification) {
	if !w.webhook.Configured() {
		// Email-only installation: nothing to deliver, mark sent so the
		// retry cron does not spin on these rows.
		n.Status = model.NotificationSent
		if err := w.repo.Update(ctx, n); err != nil {
			log.Error().Err(err).Msg("notification_worker: failed to mark notification sent")
		}
		return
	}

	event := infra.WebhookEvent{
		Event:       n.Event,
		ActorID:     n.ActorID.String(),
		SubjectID:   n.SubjectID.String(),
		RecipientID: n.RecipientID.String(),
		Payload:     json.RawMessage(n.Payload),
		SentAt:      time.Now().UTC().Format(time.RFC3339),
	}

	err := w.cb.Execute(func() error {
		return w.webhook.Send(ctx, event)
	})
	if err == nil {
		n.Status = model.NotificationSent
		n.NextRetryAt = nil
		n.LastError = nil
		if uerr := w.repo.Update(ctx, n); uerr != nil {
			log.Error().Err(uerr).Msg("notification_worker: failed to mark notification sent")
		}
		return
	}

	n.RetryCount++
	msg := err.Error()
	n.LastError = &msg
	next := time.Now().Add(retryBackoff(n.RetryCount))
	n.NextRetryAt = &next

	log.Warn().
		Err(err).
		Str("event", n.Event).
		Str("recipient_id", n.RecipientID.String()).
		Int("retry_count", n.RetryCount).
		Msg("notification_worker: delivery failed, scheduled retry")

	if uerr := w.repo.Update(ctx, n); uerr != nil {
		log.Error().Err(uerr).Msg("notification_worker: failed to record delivery failure")
	}
}

// retryBackoff doubles per attempt: 1m, 2m, 4m, 8m, capped at 15m.
func retryBackoff(attempt int) time.Duration {
	d := time.Minute << (attempt - 1)
	if d > 15*time.Minute || d <= 0 {
		d = 15 * time.Minute
	}
	return d
}
