package worker

// retry_cron.go
// Background goroutine that periodically re-attempts webhook delivery for
// notifications stuck in status='PENDING' with a next_retry_at in the past.
// Uses the Circuit Breaker to avoid hammering a downed receiver.

import (
	"context"
	"fmt"
	"time"

	"staffhub/internal/infra"
	"staffhub/internal/model"
	"staffhub/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 20
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	NotificationRepo repository.NotificationRepository
	Worker           *NotificationWorker
	CB               *infra.CircuitBreaker
	RDB              *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries stuck notifications, and re-attempts delivery through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed receiver
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	stuck, err := cfg.NotificationRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(stuck) == 0 {
		return
	}

	log.Info().Int("count", len(stuck)).Msg("retry_cron: processing stuck notifications")

	for i := range stuck {
		n := &stuck[i]

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		if n.RetryCount >= MaxNotificationRetries {
			n.Status = model.NotificationError
			n.NextRetryAt = nil
			if err := cfg.NotificationRepo.Update(ctx, n); err != nil {
				log.Error().Err(err).Msg("retry_cron: failed to park notification in ERROR")
				continue
			}

			reason := "max retries exceeded"
			if n.LastError != nil {
				reason = fmt.Sprintf("max retries (%d) exceeded: %s", MaxNotificationRetries, *n.LastError)
			}
			payload := fmt.Sprintf(`{"notification_id":"%s","event":"%s"}`, n.ID, n.Event)
			SendToDLQ(ctx, cfg.RDB, QueueNotification, "notification", []byte(payload), reason, n.RetryCount)
			continue
		}

		cfg.Worker.Deliver(ctx, n)
	}
}
