package purchasesync

import (
	"context"
	"errors"
	"time"

	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/common/models"
	"github.com/solucions-socials/platform/pkg/holded"
)

// HandleEvent runs a sync for holded.sync.requested events. It satisfies
// kafka.EventHandler. Requests that can never succeed are acknowledged.
func (o *Orchestrator) HandleEvent(ctx context.Context, event models.Event) error {
	if event.Type != models.EventSyncRequested {
		return nil
	}
	req, ok := models.SyncRequestFromEvent(event)
	if !ok {
		logger.Log.WithField("event_id", event.ID).Warn("sync request without company, skipping")
		return nil
	}

	_, err := o.Sync(ctx, req.Company)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, holded.ErrUnknownCompany), errors.Is(err, ErrSyncInProgress):
		logger.WithCompany(req.Company).WithError(err).Warn("sync request ignored")
		return nil
	default:
		return err
	}
}

// RunScheduler syncs every company on each tick until ctx is cancelled.
func (o *Orchestrator) RunScheduler(ctx context.Context, interval time.Duration, companies []string) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, company := range companies {
				if _, err := o.Sync(ctx, company); err != nil && !errors.Is(err, ErrSyncInProgress) {
					logger.WithCompany(company).WithError(err).Error("scheduled sync failed")
				}
			}
		}
	}
}
