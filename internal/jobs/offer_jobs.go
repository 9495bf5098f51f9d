package jobs

import (
	"context"
	"errors"

	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

// ReleaseExpiredOffers refunds every offer that aged past the validity
// window so escrow does not sit in custody indefinitely.
func (jr *JobRunner) ReleaseExpiredOffers() {
	jr.runWithRecovery("ReleaseExpiredOffers", func() {
		ctx := context.Background()

		assets, err := jr.rental.ExpiredOffers(ctx)
		if err != nil {
			logger.Error("Failed to list expired offers", "error", err)
			return
		}

		released := 0
		for _, asset := range assets {
			err := jr.seq.Do(ctx, func(ctx context.Context) error {
				return jr.rental.ReleaseExpiredOffer(ctx, asset)
			})
			switch {
			case err == nil:
				released++
			case errors.Is(err, domain.ErrNoOffer):
				// Cancelled or outbid between listing and release.
			case errors.Is(err, domain.ErrNotAuthorized):
				// Re-placed and live again.
				logger.Debug("Offer no longer expired", "asset", asset)
			default:
				logger.Error("Failed to release expired offer", "asset", asset, "error", err)
			}
		}

		logger.Info("Released expired offers", "count", released, "candidates", len(assets))
	})
}
