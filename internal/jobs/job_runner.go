package jobs

import (
	"context"

	"landrent-backend/internal/config"
	"landrent-backend/internal/domain"
	"landrent-backend/internal/logger"
)

// OfferSweeper is the part of the rental engine the jobs drive.
type OfferSweeper interface {
	ExpiredOffers(ctx context.Context) ([]domain.AssetRef, error)
	ReleaseExpiredOffer(ctx context.Context, asset domain.AssetRef) error
}

// Sequencer orders job mutations with API mutations.
type Sequencer interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	rental OfferSweeper
	seq    Sequencer
	config *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(rental OfferSweeper, seq Sequencer, cfg *config.Config) *JobRunner {
	return &JobRunner{
		rental: rental,
		seq:    seq,
		config: cfg,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReleaseExpiredOffers()
}
