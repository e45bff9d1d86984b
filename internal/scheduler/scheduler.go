package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"sponsorhub-backend/internal/jobs"
	"sponsorhub-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision. Runs of the same
	// job never overlap: a slow sweep delays the next tick instead.
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Nightly jobs
	// Reset intents pointing at deleted sponsorships
	_, err := s.cron.AddFunc(cfg.RepairOrphanedIntents, s.jobs.RepairOrphanedIntents)
	if err != nil {
		logger.Error("Failed to register RepairOrphanedIntents job", "spec", cfg.RepairOrphanedIntents, "error", err)
	}

	// Rebuild sponsor rollups after the repair sweep
	_, err = s.cron.AddFunc(cfg.RecomputeSponsorStats, s.jobs.RecomputeSponsorStats)
	if err != nil {
		logger.Error("Failed to register RecomputeSponsorStats job", "spec", cfg.RecomputeSponsorStats, "error", err)
	}

	logger.Info("Cron jobs registered", "count", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
