package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spark-dating/spark-core/internal/app"
	"github.com/spark-dating/spark-core/internal/repository"
)

// Scheduler runs the periodic sweeps: demoting lapsed VIP subscriptions and
// deactivating expired promocodes. Both sweeps are single guarded UPDATEs,
// so overlapping runs are harmless.
type Scheduler struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	codes    *repository.PromocodeRepository
	cron     *cron.Cron
}

// NewScheduler creates the scheduler with dependencies from AppContext.
func NewScheduler(appCtx *app.AppContext) *Scheduler {
	return &Scheduler{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		codes:    repository.NewPromocodeRepository(appCtx.DB),
		cron:     cron.New(),
	}
}

// Start registers the sweeps and begins the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("*/10 * * * *", s.sweepExpiredVIP); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.sweepExpiredPromocodes); err != nil {
		return err
	}
	s.cron.Start()
	s.appCtx.Logger.Info("job scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.appCtx.Logger.Info("job scheduler stopped")
}

// sweepExpiredVIP clears has_vip on profiles whose expiry has passed.
// Lifetime rows have a null expiry and are never touched.
func (s *Scheduler) sweepExpiredVIP() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.profiles.DemoteExpiredVIP(ctx, time.Now())
	if err != nil {
		s.appCtx.Metrics.Errors.WithLabelValues("jobs").Inc()
		s.appCtx.Logger.Error("vip expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.appCtx.Logger.Info("vip subscriptions expired", "count", n)
	}
}

func (s *Scheduler) sweepExpiredPromocodes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.codes.DeactivateExpired(ctx, time.Now())
	if err != nil {
		s.appCtx.Metrics.Errors.WithLabelValues("jobs").Inc()
		s.appCtx.Logger.Error("promocode expiry sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.appCtx.Logger.Info("promocodes deactivated", "count", n)
	}
}
