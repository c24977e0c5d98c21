// Package scheduler implements the Scheduler & Feedback Loop: it drives the
// periodic regeneration jobs, bounds generation parallelism with a worker
// pool sized from generationThreadPoolSize, deduplicates overlapping
// per-user generation requests with a single-flight throttle, and ingests
// explicit feedback back into the profile layer.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/store"
	"github.com/showsync/reccore/pkg/models"
)

// Scheduler owns the three cron jobs, the generation worker pool, and the
// feedback-ingestion path. It holds no per-user state beyond what the store
// and profile packages already persist, so a single instance is safe to run
// alongside request-handling goroutines that dispatch into the same pool.
type Scheduler struct {
	db      store.DatabaseQuerier
	hot     *redis.Client
	store   *store.Store
	gen     *generator.Generator
	builder *profile.Builder
	cfg     *config.Config
	logger  *logrus.Logger
	now     func() time.Time

	sf singleflight.Group

	cron *cron.Cron

	workerCount int
	workerPool  chan chan uuid.UUID
	jobQueue    chan uuid.UUID
	workers     []*worker
	quit        chan struct{}
	wg          sync.WaitGroup
}

type worker struct {
	id         int
	sched      *Scheduler
	jobChannel chan uuid.UUID
	quit       chan struct{}
}

func New(db store.DatabaseQuerier, hot *redis.Client, st *store.Store, gen *generator.Generator, builder *profile.Builder, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	workerCount := cfg.Scheduler.GenerationThreadPoolSize
	if workerCount <= 0 {
		workerCount = 1
	}

	s := &Scheduler{
		db:          db,
		hot:         hot,
		store:       st,
		gen:         gen,
		builder:     builder,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		workerCount: workerCount,
		workerPool:  make(chan chan uuid.UUID, workerCount),
		jobQueue:    make(chan uuid.UUID, 256),
		quit:        make(chan struct{}),
	}

	s.workers = make([]*worker, workerCount)
	for i := 0; i < workerCount; i++ {
		s.workers[i] = &worker{id: i + 1, sched: s, jobChannel: make(chan uuid.UUID), quit: make(chan struct{})}
	}

	return s
}

// Start launches the worker pool and, unless enableSchedulers is false,
// registers and starts the three cron jobs. Cron expressions come from
// config so operators can retune them without a redeploy.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, w := range s.workers {
		s.wg.Add(1)
		go w.run(&s.wg)
	}
	s.wg.Add(1)
	go s.dispatch(&s.wg)

	if !s.cfg.Scheduler.EnableSchedulers {
		s.logger.Info("schedulers disabled, generation available only via manual trigger")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Scheduler.DailyGenerationCron, func() { s.runJob(ctx, "daily_regeneration", s.DailyRegeneration) }); err != nil {
		return fmt.Errorf("failed to schedule daily regeneration: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Scheduler.ActiveUsersRefreshCron, func() { s.runJob(ctx, "active_users_refresh", s.ActiveUsersRefresh) }); err != nil {
		return fmt.Errorf("failed to schedule active-users refresh: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.Scheduler.EvictionSweepCron, func() { s.runJob(ctx, "eviction_sweep", s.RunEvictionSweep) }); err != nil {
		return fmt.Errorf("failed to schedule eviction sweep: %w", err)
	}
	s.cron.Start()

	s.logger.WithFields(logrus.Fields{
		"daily_generation_cron":    s.cfg.Scheduler.DailyGenerationCron,
		"active_users_refresh_cron": s.cfg.Scheduler.ActiveUsersRefreshCron,
		"eviction_sweep_cron":      s.cfg.Scheduler.EvictionSweepCron,
		"worker_count":             s.workerCount,
	}).Info("scheduler started")
	return nil
}

// Stop drains the cron scheduler and the worker pool. In-flight jobs are
// allowed to finish; Stop does not cancel their context.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}
	close(s.quit)
	for _, w := range s.workers {
		close(w.quit)
	}
	s.wg.Wait()
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn func(context.Context) error) {
	start := s.now()
	if err := fn(ctx); err != nil {
		s.logger.WithError(err).WithField("job", name).Error("scheduled job failed")
		return
	}
	s.logger.WithFields(logrus.Fields{"job": name, "duration": s.now().Sub(start)}).Info("scheduled job completed")
}

func (s *Scheduler) dispatch(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case userID := <-s.jobQueue:
			select {
			case jobChannel := <-s.workerPool:
				jobChannel <- userID
			case <-s.quit:
				return
			}
		case <-s.quit:
			return
		}
	}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		w.sched.workerPool <- w.jobChannel
		select {
		case userID := <-w.jobChannel:
			if _, err := w.sched.GenerateForUser(context.Background(), userID); err != nil {
				w.sched.logger.WithError(err).WithField("user_id", userID).Warn("generation job failed")
			}
		case <-w.quit:
			return
		}
	}
}

// enqueue posts a user onto the job queue for pickup by the worker pool. It
// blocks briefly rather than forever so a full queue cannot wedge a cron
// tick that is iterating thousands of users.
func (s *Scheduler) enqueue(userID uuid.UUID) error {
	select {
	case s.jobQueue <- userID:
		return nil
	case <-s.quit:
		return fmt.Errorf("scheduler stopped, dropped user %s", userID)
	case <-time.After(5 * time.Second):
		return fmt.Errorf("generation queue full, dropped user %s", userID)
	}
}

// GenerateForUser runs the full personal-recommendation pipeline for one
// user: refresh the profile, run PERSONAL plus COLLABORATIVE and TRENDING
// when their feature flags are on, and persist the result. The user's lock
// is held only around the profile refresh and around the persist step;
// candidate generation runs without it. Concurrent callers for the same
// userID share a single in-flight execution via singleflight, satisfying
// §4.5's "at most one in-flight generation per user" — a second caller
// blocks until the first returns and receives the same (count, err).
func (s *Scheduler) GenerateForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	v, err, _ := s.sf.Do(userID.String(), func() (interface{}, error) {
		return s.generateForUserLocked(ctx, userID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *Scheduler) generateForUserLocked(ctx context.Context, userID uuid.UUID) (int, error) {
	// The profile rebuild is itself a mutation (it upserts
	// preference_profiles), so it gets its own short hold of the user's
	// lock rather than running unserialized.
	refreshRelease, err := store.AcquireUserLock(ctx, s.hot, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire lock for %s: %w", userID, err)
	}
	_, err = s.builder.Refresh(ctx, userID)
	refreshRelease(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh profile for %s: %w", userID, err)
	}

	count := s.cfg.Recs.CandidatePoolCap
	var batches [][]*models.ContentRecommendation

	personal, err := s.gen.GeneratePersonal(ctx, userID, count)
	if err != nil {
		return 0, fmt.Errorf("failed to generate personal recommendations for %s: %w", userID, err)
	}
	batches = append(batches, personal)

	if s.cfg.Recs.Features.EnableCollaborative {
		collab, err := s.gen.GenerateCollaborative(ctx, userID, count)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("collaborative generation failed, continuing without it")
		} else {
			batches = append(batches, collab)
		}
	}

	if s.cfg.Recs.Features.EnableTrending {
		trending, err := s.gen.GenerateTrending(ctx, userID, count)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("trending generation failed, continuing without it")
		} else {
			batches = append(batches, trending)
		}
	}

	// Candidates are fetched above, outside any lock; the lock is taken only
	// for the commit section per §5's "never hold per-user locks across
	// external catalog calls" rule.
	release, err := store.AcquireUserLock(ctx, s.hot, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire lock for %s: %w", userID, err)
	}
	defer release(ctx)

	total := 0
	for _, batch := range batches {
		n, err := s.store.SaveContentRecommendations(ctx, userID, batch)
		if err != nil {
			return total, fmt.Errorf("failed to persist recommendations for %s: %w", userID, err)
		}
		total += n
	}
	return total, nil
}
