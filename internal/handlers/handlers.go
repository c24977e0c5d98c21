// Package handlers implements §6's REST surface: paged and real-time
// recommendation reads, the view/dismiss/feedback state machine, on-demand
// and admin-triggered generation, and the analytics/insights/summary
// dashboard reads. Every route requires an authenticated principal;
// userId always comes from the JWT claims set by middleware.Auth, never
// from a query parameter.
package handlers

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/config"
	"github.com/showsync/reccore/internal/generator"
	"github.com/showsync/reccore/internal/health"
	"github.com/showsync/reccore/internal/profile"
	"github.com/showsync/reccore/internal/scheduler"
	"github.com/showsync/reccore/internal/store"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Action         *ActionHandler
	Admin          *AdminHandler
	Me             *MeHandler
}

func New(
	db generator.DatabaseQuerier,
	hot *redis.Client,
	st *store.Store,
	gen *generator.Generator,
	builder *profile.Builder,
	sched *scheduler.Scheduler,
	checker *health.Checker,
	cfg *config.Config,
	logger *logrus.Logger,
) *Handlers {
	return &Handlers{
		Health: &HealthHandler{checker: checker},
		Recommendation: &RecommendationHandler{
			db: db, hot: hot, store: st, gen: gen, builder: builder, cfg: cfg, logger: logger,
		},
		Action: &ActionHandler{
			sched: sched, cfg: cfg, logger: logger,
		},
		Admin: &AdminHandler{
			store: st, sched: sched, cfg: cfg, logger: logger,
		},
		Me: &MeHandler{
			store: st, builder: builder, sched: sched, cfg: cfg, logger: logger,
		},
	}
}
