// Package health checks the three storage tiers the recommendation core
// depends on and reports a single aggregate status, distinguishing critical
// dependencies (Postgres, the hot Redis lock/throttle tier) from
// non-critical ones (Neo4j, the warm/cold Redis tiers) the way a degraded
// response should.
package health

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/showsync/reccore/internal/database"
)

type Status struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
}

type Checker struct {
	db     *database.Database
	logger *logrus.Logger

	checkStatus *prometheus.GaugeVec
}

func NewChecker(db *database.Database, logger *logrus.Logger) *Checker {
	c := &Checker{
		db:     db,
		logger: logger,
		checkStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "reccore_health_check_status",
			Help: "Health check status (1 = healthy, 0 = unhealthy) per dependency",
		}, []string{"service"}),
	}
	if err := prometheus.Register(c.checkStatus); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			logger.WithError(err).Warn("failed to register health_check_status metric")
		}
	}
	return c
}

// Check pings every dependency with a short timeout and folds the results
// into one of healthy/degraded/unhealthy. A critical-tier failure always
// reports unhealthy regardless of the non-critical tiers.
func (c *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	critical := map[string]func(context.Context) error{
		"postgresql": c.checkPostgres,
		"redis_hot":  c.checkRedisHot,
	}
	nonCritical := map[string]func(context.Context) error{
		"neo4j":      c.checkNeo4j,
		"redis_warm": c.checkRedisWarm,
		"redis_cold": c.checkRedisCold,
	}

	allCriticalHealthy := true
	for name, check := range critical {
		if err := check(ctx); err != nil {
			status.Services[name] = "unhealthy"
			status.Critical = append(status.Critical, name)
			allCriticalHealthy = false
			c.logger.WithError(err).WithField("service", name).Error("critical dependency unhealthy")
			c.checkStatus.WithLabelValues(name).Set(0)
		} else {
			status.Services[name] = "healthy"
			c.checkStatus.WithLabelValues(name).Set(1)
		}
	}
	for name, check := range nonCritical {
		if err := check(ctx); err != nil {
			status.Services[name] = "unhealthy"
			status.NonCritical = append(status.NonCritical, name)
			c.logger.WithError(err).WithField("service", name).Warn("non-critical dependency unhealthy")
			c.checkStatus.WithLabelValues(name).Set(0)
		} else {
			status.Services[name] = "healthy"
			c.checkStatus.WithLabelValues(name).Set(1)
		}
	}

	switch {
	case !allCriticalHealthy:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	return status
}

func (c *Checker) checkPostgres(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.PG.Ping(ctx)
}

func (c *Checker) checkNeo4j(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.Neo4j.VerifyConnectivity(ctx)
}

func (c *Checker) checkRedisHot(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.Redis.Hot.Ping(ctx).Err()
}

func (c *Checker) checkRedisWarm(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.Redis.Warm.Ping(ctx).Err()
}

func (c *Checker) checkRedisCold(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.db.Redis.Cold.Ping(ctx).Err()
}
