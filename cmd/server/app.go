package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/alem-hub/adaptive-learning/config"
	"github.com/alem-hub/adaptive-learning/internal/application/learning"
	"github.com/alem-hub/adaptive-learning/internal/domain/adaptive"
	"github.com/alem-hub/adaptive-learning/internal/infrastructure/external/learningapi"
	"github.com/alem-hub/adaptive-learning/internal/infrastructure/metrics"
	"github.com/alem-hub/adaptive-learning/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/adaptive-learning/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/adaptive-learning/pkg/logger"
)

// app holds the infrastructure shared by the subcommands.
type app struct {
	cfg *config.Config
	log *logger.Logger

	db      *postgres.Connection
	cache   *redis.Client // nil when Redis is disabled or unreachable
	locker  *redis.Locker
	metrics *metrics.Metrics

	courses  *postgres.CourseRepository
	breakers *learningapi.Breakers
	registry *learning.Registry
	learning *learning.Service
}

// newApp connects to PostgreSQL and, when enabled, Redis. A Redis failure
// is logged and get-or-create runs without a lock.
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	db, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, cfg.Database.PoolSettings())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		metrics: metrics.New(true),
		courses: postgres.NewCourseRepository(db),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		cache, err := redis.NewClient(ctx, cfg.Redis.ClientSettings())
		if err != nil {
			log.Warn("redis unavailable, get-or-create is not serialized", logger.Err(err))
		} else {
			a.cache = cache
			a.locker = redis.NewLocker(cache, cfg.Redis.LockSettings())
			log.Info("redis connection established", logger.String("addr", cfg.Redis.ClientSettings().Addr()))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Adaptive learning clients, one per course configuration
	// ─────────────────────────────────────────────────────────────────────────
	a.breakers = learningapi.NewBreakers(log)
	a.registry = learning.NewRegistry(a.newLearningClient)
	a.learning = learning.NewService(a.registry, log)
	return a, nil
}

func (a *app) newLearningClient(ac adaptive.Configuration) (learning.Client, error) {
	cc := learningapi.DefaultClientConfig(ac)
	a.cfg.Adaptive.Apply(&cc)
	cc.Logger = a.log

	opts := []learningapi.Option{
		learningapi.WithRecorder(a.metrics),
		learningapi.WithCircuitBreaker(a.breakers.For(cc)),
	}
	if a.locker != nil {
		opts = append(opts, learningapi.WithLocker(a.locker))
	}

	client, err := learningapi.NewClient(cc, opts...)
	if err != nil {
		return nil, err
	}
	a.log.Debug("adaptive learning client created", logger.String("service", ac.String()))
	return client, nil
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("close redis", logger.Err(err))
		}
	}
	a.db.Close()
}
