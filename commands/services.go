package commands

import (
	"context"

	"sjsage522/contactmerge/config"
	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/internal"
	"sjsage522/contactmerge/logger"
	"sjsage522/contactmerge/services/cache"
	"sjsage522/contactmerge/services/publisher"
	"sjsage522/contactmerge/services/worker"
)

// environment carries configuration and services shared by every command
type environment struct {
	cfg  *config.Config
	deps internal.Dependencies
	ctx  context.Context
}

// init loads the configuration and the always-on services. Services that
// are already set are kept.
func (e *environment) init(ctx context.Context) error {
	e.ctx = ctx
	if e.cfg == nil {
		e.cfg = config.LoadConfig()
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	helpers.SetTimeout(e.cfg.HTTPTimeout)

	if e.deps.Cache == nil {
		e.deps.Cache = newCache(e.cfg)
	}
	if e.deps.Journal == nil {
		e.deps.Journal = helpers.NewFileJournal(e.cfg.ErrorLogFile)
	}
	return nil
}

// newCache connects to memcached when configured and falls back to an
// in-process cache otherwise
func newCache(cfg *config.Config) cache.CacheService {
	log := logger.ForCache()
	if cfg.MemcacheAddr == "" {
		log.Debug().Msg("MEMCACHE_ADDR not set, using in-process cache")
		return cache.NewMemoryCache()
	}

	mc := cache.NewMemcacheService(cfg.MemcacheAddr)
	if err := mc.Ping(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, using in-process cache")
		return cache.NewMemoryCache()
	}
	log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")
	return mc
}

// publisher returns the configured publisher, connecting to Redis on first
// use
func (e *environment) publisher() (publisher.Publisher, error) {
	if e.deps.Publisher != nil {
		return e.deps.Publisher, nil
	}

	redisPublisher := publisher.NewRedisPublisher(
		e.ctx,
		e.cfg.RedisAddr,
		e.cfg.RedisDB,
		e.cfg.RedisStream,
		e.cfg.RedisStreamCount,
		e.cfg.RedisStreamMaxLength,
	)
	if err := redisPublisher.Ping(); err != nil {
		redisPublisher.Close()
		return nil, err
	}
	e.deps.Publisher = redisPublisher

	logger.ForPublisher().Info().
		Str("addr", e.cfg.RedisAddr).
		Int("db", e.cfg.RedisDB).
		Str("stream", e.cfg.RedisStream).
		Msg("Connected to Redis")
	return redisPublisher, nil
}

// worker builds a worker pool, with publishing when publish is set
func (e *environment) worker(publish bool) (*worker.Worker, error) {
	var pub publisher.Publisher
	if publish {
		p, err := e.publisher()
		if err != nil {
			return nil, err
		}
		pub = p
	}
	return worker.NewWorker(e.ctx, pub, e.deps.Journal, e.cfg.WorkerConcurrency), nil
}

// Cleanup closes the services that hold connections
func (e *environment) Cleanup() {
	if e.deps.Publisher != nil {
		e.deps.Publisher.Close()
	}
}
