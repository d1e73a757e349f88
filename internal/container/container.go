package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"partselect/parser/internal/cache"
	"partselect/parser/internal/config"
	"partselect/parser/internal/fetcher"
	"partselect/parser/internal/observability"
	"partselect/parser/internal/proxy"
	"partselect/parser/internal/queue"
	"partselect/parser/internal/repository"
	"partselect/parser/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Fetcher    fetcher.PageFetcher
	Cache      cache.RecordCache
	Repository repository.RecordRepository
	Queue      queue.Queue

	Service *service.Service

	db      *pgxpool.Pool
	redis   *redis.Client
	metrics *http.Server
}

// New creates a new container with all dependencies initialized. Postgres,
// Redis and the metrics endpoint are only connected when enabled.
func New(ctx context.Context, cfg *config.Config) (_ *Container, err error) {
	container := &Container{
		Config: cfg,
	}
	defer func() {
		if err != nil {
			_ = container.Close()
		}
	}()

	container.metrics = observability.Start(cfg.Metrics.Addr())

	proxySupplier := proxy.NewProxySupplier(ctx, cfg.Fetcher.Proxies, cfg.Fetcher.BaseURL)

	switch cfg.Fetcher.Engine {
	case config.EngineHTTP:
		container.Fetcher = fetcher.NewHTTPFetcher(cfg.Fetcher, proxySupplier)
	default:
		browserFetcher, err := fetcher.NewBrowserFetcher(cfg.Fetcher, cfg.Browser, proxySupplier)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
		container.Fetcher = browserFetcher
	}
	log.Infof("🌐 Using %s fetcher", cfg.Fetcher.Engine)

	if cfg.Database.Enabled {
		if err := container.connectDatabase(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Redis.Enabled {
		if err := container.connectRedis(ctx); err != nil {
			return nil, err
		}
	}

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLMinutes) * time.Minute
		if container.redis != nil {
			container.Cache = cache.NewRedisRecordCache(container.redis, ttl)
		} else {
			container.Cache = cache.NewMemoryRecordCache(ttl)
		}
	}

	container.Service = service.NewService(
		container.Fetcher,
		container.Cache,
		container.Repository,
		container.Queue,
		time.Duration(cfg.Database.MaxAgeMinutes)*time.Minute,
		cfg.Redis.MaxTaskRetry,
		cfg.Redis.MinIdleTime,
	)

	return container, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config.Database
	db, err := pgxpool.New(ctx,
		fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
		))
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	c.db = db

	repo := repository.NewRecordRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	c.Repository = repo

	log.Info("✅ Connected to Postgres successfully")
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config.Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	c.redis = rdb

	// Test connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info("✅ Connected to Redis successfully")

	redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg)
	if err != nil {
		return err
	}
	c.Queue = redisQueue
	return nil
}

// Run processes queued part tasks until ctx is cancelled.
func (c *Container) Run(ctx context.Context) error {
	return c.Service.RunWorkers(ctx, c.Config.Fetcher.MaxWorkers)
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var errs []error
	if c.Fetcher != nil {
		errs = append(errs, c.Fetcher.Close())
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, c.metrics.Shutdown(ctx))
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	log.Info("Container shut down successfully")
	return nil
}
