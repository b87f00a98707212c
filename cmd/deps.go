package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/models"
	"github.com/chrisdamba/foodlens/internal/repositories/postgres"
	"github.com/chrisdamba/foodlens/internal/source"
)

const connectTimeout = 5 * time.Second

func openPool(ctx context.Context, db models.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(db.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if db.MaxConns > 0 {
		poolCfg.MaxConns = db.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// newRedisClient returns nil when redis is disabled or unreachable. The
// analytics cache treats a nil client as always missing.
func newRedisClient(ctx context.Context, rc models.RedisConfig, logger *zap.Logger) *redis.Client {
	if !rc.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Failed to connect to Redis, caching disabled", zap.String("addr", rc.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	logger.Info("Connected to Redis", zap.String("addr", rc.Addr))
	return client
}

// buildSource opens a database pool only when the chosen source needs one.
// The returned cleanup is always safe to call.
func buildSource(ctx context.Context, kind string) (source.Source, *pgxpool.Pool, func(), error) {
	var (
		pool *pgxpool.Pool
		repo *postgres.TransactionRepository
	)
	cleanup := func() {
		if pool != nil {
			pool.Close()
		}
	}

	if kind == source.KindPostgres {
		var err error
		pool, err = openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, cleanup, err
		}
		repo = postgres.NewTransactionRepository(pool)
	}

	var src source.Source
	var err error
	if repo != nil {
		src, err = source.FromConfig(kind, cfg, repo, log)
	} else {
		src, err = source.FromConfig(kind, cfg, nil, log)
	}
	if err != nil {
		return nil, nil, cleanup, err
	}
	return src, pool, cleanup, nil
}
