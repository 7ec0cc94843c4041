package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/config"
	"github.com/adanyl0v/minimal-todo/internal/migrations"
)

func MustConnectPostgres(logger zerolog.Logger, cfg config.PostgresConfig) *pgxpool.Pool {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to ping postgres")
		pool.Close()
		panic(err)
	}
	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Int32("max_conns", cfg.MaxConns).
		Msg("connected to postgres")
	return pool
}

// MustMigratePostgres applies the embedded goose migrations through a
// database/sql handle that shares the pool's connections.
func MustMigratePostgres(logger zerolog.Logger, pool *pgxpool.Pool) {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	err := goose.SetDialect("pgx")
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to set migration dialect")
		panic(err)
	}

	err = goose.UpContext(context.Background(), db, ".")
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to apply migrations")
		panic(err)
	}

	version, err := goose.GetDBVersionContext(context.Background(), db)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to get schema version")
		return
	}
	logger.Info().
		Int64("version", version).
		Msg("applied migrations")
}

func DisconnectPostgres(logger zerolog.Logger, pool *pgxpool.Pool) {
	pool.Close()
	logger.Info().Msg("disconnected from postgres")
}
