package main

import (
	"github.com/adanyl0v/minimal-todo/internal/app"
	"github.com/adanyl0v/minimal-todo/internal/auth"
	"github.com/adanyl0v/minimal-todo/internal/delivery/http/v1"
	"github.com/adanyl0v/minimal-todo/internal/services"
)

func main() {
	logger := app.NewDefaultLogger()
	cfg := app.MustReadConfig(logger)
	logger = app.MustInitApplicationLogger(logger, cfg.Env)

	pool := app.MustConnectPostgres(logger, cfg.Postgres)
	defer app.DisconnectPostgres(logger, pool)

	if cfg.Postgres.MigrateOnStart {
		app.MustMigratePostgres(logger, pool)
	}

	hasher := auth.NewPasswordHasher(nil)
	tokens := auth.NewTokenManager([]byte(cfg.JWT.SigningKey), cfg.JWT.TokenTTL)

	authService := services.NewAuthService(logger, pool, hasher, tokens)
	taskService := services.NewTaskService(logger, pool)

	handler := v1.New(logger, pool, authService, taskService, cfg.Admin.Token)
	app.MustListenAndServeHTTP(logger, cfg, handler)
}
