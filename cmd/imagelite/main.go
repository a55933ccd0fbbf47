package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/goliatone/go-imagelite/auth"
	"github.com/goliatone/go-imagelite/config"
	"github.com/goliatone/go-imagelite/images"
	"github.com/goliatone/go-imagelite/persistence"
	"github.com/goliatone/go-imagelite/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "imagelite: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := persistence.Open(ctx, persistence.Options{
		Driver: cfg.DBDriver,
		DSN:    cfg.DBDSN,
		Debug:  cfg.DBDebug,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := persistence.Migrate(ctx, db, (*auth.User)(nil), (*images.Image)(nil)); err != nil {
		return err
	}

	// the signing key lives for the process only, tokens do not survive a restart
	key, err := auth.NewKeyProvider().Key()
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}

	authLogger := auth.NewZapLogger(logger.Named("auth"))

	tokens := auth.NewTokenService(key, auth.WithTokenLogger(authLogger))
	users := auth.NewUserService(
		auth.NewUsersRepository(db),
		auth.NewBcryptHasher(cfg.BcryptCost),
		tokens,
		auth.WithUserServiceLogger(authLogger),
	)
	imageService := images.NewService(
		images.NewRepository(db),
		images.WithLogger(auth.NewZapLogger(logger.Named("images"))),
	)

	app := server.New(cfg, server.Dependencies{
		Users:  users,
		Tokens: tokens,
		Images: imageService,
		Logger: logger.Named("http"),
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db_driver", cfg.DBDriver))
		errc <- app.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("listener stopped", zap.Error(err))
	}

	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(cfg.LogFormat, "console") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	return zcfg.Build()
}
