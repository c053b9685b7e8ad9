package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"license-key-server/internal/config"
	"license-key-server/internal/handler"
	"license-key-server/internal/metrics"
	"license-key-server/internal/service"
	"license-key-server/internal/util"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	cfg, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = log.Sync() }()

	if err := db.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	locker, closeLocker, err := newLocker(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	sheetSync, err := service.NewSheetSyncService(ctx, cfg.Sheets)
	if err != nil {
		return err
	}
	var sink service.LicenseSink
	if sheetSync != nil {
		sink = sheetSync
		log.Info("license sheet sync enabled", zap.String("spreadsheet_id", cfg.Sheets.SpreadsheetID))
	}

	h := handler.New(handler.Services{
		Validator:  service.NewValidator(service.NewCheckStore(db), locker, log),
		Systems:    service.NewSystemService(db),
		Licenses:   service.NewLicenseService(db, cfg.License.DefaultIPLimit, sink, log),
		Auth:       service.NewAuthService(db, util.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), log),
		Operations: service.NewOperationLogService(db),
	}, log)

	appCfg := handler.AppConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}
	if cfg.Metrics.Enabled {
		appCfg.MetricsPath = cfg.Metrics.Path
		if rawDB, err := db.DB.DB(); err == nil {
			metrics.StartDBStatsCollector(ctx, rawDB, 15*time.Second, log)
		}
	}
	app := handler.NewApp(h, appCfg)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("address", cfg.Server.Address))
		errCh <- app.Listen(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newLocker returns the Redis locker when an address is configured and the
// in-process locker otherwise.
func newLocker(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (service.KeyLocker, func(), error) {
	if cfg.Addr == "" {
		return service.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	log.Info("using redis license locks", zap.String("addr", cfg.Addr))
	return service.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}
