package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Dominic-Harvey/event-scheduler/internal/api/router"
	"github.com/Dominic-Harvey/event-scheduler/internal/application"
	"github.com/Dominic-Harvey/event-scheduler/internal/config"
	"github.com/Dominic-Harvey/event-scheduler/internal/domain/event"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/database"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/postgres"
	redisinfra "github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/redis"
	"github.com/Dominic-Harvey/event-scheduler/internal/infrastructure/sqlite"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/logger"
	"github.com/Dominic-Harvey/event-scheduler/internal/pkg/metrics"
	"github.com/Dominic-Harvey/event-scheduler/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env は存在しなくてもよい
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "event-scheduler",
		Usage:  "重複しないイベントを登録するスケジュールAPI",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "APIサーバーを起動する",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "マイグレーションのみ実行して終了する",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("アプリケーションエラー", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg := config.Load()
	logger.Init(cfg.Server.Env)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, repo, err := openStore(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	opts := []application.Option{application.WithMetrics(m)}

	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(&cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		lock := redisinfra.NewScheduleLock(redisinfra.NewLockManager(redisClient), cfg.Schedule)
		opts = append(opts,
			application.WithScheduleLocker(lock),
			application.WithEventCache(redisinfra.NewEventCache(redisClient), cfg.Schedule.CacheTTL),
		)
		logger.Info("Redisに接続しました", zap.String("addr", cfg.Redis.Addr()))
	}

	checker := application.NewConflictChecker(repo, m)
	eventService := application.NewEventService(database.NewTxManager(db), repo, checker, opts...)

	if cfg.Schedule.AuditInterval > 0 {
		auditor := worker.NewScheduleAuditor(repo, m, cfg.Schedule.AuditInterval)
		go auditor.Start(ctx)
		defer auditor.Stop()
	}

	e := router.New(eventService, db, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Debug:          !cfg.Server.IsProduction(),
		MetricsAuth:    cfg.Metrics,
		Metrics:        m,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port), zap.String("driver", cfg.Database.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("サーバー起動エラー: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("サーバーシャットダウンエラー: %w", err)
	}

	logger.Info("サーバーが正常にシャットダウンしました")
	return nil
}

func migrate(c *cli.Context) error {
	cfg := config.Load()
	logger.Init(cfg.Server.Env)
	defer func() { _ = logger.Sync() }()

	db, _, err := openStore(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("マイグレーションが完了しました", zap.String("driver", cfg.Database.Driver))
	return nil
}

// openStore は設定されたドライバーで接続し、マイグレーションを適用する
func openStore(cfg *config.DatabaseConfig) (*sqlx.DB, event.Repository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewConnection(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(db.DB); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, postgres.NewEventRepository(db), nil
	case config.DriverSQLite:
		db, err := sqlite.NewConnection(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.RunMigrations(db.DB); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, sqlite.NewEventRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("未対応のデータベースドライバーです: %s", cfg.Driver)
	}
}
