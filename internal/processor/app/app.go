// Package app: otr-processor의 의존성 조립과 수명주기 관리.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/park285/osu-tournament-stats-go/internal/common/bootstrap"
	"github.com/park285/osu-tournament-stats-go/internal/common/dbutil"
	"github.com/park285/osu-tournament-stats-go/internal/common/httpserver"
	"github.com/park285/osu-tournament-stats-go/internal/common/telemetry"
	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	pconfig "github.com/park285/osu-tournament-stats-go/internal/processor/config"
	"github.com/park285/osu-tournament-stats-go/internal/processor/httpapi"
	"github.com/park285/osu-tournament-stats-go/internal/processor/pipeline"
	"github.com/park285/osu-tournament-stats-go/internal/processor/rating"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
	"github.com/park285/osu-tournament-stats-go/internal/processor/rulesetlock"
	"github.com/park285/osu-tournament-stats-go/internal/processor/stats"
	"github.com/park285/osu-tournament-stats-go/internal/processor/verification"
)

// Initialize: 설정에서 전체 애플리케이션을 조립한다.
// 반환된 cleanup은 역순 해제를 보장한다.
func Initialize(ctx context.Context, cfg *pconfig.Config, logger *slog.Logger) (*bootstrap.ServerApp, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*bootstrap.ServerApp, func(), error) {
		cleanup()
		return nil, nil, err
	}

	telemetryProvider, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return fail(fmt.Errorf("init telemetry failed: %w", err))
	}
	cleanups = append(cleanups, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry_shutdown_failed", "err", err)
		}
	})

	valkeyClient, closeValkey, err := bootstrap.NewAndPingDataValkeyClient(ctx, cfg.Redis, logger)
	if err != nil {
		return fail(fmt.Errorf("init valkey failed: %w", err))
	}
	cleanups = append(cleanups, closeValkey)

	db, sqlDB, err := dbutil.OpenWithRetry(ctx, func(ctx context.Context) (*gorm.DB, *sql.DB, error) {
		return openPostgres(ctx, cfg.Postgres)
	}, dbutil.DefaultRetryConfig(), logger)
	if err != nil {
		return fail(fmt.Errorf("open postgres failed: %w", err))
	}
	cleanups = append(cleanups, func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Warn("postgres_close_failed", "err", closeErr)
		}
	})

	repo := repository.New(db)
	if err := repo.AutoMigrate(ctx); err != nil {
		return fail(fmt.Errorf("auto migrate failed: %w", err))
	}

	tuning, err := rating.LoadTuning(cfg.Rating.TuningPath)
	if err != nil {
		return fail(fmt.Errorf("load rating tuning failed: %w", err))
	}

	recorder := audit.NewRecorder(logger)
	verifier := verification.New(repo, recorder, logger)
	engine := rating.NewEngine(repo, rating.NewOnlinePolicy(tuning), tuning, logger)
	aggregator := stats.NewAggregator(repo, logger)
	locks := rulesetlock.New(valkeyClient.Client, logger, "otr", cfg.Pipeline.LockTTL)

	orchestrator := pipeline.New(
		repo,
		verifier,
		engine,
		aggregator,
		locks,
		otel.Tracer("otr-processor/pipeline"),
		logger,
		pipeline.Config{
			Interval:     cfg.Pipeline.Interval,
			LockTTL:      cfg.Pipeline.LockTTL,
			DecayEnabled: cfg.Pipeline.DecayEnabled,
		},
	)

	mux := http.NewServeMux()
	httpapi.Register(mux, httpapi.Deps{
		Repo:         repo,
		Orchestrator: orchestrator,
		Cache:        valkeyClient.Client,
		CacheTTL:     cfg.Leaderboard.CacheTTL,
		Logger:       logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := httpserver.NewServer(addr, mux, httpserver.ServerOptions{
		UseH2C:            true,
		ReadHeaderTimeout: cfg.ServerTuning.ReadHeaderTimeout,
		IdleTimeout:       cfg.ServerTuning.IdleTimeout,
		MaxHeaderBytes:    cfg.ServerTuning.MaxHeaderBytes,
	})

	serverApp := bootstrap.NewServerApp(
		"otr-processor",
		logger,
		server,
		10*time.Second,
		bootstrap.BackgroundTask{
			Name:        "pipeline",
			ErrorLogKey: "pipeline_failed",
			Run:         orchestrator.Loop,
		},
	)
	return serverApp, cleanup, nil
}

func openPostgres(ctx context.Context, cfg pconfig.PostgresConfig) (*gorm.DB, *sql.DB, error) {
	var dsn string
	if cfg.SocketPath != "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.SocketPath,
			cfg.User,
			cfg.Password,
			cfg.Name,
		)
	} else {
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		)
	}

	// TranslateError: 유니크 제약 위반을 gorm.ErrDuplicatedKey로 받아
	// 레이팅 엔진의 at-most-once 백스톱이 동작하게 한다.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, nil, fmt.Errorf("gorm open failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql db failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, nil, fmt.Errorf("db ping failed: %w", err)
	}

	return db, sqlDB, nil
}
