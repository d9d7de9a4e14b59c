package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/park285/osu-tournament-stats-go/internal/common/bootstrap"
	"github.com/park285/osu-tournament-stats-go/internal/common/health"
	papp "github.com/park285/osu-tournament-stats-go/internal/processor/app"
	pconfig "github.com/park285/osu-tournament-stats-go/internal/processor/config"
)

// Version: 빌드 시 ldflags로 주입됨 (예: -ldflags="-X main.Version=1.0.0")
var Version = "dev"

func main() {
	health.Init(Version)

	logger := bootstrap.NewLogger()
	slog.SetDefault(logger)

	finalLogger, err := bootstrap.RunServiceEntrypoint(
		context.Background(),
		logger,
		"otrproc.log",
		pconfig.LoadFromEnv,
		func(cfg *pconfig.Config) pconfig.LogConfig { return cfg.Log },
		papp.Initialize,
	)
	if err != nil {
		logger = finalLogger
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}
