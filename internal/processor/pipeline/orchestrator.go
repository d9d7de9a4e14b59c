// Package pipeline: 스크리닝 → 레이팅 반영 → 랭크 재계산 → 집계를 묶는 배치 오케스트레이터.
// Ruleset 간에는 병렬, Ruleset 안에서는 Valkey 락 아래 엄격히 직렬로 돈다.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/rating"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
	"github.com/park285/osu-tournament-stats-go/internal/processor/rulesetlock"
	"github.com/park285/osu-tournament-stats-go/internal/processor/stats"
	"github.com/park285/osu-tournament-stats-go/internal/processor/verification"
)

// Config: 파이프라인 실행 파라미터.
type Config struct {
	Interval     time.Duration
	LockTTL      time.Duration
	DecayEnabled bool
}

// Orchestrator: 스케줄러/관리자 트리거 양쪽에서 불리는 배치 파이프라인.
type Orchestrator struct {
	repo       *repository.Repository
	verifier   *verification.Service
	engine     *rating.Engine
	aggregator *stats.Aggregator
	locks      *rulesetlock.Service
	tracer     trace.Tracer
	logger     *slog.Logger
	cfg        Config
}

func New(
	repo *repository.Repository,
	verifier *verification.Service,
	engine *rating.Engine,
	aggregator *stats.Aggregator,
	locks *rulesetlock.Service,
	tracer trace.Tracer,
	logger *slog.Logger,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		verifier:   verifier,
		engine:     engine,
		aggregator: aggregator,
		locks:      locks,
		tracer:     tracer,
		logger:     logger.With("component", "pipeline"),
		cfg:        cfg,
	}
}

// TickReport: 파이프라인 1회 실행의 요약. 관리자 트리거 응답으로도 쓰인다.
type TickReport struct {
	Screened int                  `json:"screened"`
	Reports  []rating.BatchReport `json:"reports"`
	Locked   []string             `json:"locked,omitempty"`
}

// RunOnce: 파이프라인을 한 바퀴 돌린다.
// 락을 못 잡은 Ruleset은 실패가 아니라 스킵이다. (다른 실행이 진행 중)
func (o *Orchestrator) RunOnce(ctx context.Context) (*TickReport, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.run_once")
	defer span.End()

	report := &TickReport{}

	pending, err := o.repo.ListPendingTournaments(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range pending {
		if err := o.verifier.ScreenTournament(ctx, pending[i].ID); err != nil {
			return nil, err
		}
	}
	report.Screened = len(pending)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, ruleset := range domain.AllRulesets() {
		rs := ruleset
		g.Go(func() error {
			batch, locked, err := o.runRuleset(gctx, rs)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if locked {
				report.Locked = append(report.Locked, rs.String())
				return nil
			}
			report.Reports = append(report.Reports, batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("pipeline.screened", report.Screened))
	o.logger.Info("pipeline_tick_done", "screened", report.Screened, "locked", len(report.Locked))
	return report, nil
}

// runRuleset: Ruleset 하나의 전체 주기. 락 보유 중에만 엔진을 돌린다.
func (o *Orchestrator) runRuleset(ctx context.Context, ruleset domain.Ruleset) (rating.BatchReport, bool, error) {
	ctx, span := o.tracer.Start(ctx, "pipeline.ruleset",
		trace.WithAttributes(attribute.String("ruleset", ruleset.String())))
	defer span.End()

	if err := o.locks.Acquire(ctx, ruleset); err != nil {
		if errors.Is(err, rulesetlock.ErrAlreadyProcessing) {
			o.logger.Info("ruleset_skipped_locked", "ruleset", ruleset.String())
			return rating.BatchReport{}, true, nil
		}
		return rating.BatchReport{}, false, rulesetlock.WrapAcquireError(ruleset, err)
	}
	defer func() {
		// 취소 중에도 락은 풀어야 다음 틱이 돈다.
		if err := rulesetlock.WrapReleaseError(o.locks.Release(context.WithoutCancel(ctx), ruleset)); err != nil {
			o.logger.Error("ruleset_lock_release_failed", "ruleset", ruleset.String(), "err", err)
		}
	}()

	batchStart := time.Now()

	decayed := 0
	if o.cfg.DecayEnabled {
		var err error
		decayed, err = o.engine.DecaySweep(ctx, ruleset)
		if err != nil {
			return rating.BatchReport{}, false, err
		}
	}

	batch, err := o.engine.ProcessRuleset(ctx, ruleset)
	if err != nil {
		return rating.BatchReport{}, false, err
	}

	if batch.Processed > 0 || decayed > 0 {
		if err := o.engine.RecomputeRanks(ctx, ruleset, batchStart); err != nil {
			return rating.BatchReport{}, false, err
		}
	}

	now := time.Now()
	for _, tournamentID := range batch.Tournaments {
		if err := o.aggregator.RecomputeTournamentStats(ctx, tournamentID); err != nil {
			return rating.BatchReport{}, false, err
		}
		if err := o.repo.SetTournamentProcessing(ctx, tournamentID, domain.ProcessingStatusProcessed, now); err != nil {
			return rating.BatchReport{}, false, err
		}
	}
	return batch, false, nil
}

// Loop: 스케줄 실행용 틱 루프. bootstrap.BackgroundTask로 등록된다.
func (o *Orchestrator) Loop(ctx context.Context) error {
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := o.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				o.logger.Error("pipeline_tick_failed", "err", err)
			}
		}
	}
}
