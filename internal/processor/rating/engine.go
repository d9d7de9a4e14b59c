// Package rating: 검증 완료 매치를 시각 순으로 소비해 PlayerRating을 갱신하고
// 모든 변화를 불변 RatingAdjustment 이력으로 남기는 레이팅 엔진.
package rating

import (
	"context"
	"errors"
	"log/slog"
	"time"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
	"github.com/park285/osu-tournament-stats-go/internal/processor/resolver"
	"github.com/park285/osu-tournament-stats-go/internal/processor/stats"
)

// Engine: Ruleset 하나를 직렬로 처리하는 레이팅 엔진.
// 호출자는 같은 Ruleset에 대해 동시에 두 번 실행하지 않을 책임이 있다. (파이프라인 락)
type Engine struct {
	repo   *repository.Repository
	policy Policy
	tuning Tuning
	logger *slog.Logger
	now    func() time.Time
}

func NewEngine(repo *repository.Repository, policy Policy, tuning Tuning, logger *slog.Logger) *Engine {
	return &Engine{
		repo:   repo,
		policy: policy,
		tuning: tuning,
		logger: logger.With("component", "rating_engine"),
		now:    time.Now,
	}
}

// BatchReport: 배치 한 번의 처리 결과 요약.
type BatchReport struct {
	Ruleset   domain.Ruleset `json:"ruleset"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`

	// Tournaments: 이번 배치에서 매치가 처리된 토너먼트 ID 집합. (집계 재계산 대상)
	Tournaments []uint64 `json:"tournaments,omitempty"`
}

// ProcessRuleset: 워터마크 이후의 검증 완료 매치를 시각 순으로 반영한다.
// 취소되면 다음 매치를 시작하기 전에 멈추며, 이미 커밋된 조정은 그대로 남는다.
// (유니크 제약 + 워터마크 덕분에 재개해도 이중 반영이 없다)
func (e *Engine) ProcessRuleset(ctx context.Context, ruleset domain.Ruleset) (BatchReport, error) {
	report := BatchReport{Ruleset: ruleset}

	watermark, err := e.repo.GetWatermark(ctx, ruleset)
	if err != nil {
		return report, err
	}
	matches, err := e.repo.ListMatchesForProcessing(ctx, ruleset, watermark, e.tuning.BatchSize)
	if err != nil {
		return report, err
	}

	seenTournaments := map[uint64]struct{}{}
	for i := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		m := &matches[i]
		applied, err := e.processMatch(ctx, m)
		switch {
		case errors.Is(err, resolver.ErrTiedScores), errors.Is(err, resolver.ErrNoUsableScores), errors.Is(err, resolver.ErrAmbiguousRoster):
			report.Failed++
		case err != nil:
			return report, err
		case applied == 0:
			report.Skipped++
		default:
			report.Processed++
		}
		if err == nil {
			if _, ok := seenTournaments[m.TournamentID]; !ok {
				seenTournaments[m.TournamentID] = struct{}{}
				report.Tournaments = append(report.Tournaments, m.TournamentID)
			}
		}
	}

	e.logger.Info("ruleset_batch_done",
		"ruleset", ruleset.String(),
		"processed", report.Processed,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

// processMatch: 매치 하나를 해석하고 레이팅 조정을 커밋한다.
// 반환값은 새로 만든 조정 행의 수다. 해석 실패는 resolver 오류로 돌려주고
// 매치를 Failed로 남긴다. (자동 재시도 없음 — 운영자 재검증 대상)
func (e *Engine) processMatch(ctx context.Context, m *repository.Match) (int, error) {
	now := e.now()
	if err := e.repo.SetMatchProcessing(ctx, m.ID, domain.ProcessingStatusProcessing, now); err != nil {
		return 0, err
	}

	result, err := resolver.ResolveMatch(m)
	if err != nil {
		if errors.Is(err, resolver.ErrTiedScores) {
			if werr := e.repo.AddMatchWarning(ctx, m.ID, domain.WarningTiedGame); werr != nil {
				return 0, werr
			}
		}
		if ferr := e.repo.SetMatchProcessing(ctx, m.ID, domain.ProcessingStatusFailed, now); ferr != nil {
			return 0, ferr
		}
		e.logger.Warn("match_resolution_failed", "match_id", m.ID, "error", err)
		return 0, err
	}
	for _, gameID := range result.TiedGames {
		if err := e.repo.AddGameWarning(ctx, gameID, domain.WarningTiedGame); err != nil {
			return 0, err
		}
	}
	if result.OverlappingRosters {
		if err := e.repo.AddMatchWarning(ctx, m.ID, domain.WarningOverlappingRosters); err != nil {
			return 0, err
		}
	}

	statsRows := stats.ComputeMatchStats(m, result)
	won := make(map[uint64]bool, len(statsRows))
	costs := make(map[uint64]float64, len(statsRows))
	for i := range statsRows {
		won[statsRows[i].PlayerID] = statsRows[i].Won
		costs[statsRows[i].PlayerID] = statsRows[i].MatchCost
	}

	applied := 0
	err = e.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.ReplaceMatchRosters(ctx, m.ID, result.Rosters); err != nil {
			return err
		}
		for _, gr := range result.Games {
			if err := tx.ReplaceGameRosters(ctx, gr.GameID, gr.Rosters); err != nil {
				return err
			}
		}

		// 매치 직전 스냅샷을 한 번에 확보한다. 같은 매치 안의 갱신이
		// 팀원/상대 평균에 새어 들지 않도록 상태 읽기는 전부 갱신보다 앞선다.
		states := map[uint64]PlayerState{}
		ratingIDs := map[uint64]uint64{}
		teamOf := map[uint64]domain.Team{}
		for _, roster := range result.Rosters {
			for _, playerID := range roster.Roster {
				teamOf[playerID] = roster.Team
				pr, err := tx.GetPlayerRating(ctx, playerID, m.Tournament.Ruleset)
				if err != nil {
					return err
				}
				if pr == nil {
					pr = &repository.PlayerRating{
						PlayerID:   playerID,
						Ruleset:    m.Tournament.Ruleset,
						Rating:     e.tuning.SeedRating,
						Volatility: e.tuning.SeedVolatility,
					}
					if err := tx.CreatePlayerRating(ctx, pr); err != nil {
						return err
					}
				}
				states[playerID] = PlayerState{Rating: pr.Rating, Volatility: pr.Volatility}
				ratingIDs[playerID] = pr.ID
			}
		}

		teamAverages := averageByTeam(states, teamOf)

		for playerID, before := range states {
			exists, err := tx.HasAdjustment(ctx, playerID, m.ID)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			team := teamOf[playerID]
			input := MatchInput{
				Won:                   won[playerID],
				MatchCost:             costs[playerID],
				AverageTeammateRating: teammateAverage(states, teamOf, playerID, team),
				AverageOpponentRating: opponentAverage(teamAverages, team, before.Rating),
			}
			after := e.policy.Update(before, input)

			matchID := m.ID
			cost := costs[playerID]
			teammateAvg := input.AverageTeammateRating
			opponentAvg := input.AverageOpponentRating
			adj := &repository.RatingAdjustment{
				PlayerRatingID:        ratingIDs[playerID],
				PlayerID:              playerID,
				Ruleset:               m.Tournament.Ruleset,
				MatchID:               &matchID,
				AdjustmentType:        domain.AdjustmentMatch,
				Timestamp:             *m.StartTime,
				RatingBefore:          before.Rating,
				RatingAfter:           after.Rating,
				VolatilityBefore:      before.Volatility,
				VolatilityAfter:       after.Volatility,
				MatchCost:             &cost,
				AverageTeammateRating: &teammateAvg,
				AverageOpponentRating: &opponentAvg,
			}
			if err := tx.CreateAdjustment(ctx, adj); err != nil {
				// 경합 재실행의 2차 방어선: 이미 반영된 플레이어는 건너뛴다.
				if cerrors.IsIntegrity(err) {
					continue
				}
				return err
			}
			if err := tx.UpdateRatingState(ctx, ratingIDs[playerID], after.Rating, after.Volatility); err != nil {
				return err
			}
			applied++
		}

		for i := range statsRows {
			if err := tx.UpsertPlayerMatchStats(ctx, &statsRows[i]); err != nil {
				return err
			}
		}
		if err := tx.SetMatchProcessing(ctx, m.ID, domain.ProcessingStatusProcessed, now); err != nil {
			return err
		}
		return tx.SetWatermark(ctx, m.Tournament.Ruleset, *m.StartTime)
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("match_processed", "match_id", m.ID, "adjustments", applied)
	return applied, nil
}

func averageByTeam(states map[uint64]PlayerState, teamOf map[uint64]domain.Team) map[domain.Team]float64 {
	sums := map[domain.Team]float64{}
	counts := map[domain.Team]int{}
	for playerID, st := range states {
		team := teamOf[playerID]
		sums[team] += st.Rating
		counts[team]++
	}
	out := make(map[domain.Team]float64, len(sums))
	for team, sum := range sums {
		out[team] = sum / float64(counts[team])
	}
	return out
}

// teammateAverage: 본인을 제외한 같은 진영 평균. 팀원이 없으면 본인 레이팅.
func teammateAverage(states map[uint64]PlayerState, teamOf map[uint64]domain.Team, playerID uint64, team domain.Team) float64 {
	var sum float64
	var n int
	for otherID, st := range states {
		if otherID == playerID || teamOf[otherID] != team {
			continue
		}
		sum += st.Rating
		n++
	}
	if n == 0 {
		return states[playerID].Rating
	}
	return sum / float64(n)
}

// opponentAverage: 상대 진영 평균. (두 진영 해석이 전제라 반대편 하나뿐이다)
func opponentAverage(teamAverages map[domain.Team]float64, team domain.Team, fallback float64) float64 {
	for other, avg := range teamAverages {
		if other != team {
			return avg
		}
	}
	return fallback
}
