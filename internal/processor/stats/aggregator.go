// Package stats: 처리 완료 매치의 스코어/조정 이력에서 파생 통계를 재계산한다.
// 모든 산출물은 영속 상태에서 언제든 다시 만들 수 있는 파생 데이터다.
package stats

import (
	"context"
	"log/slog"

	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// Aggregator: 매치/토너먼트 단위 플레이어 통계 집계기.
type Aggregator struct {
	repo   *repository.Repository
	logger *slog.Logger
}

func NewAggregator(repo *repository.Repository, logger *slog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger.With("component", "stats")}
}

// PersistMatchStats: 매치 통계 행을 업서트한다. 재계산 결과로 기존 행을 덮는다.
func (a *Aggregator) PersistMatchStats(ctx context.Context, rows []repository.PlayerMatchStats) error {
	for i := range rows {
		if err := a.repo.UpsertPlayerMatchStats(ctx, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeTournamentStats: 토너먼트의 처리 완료 매치 전체에서 플레이어별 롤업을 다시 만든다.
// 레이팅 변화 평균은 해당 매치들의 조정 이력에서 가져온다.
func (a *Aggregator) RecomputeTournamentStats(ctx context.Context, tournamentID uint64) error {
	matchIDs, err := a.repo.ListProcessedMatchIDs(ctx, tournamentID)
	if err != nil {
		return err
	}
	if len(matchIDs) == 0 {
		return nil
	}
	matchStats, err := a.repo.ListPlayerMatchStatsByMatches(ctx, matchIDs)
	if err != nil {
		return err
	}
	adjustments, err := a.repo.ListAdjustmentsByMatches(ctx, matchIDs)
	if err != nil {
		return err
	}

	type acc struct {
		ratingDelta, matchCost, score, accuracy, placement float64
		deltaCount                                         int
		matchesWon, matchesLost, matchesPlayed             int
		gamesWon, gamesLost, gamesPlayed                   int
		teammates                                          map[uint64]struct{}
	}
	accs := map[uint64]*acc{}
	get := func(playerID uint64) *acc {
		v := accs[playerID]
		if v == nil {
			v = &acc{teammates: map[uint64]struct{}{}}
			accs[playerID] = v
		}
		return v
	}

	for i := range matchStats {
		ms := &matchStats[i]
		v := get(ms.PlayerID)
		v.matchCost += ms.MatchCost
		v.score += ms.AverageScore
		v.accuracy += ms.AverageAccuracy
		v.placement += ms.AveragePlacement
		v.matchesPlayed++
		if ms.Won {
			v.matchesWon++
		} else {
			v.matchesLost++
		}
		v.gamesWon += ms.GamesWon
		v.gamesLost += ms.GamesLost
		v.gamesPlayed += ms.GamesPlayed
		for _, id := range ms.TeammateIDs {
			v.teammates[id] = struct{}{}
		}
	}
	for i := range adjustments {
		adj := &adjustments[i]
		v := get(adj.PlayerID)
		v.ratingDelta += adj.RatingDelta()
		v.deltaCount++
	}

	for playerID, v := range accs {
		if v.matchesPlayed == 0 {
			continue
		}
		n := float64(v.matchesPlayed)
		teammateIDs := make(repository.IDList, 0, len(v.teammates))
		for id := range v.teammates {
			teammateIDs = append(teammateIDs, id)
		}
		row := repository.PlayerTournamentStats{
			PlayerID:         playerID,
			TournamentID:     tournamentID,
			AverageMatchCost: v.matchCost / n,
			AverageScore:     v.score / n,
			AverageAccuracy:  v.accuracy / n,
			AveragePlacement: v.placement / n,
			MatchesWon:       v.matchesWon,
			MatchesLost:      v.matchesLost,
			MatchesPlayed:    v.matchesPlayed,
			GamesWon:         v.gamesWon,
			GamesLost:        v.gamesLost,
			GamesPlayed:      v.gamesPlayed,
			TeammateIDs:      teammateIDs.Sorted(),
		}
		if v.deltaCount > 0 {
			row.AverageRatingDelta = v.ratingDelta / float64(v.deltaCount)
		}
		if err := a.repo.UpsertPlayerTournamentStats(ctx, &row); err != nil {
			return err
		}
	}

	a.logger.Info("tournament_stats_recomputed",
		"tournament_id", tournamentID,
		"matches", len(matchIDs),
		"players", len(accs),
	)
	return nil
}
