package rating

import (
	"context"
	"time"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// RecomputeRanks: Ruleset 전체의 글로벌/국가 랭크와 백분위를 다시 만든다.
// 엔진이 소유한 구체화 뷰라서 레이팅 내림차순(동률은 ID 오름차순) 정렬에서
// 통째로 재계산한다. 새 조정이 없으면 두 번 돌려도 결과가 같다.
// since 이후에 생긴 각 플레이어의 최신 조정 행에는 전/후 랭크 값을 덧붙인다.
func (e *Engine) RecomputeRanks(ctx context.Context, ruleset domain.Ruleset, since time.Time) error {
	ratings, err := e.repo.ListRatingsByRuleset(ctx, ruleset)
	if err != nil {
		return err
	}
	total := len(ratings)
	if total == 0 {
		return nil
	}

	now := e.now()
	type rankState struct {
		before repository.PlayerRating
		global int32
		country int32
		percentile float64
	}
	states := make(map[uint64]rankState, total)

	countryCounters := map[string]int32{}
	for i := range ratings {
		pr := &ratings[i]
		global := int32(i + 1)
		percentile := 100 * float64(total-i) / float64(total)

		country := ""
		if pr.Player != nil {
			country = pr.Player.Country
		}
		countryCounters[country]++
		countryRank := countryCounters[country]

		if pr.GlobalRank != global || pr.CountryRank != countryRank || pr.Percentile != percentile {
			if err := e.repo.UpdateRankFields(ctx, pr.ID, global, countryRank, percentile); err != nil {
				return err
			}
		}
		if err := e.repo.RecordRanks(ctx, pr.PlayerID, ruleset, global, countryRank, now); err != nil {
			return err
		}
		states[pr.PlayerID] = rankState{before: *pr, global: global, country: countryRank, percentile: percentile}
	}

	// 이번 배치에서 조정이 생긴 플레이어의 최신 조정 행에 전/후 값을 기록한다.
	adjustments, err := e.repo.ListAdjustmentsSince(ctx, ruleset, since)
	if err != nil {
		return err
	}
	seen := map[uint64]struct{}{}
	updated := 0
	for i := range adjustments {
		adj := &adjustments[i]
		if _, ok := seen[adj.PlayerID]; ok {
			continue
		}
		seen[adj.PlayerID] = struct{}{}
		st, ok := states[adj.PlayerID]
		if !ok {
			continue
		}
		err := e.repo.UpdateAdjustmentRanks(ctx, adj.ID,
			st.before.GlobalRank, st.global,
			st.before.CountryRank, st.country,
			st.before.Percentile, st.percentile,
		)
		if err != nil {
			return err
		}
		updated++
	}

	e.logger.Info("ranks_recomputed",
		"ruleset", ruleset.String(),
		"players", total,
		"annotated_adjustments", updated,
	)
	return nil
}
