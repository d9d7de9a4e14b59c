package rating

import (
	"context"
	"math"
	"time"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// DecaySweep: 오래 쉰 플레이어의 레이팅을 감쇠시킨다.
// 마지막 조정 이후 DecayDelayDays가 지난 플레이어는 스윕당 한 번 레이팅이 깎이고
// 변동성이 커진다. 감쇠도 MatchID 없는 조정 행으로 남아 이력이 끊기지 않는다.
func (e *Engine) DecaySweep(ctx context.Context, ruleset domain.Ruleset) (int, error) {
	ratings, err := e.repo.ListRatingsByRuleset(ctx, ruleset)
	if err != nil {
		return 0, err
	}

	now := e.now()
	cutoff := now.Add(-time.Duration(e.tuning.DecayDelayDays) * 24 * time.Hour)
	decayed := 0

	for i := range ratings {
		pr := &ratings[i]
		if pr.Rating <= e.tuning.DecayFloor {
			continue
		}
		last, err := e.repo.LatestAdjustment(ctx, pr.PlayerID, ruleset)
		if err != nil {
			return decayed, err
		}
		lastActive := pr.CreatedAt
		if last != nil {
			lastActive = last.Timestamp
		}
		if lastActive.After(cutoff) {
			continue
		}

		before := PlayerState{Rating: pr.Rating, Volatility: pr.Volatility}
		after := e.applyDecay(before)
		if after == before {
			continue
		}

		err = e.repo.Transaction(ctx, func(tx *repository.Repository) error {
			adj := &repository.RatingAdjustment{
				PlayerRatingID:   pr.ID,
				PlayerID:         pr.PlayerID,
				Ruleset:          ruleset,
				AdjustmentType:   domain.AdjustmentDecay,
				Timestamp:        now,
				RatingBefore:     before.Rating,
				RatingAfter:      after.Rating,
				VolatilityBefore: before.Volatility,
				VolatilityAfter:  after.Volatility,
			}
			if err := tx.CreateAdjustment(ctx, adj); err != nil {
				return err
			}
			return tx.UpdateRatingState(ctx, pr.ID, after.Rating, after.Volatility)
		})
		if err != nil {
			return decayed, err
		}
		decayed++
	}

	if decayed > 0 {
		e.logger.Info("decay_sweep_done", "ruleset", ruleset.String(), "decayed", decayed)
	}
	return decayed, nil
}

func (e *Engine) applyDecay(before PlayerState) PlayerState {
	t := e.tuning
	rating := before.Rating - t.DecayRate
	if rating < t.DecayFloor {
		rating = t.DecayFloor
	}
	volatility := math.Sqrt(before.Volatility*before.Volatility + t.DecayVolatilityGrowth*t.DecayVolatilityGrowth)
	if volatility > t.MaxVolatility {
		volatility = t.MaxVolatility
	}
	return PlayerState{Rating: rating, Volatility: volatility}
}
