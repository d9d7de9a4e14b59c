package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// HasAdjustment: (플레이어, 매치) 조정이 이미 존재하는지 확인한다.
// 배치 재실행 시 at-most-once 적용을 보장하는 1차 방어선이다.
// (2차 방어선은 유니크 제약 → IntegrityError)
func (r *Repository) HasAdjustment(ctx context.Context, playerID uint64, matchID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RatingAdjustment{}).
		Where("player_id = ? AND match_id = ?", playerID, matchID).
		Count(&count).Error
	if err != nil {
		return false, translateError("has adjustment", "", err)
	}
	return count > 0, nil
}

// CreateAdjustment: 불변 조정 이력 행을 저장한다.
func (r *Repository) CreateAdjustment(ctx context.Context, a *RatingAdjustment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return translateError("create adjustment", "idx_rating_adjustments_player_match", err)
	}
	return nil
}

// LatestAdjustment: (플레이어, Ruleset)의 가장 최근 조정을 조회한다. 없으면 (nil, nil).
func (r *Repository) LatestAdjustment(ctx context.Context, playerID uint64, ruleset domain.Ruleset) (*RatingAdjustment, error) {
	var a RatingAdjustment
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND ruleset = ?", playerID, ruleset).
		Order("timestamp DESC, id DESC").
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("latest adjustment", "", err)
	}
	return &a, nil
}

// UpdateAdjustmentRanks: 랭크 재계산 결과의 전/후 값을 조정 행에 덧붙인다.
func (r *Repository) UpdateAdjustmentRanks(
	ctx context.Context,
	id uint64,
	globalBefore, globalAfter, countryBefore, countryAfter int32,
	percentileBefore, percentileAfter float64,
) error {
	err := r.db.WithContext(ctx).
		Model(&RatingAdjustment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"global_rank_before":  globalBefore,
			"global_rank_after":   globalAfter,
			"country_rank_before": countryBefore,
			"country_rank_after":  countryAfter,
			"percentile_before":   percentileBefore,
			"percentile_after":    percentileAfter,
		}).Error
	if err != nil {
		return translateError("update adjustment ranks", "", err)
	}
	return nil
}

// ListAdjustmentsByPlayer: 플레이어의 조정 이력을 시간 순으로 조회한다.
func (r *Repository) ListAdjustmentsByPlayer(ctx context.Context, playerID uint64, ruleset domain.Ruleset) ([]RatingAdjustment, error) {
	var rows []RatingAdjustment
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND ruleset = ?", playerID, ruleset).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list adjustments by player", "", err)
	}
	return rows, nil
}

// ListAdjustmentsByMatches: 매치 집합에 속한 조정 목록을 조회한다. (토너먼트 롤업용)
func (r *Repository) ListAdjustmentsByMatches(ctx context.Context, matchIDs []uint64) ([]RatingAdjustment, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	var rows []RatingAdjustment
	err := r.db.WithContext(ctx).
		Where("match_id IN ?", matchIDs).
		Order("player_id ASC, timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list adjustments by matches", "", err)
	}
	return rows, nil
}

// ListAdjustmentsSince: 주어진 시각 이후의 조정 목록을 조회한다. (랭크 기록 대상 탐색용)
func (r *Repository) ListAdjustmentsSince(ctx context.Context, ruleset domain.Ruleset, since time.Time) ([]RatingAdjustment, error) {
	var rows []RatingAdjustment
	err := r.db.WithContext(ctx).
		Where("ruleset = ? AND created_at >= ?", ruleset, since).
		Order("player_id ASC, timestamp DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list adjustments since", "", err)
	}
	return rows, nil
}
