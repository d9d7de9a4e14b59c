package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// GetPlayerRating: (플레이어, Ruleset)의 현재 레이팅을 조회한다. 없으면 (nil, nil).
func (r *Repository) GetPlayerRating(ctx context.Context, playerID uint64, ruleset domain.Ruleset) (*PlayerRating, error) {
	var pr PlayerRating
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND ruleset = ?", playerID, ruleset).
		First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError("get player rating", "", err)
	}
	return &pr, nil
}

// CreatePlayerRating: 레이팅 행을 생성한다.
// (플레이어, Ruleset) 중복은 계약 위반이므로 IntegrityError로 반환된다.
func (r *Repository) CreatePlayerRating(ctx context.Context, pr *PlayerRating) error {
	if err := r.db.WithContext(ctx).Create(pr).Error; err != nil {
		return translateError("create player rating", "idx_player_ratings_player_ruleset", err)
	}
	return nil
}

// UpdateRatingState: 레이팅 엔진이 정책 적용 결과(after 값)를 반영한다.
func (r *Repository) UpdateRatingState(ctx context.Context, id uint64, rating, volatility float64) error {
	err := r.db.WithContext(ctx).
		Model(&PlayerRating{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":     rating,
			"volatility": volatility,
		}).Error
	if err != nil {
		return translateError("update rating state", "", err)
	}
	return nil
}

// ListRatingsByRuleset: Ruleset의 전체 레이팅을 내림차순으로 조회한다.
// 동률은 ID 오름차순으로 깨서 랭크 재계산을 멱등하게 만든다. 국가 정보 포함.
func (r *Repository) ListRatingsByRuleset(ctx context.Context, ruleset domain.Ruleset) ([]PlayerRating, error) {
	var rows []PlayerRating
	err := r.db.WithContext(ctx).
		Where("ruleset = ?", ruleset).
		Order("rating DESC, id ASC").
		Preload("Player").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list ratings by ruleset", "", err)
	}
	return rows, nil
}

// UpdateRankFields: 랭크 재계산 결과를 레이팅 행에 기록한다.
func (r *Repository) UpdateRankFields(ctx context.Context, id uint64, globalRank, countryRank int32, percentile float64) error {
	err := r.db.WithContext(ctx).
		Model(&PlayerRating{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"global_rank":  globalRank,
			"country_rank": countryRank,
			"percentile":   percentile,
		}).Error
	if err != nil {
		return translateError("update rank fields", "", err)
	}
	return nil
}
