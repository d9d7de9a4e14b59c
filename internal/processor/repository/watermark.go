package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// GetWatermark: Ruleset의 마지막 처리 시각을 조회한다. 기록이 없으면 제로 시각.
func (r *Repository) GetWatermark(ctx context.Context, ruleset domain.Ruleset) (time.Time, error) {
	var row ProcessingWatermark
	err := r.db.WithContext(ctx).
		Where("ruleset = ?", ruleset).
		First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return time.Time{}, nil
		}
		return time.Time{}, translateError("get watermark", "", err)
	}
	return row.LastMatchTime, nil
}

// SetWatermark: Ruleset의 워터마크를 갱신한다. 뒤로 가는 갱신은 무시된다.
func (r *Repository) SetWatermark(ctx context.Context, ruleset domain.Ruleset, t time.Time) error {
	row := ProcessingWatermark{Ruleset: ruleset, LastMatchTime: t}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ruleset"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_match_time": t,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "processing_watermarks", Name: "last_match_time"}, Value: t},
		}},
	}).Create(&row).Error
	if err != nil {
		return translateError("set watermark", "", err)
	}
	return nil
}
