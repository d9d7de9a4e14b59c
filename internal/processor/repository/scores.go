package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
)

// CreateGameScore: 스코어를 저장한다. (게임, 플레이어) 중복은 IntegrityError다.
func (r *Repository) CreateGameScore(ctx context.Context, s *GameScore) error {
	if s.AuditLock == "" {
		s.AuditLock = NewAuditLock()
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return translateError("create game score", "idx_game_scores_game_player", err)
	}
	return nil
}

// GetGameScore: ID로 스코어를 조회한다.
func (r *Repository) GetGameScore(ctx context.Context, id uint64) (*GameScore, error) {
	var s GameScore
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.DatabaseError{Operation: "get game score", Err: err}
		}
		return nil, translateError("get game score", "", err)
	}
	return &s, nil
}

// UpdateGameScoreFields: 버전 검사를 포함하여 스코어 필드를 갱신한다.
func (r *Repository) UpdateGameScoreFields(ctx context.Context, id uint64, version int64, updates map[string]any) error {
	return r.updateVersioned(ctx, &GameScore{}, "game_score", id, version, updates)
}
