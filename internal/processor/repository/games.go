package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// CreateGame: 게임을 저장한다.
func (r *Repository) CreateGame(ctx context.Context, g *Game) error {
	if g.AuditLock == "" {
		g.AuditLock = NewAuditLock()
	}
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return translateError("create game", "games_osu_id", err)
	}
	return nil
}

// GetGame: ID로 게임을 조회한다. 스코어를 함께 로드한다.
func (r *Repository) GetGame(ctx context.Context, id uint64) (*Game, error) {
	var g Game
	err := r.db.WithContext(ctx).
		Preload("Scores").
		Preload("Rosters").
		First(&g, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.DatabaseError{Operation: "get game", Err: err}
		}
		return nil, translateError("get game", "", err)
	}
	return &g, nil
}

// UpdateGameFields: 버전 검사를 포함하여 게임 필드를 갱신한다.
func (r *Repository) UpdateGameFields(ctx context.Context, id uint64, version int64, updates map[string]any) error {
	return r.updateVersioned(ctx, &Game{}, "game", id, version, updates)
}

// AddGameWarning: 게임에 경고 플래그를 추가한다.
func (r *Repository) AddGameWarning(ctx context.Context, id uint64, flag domain.WarningFlags) error {
	err := r.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ?", id).
		Update("warning_flags", gorm.Expr("warning_flags | ?", flag)).Error
	if err != nil {
		return translateError("add game warning", "", err)
	}
	return nil
}
