package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
)

// CreatePlayer: 플레이어 참조 행을 저장한다. (신원 제공자 연동/테스트용)
func (r *Repository) CreatePlayer(ctx context.Context, p *Player) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return translateError("create player", "players_osu_id", err)
	}
	return nil
}

// GetPlayer: ID로 플레이어를 조회한다.
func (r *Repository) GetPlayer(ctx context.Context, id uint64) (*Player, error) {
	var p Player
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.DatabaseError{Operation: "get player", Err: err}
		}
		return nil, translateError("get player", "", err)
	}
	return &p, nil
}

// GetPlayersByIDs: ID 목록으로 플레이어들을 조회하여 ID → 행 매핑을 반환한다.
func (r *Repository) GetPlayersByIDs(ctx context.Context, ids []uint64) (map[uint64]Player, error) {
	out := make(map[uint64]Player, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Player
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError("get players by ids", "", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
