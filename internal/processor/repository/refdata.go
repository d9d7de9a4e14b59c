package repository

import (
	"context"

	"gorm.io/gorm/clause"
)

// EnsurePlayers: osu_id 목록에 해당하는 플레이어 행을 보장하고 osu_id → 내부 ID 맵을 돌려준다.
// 이미 있는 행은 건드리지 않는다. (신원 정보는 외부 제공자 소관)
func (r *Repository) EnsurePlayers(ctx context.Context, osuIDs []int64) (map[int64]uint64, error) {
	if len(osuIDs) == 0 {
		return map[int64]uint64{}, nil
	}
	seen := map[int64]struct{}{}
	rows := make([]Player, 0, len(osuIDs))
	for _, id := range osuIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, Player{OsuID: id})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "osu_id"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return nil, translateError("ensure players", "", err)
	}

	var all []Player
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	if err := r.db.WithContext(ctx).Where("osu_id IN ?", ids).Find(&all).Error; err != nil {
		return nil, translateError("ensure players", "", err)
	}
	out := make(map[int64]uint64, len(all))
	for _, p := range all {
		out[p.OsuID] = p.ID
	}
	return out, nil
}

// EnsureBeatmap: osu_id의 비트맵 행을 보장하고 내부 ID를 돌려준다.
func (r *Repository) EnsureBeatmap(ctx context.Context, osuID int64) (uint64, error) {
	b := Beatmap{OsuID: osuID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "osu_id"}}, DoNothing: true}).
		Create(&b).Error
	if err != nil {
		return 0, translateError("ensure beatmap", "", err)
	}
	if b.ID != 0 {
		return b.ID, nil
	}
	var existing Beatmap
	if err := r.db.WithContext(ctx).Where("osu_id = ?", osuID).First(&existing).Error; err != nil {
		return 0, translateError("ensure beatmap", "", err)
	}
	return existing.ID, nil
}
