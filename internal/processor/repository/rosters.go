package repository

import (
	"context"
)

// ReplaceGameRosters: 게임의 로스터를 통째로 교체한다.
// 리졸버 출력이 순수 함수이므로 교체 결과는 입력이 같으면 항상 동일하다.
func (r *Repository) ReplaceGameRosters(ctx context.Context, gameID uint64, rosters []GameRoster) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("game_id = ?", gameID).Delete(&GameRoster{}).Error; err != nil {
		return translateError("delete game rosters", "", err)
	}
	if len(rosters) == 0 {
		return nil
	}
	for i := range rosters {
		rosters[i].GameID = gameID
	}
	if err := db.Create(&rosters).Error; err != nil {
		return translateError("create game rosters", "idx_game_rosters_game_team", err)
	}
	return nil
}

// ReplaceMatchRosters: 매치의 로스터를 통째로 교체한다.
func (r *Repository) ReplaceMatchRosters(ctx context.Context, matchID uint64, rosters []MatchRoster) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("match_id = ?", matchID).Delete(&MatchRoster{}).Error; err != nil {
		return translateError("delete match rosters", "", err)
	}
	if len(rosters) == 0 {
		return nil
	}
	for i := range rosters {
		rosters[i].MatchID = matchID
	}
	if err := db.Create(&rosters).Error; err != nil {
		return translateError("create match rosters", "idx_match_rosters_match_team", err)
	}
	return nil
}

// ListMatchRosters: 매치의 로스터를 팀 순서로 조회한다.
func (r *Repository) ListMatchRosters(ctx context.Context, matchID uint64) ([]MatchRoster, error) {
	var rows []MatchRoster
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("team ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list match rosters", "", err)
	}
	return rows, nil
}
