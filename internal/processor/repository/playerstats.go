package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// UpsertPlayerMatchStats: 매치별 플레이어 성과 요약을 멱등하게 기록한다.
// 파생 데이터이므로 재계산 결과로 항상 덮어쓴다.
func (r *Repository) UpsertPlayerMatchStats(ctx context.Context, s *PlayerMatchStats) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "match_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"match_cost", "average_score", "average_accuracy", "average_placement",
			"games_won", "games_lost", "games_played", "won",
			"teammate_ids", "opponent_ids",
		}),
	}).Create(s).Error
	if err != nil {
		return translateError("upsert player match stats", "idx_player_match_stats_player_match", err)
	}
	return nil
}

// UpsertPlayerTournamentStats: 토너먼트별 플레이어 성과 롤업을 멱등하게 기록한다.
func (r *Repository) UpsertPlayerTournamentStats(ctx context.Context, s *PlayerTournamentStats) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player_id"}, {Name: "tournament_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"average_rating_delta", "average_match_cost", "average_score",
			"average_accuracy", "average_placement",
			"matches_won", "matches_lost", "matches_played",
			"games_won", "games_lost", "games_played", "teammate_ids",
		}),
	}).Create(s).Error
	if err != nil {
		return translateError("upsert player tournament stats", "idx_player_tournament_stats_pair", err)
	}
	return nil
}

// ListPlayerMatchStatsByMatches: 매치 ID 목록의 성과 요약을 조회한다. (토너먼트 롤업용)
func (r *Repository) ListPlayerMatchStatsByMatches(ctx context.Context, matchIDs []uint64) ([]PlayerMatchStats, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	var rows []PlayerMatchStats
	err := r.db.WithContext(ctx).
		Where("match_id IN ?", matchIDs).
		Order("player_id ASC, match_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list player match stats", "", err)
	}
	return rows, nil
}

// GetHighestRanks: (플레이어, Ruleset)의 최고 랭크 행을 조회한다. 없으면 (nil, nil).
func (r *Repository) GetHighestRanks(ctx context.Context, playerID uint64, ruleset domain.Ruleset) (*PlayerHighestRanks, error) {
	var row PlayerHighestRanks
	err := r.db.WithContext(ctx).
		Where("player_id = ? AND ruleset = ?", playerID, ruleset).
		First(&row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translateError("get highest ranks", "", err)
	}
	return &row, nil
}

// RecordRanks: 랭크 재계산 결과가 기존 최고 기록보다 좋으면 갱신한다.
// 랭크는 숫자가 작을수록 좋다.
func (r *Repository) RecordRanks(ctx context.Context, playerID uint64, ruleset domain.Ruleset, globalRank, countryRank int32, now time.Time) error {
	existing, err := r.GetHighestRanks(ctx, playerID, ruleset)
	if err != nil {
		return err
	}
	if existing == nil {
		row := PlayerHighestRanks{
			PlayerID:        playerID,
			Ruleset:         ruleset,
			GlobalRank:      globalRank,
			GlobalRankDate:  now,
			CountryRank:     countryRank,
			CountryRankDate: now,
		}
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return translateError("create highest ranks", "idx_player_highest_ranks_pair", err)
		}
		return nil
	}

	updates := map[string]any{}
	if globalRank > 0 && (existing.GlobalRank == 0 || globalRank < existing.GlobalRank) {
		updates["global_rank"] = globalRank
		updates["global_rank_date"] = now
	}
	if countryRank > 0 && (existing.CountryRank == 0 || countryRank < existing.CountryRank) {
		updates["country_rank"] = countryRank
		updates["country_rank_date"] = now
	}
	if len(updates) == 0 {
		return nil
	}
	err = r.db.WithContext(ctx).
		Model(&PlayerHighestRanks{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return translateError("update highest ranks", "", err)
	}
	return nil
}
