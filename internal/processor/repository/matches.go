package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// CreateMatch: 매치를 저장한다. OsuID 중복은 IntegrityError로 반환된다.
func (r *Repository) CreateMatch(ctx context.Context, m *Match) error {
	if m.AuditLock == "" {
		m.AuditLock = NewAuditLock()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError("create match", "matches_osu_id", err)
	}
	return nil
}

// GetMatch: ID로 매치를 조회한다. 게임/스코어/로스터를 함께 로드한다.
func (r *Repository) GetMatch(ctx context.Context, id uint64) (*Match, error) {
	var m Match
	err := r.db.WithContext(ctx).
		Preload("Games", func(db *gorm.DB) *gorm.DB { return db.Order("games.id ASC") }).
		Preload("Games.Scores").
		Preload("Games.Rosters").
		Preload("Rosters").
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.DatabaseError{Operation: "get match", Err: err}
		}
		return nil, translateError("get match", "", err)
	}
	return &m, nil
}

// UpdateMatchFields: 버전 검사를 포함하여 매치 필드를 갱신한다.
func (r *Repository) UpdateMatchFields(ctx context.Context, id uint64, version int64, updates map[string]any) error {
	return r.updateVersioned(ctx, &Match{}, "match", id, version, updates)
}

// SetMatchProcessing: 매치의 파이프라인 진행 상태를 갱신한다.
// 레이팅 엔진은 Ruleset 락 아래에서 직렬 실행되므로 버전 검사 없이 갱신한다.
func (r *Repository) SetMatchProcessing(ctx context.Context, id uint64, status domain.ProcessingStatus, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&Match{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processing_status":    status,
			"last_processing_date": now,
		}).Error
	if err != nil {
		return translateError("set match processing", "", err)
	}
	return nil
}

// AddMatchWarning: 매치에 경고 플래그를 추가한다. (기존 플래그 유지)
func (r *Repository) AddMatchWarning(ctx context.Context, id uint64, flag domain.WarningFlags) error {
	err := r.db.WithContext(ctx).
		Model(&Match{}).
		Where("id = ?", id).
		Update("warning_flags", gorm.Expr("warning_flags | ?", uint32(flag))).Error
	if err != nil {
		return translateError("add match warning", "", err)
	}
	return nil
}

// ListMatchesForProcessing: 워터마크 이후의 검증 완료 매치 중 아직 반영이 끝나지
// 않은 것들을 시각 순으로 조회한다. StartTime 동률은 ID로 깨서 처리 순서를 결정적으로 만든다.
func (r *Repository) ListMatchesForProcessing(
	ctx context.Context,
	ruleset domain.Ruleset,
	after time.Time,
	limit int,
) ([]Match, error) {
	var rows []Match
	q := r.db.WithContext(ctx).
		Joins("JOIN tournaments ON tournaments.id = matches.tournament_id").
		Where("tournaments.ruleset = ?", ruleset).
		Where("matches.verification_status = ?", domain.VerificationVerified).
		// Processing은 중단된 실행이 남긴 상태다. Ruleset 락이 동시 실행을 막으므로
		// 배치 시작 시점에 보이는 Processing 매치는 전부 재시도 대상이다.
		Where("matches.processing_status IN ?", []domain.ProcessingStatus{
			domain.ProcessingStatusNotProcessed,
			domain.ProcessingStatusProcessing,
		}).
		Where("matches.start_time IS NOT NULL").
		// 워터마크와 같은 시각의 매치도 포함한다. 커밋 사이에 중단되면 동시각의
		// 다음 매치가 남아 있을 수 있고, 중복 반영은 어차피 조정 유니크 키가 막는다.
		Where("matches.start_time >= ?", after).
		Order("matches.start_time ASC, matches.id ASC").
		Preload("Tournament").
		Preload("Games", func(db *gorm.DB) *gorm.DB { return db.Order("games.id ASC") }).
		Preload("Games.Scores")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translateError("list matches for processing", "", err)
	}
	return rows, nil
}

// ListPendingMatches: 토너먼트 소속의 검증 대기 매치를 게임/스코어와 함께 조회한다. (스크리닝용)
func (r *Repository) ListPendingMatches(ctx context.Context, tournamentID uint64) ([]Match, error) {
	var rows []Match
	err := r.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Where("verification_status = ?", domain.VerificationPending).
		Order("id ASC").
		Preload("Games", func(db *gorm.DB) *gorm.DB { return db.Order("games.id ASC") }).
		Preload("Games.Scores").
		Find(&rows).Error
	if err != nil {
		return nil, translateError("list pending matches", "", err)
	}
	return rows, nil
}

// ListProcessedMatchIDs: 토너먼트의 처리 완료 매치 ID 목록을 반환한다. (집계용)
func (r *Repository) ListProcessedMatchIDs(ctx context.Context, tournamentID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&Match{}).
		Where("tournament_id = ?", tournamentID).
		Where("processing_status = ?", domain.ProcessingStatusProcessed).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translateError("list processed match ids", "", err)
	}
	return ids, nil
}

// DeleteMatch: 매치를 삭제한다. 게임/스코어/로스터/조정은 CASCADE로 삭제되고
// 감사 레코드의 reference_id만 NULL 처리된다.
func (r *Repository) DeleteMatch(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&Match{}, id).Error; err != nil {
		return translateError("delete match", "", err)
	}
	return nil
}
