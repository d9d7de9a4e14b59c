package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// CreateTournament: 토너먼트를 저장한다. 감사 락 키가 없으면 발급한다.
func (r *Repository) CreateTournament(ctx context.Context, t *Tournament) error {
	if t.AuditLock == "" {
		t.AuditLock = NewAuditLock()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return translateError("create tournament", "tournaments_name", err)
	}
	return nil
}

// GetTournament: ID로 토너먼트를 조회한다.
func (r *Repository) GetTournament(ctx context.Context, id uint64) (*Tournament, error) {
	var t Tournament
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cerrors.DatabaseError{Operation: "get tournament", Err: err}
		}
		return nil, translateError("get tournament", "", err)
	}
	return &t, nil
}

// UpdateTournamentFields: 버전 검사를 포함하여 토너먼트 필드를 갱신한다.
func (r *Repository) UpdateTournamentFields(ctx context.Context, id uint64, version int64, updates map[string]any) error {
	return r.updateVersioned(ctx, &Tournament{}, "tournament", id, version, updates)
}

// SetTournamentProcessing: 레이팅 처리 스윕이 토너먼트 진행 상태를 갱신한다.
func (r *Repository) SetTournamentProcessing(ctx context.Context, id uint64, status domain.ProcessingStatus, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&Tournament{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processing_status":    status,
			"last_processing_date": now,
		}).Error
	if err != nil {
		return translateError("set tournament processing", "", err)
	}
	return nil
}

// ListPendingTournaments: 검증 대기 중인 토너먼트 목록을 조회한다.
func (r *Repository) ListPendingTournaments(ctx context.Context, limit int) ([]Tournament, error) {
	var rows []Tournament
	q := r.db.WithContext(ctx).
		Where("verification_status = ?", domain.VerificationPending).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, translateError("list pending tournaments", "", err)
	}
	return rows, nil
}

// DeleteTournament: 토너먼트를 삭제한다. 소속 매치/게임/스코어는 FK CASCADE로 함께 삭제된다.
func (r *Repository) DeleteTournament(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&Tournament{}, id).Error; err != nil {
		return translateError("delete tournament", "", err)
	}
	return nil
}
