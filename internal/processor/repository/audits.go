package repository

import (
	"context"
	"time"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// TournamentAudit: 토너먼트 변경 감사 레코드.
// ReferenceID는 원본 삭제 시 SET NULL로 끊기지만 ReferenceIDLock은 영구 보존되어
// 삭제된 엔티티의 이력 조회 키로 쓰인다. 레코드 자체는 append-only다.
type TournamentAudit struct {
	ID              uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceID     *uint64            `gorm:"column:reference_id"`
	Reference       *Tournament        `gorm:"foreignKey:ReferenceID;constraint:OnDelete:SET NULL"`
	ReferenceIDLock string             `gorm:"column:reference_id_lock;not null;size:36;index"`
	ActionUserID    *uint64            `gorm:"column:action_user_id"`
	ActionType      domain.AuditAction `gorm:"column:action_type;not null"`
	Changes         *string            `gorm:"column:changes;type:jsonb"`
	CreatedAt       time.Time          `gorm:"column:created_at;not null;autoCreateTime"`
}

func (TournamentAudit) TableName() string { return "tournament_audits" }

// MatchAudit: 매치 변경 감사 레코드.
type MatchAudit struct {
	ID              uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceID     *uint64            `gorm:"column:reference_id"`
	Reference       *Match             `gorm:"foreignKey:ReferenceID;constraint:OnDelete:SET NULL"`
	ReferenceIDLock string             `gorm:"column:reference_id_lock;not null;size:36;index"`
	ActionUserID    *uint64            `gorm:"column:action_user_id"`
	ActionType      domain.AuditAction `gorm:"column:action_type;not null"`
	Changes         *string            `gorm:"column:changes;type:jsonb"`
	CreatedAt       time.Time          `gorm:"column:created_at;not null;autoCreateTime"`
}

func (MatchAudit) TableName() string { return "match_audits" }

// GameAudit: 게임 변경 감사 레코드.
type GameAudit struct {
	ID              uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceID     *uint64            `gorm:"column:reference_id"`
	Reference       *Game              `gorm:"foreignKey:ReferenceID;constraint:OnDelete:SET NULL"`
	ReferenceIDLock string             `gorm:"column:reference_id_lock;not null;size:36;index"`
	ActionUserID    *uint64            `gorm:"column:action_user_id"`
	ActionType      domain.AuditAction `gorm:"column:action_type;not null"`
	Changes         *string            `gorm:"column:changes;type:jsonb"`
	CreatedAt       time.Time          `gorm:"column:created_at;not null;autoCreateTime"`
}

func (GameAudit) TableName() string { return "game_audits" }

// GameScoreAudit: 스코어 변경 감사 레코드.
type GameScoreAudit struct {
	ID              uint64             `gorm:"column:id;primaryKey;autoIncrement"`
	ReferenceID     *uint64            `gorm:"column:reference_id"`
	Reference       *GameScore         `gorm:"foreignKey:ReferenceID;constraint:OnDelete:SET NULL"`
	ReferenceIDLock string             `gorm:"column:reference_id_lock;not null;size:36;index"`
	ActionUserID    *uint64            `gorm:"column:action_user_id"`
	ActionType      domain.AuditAction `gorm:"column:action_type;not null"`
	Changes         *string            `gorm:"column:changes;type:jsonb"`
	CreatedAt       time.Time          `gorm:"column:created_at;not null;autoCreateTime"`
}

func (GameScoreAudit) TableName() string { return "game_score_audits" }

// insertAuditRow: 감사 레코드를 저장한다. (모든 타입 공용)
func insertAuditRow[T any](ctx context.Context, r *Repository, row *T) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translateError("insert audit", "", err)
	}
	return nil
}

// InsertTournamentAudit: 토너먼트 감사 레코드를 저장한다.
func (r *Repository) InsertTournamentAudit(ctx context.Context, row *TournamentAudit) error {
	return insertAuditRow(ctx, r, row)
}

// InsertMatchAudit: 매치 감사 레코드를 저장한다.
func (r *Repository) InsertMatchAudit(ctx context.Context, row *MatchAudit) error {
	return insertAuditRow(ctx, r, row)
}

// InsertGameAudit: 게임 감사 레코드를 저장한다.
func (r *Repository) InsertGameAudit(ctx context.Context, row *GameAudit) error {
	return insertAuditRow(ctx, r, row)
}

// InsertGameScoreAudit: 스코어 감사 레코드를 저장한다.
func (r *Repository) InsertGameScoreAudit(ctx context.Context, row *GameScoreAudit) error {
	return insertAuditRow(ctx, r, row)
}

// listAuditsByLock: reference_id_lock으로 감사 이력을 조회한다.
// 원본 엔티티가 삭제되어 reference_id가 NULL이 되어도 이력은 그대로 조회된다.
func listAuditsByLock[T any](ctx context.Context, r *Repository, lock string) ([]T, error) {
	var rows []T
	if err := r.db.WithContext(ctx).
		Where("reference_id_lock = ?", lock).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError("list audits", "", err)
	}
	return rows, nil
}

// ListTournamentAudits: 토너먼트 감사 이력을 락 키로 조회한다.
func (r *Repository) ListTournamentAudits(ctx context.Context, lock string) ([]TournamentAudit, error) {
	return listAuditsByLock[TournamentAudit](ctx, r, lock)
}

// ListMatchAudits: 매치 감사 이력을 락 키로 조회한다.
func (r *Repository) ListMatchAudits(ctx context.Context, lock string) ([]MatchAudit, error) {
	return listAuditsByLock[MatchAudit](ctx, r, lock)
}

// ListGameAudits: 게임 감사 이력을 락 키로 조회한다.
func (r *Repository) ListGameAudits(ctx context.Context, lock string) ([]GameAudit, error) {
	return listAuditsByLock[GameAudit](ctx, r, lock)
}

// ListGameScoreAudits: 스코어 감사 이력을 락 키로 조회한다.
func (r *Repository) ListGameScoreAudits(ctx context.Context, lock string) ([]GameScoreAudit, error) {
	return listAuditsByLock[GameScoreAudit](ctx, r, lock)
}
