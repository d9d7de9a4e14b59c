package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
)

// isNotFound: gorm의 레코드 없음 에러인지 확인한다.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// NewAuditLock: 엔티티 생성 시 한 번만 발급되는 감사 락 키를 생성한다.
// 이후 절대 변경/재사용되지 않는다.
func NewAuditLock() string {
	return uuid.NewString()
}

// updateVersioned: 버전 검사를 포함한 조건부 UPDATE.
// 읽은 시점 이후 엔티티가 변경되었으면 아무것도 쓰지 않고 ConflictError를 반환한다.
func (r *Repository) updateVersioned(
	ctx context.Context,
	model any,
	entity string,
	id uint64,
	version int64,
	updates map[string]any,
) error {
	updates["version"] = gorm.Expr("version + 1")
	res := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return translateError("update "+entity, "", res.Error)
	}
	if res.RowsAffected == 0 {
		return cerrors.ConflictError{Entity: entity, ID: id}
	}
	return nil
}
