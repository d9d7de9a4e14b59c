// Package repository: GORM 기반 엔티티 저장소.
// 메서드들은 애그리게이트별 파일로 분리됨:
//   - tournaments.go / matches.go / games.go / scores.go: 제출 엔티티와 상태 전이
//   - rosters.go: 매치/게임 로스터
//   - ratings.go / adjustments.go: 레이팅 스냅샷과 불변 조정 이력
//   - audits.go: 엔티티 타입별 감사 테이블
//   - playerstats.go / watermark.go: 파생 집계와 처리 워터마크
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
)

// Repository: DB 접근을 위한 GORM 기반 리포지토리
type Repository struct {
	db *gorm.DB
}

// New: 새로운 Repository 인스턴스를 생성한다.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB: 내부 gorm 핸들을 반환한다. (테스트/헬스체크 용)
func (r *Repository) DB() *gorm.DB { return r.db }

// AutoMigrate: 자동으로 DB 테이블 스키마를 마이그레이션한다.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	if err := r.db.WithContext(ctx).AutoMigrate(
		&Player{},
		&Beatmap{},
		&Tournament{},
		&Match{},
		&Game{},
		&GameScore{},
		&MatchRoster{},
		&GameRoster{},
		&PlayerRating{},
		&RatingAdjustment{},
		&TournamentAudit{},
		&MatchAudit{},
		&GameAudit{},
		&GameScoreAudit{},
		&PlayerMatchStats{},
		&PlayerTournamentStats{},
		&PlayerHighestRanks{},
		&ProcessingWatermark{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Transaction: 주어진 함수를 단일 트랜잭션 범위의 Repository로 실행한다.
// 함수가 에러를 반환하면 전체가 롤백된다. (상태 변경 + 감사 기록의 원자성 보장)
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("db is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// translateError: gorm 에러를 공통 에러 타입으로 변환한다.
// 유니크 제약 위반은 배치 재실행 버그를 의미하므로 IntegrityError로 격상한다.
func translateError(operation string, constraint string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return cerrors.IntegrityError{Constraint: constraint, Err: err}
	}
	return cerrors.DatabaseError{Operation: operation, Err: err}
}
