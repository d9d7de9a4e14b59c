// Package audit: 추적 대상 엔티티의 모든 변경을 append-only 감사 테이블에 기록한다.
// 감사 쓰기는 항상 변경을 일으킨 트랜잭션 안에서 수행되어 상태 변경과 원자적으로 커밋된다.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// FieldChange: 단일 필드의 변경 전/후 값.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes: 필드 이름 → 변경 내역의 구조화된 diff 페이로드.
type Changes map[string]FieldChange

// Recorder: 감사 레코드 기록기. 엔티티 타입별 테이블에 한 행씩 남긴다.
type Recorder struct {
	logger *slog.Logger
}

// NewRecorder: 새로운 Recorder 인스턴스를 생성한다.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// encodeChanges: diff 페이로드를 jsonb 컬럼 값으로 직렬화한다. 비어 있으면 NULL.
func encodeChanges(changes Changes) (*string, error) {
	if len(changes) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("marshal audit changes failed: %w", err)
	}
	s := string(data)
	return &s, nil
}

// RecordTournament: 토너먼트 변경을 기록한다. txRepo는 호출자의 트랜잭션 범위여야 한다.
func (rec *Recorder) RecordTournament(
	ctx context.Context,
	txRepo *repository.Repository,
	t *repository.Tournament,
	actorUserID *uint64,
	action domain.AuditAction,
	changes Changes,
) error {
	payload, err := encodeChanges(changes)
	if err != nil {
		return err
	}
	id := t.ID
	row := repository.TournamentAudit{
		ReferenceID:     &id,
		ReferenceIDLock: t.AuditLock,
		ActionUserID:    actorUserID,
		ActionType:      action,
		Changes:         payload,
	}
	if err := txRepo.InsertTournamentAudit(ctx, &row); err != nil {
		return fmt.Errorf("record tournament audit failed: %w", err)
	}
	rec.logger.Debug("audit_recorded", "entity", "tournament", "id", t.ID, "action", action.String())
	return nil
}

// RecordMatch: 매치 변경을 기록한다.
func (rec *Recorder) RecordMatch(
	ctx context.Context,
	txRepo *repository.Repository,
	m *repository.Match,
	actorUserID *uint64,
	action domain.AuditAction,
	changes Changes,
) error {
	payload, err := encodeChanges(changes)
	if err != nil {
		return err
	}
	id := m.ID
	row := repository.MatchAudit{
		ReferenceID:     &id,
		ReferenceIDLock: m.AuditLock,
		ActionUserID:    actorUserID,
		ActionType:      action,
		Changes:         payload,
	}
	if err := txRepo.InsertMatchAudit(ctx, &row); err != nil {
		return fmt.Errorf("record match audit failed: %w", err)
	}
	rec.logger.Debug("audit_recorded", "entity", "match", "id", m.ID, "action", action.String())
	return nil
}

// RecordGame: 게임 변경을 기록한다.
func (rec *Recorder) RecordGame(
	ctx context.Context,
	txRepo *repository.Repository,
	g *repository.Game,
	actorUserID *uint64,
	action domain.AuditAction,
	changes Changes,
) error {
	payload, err := encodeChanges(changes)
	if err != nil {
		return err
	}
	id := g.ID
	row := repository.GameAudit{
		ReferenceID:     &id,
		ReferenceIDLock: g.AuditLock,
		ActionUserID:    actorUserID,
		ActionType:      action,
		Changes:         payload,
	}
	if err := txRepo.InsertGameAudit(ctx, &row); err != nil {
		return fmt.Errorf("record game audit failed: %w", err)
	}
	rec.logger.Debug("audit_recorded", "entity", "game", "id", g.ID, "action", action.String())
	return nil
}

// RecordGameScore: 스코어 변경을 기록한다.
func (rec *Recorder) RecordGameScore(
	ctx context.Context,
	txRepo *repository.Repository,
	s *repository.GameScore,
	actorUserID *uint64,
	action domain.AuditAction,
	changes Changes,
) error {
	payload, err := encodeChanges(changes)
	if err != nil {
		return err
	}
	id := s.ID
	row := repository.GameScoreAudit{
		ReferenceID:     &id,
		ReferenceIDLock: s.AuditLock,
		ActionUserID:    actorUserID,
		ActionType:      action,
		Changes:         payload,
	}
	if err := txRepo.InsertGameScoreAudit(ctx, &row); err != nil {
		return fmt.Errorf("record game score audit failed: %w", err)
	}
	rec.logger.Debug("audit_recorded", "entity", "game_score", "id", s.ID, "action", action.String())
	return nil
}
