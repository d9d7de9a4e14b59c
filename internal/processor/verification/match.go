package verification

import (
	"context"

	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// VerifyMatch: 매치를 Verified로 전이한다. 레이팅 엔진의 처리 대상이 된다.
func (s *Service) VerifyMatch(ctx context.Context, id uint64, actorUserID *uint64) error {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideVerify("match", m.VerificationStatus)
	if err != nil {
		return err
	}
	if d == decisionNoop {
		return nil
	}

	updates := map[string]any{
		"verification_status": domain.VerificationVerified,
	}
	changes := audit.Changes{
		"verification_status": {Old: m.VerificationStatus.String(), New: domain.VerificationVerified.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateMatchFields(ctx, id, m.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordMatch(ctx, tx, m, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("match_verified", "match_id", id)
	return nil
}

// RejectMatch: 매치를 주어진 사유로 거부한다. 같은 사유의 재거부는 no-op.
func (s *Service) RejectMatch(ctx context.Context, id uint64, reason domain.RejectionReason, actorUserID *uint64) error {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReject("match", m.VerificationStatus, m.RejectionReason, reason)
	if err != nil {
		return err
	}
	if d == decisionNoop {
		return nil
	}

	updates := map[string]any{
		"verification_status": domain.VerificationRejected,
		"rejection_reason":    reason,
	}
	changes := audit.Changes{
		"verification_status": {Old: m.VerificationStatus.String(), New: domain.VerificationRejected.String()},
		"rejection_reason":    {Old: m.RejectionReason.String(), New: reason.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateMatchFields(ctx, id, m.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordMatch(ctx, tx, m, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("match_rejected", "match_id", id, "reason", reason.String())
	return nil
}

// ReopenMatch: 종결된 매치를 Pending으로 되돌리고 처리 상태를 초기화한다.
// 이미 반영된 레이팅 조정은 (player, match) 유니크 제약이 재반영을 막는다.
func (s *Service) ReopenMatch(ctx context.Context, id uint64, actorUserID *uint64) error {
	m, err := s.repo.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReopen(m.VerificationStatus)
	if err != nil {
		return err
	}
	if d == decisionNoop {
		return nil
	}

	updates := map[string]any{
		"verification_status": domain.VerificationPending,
		"rejection_reason":    domain.RejectionNone,
		"processing_status":   domain.ProcessingStatusNotProcessed,
	}
	changes := audit.Changes{
		"verification_status": {Old: m.VerificationStatus.String(), New: domain.VerificationPending.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateMatchFields(ctx, id, m.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordMatch(ctx, tx, m, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("match_reopened", "match_id", id)
	return nil
}
