package verification

import (
	"context"

	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// VerifyTournament: 토너먼트를 Verified로 전이한다.
func (s *Service) VerifyTournament(ctx context.Context, id uint64, actorUserID *uint64) error {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideVerify("tournament", t.VerificationStatus)
	if err != nil {
		return err
	}
	if d == decisionNoop {
		return nil
	}

	updates := map[string]any{
		"verification_status": domain.VerificationVerified,
		"verified_by_user_id": actorUserID,
	}
	changes := audit.Changes{
		"verification_status": {Old: t.VerificationStatus.String(), New: domain.VerificationVerified.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateTournamentFields(ctx, id, t.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordTournament(ctx, tx, t, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tournament_verified", "tournament_id", id)
	return nil
}

// RejectTournament: 토너먼트를 주어진 사유로 Rejected 처리한다.
// 같은 사유의 재거부는 no-op이며, 소속 매치/게임은 삭제되지 않고 그대로 남는다.
func (s *Service) RejectTournament(ctx context.Context, id uint64, reason domain.RejectionReason, actorUserID *uint64) error {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReject("tournament", t.VerificationStatus, t.RejectionReason, reason)
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
		"verification_status": {Old: t.VerificationStatus.String(), New: domain.VerificationRejected.String()},
		"rejection_reason":    {Old: t.RejectionReason.String(), New: reason.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateTournamentFields(ctx, id, t.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordTournament(ctx, tx, t, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tournament_rejected", "tournament_id", id, "reason", reason.String())
	return nil
}

// ReopenTournament: 관리자가 종결된 토너먼트를 Pending으로 되돌린다. (감사 기록됨)
func (s *Service) ReopenTournament(ctx context.Context, id uint64, actorUserID *uint64) error {
	t, err := s.repo.GetTournament(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReopen(t.VerificationStatus)
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
		"verification_status": {Old: t.VerificationStatus.String(), New: domain.VerificationPending.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateTournamentFields(ctx, id, t.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordTournament(ctx, tx, t, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tournament_reopened", "tournament_id", id)
	return nil
}
