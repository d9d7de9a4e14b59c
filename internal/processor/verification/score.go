package verification

import (
	"context"

	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// VerifyScore: 점수를 Verified로 전이한다.
func (s *Service) VerifyScore(ctx context.Context, id uint64, actorUserID *uint64) error {
	sc, err := s.repo.GetGameScore(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideVerify("game_score", sc.VerificationStatus)
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
		"verification_status": {Old: sc.VerificationStatus.String(), New: domain.VerificationVerified.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameScoreFields(ctx, id, sc.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGameScore(ctx, tx, sc, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("score_verified", "score_id", id)
	return nil
}

// RejectScore: 점수를 거부한다. 거부된 점수는 게임 결과 집계에서 제외된다.
func (s *Service) RejectScore(ctx context.Context, id uint64, reason domain.RejectionReason, actorUserID *uint64) error {
	sc, err := s.repo.GetGameScore(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReject("game_score", sc.VerificationStatus, sc.RejectionReason, reason)
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
		"verification_status": {Old: sc.VerificationStatus.String(), New: domain.VerificationRejected.String()},
		"rejection_reason":    {Old: sc.RejectionReason.String(), New: reason.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameScoreFields(ctx, id, sc.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGameScore(ctx, tx, sc, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("score_rejected", "score_id", id, "reason", reason.String())
	return nil
}

// ReopenScore: 종결된 점수를 Pending으로 되돌린다.
func (s *Service) ReopenScore(ctx context.Context, id uint64, actorUserID *uint64) error {
	sc, err := s.repo.GetGameScore(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReopen(sc.VerificationStatus)
	if err != nil {
		return err
	}
	if d == decisionNoop {
		return nil
	}

	updates := map[string]any{
		"verification_status": domain.VerificationPending,
		"rejection_reason":    domain.RejectionNone,
	}
	changes := audit.Changes{
		"verification_status": {Old: sc.VerificationStatus.String(), New: domain.VerificationPending.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameScoreFields(ctx, id, sc.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGameScore(ctx, tx, sc, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("score_reopened", "score_id", id)
	return nil
}
