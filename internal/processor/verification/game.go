package verification

import (
	"context"

	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// VerifyGame: 게임을 Verified로 전이한다.
func (s *Service) VerifyGame(ctx context.Context, id uint64, actorUserID *uint64) error {
	g, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideVerify("game", g.VerificationStatus)
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
		"verification_status": {Old: g.VerificationStatus.String(), New: domain.VerificationVerified.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameFields(ctx, id, g.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGame(ctx, tx, g, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("game_verified", "game_id", id)
	return nil
}

// RejectGame: 게임을 거부한다. 거부된 게임은 매치 결과 산출에서 제외된다.
func (s *Service) RejectGame(ctx context.Context, id uint64, reason domain.RejectionReason, actorUserID *uint64) error {
	g, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReject("game", g.VerificationStatus, g.RejectionReason, reason)
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
		"verification_status": {Old: g.VerificationStatus.String(), New: domain.VerificationRejected.String()},
		"rejection_reason":    {Old: g.RejectionReason.String(), New: reason.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameFields(ctx, id, g.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGame(ctx, tx, g, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("game_rejected", "game_id", id, "reason", reason.String())
	return nil
}

// ReopenGame: 종결된 게임을 Pending으로 되돌린다.
func (s *Service) ReopenGame(ctx context.Context, id uint64, actorUserID *uint64) error {
	g, err := s.repo.GetGame(ctx, id)
	if err != nil {
		return err
	}
	d, err := decideReopen(g.VerificationStatus)
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
		"verification_status": {Old: g.VerificationStatus.String(), New: domain.VerificationPending.String()},
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.UpdateGameFields(ctx, id, g.Version, updates); err != nil {
			return err
		}
		return s.recorder.RecordGame(ctx, tx, g, actorUserID, domain.AuditActionUpdated, changes)
	})
	if err != nil {
		return err
	}
	s.logger.Info("game_reopened", "game_id", id)
	return nil
}
