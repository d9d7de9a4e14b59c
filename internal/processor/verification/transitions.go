// Package verification: 제출 엔티티(토너먼트/매치/게임/스코어)의 검증 상태 기계.
// 전이 규칙은 순수 함수로 분리되어 있고, 적용은 낙관적 동시성 제어 아래에서
// 감사 기록과 같은 트랜잭션으로 커밋된다.
package verification

import (
	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// decision: 전이 판정 결과.
type decision int

const (
	decisionApply decision = iota
	decisionNoop
)

// decideVerify: Verified로의 전이를 판정한다.
// Pending에서만 적용되며, 이미 Verified면 no-op, Rejected면 전이 위반이다.
func decideVerify(entity string, cur domain.VerificationStatus) (decision, error) {
	switch cur {
	case domain.VerificationPending:
		return decisionApply, nil
	case domain.VerificationVerified:
		return decisionNoop, nil
	default:
		return 0, cerrors.TransitionError{Entity: entity, From: cur.String(), To: domain.VerificationVerified.String()}
	}
}

// decideReject: Rejected로의 전이를 판정한다.
// 이미 같은 사유로 Rejected면 no-op (멱등), 다른 사유면 전이 위반이다.
func decideReject(
	entity string,
	cur domain.VerificationStatus,
	curReason, newReason domain.RejectionReason,
) (decision, error) {
	switch cur {
	case domain.VerificationPending:
		return decisionApply, nil
	case domain.VerificationRejected:
		if curReason == newReason {
			return decisionNoop, nil
		}
		return 0, cerrors.TransitionError{Entity: entity, From: cur.String(), To: domain.VerificationRejected.String()}
	default:
		return 0, cerrors.TransitionError{Entity: entity, From: cur.String(), To: domain.VerificationRejected.String()}
	}
}

// decideReopen: 관리자에 의한 Pending 복귀를 판정한다. 종결 상태에서만 의미가 있다.
func decideReopen(cur domain.VerificationStatus) (decision, error) {
	if cur == domain.VerificationPending {
		return decisionNoop, nil
	}
	return decisionApply, nil
}
