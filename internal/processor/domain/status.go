package domain

// VerificationStatus: 엔티티의 신뢰/유효성 판정 상태.
// Pending에서 Verified 또는 Rejected로 전이되며, 한번 판정되면 종결 상태다.
// 재검증은 관리자의 명시적 Reopen(→ Pending) 전이로만 가능하다.
type VerificationStatus int

// VerificationPending 는 VerificationStatus 상수 목록이다.
const (
	VerificationPending VerificationStatus = iota
	VerificationVerified
	VerificationRejected
)

// Terminal: 종결 상태(Verified/Rejected)인지 확인한다.
func (s VerificationStatus) Terminal() bool {
	return s == VerificationVerified || s == VerificationRejected
}

// String: 로그용 소문자 이름을 반환한다.
func (s VerificationStatus) String() string {
	switch s {
	case VerificationPending:
		return "pending"
	case VerificationVerified:
		return "verified"
	case VerificationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ProcessingStatus: 파이프라인 진행 상태. 검증 상태와 직교한다.
// (Verified 매치도 레이팅 처리 전에는 NotProcessed일 수 있음)
type ProcessingStatus int

// ProcessingStatusNotProcessed 는 ProcessingStatus 상수 목록이다.
const (
	ProcessingStatusNotProcessed ProcessingStatus = iota
	ProcessingStatusProcessing
	ProcessingStatusProcessed
	ProcessingStatusFailed
)

// String: 로그용 소문자 이름을 반환한다.
func (s ProcessingStatus) String() string {
	switch s {
	case ProcessingStatusNotProcessed:
		return "not_processed"
	case ProcessingStatusProcessing:
		return "processing"
	case ProcessingStatusProcessed:
		return "processed"
	case ProcessingStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RejectionReason: Rejected 판정의 구체적 사유. Rejected 상태에서만 유의미하다.
type RejectionReason int

// RejectionNone 는 RejectionReason 상수 목록이다.
const (
	RejectionNone RejectionReason = iota
	RejectionNoEndTime          // 매치/게임이 정상 종료되지 않음 (중단됨)
	RejectionNoGames            // 매치에 게임이 하나도 없음
	RejectionNoValidScores      // 사용 가능한 스코어가 없음
	RejectionInvalidRosterSize  // 로비 크기와 로스터 크기가 맞지 않음
	RejectionRulesetMismatch    // 토너먼트 Ruleset과 게임 Ruleset 불일치
	RejectionBelowScoreMinimum  // 스코어가 최소 기준 미달
	RejectionRejectedByAdmin    // 운영자 수동 거부
)

// String: 로그용 소문자 이름을 반환한다.
func (r RejectionReason) String() string {
	switch r {
	case RejectionNone:
		return "none"
	case RejectionNoEndTime:
		return "no_end_time"
	case RejectionNoGames:
		return "no_games"
	case RejectionNoValidScores:
		return "no_valid_scores"
	case RejectionInvalidRosterSize:
		return "invalid_roster_size"
	case RejectionRulesetMismatch:
		return "ruleset_mismatch"
	case RejectionBelowScoreMinimum:
		return "below_score_minimum"
	case RejectionRejectedByAdmin:
		return "rejected_by_admin"
	default:
		return "unknown"
	}
}
