package domain

// AdjustmentType: RatingAdjustment가 발생한 원인을 구분한다.
type AdjustmentType int

// AdjustmentInitial 는 AdjustmentType 상수 목록이다.
const (
	AdjustmentInitial AdjustmentType = iota // 시드 레이팅 생성
	AdjustmentDecay                         // 비활성 감쇠 (매치 참조 없음)
	AdjustmentMatch                         // 매치 결과 반영
)

// String: 로그용 소문자 이름을 반환한다.
func (t AdjustmentType) String() string {
	switch t {
	case AdjustmentInitial:
		return "initial"
	case AdjustmentDecay:
		return "decay"
	case AdjustmentMatch:
		return "match"
	default:
		return "unknown"
	}
}

// AuditAction: 감사 레코드의 변경 종류.
type AuditAction int

// AuditActionCreated 는 AuditAction 상수 목록이다.
const (
	AuditActionCreated AuditAction = iota
	AuditActionUpdated
	AuditActionDeleted
)

// String: 로그용 소문자 이름을 반환한다.
func (a AuditAction) String() string {
	switch a {
	case AuditActionCreated:
		return "created"
	case AuditActionUpdated:
		return "updated"
	case AuditActionDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
