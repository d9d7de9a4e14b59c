// Package domain: 토너먼트 통계 파이프라인 전반에서 공유되는 열거형과 값 타입을 정의한다.
// 엔티티(gorm 모델)는 repository 패키지에, 상태 전이 규칙은 verification 패키지에 있다.
package domain

// Ruleset: osu! 게임 모드. 레이팅은 모드별로 완전히 독립적으로 관리된다.
type Ruleset int

// RulesetOsu 는 Ruleset 상수 목록이다. (osu! API의 모드 번호와 일치)
const (
	RulesetOsu Ruleset = iota
	RulesetTaiko
	RulesetCatch
	RulesetMania
)

// AllRulesets: 파이프라인이 처리하는 전체 Ruleset 목록을 반환한다.
func AllRulesets() []Ruleset {
	return []Ruleset{RulesetOsu, RulesetTaiko, RulesetCatch, RulesetMania}
}

// Valid: 알려진 Ruleset 값인지 확인한다.
func (r Ruleset) Valid() bool {
	return r >= RulesetOsu && r <= RulesetMania
}

// String: 로그/키 생성용 소문자 이름을 반환한다.
func (r Ruleset) String() string {
	switch r {
	case RulesetOsu:
		return "osu"
	case RulesetTaiko:
		return "taiko"
	case RulesetCatch:
		return "catch"
	case RulesetMania:
		return "mania"
	default:
		return "unknown"
	}
}
