package domain

// Team: 멀티플레이 로비에서의 팀 소속. HeadToHead(FFA)에서는 TeamNone이다.
type Team int

// TeamNone 는 Team 상수 목록이다. (osu! API 팀 번호와 일치)
const (
	TeamNone Team = iota
	TeamBlue
	TeamRed
)

// String: 로그용 소문자 이름을 반환한다.
func (t Team) String() string {
	switch t {
	case TeamNone:
		return "none"
	case TeamBlue:
		return "blue"
	case TeamRed:
		return "red"
	default:
		return "unknown"
	}
}

// TeamType: 게임의 팀 구성 방식.
type TeamType int

// TeamTypeHeadToHead 는 TeamType 상수 목록이다.
const (
	TeamTypeHeadToHead TeamType = iota // FFA: 플레이어별 1인 로스터로 환원됨
	TeamTypeTagCoop
	TeamTypeTeamVs
	TeamTypeTagTeamVs
)

// Teamed: 팀 단위 승패 판정이 적용되는 방식인지 확인한다.
func (t TeamType) Teamed() bool {
	return t == TeamTypeTeamVs || t == TeamTypeTagTeamVs
}

// ScoringType: 게임의 점수 집계 방식.
type ScoringType int

// ScoringScore 는 ScoringType 상수 목록이다.
const (
	ScoringScore ScoringType = iota
	ScoringAccuracy
	ScoringCombo
	ScoringScoreV2
)

// Mods: 게임/스코어에 적용된 모드 비트마스크. (osu! 표준 비트 값)
type Mods uint32

// ModNone 는 Mods 상수 목록이다.
const (
	ModNone       Mods = 0
	ModNoFail     Mods = 1
	ModEasy       Mods = 2
	ModHidden     Mods = 8
	ModHardRock   Mods = 16
	ModDoubleTime Mods = 64
	ModHalfTime   Mods = 256
	ModFlashlight Mods = 1024
)

// Has: 주어진 모드가 설정되어 있는지 확인한다.
func (m Mods) Has(mod Mods) bool {
	return m&mod == mod && mod != ModNone
}

// Grade: 스코어 판정 등급 (osu! 표기 그대로 저장).
type Grade string

// GradeSSH 는 Grade 상수 목록이다.
const (
	GradeSSH Grade = "XH"
	GradeSS  Grade = "X"
	GradeSH  Grade = "SH"
	GradeS   Grade = "S"
	GradeA   Grade = "A"
	GradeB   Grade = "B"
	GradeC   Grade = "C"
	GradeD   Grade = "D"
	GradeF   Grade = "F"
)

// Accuracy: 히트 카운트로부터 osu! 표준 정확도(0~100)를 계산한다.
// Ruleset별 공식이 다르며, 히트가 전혀 없으면 0을 반환한다.
func Accuracy(ruleset Ruleset, count300, count100, count50, countMiss, countKatu, countGeki int) float64 {
	switch ruleset {
	case RulesetTaiko:
		total := count300 + count100 + countMiss
		if total == 0 {
			return 0
		}
		return 100 * (float64(count300) + 0.5*float64(count100)) / float64(total)
	case RulesetCatch:
		caught := count300 + count100 + count50
		total := caught + countMiss + countKatu
		if total == 0 {
			return 0
		}
		return 100 * float64(caught) / float64(total)
	case RulesetMania:
		total := countGeki + count300 + countKatu + count100 + count50 + countMiss
		if total == 0 {
			return 0
		}
		weighted := float64(countGeki+count300) + 2.0/3.0*float64(countKatu) +
			float64(count100)/3.0 + float64(count50)/6.0
		return 100 * weighted / float64(total)
	default:
		total := count300 + count100 + count50 + countMiss
		if total == 0 {
			return 0
		}
		weighted := float64(count300) + float64(count100)/3.0 + float64(count50)/6.0
		return 100 * weighted / float64(total)
	}
}
