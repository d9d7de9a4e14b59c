package domain

import "strings"

// WarningFlags: 검증을 막지는 않는 이상 징후의 비트마스크.
// Rejected 사유와 달리 여러 비트가 동시에 설정될 수 있으며,
// 레이팅 엔진이 매치 가중치를 낮추거나 제외할지 판단할 때 참조한다.
type WarningFlags uint32

// WarningNone 는 WarningFlags 상수 목록이다.
const (
	WarningNone                WarningFlags = 0
	WarningRosterSizeMismatch  WarningFlags = 1 << 0 // 로스터 크기가 로비 크기와 다름
	WarningUnexpectedGameCount WarningFlags = 1 << 1 // 게임 수가 통상 범위를 벗어남
	WarningShortMatch          WarningFlags = 1 << 2 // 매치 진행 시간이 비정상적으로 짧음
	WarningTiedGame            WarningFlags = 1 << 3 // 게임 스코어 동점으로 승패 판정 불가
	WarningExcludedScores      WarningFlags = 1 << 4 // 일부 스코어가 거부되어 제외됨
	WarningOverlappingRosters  WarningFlags = 1 << 5 // 동일 플레이어가 양 팀에 등장
)

// Has: 주어진 플래그가 모두 설정되어 있는지 확인한다.
func (f WarningFlags) Has(flag WarningFlags) bool {
	return f&flag == flag && flag != WarningNone
}

// With: 주어진 플래그를 추가한 새 값을 반환한다.
func (f WarningFlags) With(flag WarningFlags) WarningFlags {
	return f | flag
}

// Without: 주어진 플래그를 제거한 새 값을 반환한다.
func (f WarningFlags) Without(flag WarningFlags) WarningFlags {
	return f &^ flag
}

// warningNames: 로그 출력용 플래그 이름 매핑 (비트 순서 고정)
var warningNames = []struct {
	flag WarningFlags
	name string
}{
	{WarningRosterSizeMismatch, "roster_size_mismatch"},
	{WarningUnexpectedGameCount, "unexpected_game_count"},
	{WarningShortMatch, "short_match"},
	{WarningTiedGame, "tied_game"},
	{WarningExcludedScores, "excluded_scores"},
	{WarningOverlappingRosters, "overlapping_rosters"},
}

// String: 설정된 플래그 이름을 쉼표로 연결하여 반환한다.
func (f WarningFlags) String() string {
	if f == WarningNone {
		return "none"
	}
	names := make([]string, 0, len(warningNames))
	for _, w := range warningNames {
		if f.Has(w.flag) {
			names = append(names, w.name)
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, ",")
}
