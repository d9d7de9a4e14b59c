// Package resolver: 영속 상태만으로 게임/매치의 승패 로스터를 유도하는 순수 함수 모음.
// 같은 유효 스코어 집합에는 항상 같은 결과를 내야 하므로 시계/난수 의존이 없다.
package resolver

import (
	"errors"
	"sort"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

var (
	// ErrNoUsableScores: 유효 스코어가 없어 결과를 유도할 수 없다.
	ErrNoUsableScores = errors.New("resolver: no usable scores")
	// ErrTiedScores: 동점은 자동 해석의 치명 조건이다. 임의로 승자를 고르지 않는다.
	ErrTiedScores = errors.New("resolver: tied scores")
	// ErrAmbiguousRoster: 팀 배정 없이 3인 이상이 참가한 게임은 진영을 유도할 수 없다.
	ErrAmbiguousRoster = errors.New("resolver: ambiguous roster")
)

// GameResult: 한 게임의 해석 결과. Rosters는 팀 오름차순, 로스터는 ID 오름차순 정렬.
type GameResult struct {
	GameID  uint64
	Winner  domain.Team
	Rosters []repository.GameRoster
}

// MatchResult: 매치 전체의 해석 결과. 진영 점수는 이긴 게임 수다.
type MatchResult struct {
	Winner    domain.Team
	Rosters   []repository.MatchRoster
	Games     []GameResult
	TiedGames []uint64

	// OverlappingRosters: 같은 플레이어가 매치 안에서 양 진영에 모두 등장했다.
	// 해석은 계속하되 매치에 경고로 남긴다. (로비 교체, 기록 오류 등)
	OverlappingRosters bool
}

func usableScore(sc *repository.GameScore) bool {
	return sc.VerificationStatus == domain.VerificationVerified
}

// ResolveGame: 게임의 유효 스코어를 진영별로 묶어 합산하고 승자를 정한다.
// 팀 배정이 없는 게임은 유효 스코어가 정확히 2개일 때만 1v1 가상 진영으로 환원한다.
// (낮은 플레이어 ID가 Blue — 결과와 무관한 결정적 배정)
func ResolveGame(g *repository.Game) (*GameResult, error) {
	type side struct {
		players []uint64
		total   int64
	}
	sides := map[domain.Team]*side{}

	if g.TeamType.Teamed() {
		for i := range g.Scores {
			sc := &g.Scores[i]
			if !usableScore(sc) || sc.Team == domain.TeamNone {
				continue
			}
			s, ok := sides[sc.Team]
			if !ok {
				s = &side{}
				sides[sc.Team] = s
			}
			s.players = append(s.players, sc.PlayerID)
			s.total += sc.Score
		}
	} else {
		var solo []*repository.GameScore
		for i := range g.Scores {
			if usableScore(&g.Scores[i]) {
				solo = append(solo, &g.Scores[i])
			}
		}
		if len(solo) == 0 {
			return nil, ErrNoUsableScores
		}
		if len(solo) != 2 {
			return nil, ErrAmbiguousRoster
		}
		if solo[0].PlayerID > solo[1].PlayerID {
			solo[0], solo[1] = solo[1], solo[0]
		}
		sides[domain.TeamBlue] = &side{players: []uint64{solo[0].PlayerID}, total: solo[0].Score}
		sides[domain.TeamRed] = &side{players: []uint64{solo[1].PlayerID}, total: solo[1].Score}
	}

	if len(sides) == 0 {
		return nil, ErrNoUsableScores
	}
	if len(sides) != 2 {
		return nil, ErrAmbiguousRoster
	}

	teams := make([]domain.Team, 0, 2)
	for team := range sides {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })

	result := &GameResult{GameID: g.ID}
	var winner domain.Team
	var best int64
	first := true
	tied := false
	for _, team := range teams {
		s := sides[team]
		roster := repository.IDList(s.players).Sorted()
		result.Rosters = append(result.Rosters, repository.GameRoster{
			GameID: g.ID,
			Team:   team,
			Roster: roster,
			Score:  s.total,
		})
		switch {
		case first || s.total > best:
			winner, best, tied, first = team, s.total, false, false
		case s.total == best:
			tied = true
		}
	}
	if tied {
		return nil, ErrTiedScores
	}
	result.Winner = winner
	return result, nil
}

// ResolveMatch: 유효 게임별 결과를 합쳐 매치 로스터와 승자를 정한다.
// 동점 게임은 TiedGames에 적고 포인트 계산에서 제외한다. 매치 전체가 동점이거나
// 유효 게임이 없으면 자동 해석 실패로 돌려보낸다. (운영자 재검증 대상)
func ResolveMatch(m *repository.Match) (*MatchResult, error) {
	result := &MatchResult{}
	points := map[domain.Team]int{}
	members := map[domain.Team]map[uint64]struct{}{
		domain.TeamBlue: {},
		domain.TeamRed:  {},
	}

	for i := range m.Games {
		g := &m.Games[i]
		if g.VerificationStatus != domain.VerificationVerified {
			continue
		}
		gr, err := ResolveGame(g)
		switch {
		case errors.Is(err, ErrTiedScores):
			result.TiedGames = append(result.TiedGames, g.ID)
			continue
		case errors.Is(err, ErrNoUsableScores):
			continue
		case err != nil:
			return nil, err
		}
		points[gr.Winner]++
		for _, roster := range gr.Rosters {
			for _, id := range roster.Roster {
				members[roster.Team][id] = struct{}{}
			}
		}
		result.Games = append(result.Games, *gr)
	}

	if len(result.Games) == 0 {
		return nil, ErrNoUsableScores
	}
	if points[domain.TeamBlue] == points[domain.TeamRed] {
		return nil, ErrTiedScores
	}
	result.Winner = domain.TeamBlue
	if points[domain.TeamRed] > points[domain.TeamBlue] {
		result.Winner = domain.TeamRed
	}

	for id := range members[domain.TeamBlue] {
		if _, ok := members[domain.TeamRed][id]; ok {
			result.OverlappingRosters = true
			break
		}
	}

	for _, team := range []domain.Team{domain.TeamBlue, domain.TeamRed} {
		ids := make(repository.IDList, 0, len(members[team]))
		for id := range members[team] {
			ids = append(ids, id)
		}
		result.Rosters = append(result.Rosters, repository.MatchRoster{
			MatchID: m.ID,
			Team:    team,
			Roster:  ids.Sorted(),
			Score:   points[team],
		})
	}
	return result, nil
}
