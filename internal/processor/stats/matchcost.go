package stats

import (
	"math"
	"sort"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
	"github.com/park285/osu-tournament-stats-go/internal/processor/resolver"
)

// MatchCosts: 매치 참가자별 퍼포먼스 신호를 계산한다.
// 게임마다 참가자 평균 대비 상대 점수를 구해 평균 내고, 참가율 보정
// (절반 보장 + 참가 게임 비율의 제곱근)을 곱한다. 해석된 게임 집합이 같으면
// 항상 같은 값이 나온다.
func MatchCosts(m *repository.Match, result *resolver.MatchResult) map[uint64]float64 {
	gameIndex := make(map[uint64]*repository.Game, len(m.Games))
	for i := range m.Games {
		gameIndex[m.Games[i].ID] = &m.Games[i]
	}

	relSums := map[uint64]float64{}
	relCounts := map[uint64]int{}
	totalGames := len(result.Games)

	for _, gr := range result.Games {
		g, ok := gameIndex[gr.GameID]
		if !ok {
			continue
		}
		participants := map[uint64]struct{}{}
		for _, roster := range gr.Rosters {
			for _, id := range roster.Roster {
				participants[id] = struct{}{}
			}
		}

		var sum float64
		var n int
		for i := range g.Scores {
			sc := &g.Scores[i]
			if _, ok := participants[sc.PlayerID]; !ok {
				continue
			}
			sum += float64(sc.Score)
			n++
		}
		if n == 0 || sum == 0 {
			continue
		}
		mean := sum / float64(n)
		for i := range g.Scores {
			sc := &g.Scores[i]
			if _, ok := participants[sc.PlayerID]; !ok {
				continue
			}
			relSums[sc.PlayerID] += float64(sc.Score) / mean
			relCounts[sc.PlayerID]++
		}
	}

	costs := make(map[uint64]float64, len(relSums))
	for playerID, sum := range relSums {
		played := relCounts[playerID]
		avg := sum / float64(played)
		participation := 1.0
		if totalGames > 0 {
			participation = 0.5 + 0.5*math.Sqrt(float64(played)/float64(totalGames))
		}
		costs[playerID] = avg * participation
	}
	return costs
}

// ComputeMatchStats: 매치 해석 결과와 원본 스코어에서 매치별 플레이어 요약 행을 만든다.
// 영속 상태만의 순수 함수라 몇 번을 다시 돌려도 같은 행이 나온다.
func ComputeMatchStats(m *repository.Match, result *resolver.MatchResult) []repository.PlayerMatchStats {
	costs := MatchCosts(m, result)

	teamOf := map[uint64]domain.Team{}
	teammates := map[uint64]repository.IDList{}
	opponents := map[uint64]repository.IDList{}
	for _, roster := range result.Rosters {
		for _, id := range roster.Roster {
			teamOf[id] = roster.Team
		}
	}
	for _, roster := range result.Rosters {
		for _, id := range roster.Roster {
			for _, other := range roster.Roster {
				if other != id {
					teammates[id] = append(teammates[id], other)
				}
			}
		}
	}
	for id, team := range teamOf {
		for other, otherTeam := range teamOf {
			if otherTeam != team {
				opponents[id] = append(opponents[id], other)
			}
		}
	}

	gameIndex := make(map[uint64]*repository.Game, len(m.Games))
	for i := range m.Games {
		gameIndex[m.Games[i].ID] = &m.Games[i]
	}

	type acc struct {
		score, accuracy, placement float64
		played, won, lost          int
	}
	accs := map[uint64]*acc{}
	for _, gr := range result.Games {
		g, ok := gameIndex[gr.GameID]
		if !ok {
			continue
		}
		memberTeam := map[uint64]domain.Team{}
		for _, roster := range gr.Rosters {
			for _, id := range roster.Roster {
				memberTeam[id] = roster.Team
			}
		}
		for i := range g.Scores {
			sc := &g.Scores[i]
			team, ok := memberTeam[sc.PlayerID]
			if !ok {
				continue
			}
			a := accs[sc.PlayerID]
			if a == nil {
				a = &acc{}
				accs[sc.PlayerID] = a
			}
			a.score += float64(sc.Score)
			a.accuracy += sc.Accuracy(g.Ruleset)
			a.placement += float64(sc.Placement)
			a.played++
			if team == gr.Winner {
				a.won++
			} else {
				a.lost++
			}
		}
	}

	rows := make([]repository.PlayerMatchStats, 0, len(accs))
	for playerID, a := range accs {
		n := float64(a.played)
		rows = append(rows, repository.PlayerMatchStats{
			PlayerID:         playerID,
			MatchID:          m.ID,
			MatchCost:        costs[playerID],
			AverageScore:     a.score / n,
			AverageAccuracy:  a.accuracy / n,
			AveragePlacement: a.placement / n,
			GamesWon:         a.won,
			GamesLost:        a.lost,
			GamesPlayed:      a.played,
			Won:              teamOf[playerID] == result.Winner,
			TeammateIDs:      teammates[playerID].Sorted(),
			OpponentIDs:      opponents[playerID].Sorted(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PlayerID < rows[j].PlayerID })
	return rows
}
