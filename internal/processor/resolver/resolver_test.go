package resolver

import (
	"errors"
	"reflect"
	"testing"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

func verifiedScore(playerID uint64, score int64, team domain.Team) repository.GameScore {
	return repository.GameScore{
		PlayerID:           playerID,
		Score:              score,
		Team:               team,
		VerificationStatus: domain.VerificationVerified,
	}
}

func TestResolveGame_TeamVs(t *testing.T) {
	g := &repository.Game{
		ID:       1,
		TeamType: domain.TeamTypeTeamVs,
		Scores: []repository.GameScore{
			verifiedScore(10, 400000, domain.TeamBlue),
			verifiedScore(11, 350000, domain.TeamBlue),
			verifiedScore(20, 500000, domain.TeamRed),
			verifiedScore(21, 100000, domain.TeamRed),
		},
	}

	result, err := ResolveGame(g)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Winner != domain.TeamBlue {
		t.Errorf("winner = %v, want blue (750000 vs 600000)", result.Winner)
	}
	if len(result.Rosters) != 2 {
		t.Fatalf("expected 2 rosters, got %d", len(result.Rosters))
	}
	if result.Rosters[0].Team != domain.TeamBlue || result.Rosters[1].Team != domain.TeamRed {
		t.Errorf("rosters not in team order: %v %v", result.Rosters[0].Team, result.Rosters[1].Team)
	}
	if !reflect.DeepEqual(result.Rosters[0].Roster, repository.IDList{10, 11}) {
		t.Errorf("blue roster = %v, want [10 11]", result.Rosters[0].Roster)
	}
	if result.Rosters[1].Score != 600000 {
		t.Errorf("red total = %d, want 600000", result.Rosters[1].Score)
	}
}

func TestResolveGame_IgnoresUnusableScores(t *testing.T) {
	rejected := repository.GameScore{
		PlayerID:           30,
		Score:              900000,
		Team:               domain.TeamRed,
		VerificationStatus: domain.VerificationRejected,
	}
	g := &repository.Game{
		ID:       2,
		TeamType: domain.TeamTypeTeamVs,
		Scores: []repository.GameScore{
			verifiedScore(10, 300000, domain.TeamBlue),
			verifiedScore(20, 200000, domain.TeamRed),
			rejected, // 거부된 스코어는 결과에 영향이 없어야 한다
		},
	}
	result, err := ResolveGame(g)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Winner != domain.TeamBlue {
		t.Errorf("winner = %v, want blue", result.Winner)
	}
	if result.Rosters[1].Roster.Contains(30) {
		t.Error("rejected score leaked into the red roster")
	}
}

func TestResolveGame_Tie(t *testing.T) {
	g := &repository.Game{
		ID:       3,
		TeamType: domain.TeamTypeTeamVs,
		Scores: []repository.GameScore{
			verifiedScore(10, 250000, domain.TeamBlue),
			verifiedScore(20, 250000, domain.TeamRed),
		},
	}
	if _, err := ResolveGame(g); !errors.Is(err, ErrTiedScores) {
		t.Fatalf("expected ErrTiedScores, got: %v", err)
	}
}

func TestResolveGame_HeadToHead(t *testing.T) {
	t.Run("two players become virtual sides", func(t *testing.T) {
		g := &repository.Game{
			ID:       4,
			TeamType: domain.TeamTypeHeadToHead,
			Scores: []repository.GameScore{
				verifiedScore(22, 480000, domain.TeamNone),
				verifiedScore(7, 350000, domain.TeamNone),
			},
		}
		result, err := ResolveGame(g)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		// 낮은 플레이어 ID가 Blue를 받는다. 승패와는 무관한 결정적 배정이다.
		if !reflect.DeepEqual(result.Rosters[0].Roster, repository.IDList{7}) {
			t.Errorf("blue roster = %v, want [7]", result.Rosters[0].Roster)
		}
		if result.Winner != domain.TeamRed {
			t.Errorf("winner = %v, want red (player 22 scored higher)", result.Winner)
		}
	})

	t.Run("three players is ambiguous", func(t *testing.T) {
		g := &repository.Game{
			ID:       5,
			TeamType: domain.TeamTypeHeadToHead,
			Scores: []repository.GameScore{
				verifiedScore(1, 100000, domain.TeamNone),
				verifiedScore(2, 200000, domain.TeamNone),
				verifiedScore(3, 300000, domain.TeamNone),
			},
		}
		if _, err := ResolveGame(g); !errors.Is(err, ErrAmbiguousRoster) {
			t.Fatalf("expected ErrAmbiguousRoster, got: %v", err)
		}
	})

	t.Run("no usable scores", func(t *testing.T) {
		g := &repository.Game{ID: 6, TeamType: domain.TeamTypeHeadToHead}
		if _, err := ResolveGame(g); !errors.Is(err, ErrNoUsableScores) {
			t.Fatalf("expected ErrNoUsableScores, got: %v", err)
		}
	})
}

func verifiedGame(id uint64, blueScore, redScore int64) repository.Game {
	return repository.Game{
		ID:                 id,
		TeamType:           domain.TeamTypeTeamVs,
		VerificationStatus: domain.VerificationVerified,
		Scores: []repository.GameScore{
			verifiedScore(10, blueScore, domain.TeamBlue),
			verifiedScore(20, redScore, domain.TeamRed),
		},
	}
}

func TestResolveMatch(t *testing.T) {
	m := &repository.Match{
		ID: 100,
		Games: []repository.Game{
			verifiedGame(1, 400000, 300000), // blue
			verifiedGame(2, 200000, 500000), // red
			verifiedGame(3, 450000, 100000), // blue
			verifiedGame(4, 250000, 250000), // tie: 포인트에서 제외
			{ID: 5, TeamType: domain.TeamTypeTeamVs, Scores: []repository.GameScore{
				verifiedScore(10, 999999, domain.TeamBlue),
				verifiedScore(20, 1, domain.TeamRed),
			}}, // 미검증 게임: 무시
		},
	}

	result, err := ResolveMatch(m)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Winner != domain.TeamBlue {
		t.Errorf("winner = %v, want blue (2-1)", result.Winner)
	}
	if len(result.Games) != 3 {
		t.Errorf("resolved games = %d, want 3", len(result.Games))
	}
	if len(result.TiedGames) != 1 || result.TiedGames[0] != 4 {
		t.Errorf("tied games = %v, want [4]", result.TiedGames)
	}
	if len(result.Rosters) != 2 {
		t.Fatalf("expected 2 match rosters, got %d", len(result.Rosters))
	}
	if result.Rosters[0].Score != 2 || result.Rosters[1].Score != 1 {
		t.Errorf("points = %d/%d, want 2/1", result.Rosters[0].Score, result.Rosters[1].Score)
	}
}

// 게임 사이에 진영을 옮긴 플레이어는 해석을 막지 않되 경고로 표시된다.
func TestResolveMatch_OverlappingRosters(t *testing.T) {
	m := &repository.Match{
		ID: 104,
		Games: []repository.Game{
			verifiedGame(1, 400000, 300000),
			verifiedGame(2, 450000, 100000),
			{
				ID:                 3,
				TeamType:           domain.TeamTypeTeamVs,
				VerificationStatus: domain.VerificationVerified,
				Scores: []repository.GameScore{
					verifiedScore(20, 500000, domain.TeamBlue), // 20번이 Red에서 Blue로 넘어왔다
					verifiedScore(30, 200000, domain.TeamRed),
				},
			},
		},
	}

	result, err := ResolveMatch(m)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !result.OverlappingRosters {
		t.Error("player on both sides not flagged")
	}
	// 양쪽 로스터 모두에 포함된 채로 남는다. 어느 쪽이 진짜인지 여기서 고르지 않는다.
	if !result.Rosters[0].Roster.Contains(20) || !result.Rosters[1].Roster.Contains(20) {
		t.Errorf("rosters = %v / %v, want player 20 on both", result.Rosters[0].Roster, result.Rosters[1].Roster)
	}

	clean, err := ResolveMatch(&repository.Match{
		ID:    105,
		Games: []repository.Game{verifiedGame(1, 400000, 300000)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if clean.OverlappingRosters {
		t.Error("disjoint rosters flagged as overlapping")
	}
}

func TestResolveMatch_OverallTie(t *testing.T) {
	m := &repository.Match{
		ID: 101,
		Games: []repository.Game{
			verifiedGame(1, 400000, 300000),
			verifiedGame(2, 200000, 500000),
		},
	}
	if _, err := ResolveMatch(m); !errors.Is(err, ErrTiedScores) {
		t.Fatalf("expected ErrTiedScores, got: %v", err)
	}
}

func TestResolveMatch_NoResolvableGames(t *testing.T) {
	m := &repository.Match{
		ID: 102,
		Games: []repository.Game{
			{ID: 1, TeamType: domain.TeamTypeTeamVs}, // 미검증
		},
	}
	if _, err := ResolveMatch(m); !errors.Is(err, ErrNoUsableScores) {
		t.Fatalf("expected ErrNoUsableScores, got: %v", err)
	}
}

func TestResolveMatch_Deterministic(t *testing.T) {
	m := &repository.Match{
		ID: 103,
		Games: []repository.Game{
			verifiedGame(1, 400000, 300000),
			verifiedGame(2, 450000, 100000),
			verifiedGame(3, 200000, 500000),
		},
	}
	first, err := ResolveMatch(m)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ResolveMatch(m)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different results:\n%+v\n%+v", first, second)
	}
}
