package verification

import (
	"context"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

const (
	// scoreMinimum: 이 값 미만의 점수는 중도 퇴장/미참여로 간주하여 거부한다.
	scoreMinimum int64 = 1000
	// shortMatchGameCount: 유효 게임 수가 이보다 적으면 ShortMatch 경고를 단다.
	shortMatchGameCount = 3
)

// ScreenTournament: 토너먼트 소속의 대기 중 매치 트리를 자동 심사한다.
// 하드 실패는 RejectionReason으로 거부하고, 소프트 이상은 WarningFlags로만 표시한 뒤
// 통과한 매치/게임/스코어를 Verified로 승격한다. 토너먼트 자체의 승인은 관리자 몫이다.
func (s *Service) ScreenTournament(ctx context.Context, tournamentID uint64) error {
	t, err := s.repo.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	matches, err := s.repo.ListPendingMatches(ctx, tournamentID)
	if err != nil {
		return err
	}
	for i := range matches {
		if err := s.screenMatch(ctx, t, &matches[i]); err != nil {
			return err
		}
	}
	s.logger.Info("tournament_screened", "tournament_id", tournamentID, "pending_matches", len(matches))
	return nil
}

func (s *Service) screenMatch(ctx context.Context, t *repository.Tournament, m *repository.Match) error {
	if m.EndTime == nil {
		return s.RejectMatch(ctx, m.ID, domain.RejectionNoEndTime, nil)
	}
	if len(m.Games) == 0 {
		return s.RejectMatch(ctx, m.ID, domain.RejectionNoGames, nil)
	}

	usable := 0
	for i := range m.Games {
		ok, err := s.screenGame(ctx, t, &m.Games[i])
		if err != nil {
			return err
		}
		if ok {
			usable++
		}
	}
	if usable == 0 {
		return s.RejectMatch(ctx, m.ID, domain.RejectionNoValidScores, nil)
	}

	if usable < len(m.Games) {
		if err := s.repo.AddMatchWarning(ctx, m.ID, domain.WarningUnexpectedGameCount); err != nil {
			return err
		}
	}
	if usable < shortMatchGameCount {
		if err := s.repo.AddMatchWarning(ctx, m.ID, domain.WarningShortMatch); err != nil {
			return err
		}
	}
	if rosterMismatch(t, m.Games) {
		if err := s.repo.AddMatchWarning(ctx, m.ID, domain.WarningRosterSizeMismatch); err != nil {
			return err
		}
	}
	return s.VerifyMatch(ctx, m.ID, nil)
}

// screenGame: 게임을 심사하고 레이팅 처리에 쓸 수 있는지를 반환한다.
func (s *Service) screenGame(ctx context.Context, t *repository.Tournament, g *repository.Game) (bool, error) {
	if g.VerificationStatus.Terminal() {
		return g.VerificationStatus == domain.VerificationVerified, nil
	}
	if g.Ruleset != t.Ruleset {
		if err := s.RejectGame(ctx, g.ID, domain.RejectionRulesetMismatch, nil); err != nil {
			return false, err
		}
		return false, nil
	}

	verified := 0
	rejected := 0
	byTeam := map[domain.Team]int{}
	for i := range g.Scores {
		sc := &g.Scores[i]
		if sc.VerificationStatus.Terminal() {
			if sc.VerificationStatus == domain.VerificationVerified {
				verified++
				byTeam[sc.Team]++
			} else {
				rejected++
			}
			continue
		}
		if sc.Score < scoreMinimum {
			if err := s.RejectScore(ctx, sc.ID, domain.RejectionBelowScoreMinimum, nil); err != nil {
				return false, err
			}
			rejected++
			continue
		}
		if err := s.VerifyScore(ctx, sc.ID, nil); err != nil {
			return false, err
		}
		verified++
		byTeam[sc.Team]++
	}

	if verified == 0 {
		if err := s.RejectGame(ctx, g.ID, domain.RejectionNoValidScores, nil); err != nil {
			return false, err
		}
		return false, nil
	}
	// 팀전인데 한쪽 진영의 유효 스코어가 전무하면 결과를 낼 수 없다.
	if g.TeamType.Teamed() && (byTeam[domain.TeamBlue] == 0 || byTeam[domain.TeamRed] == 0) {
		if err := s.RejectGame(ctx, g.ID, domain.RejectionInvalidRosterSize, nil); err != nil {
			return false, err
		}
		return false, nil
	}

	if rejected > 0 {
		if err := s.repo.AddGameWarning(ctx, g.ID, domain.WarningExcludedScores); err != nil {
			return false, err
		}
	}
	if err := s.VerifyGame(ctx, g.ID, nil); err != nil {
		return false, err
	}
	return true, nil
}

// rosterMismatch: 유효 게임의 진영 인원이 토너먼트 로비 규격(진영당 LobbySize명)과
// 어긋나는지 검사한다. 막는 조건이 아니라 경고 표시용이다.
func rosterMismatch(t *repository.Tournament, games []repository.Game) bool {
	for i := range games {
		g := &games[i]
		byTeam := map[domain.Team]int{}
		total := 0
		for j := range g.Scores {
			sc := &g.Scores[j]
			if sc.VerificationStatus == domain.VerificationRejected || sc.Score < scoreMinimum {
				continue
			}
			byTeam[sc.Team]++
			total++
		}
		if total == 0 {
			continue
		}
		if g.TeamType.Teamed() {
			if byTeam[domain.TeamBlue] != t.LobbySize || byTeam[domain.TeamRed] != t.LobbySize {
				return true
			}
		} else if total != 2*t.LobbySize {
			return true
		}
	}
	return false
}
