package verification

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// 제출 페이로드. 업스트림 수집기가 게임 클라이언트 API에서 긁어온 원본 매치 데이터를
// 이 형태로 넘긴다. 전부 Pending 상태로 적재되며 이후 스크리닝이 심사한다.
type (
	TournamentSubmission struct {
		Name                string            `validate:"required,max=512"`
		Abbreviation        string            `validate:"max=32"`
		Ruleset             domain.Ruleset    `validate:"gte=0,lte=3"`
		RankRangeLowerBound int               `validate:"gte=1"`
		LobbySize           int               `validate:"required,gte=1,lte=8"`
		SubmitterOsuID      *int64            `validate:"omitempty,gt=0"`
		Matches             []MatchSubmission `validate:"required,min=1,dive"`
	}

	MatchSubmission struct {
		OsuID     int64  `validate:"required,gt=0"`
		Name      string `validate:"max=512"`
		StartTime *time.Time
		EndTime   *time.Time
		Games     []GameSubmission `validate:"dive"`
	}

	GameSubmission struct {
		OsuID        int64 `validate:"required,gt=0"`
		BeatmapOsuID *int64
		Ruleset      domain.Ruleset     `validate:"gte=0,lte=3"`
		ScoringType  domain.ScoringType `validate:"gte=0"`
		TeamType     domain.TeamType    `validate:"gte=0,lte=3"`
		Mods         domain.Mods
		StartTime    *time.Time
		EndTime      *time.Time
		Scores       []ScoreSubmission `validate:"required,min=1,dive"`
	}

	ScoreSubmission struct {
		PlayerOsuID int64 `validate:"required,gt=0"`
		Score       int64 `validate:"gte=0"`
		Placement   int   `validate:"gte=0"`
		MaxCombo    int   `validate:"gte=0"`
		Count50     int   `validate:"gte=0"`
		Count100    int   `validate:"gte=0"`
		Count300    int   `validate:"gte=0"`
		CountMiss   int   `validate:"gte=0"`
		CountKatu   int   `validate:"gte=0"`
		CountGeki   int   `validate:"gte=0"`
		Grade       domain.Grade
		Mods        domain.Mods
		Team        domain.Team `validate:"gte=0,lte=2"`
	}
)

// SubmitTournament: 제출 페이로드를 검증하고 토너먼트 트리 전체를 Pending으로 적재한다.
// 생성 자체도 감사 대상이므로 각 엔티티에 Created 감사 행을 남긴다.
func (s *Service) SubmitTournament(ctx context.Context, sub TournamentSubmission) (*repository.Tournament, error) {
	if err := s.validate.Struct(sub); err != nil {
		return nil, asValidationError(err)
	}

	osuIDs := make([]int64, 0, 64)
	if sub.SubmitterOsuID != nil {
		osuIDs = append(osuIDs, *sub.SubmitterOsuID)
	}
	for _, m := range sub.Matches {
		for _, g := range m.Games {
			for _, sc := range g.Scores {
				osuIDs = append(osuIDs, sc.PlayerOsuID)
			}
		}
	}
	players, err := s.repo.EnsurePlayers(ctx, osuIDs)
	if err != nil {
		return nil, err
	}

	var created *repository.Tournament
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		t := &repository.Tournament{
			Name:                sub.Name,
			Abbreviation:        sub.Abbreviation,
			Ruleset:             sub.Ruleset,
			RankRangeLowerBound: sub.RankRangeLowerBound,
			LobbySize:           sub.LobbySize,
		}
		if sub.SubmitterOsuID != nil {
			id := players[*sub.SubmitterOsuID]
			t.SubmittedByUserID = &id
		}
		if err := tx.CreateTournament(ctx, t); err != nil {
			return err
		}
		if err := s.recorder.RecordTournament(ctx, tx, t, t.SubmittedByUserID, domain.AuditActionCreated, nil); err != nil {
			return err
		}
		for _, ms := range sub.Matches {
			if err := s.createMatchTree(ctx, tx, t, ms, players); err != nil {
				return err
			}
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("tournament_submitted",
		"tournament_id", created.ID,
		"name", created.Name,
		"matches", len(sub.Matches),
	)
	return created, nil
}

func (s *Service) createMatchTree(
	ctx context.Context,
	tx *repository.Repository,
	t *repository.Tournament,
	ms MatchSubmission,
	players map[int64]uint64,
) error {
	m := &repository.Match{
		OsuID:        ms.OsuID,
		TournamentID: t.ID,
		Name:         ms.Name,
		StartTime:    ms.StartTime,
		EndTime:      ms.EndTime,
	}
	if err := tx.CreateMatch(ctx, m); err != nil {
		return err
	}
	if err := s.recorder.RecordMatch(ctx, tx, m, t.SubmittedByUserID, domain.AuditActionCreated, nil); err != nil {
		return err
	}

	for _, gs := range ms.Games {
		g := &repository.Game{
			OsuID:       gs.OsuID,
			MatchID:     m.ID,
			Ruleset:     gs.Ruleset,
			ScoringType: gs.ScoringType,
			TeamType:    gs.TeamType,
			Mods:        gs.Mods,
			StartTime:   gs.StartTime,
			EndTime:     gs.EndTime,
		}
		if gs.BeatmapOsuID != nil {
			beatmapID, err := tx.EnsureBeatmap(ctx, *gs.BeatmapOsuID)
			if err != nil {
				return err
			}
			g.BeatmapID = &beatmapID
		}
		if err := tx.CreateGame(ctx, g); err != nil {
			return err
		}
		if err := s.recorder.RecordGame(ctx, tx, g, t.SubmittedByUserID, domain.AuditActionCreated, nil); err != nil {
			return err
		}

		for _, ss := range gs.Scores {
			sc := &repository.GameScore{
				GameID:    g.ID,
				PlayerID:  players[ss.PlayerOsuID],
				Score:     ss.Score,
				Placement: ss.Placement,
				MaxCombo:  ss.MaxCombo,
				Count50:   ss.Count50,
				Count100:  ss.Count100,
				Count300:  ss.Count300,
				CountMiss: ss.CountMiss,
				CountKatu: ss.CountKatu,
				CountGeki: ss.CountGeki,
				Grade:     ss.Grade,
				Mods:      ss.Mods,
				Team:      ss.Team,
			}
			if err := tx.CreateGameScore(ctx, sc); err != nil {
				return err
			}
			if err := s.recorder.RecordGameScore(ctx, tx, sc, t.SubmittedByUserID, domain.AuditActionCreated, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// asValidationError: validator의 첫 필드 오류를 도메인 오류로 바꾼다.
func asValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return cerrors.ValidationError{Field: fe.Namespace(), Message: "failed on rule " + fe.Tag()}
	}
	return err
}
