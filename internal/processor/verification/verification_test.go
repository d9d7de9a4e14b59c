package verification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

func newTestService(t *testing.T) (*Service, *repository.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	repo := repository.New(db)
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, audit.NewRecorder(logger), logger), repo
}

func createTournament(t *testing.T, repo *repository.Repository, ruleset domain.Ruleset, lobbySize int) *repository.Tournament {
	t.Helper()
	tn := &repository.Tournament{Name: "Test Cup", Ruleset: ruleset, LobbySize: lobbySize}
	if err := repo.CreateTournament(context.Background(), tn); err != nil {
		t.Fatal(err)
	}
	return tn
}

func TestTournamentTransitions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	actor := uint64(42)

	t.Run("verify from pending", func(t *testing.T) {
		tn := createTournament(t, repo, domain.RulesetOsu, 1)
		if err := svc.VerifyTournament(ctx, tn.ID, &actor); err != nil {
			t.Fatalf("verify failed: %v", err)
		}
		got, err := repo.GetTournament(ctx, tn.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.VerificationStatus != domain.VerificationVerified {
			t.Errorf("status = %v, want verified", got.VerificationStatus)
		}
		if got.VerifiedByUserID == nil || *got.VerifiedByUserID != actor {
			t.Errorf("verified_by = %v, want %d", got.VerifiedByUserID, actor)
		}

		audits, err := repo.ListTournamentAudits(ctx, tn.AuditLock)
		if err != nil {
			t.Fatal(err)
		}
		if len(audits) != 1 {
			t.Fatalf("expected 1 audit row, got %d", len(audits))
		}
		if audits[0].Changes == nil {
			t.Error("expected change payload on audit row")
		}

		// 재검증은 no-op이며 감사 행도 추가되지 않는다.
		if err := svc.VerifyTournament(ctx, tn.ID, &actor); err != nil {
			t.Fatalf("repeat verify failed: %v", err)
		}
		audits, err = repo.ListTournamentAudits(ctx, tn.AuditLock)
		if err != nil {
			t.Fatal(err)
		}
		if len(audits) != 1 {
			t.Errorf("expected audit rows unchanged on no-op, got %d", len(audits))
		}
	})

	t.Run("reject is idempotent per reason", func(t *testing.T) {
		tn := createTournament(t, repo, domain.RulesetOsu, 1)
		if err := svc.RejectTournament(ctx, tn.ID, domain.RejectionRejectedByAdmin, &actor); err != nil {
			t.Fatalf("reject failed: %v", err)
		}
		if err := svc.RejectTournament(ctx, tn.ID, domain.RejectionRejectedByAdmin, &actor); err != nil {
			t.Fatalf("same-reason re-reject should be no-op: %v", err)
		}

		var terr cerrors.TransitionError
		err := svc.RejectTournament(ctx, tn.ID, domain.RejectionNoGames, &actor)
		if !errors.As(err, &terr) {
			t.Fatalf("expected TransitionError for different reason, got: %v", err)
		}
	})

	t.Run("verify after reject is a violation", func(t *testing.T) {
		tn := createTournament(t, repo, domain.RulesetOsu, 1)
		if err := svc.RejectTournament(ctx, tn.ID, domain.RejectionRejectedByAdmin, &actor); err != nil {
			t.Fatal(err)
		}
		var terr cerrors.TransitionError
		if err := svc.VerifyTournament(ctx, tn.ID, &actor); !errors.As(err, &terr) {
			t.Fatalf("expected TransitionError, got: %v", err)
		}
	})

	t.Run("reopen resets rejection", func(t *testing.T) {
		tn := createTournament(t, repo, domain.RulesetOsu, 1)
		if err := svc.RejectTournament(ctx, tn.ID, domain.RejectionRejectedByAdmin, &actor); err != nil {
			t.Fatal(err)
		}
		if err := svc.ReopenTournament(ctx, tn.ID, &actor); err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		got, err := repo.GetTournament(ctx, tn.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.VerificationStatus != domain.VerificationPending {
			t.Errorf("status = %v, want pending", got.VerificationStatus)
		}
		if got.RejectionReason != domain.RejectionNone {
			t.Errorf("reason = %v, want none", got.RejectionReason)
		}
		if got.ProcessingStatus != domain.ProcessingStatusNotProcessed {
			t.Errorf("processing = %v, want not_processed", got.ProcessingStatus)
		}

		// 재심사 후 다시 검증할 수 있다.
		if err := svc.VerifyTournament(ctx, tn.ID, &actor); err != nil {
			t.Fatalf("verify after reopen failed: %v", err)
		}
	})

	t.Run("reopen on pending is noop", func(t *testing.T) {
		tn := createTournament(t, repo, domain.RulesetOsu, 1)
		if err := svc.ReopenTournament(ctx, tn.ID, &actor); err != nil {
			t.Fatalf("reopen on pending should be no-op: %v", err)
		}
	})
}

func TestScoreTransitions(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tn := createTournament(t, repo, domain.RulesetOsu, 1)
	m := &repository.Match{OsuID: 10, TournamentID: tn.ID}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	g := &repository.Game{OsuID: 11, MatchID: m.ID, Ruleset: domain.RulesetOsu}
	if err := repo.CreateGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	players, err := repo.EnsurePlayers(ctx, []int64{501})
	if err != nil {
		t.Fatal(err)
	}
	sc := &repository.GameScore{GameID: g.ID, PlayerID: players[501], Score: 200000}
	if err := repo.CreateGameScore(ctx, sc); err != nil {
		t.Fatal(err)
	}

	if err := svc.RejectScore(ctx, sc.ID, domain.RejectionBelowScoreMinimum, nil); err != nil {
		t.Fatalf("reject score failed: %v", err)
	}
	got, err := repo.GetGameScore(ctx, sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.VerificationStatus != domain.VerificationRejected || got.RejectionReason != domain.RejectionBelowScoreMinimum {
		t.Errorf("score = %v/%v, want rejected/below_score_minimum", got.VerificationStatus, got.RejectionReason)
	}

	if err := svc.ReopenScore(ctx, sc.ID, nil); err != nil {
		t.Fatalf("reopen score failed: %v", err)
	}
	if err := svc.VerifyScore(ctx, sc.ID, nil); err != nil {
		t.Fatalf("verify after reopen failed: %v", err)
	}

	audits, err := repo.ListGameScoreAudits(ctx, sc.AuditLock)
	if err != nil {
		t.Fatal(err)
	}
	if len(audits) != 3 {
		t.Errorf("expected 3 audit rows (reject/reopen/verify), got %d", len(audits))
	}
}

func TestMatchReopen_ResetsProcessing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tn := createTournament(t, repo, domain.RulesetOsu, 1)
	m := &repository.Match{OsuID: 20, TournamentID: tn.ID}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	if err := svc.VerifyMatch(ctx, m.ID, nil); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetMatchProcessing(ctx, m.ID, domain.ProcessingStatusProcessed, time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := svc.ReopenMatch(ctx, m.ID, nil); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := repo.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.VerificationStatus != domain.VerificationPending {
		t.Errorf("status = %v, want pending", got.VerificationStatus)
	}
	if got.ProcessingStatus != domain.ProcessingStatusNotProcessed {
		t.Errorf("processing = %v, want not_processed (reopen must re-queue the match)", got.ProcessingStatus)
	}
}

// 매치 거부는 상태 전이일 뿐 하위 게임/스코어를 지우지 않는다.
// 운영자가 매치를 되살리면 하위 계층도 그대로 다시 심사할 수 있어야 한다.
func TestMatchReject_KeepsChildren(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tn := createTournament(t, repo, domain.RulesetOsu, 1)
	m := &repository.Match{OsuID: 30, TournamentID: tn.ID}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	g := &repository.Game{OsuID: 31, MatchID: m.ID, Ruleset: domain.RulesetOsu}
	if err := repo.CreateGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	players, err := repo.EnsurePlayers(ctx, []int64{601})
	if err != nil {
		t.Fatal(err)
	}
	sc := &repository.GameScore{GameID: g.ID, PlayerID: players[601], Score: 300000}
	if err := repo.CreateGameScore(ctx, sc); err != nil {
		t.Fatal(err)
	}

	if err := svc.RejectMatch(ctx, m.ID, domain.RejectionNoValidScores, nil); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	gotGame, err := repo.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("game row gone after match reject: %v", err)
	}
	gotScore, err := repo.GetGameScore(ctx, sc.ID)
	if err != nil {
		t.Fatalf("score row gone after match reject: %v", err)
	}
	if gotGame.ID != g.ID || gotScore.ID != sc.ID {
		t.Error("child rows do not match the originals")
	}

	// 되살린 뒤 하위 계층이 그대로 재심사 가능해야 한다.
	if err := svc.ReopenMatch(ctx, m.ID, nil); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if err := svc.VerifyGame(ctx, g.ID, nil); err != nil {
		t.Fatalf("verify game after reopen failed: %v", err)
	}
	if err := svc.VerifyScore(ctx, sc.ID, nil); err != nil {
		t.Fatalf("verify score after reopen failed: %v", err)
	}
	gotGame, err = repo.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if gotGame.VerificationStatus != domain.VerificationVerified {
		t.Errorf("game status = %v, want verified", gotGame.VerificationStatus)
	}
}
