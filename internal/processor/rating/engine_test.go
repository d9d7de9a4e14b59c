package rating

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

func newTestEngine(t *testing.T) (*Engine, *repository.Repository) {
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
	tuning := DefaultTuning()
	return NewEngine(repo, NewOnlinePolicy(tuning), tuning, logger), repo
}

// seedOneVsOne: 검증 완료된 1v1 매치 하나를 만든다. 승자는 플레이어 A(점수 600k vs 200k).
func seedOneVsOne(t *testing.T, repo *repository.Repository, matchOsuID int64, start time.Time) (matchID, playerA, playerB uint64) {
	t.Helper()
	ctx := context.Background()

	players, err := repo.EnsurePlayers(ctx, []int64{matchOsuID*10 + 1, matchOsuID*10 + 2})
	if err != nil {
		t.Fatal(err)
	}
	playerA = players[matchOsuID*10+1]
	playerB = players[matchOsuID*10+2]

	tn := &repository.Tournament{
		Name:               "Engine Cup",
		Ruleset:            domain.RulesetOsu,
		LobbySize:          1,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := repo.CreateTournament(ctx, tn); err != nil {
		t.Fatal(err)
	}
	end := start.Add(30 * time.Minute)
	m := &repository.Match{
		OsuID:              matchOsuID,
		TournamentID:       tn.ID,
		StartTime:          &start,
		EndTime:            &end,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	g := &repository.Game{
		OsuID:              matchOsuID * 100,
		MatchID:            m.ID,
		Ruleset:            domain.RulesetOsu,
		TeamType:           domain.TeamTypeHeadToHead,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := repo.CreateGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	for playerID, points := range map[uint64]int64{playerA: 600000, playerB: 200000} {
		sc := &repository.GameScore{
			GameID:             g.ID,
			PlayerID:           playerID,
			Score:              points,
			Count300:           100,
			VerificationStatus: domain.VerificationVerified,
		}
		if err := repo.CreateGameScore(ctx, sc); err != nil {
			t.Fatal(err)
		}
	}
	return m.ID, playerA, playerB
}

func TestProcessRuleset_OneVsOne(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()
	start := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)
	matchID, playerA, playerB := seedOneVsOne(t, repo, 5, start)

	report, err := engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if report.Processed != 1 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("report = %+v, want 1 processed", report)
	}
	if len(report.Tournaments) != 1 {
		t.Errorf("tournaments = %v, want one entry", report.Tournaments)
	}

	prA, err := repo.GetPlayerRating(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	prB, err := repo.GetPlayerRating(ctx, playerB, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if prA == nil || prB == nil {
		t.Fatal("expected ratings seeded for both players")
	}

	// 동일 시드(1500/200)의 1v1: 기대 승률 0.5, K = 200/4 = 50.
	// 승자 매치 코스트 1.5(클램프 상한), 패자 0.5(하한).
	if !almostEqual(prA.Rating, 1500+50*1.5*0.5) {
		t.Errorf("winner rating = %f, want 1537.5", prA.Rating)
	}
	if !almostEqual(prB.Rating, 1500-50*0.5*0.5) {
		t.Errorf("loser rating = %f, want 1487.5", prB.Rating)
	}
	if prA.Rating <= prB.Rating {
		t.Error("winner must end above loser")
	}
	// 반영 후 변동성은 수축한다.
	if prA.Volatility >= 200 {
		t.Errorf("volatility = %f, want contracted below 200", prA.Volatility)
	}

	adjA, err := repo.ListAdjustmentsByPlayer(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if len(adjA) != 1 {
		t.Fatalf("expected 1 adjustment, got %d", len(adjA))
	}
	if adjA[0].RatingDelta() <= 0 {
		t.Errorf("winner delta = %f, want positive", adjA[0].RatingDelta())
	}
	if !adjA[0].Timestamp.Equal(start) {
		t.Errorf("adjustment timestamp = %v, want match start %v", adjA[0].Timestamp, start)
	}
	adjB, err := repo.ListAdjustmentsByPlayer(ctx, playerB, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if adjB[0].RatingDelta() >= 0 {
		t.Errorf("loser delta = %f, want negative", adjB[0].RatingDelta())
	}

	// 매치 상태와 워터마크가 전진한다.
	m, err := repo.GetMatch(ctx, matchID)
	if err != nil {
		t.Fatal(err)
	}
	if m.ProcessingStatus != domain.ProcessingStatusProcessed {
		t.Errorf("processing = %v, want processed", m.ProcessingStatus)
	}
	if len(m.Rosters) != 2 {
		t.Errorf("expected 2 match rosters persisted, got %d", len(m.Rosters))
	}
	wm, err := repo.GetWatermark(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if !wm.Equal(start) {
		t.Errorf("watermark = %v, want %v", wm, start)
	}

	// 두 번째 실행은 워터마크 뒤라 아무것도 하지 않는다.
	report, err = engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if report.Processed != 0 || report.Skipped != 0 {
		t.Errorf("second run report = %+v, want empty", report)
	}
}

func TestProcessRuleset_ReplayIsNoop(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()
	start := time.Date(2024, 7, 2, 18, 0, 0, 0, time.UTC)
	matchID, playerA, _ := seedOneVsOne(t, repo, 6, start)

	if _, err := engine.ProcessRuleset(ctx, domain.RulesetOsu); err != nil {
		t.Fatal(err)
	}
	before, err := repo.GetPlayerRating(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}

	// 워터마크 유실 + 매치 상태 되감기를 흉내 내 같은 매치를 다시 돌린다.
	if err := repo.DB().Exec("DELETE FROM processing_watermarks").Error; err != nil {
		t.Fatal(err)
	}
	if err := repo.SetMatchProcessing(ctx, matchID, domain.ProcessingStatusNotProcessed, time.Now()); err != nil {
		t.Fatal(err)
	}

	report, err := engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	// 조정이 이미 존재하므로 매치는 건너뛴 것으로 집계된다.
	if report.Skipped != 1 || report.Processed != 0 {
		t.Errorf("replay report = %+v, want 1 skipped", report)
	}

	after, err := repo.GetPlayerRating(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if after.Rating != before.Rating || after.Volatility != before.Volatility {
		t.Errorf("rating moved on replay: %f/%f -> %f/%f",
			before.Rating, before.Volatility, after.Rating, after.Volatility)
	}
	adj, err := repo.ListAdjustmentsByPlayer(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if len(adj) != 1 {
		t.Errorf("expected single adjustment after replay, got %d", len(adj))
	}
}

// 실행이 중간에 죽어 매치가 Processing 상태로 남아도 다음 배치가 집어간다.
func TestProcessRuleset_ResumesInterruptedMatch(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()
	start := time.Date(2024, 7, 3, 18, 0, 0, 0, time.UTC)
	matchID, playerA, _ := seedOneVsOne(t, repo, 7, start)

	// 조정 커밋 전에 중단된 실행을 흉내 낸다.
	if err := repo.SetMatchProcessing(ctx, matchID, domain.ProcessingStatusProcessing, time.Now()); err != nil {
		t.Fatal(err)
	}

	report, err := engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("report = %+v, want 1 processed", report)
	}
	m, err := repo.GetMatch(ctx, matchID)
	if err != nil {
		t.Fatal(err)
	}
	if m.ProcessingStatus != domain.ProcessingStatusProcessed {
		t.Errorf("status = %s, want processed", m.ProcessingStatus)
	}
	pr, err := repo.GetPlayerRating(ctx, playerA, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if pr == nil || pr.Rating <= 1500 {
		t.Fatalf("winner rating not applied after resume: %+v", pr)
	}

	// 조정 커밋 후 상태 갱신 전에 중단된 경우: 재실행은 건너뛰되 상태는 복구된다.
	if err := repo.DB().Exec("DELETE FROM processing_watermarks").Error; err != nil {
		t.Fatal(err)
	}
	if err := repo.SetMatchProcessing(ctx, matchID, domain.ProcessingStatusProcessing, time.Now()); err != nil {
		t.Fatal(err)
	}
	report, err = engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if report.Skipped != 1 || report.Processed != 0 {
		t.Errorf("report = %+v, want 1 skipped", report)
	}
	m, err = repo.GetMatch(ctx, matchID)
	if err != nil {
		t.Fatal(err)
	}
	if m.ProcessingStatus != domain.ProcessingStatusProcessed {
		t.Errorf("status after skip = %s, want processed", m.ProcessingStatus)
	}
}

func TestProcessRuleset_TiedMatchFails(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	tn := &repository.Tournament{
		Name:               "Tie Cup",
		Ruleset:            domain.RulesetOsu,
		LobbySize:          1,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := repo.CreateTournament(ctx, tn); err != nil {
		t.Fatal(err)
	}
	players, err := repo.EnsurePlayers(ctx, []int64{901, 902})
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, 7, 3, 18, 0, 0, 0, time.UTC)
	m := &repository.Match{
		OsuID:              7000,
		TournamentID:       tn.ID,
		StartTime:          &start,
		VerificationStatus: domain.VerificationVerified,
	}
	if err := repo.CreateMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	// 두 게임을 한 게임씩 나눠 가지면 매치 전체가 동점이 된다.
	winners := []uint64{players[901], players[902]}
	for i := 0; i < 2; i++ {
		g := &repository.Game{
			OsuID:              7001 + int64(i),
			MatchID:            m.ID,
			Ruleset:            domain.RulesetOsu,
			TeamType:           domain.TeamTypeHeadToHead,
			VerificationStatus: domain.VerificationVerified,
		}
		if err := repo.CreateGame(ctx, g); err != nil {
			t.Fatal(err)
		}
		for _, playerID := range winners {
			points := int64(200000)
			if playerID == winners[i] {
				points = 500000
			}
			sc := &repository.GameScore{
				GameID:             g.ID,
				PlayerID:           playerID,
				Score:              points,
				VerificationStatus: domain.VerificationVerified,
			}
			if err := repo.CreateGameScore(ctx, sc); err != nil {
				t.Fatal(err)
			}
		}
	}

	report, err := engine.ProcessRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("report = %+v, want 1 failed", report)
	}

	got, err := repo.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProcessingStatus != domain.ProcessingStatusFailed {
		t.Errorf("processing = %v, want failed (operator review)", got.ProcessingStatus)
	}
	if !got.WarningFlags.Has(domain.WarningTiedGame) {
		t.Errorf("flags = %v, want tied_game", got.WarningFlags)
	}
	// 동점 매치는 레이팅을 건드리지 않는다.
	pr, err := repo.GetPlayerRating(ctx, players[901], domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if pr != nil {
		t.Error("tied match must not seed or move ratings")
	}
}

func TestDecaySweep(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()
	p := &repository.Player{OsuID: 911, Country: "KR"}
	if err := repo.CreatePlayer(ctx, p); err != nil {
		t.Fatal(err)
	}
	pr := &repository.PlayerRating{PlayerID: p.ID, Ruleset: domain.RulesetOsu, Rating: 1500, Volatility: 200}
	if err := repo.CreatePlayerRating(ctx, pr); err != nil {
		t.Fatal(err)
	}
	// 바닥 아래에 있는 플레이어는 감쇠 대상이 아니다.
	low := &repository.Player{OsuID: 912, Country: "KR"}
	if err := repo.CreatePlayer(ctx, low); err != nil {
		t.Fatal(err)
	}
	lowRating := &repository.PlayerRating{PlayerID: low.ID, Ruleset: domain.RulesetOsu, Rating: 800, Volatility: 200}
	if err := repo.CreatePlayerRating(ctx, lowRating); err != nil {
		t.Fatal(err)
	}

	// 시계를 비활성 기준 너머로 옮긴다.
	future := time.Now().Add(200 * 24 * time.Hour)
	engine.now = func() time.Time { return future }

	decayed, err := engine.DecaySweep(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if decayed != 1 {
		t.Fatalf("decayed = %d, want 1", decayed)
	}

	got, err := repo.GetPlayerRating(ctx, p.ID, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Rating, 1475) {
		t.Errorf("rating = %f, want 1475 (one decay step)", got.Rating)
	}
	wantVol := math.Sqrt(200*200 + 15*15)
	if !almostEqual(got.Volatility, wantVol) {
		t.Errorf("volatility = %f, want %f", got.Volatility, wantVol)
	}

	adj, err := repo.ListAdjustmentsByPlayer(ctx, p.ID, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if len(adj) != 1 || adj[0].AdjustmentType != domain.AdjustmentDecay {
		t.Fatalf("expected single decay adjustment, got %+v", adj)
	}
	if adj[0].MatchID != nil {
		t.Error("decay adjustment must not reference a match")
	}

	// 방금 감쇠된 플레이어는 새 조정이 최근 활동으로 잡혀 다시 깎이지 않는다.
	decayed, err = engine.DecaySweep(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if decayed != 0 {
		t.Errorf("second sweep decayed = %d, want 0", decayed)
	}

	gotLow, err := repo.GetPlayerRating(ctx, low.ID, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if gotLow.Rating != 800 {
		t.Errorf("below-floor rating = %f, want untouched 800", gotLow.Rating)
	}
}

func TestRecomputeRanks(t *testing.T) {
	engine, repo := newTestEngine(t)
	ctx := context.Background()

	type seed struct {
		osuID   int64
		country string
		rating  float64
	}
	seeds := []seed{
		{921, "US", 1600},
		{922, "KR", 1550},
		{923, "US", 1500},
	}
	playerIDs := make([]uint64, len(seeds))
	ratingIDs := make([]uint64, len(seeds))
	for i, sd := range seeds {
		p := &repository.Player{OsuID: sd.osuID, Country: sd.country}
		if err := repo.CreatePlayer(ctx, p); err != nil {
			t.Fatal(err)
		}
		pr := &repository.PlayerRating{PlayerID: p.ID, Ruleset: domain.RulesetOsu, Rating: sd.rating, Volatility: 150}
		if err := repo.CreatePlayerRating(ctx, pr); err != nil {
			t.Fatal(err)
		}
		playerIDs[i] = p.ID
		ratingIDs[i] = pr.ID
	}

	// 선두 플레이어에게 이번 배치에서 생긴 조정이 있다고 가정한다.
	since := time.Now().Add(-time.Minute)
	adj := &repository.RatingAdjustment{
		PlayerRatingID: ratingIDs[0],
		PlayerID:       playerIDs[0],
		Ruleset:        domain.RulesetOsu,
		AdjustmentType: domain.AdjustmentDecay,
		Timestamp:      time.Now(),
		RatingBefore:   1580,
		RatingAfter:    1600,
	}
	if err := repo.CreateAdjustment(ctx, adj); err != nil {
		t.Fatal(err)
	}

	if err := engine.RecomputeRanks(ctx, domain.RulesetOsu, since); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	rows, err := repo.ListRatingsByRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rating rows, got %d", len(rows))
	}
	wantGlobal := []int32{1, 2, 3}
	wantCountry := []int32{1, 1, 2} // US 1위, KR 1위, US 2위
	wantPercentile := []float64{100, 100 * 2.0 / 3.0, 100 * 1.0 / 3.0}
	for i := range rows {
		if rows[i].GlobalRank != wantGlobal[i] {
			t.Errorf("row %d global = %d, want %d", i, rows[i].GlobalRank, wantGlobal[i])
		}
		if rows[i].CountryRank != wantCountry[i] {
			t.Errorf("row %d country = %d, want %d", i, rows[i].CountryRank, wantCountry[i])
		}
		if !almostEqual(rows[i].Percentile, wantPercentile[i]) {
			t.Errorf("row %d percentile = %f, want %f", i, rows[i].Percentile, wantPercentile[i])
		}
	}

	// 최고 랭크가 기록된다.
	highest, err := repo.GetHighestRanks(ctx, playerIDs[0], domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if highest == nil || highest.GlobalRank != 1 {
		t.Fatalf("highest = %+v, want global 1", highest)
	}

	// 배치 이후 조정 행에 전/후 랭크가 덧붙는다. (전 값은 재계산 이전의 0)
	got, err := repo.ListAdjustmentsByPlayer(ctx, playerIDs[0], domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].GlobalRankBefore != 0 || got[0].GlobalRankAfter != 1 {
		t.Errorf("adjustment ranks = %d -> %d, want 0 -> 1", got[0].GlobalRankBefore, got[0].GlobalRankAfter)
	}

	// 변화가 없으면 재실행해도 결과가 같다.
	if err := engine.RecomputeRanks(ctx, domain.RulesetOsu, time.Now()); err != nil {
		t.Fatal(err)
	}
	again, err := repo.ListRatingsByRuleset(ctx, domain.RulesetOsu)
	if err != nil {
		t.Fatal(err)
	}
	for i := range again {
		if again[i].GlobalRank != rows[i].GlobalRank || !almostEqual(again[i].Percentile, rows[i].Percentile) {
			t.Errorf("rerun changed row %d: %+v vs %+v", i, again[i], rows[i])
		}
	}
}
