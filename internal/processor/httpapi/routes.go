// Package httpapi: 운영자용 얇은 HTTP 표면. 공개 API가 아니다.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/park285/osu-tournament-stats-go/internal/common/health"
	commonhttputil "github.com/park285/osu-tournament-stats-go/internal/common/httputil"
	"github.com/park285/osu-tournament-stats-go/internal/common/valkeyx"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
	"github.com/park285/osu-tournament-stats-go/internal/processor/pipeline"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// API 에러 코드
const (
	errorInvalidRequest = "INVALID_REQUEST"
	errorInternalError  = "INTERNAL_ERROR"
)

// LeaderboardEntry: 리더보드 항목 DTO
type LeaderboardEntry struct {
	Rank       int32   `json:"rank"`
	PlayerID   uint64  `json:"playerId"`
	Username   string  `json:"username"`
	Country    string  `json:"country"`
	Rating     float64 `json:"rating"`
	Volatility float64 `json:"volatility"`
	Percentile float64 `json:"percentile"`
}

// LeaderboardResponse: 리더보드 응답 DTO
type LeaderboardResponse struct {
	Ruleset string             `json:"ruleset"`
	Total   int                `json:"total"`
	Entries []LeaderboardEntry `json:"entries"`
}

// Deps: 라우트 등록에 필요한 의존성 묶음.
type Deps struct {
	Repo         *repository.Repository
	Orchestrator *pipeline.Orchestrator
	Cache        valkey.Client
	CacheTTL     time.Duration
	Logger       *slog.Logger
}

// Register: 상태/관리/리더보드 라우트를 mux에 등록한다.
func Register(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = commonhttputil.WriteJSON(w, http.StatusOK, health.Get())
	})

	mux.HandleFunc("POST /admin/process", func(w http.ResponseWriter, r *http.Request) {
		report, err := deps.Orchestrator.RunOnce(r.Context())
		if err != nil {
			deps.Logger.Error("manual_pipeline_run_failed", "err", err)
			_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, errorInternalError, "pipeline run failed")
			return
		}
		_ = commonhttputil.WriteJSON(w, http.StatusOK, report)
	})

	mux.HandleFunc("GET /leaderboard", func(w http.ResponseWriter, r *http.Request) {
		ruleset, ok := parseRuleset(r.URL.Query().Get("ruleset"))
		if !ok {
			_ = commonhttputil.WriteErrorJSON(w, http.StatusBadRequest, errorInvalidRequest, "unknown ruleset")
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"))

		resp, err := leaderboard(r.Context(), deps, ruleset, limit)
		if err != nil {
			deps.Logger.Error("leaderboard_failed", "err", err)
			_ = commonhttputil.WriteErrorJSON(w, http.StatusInternalServerError, errorInternalError, "leaderboard lookup failed")
			return
		}
		_ = commonhttputil.WriteJSON(w, http.StatusOK, resp)
	})
}

func parseRuleset(raw string) (domain.Ruleset, bool) {
	if raw == "" {
		return domain.RulesetOsu, true
	}
	for _, rs := range domain.AllRulesets() {
		if rs.String() == raw {
			return rs, true
		}
	}
	return 0, false
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}

// leaderboard: 짧은 TTL의 Valkey 캐시를 앞에 둔 Ruleset 리더보드 조회.
// 캐시 오류는 조회 실패로 승격하지 않는다.
func leaderboard(ctx context.Context, deps Deps, ruleset domain.Ruleset, limit int) (*LeaderboardResponse, error) {
	cacheKey := "otr:leaderboard:" + ruleset.String() + ":" + strconv.Itoa(limit)

	if deps.Cache != nil {
		cached, err := deps.Cache.Do(ctx, deps.Cache.B().Get().Key(cacheKey).Build()).AsBytes()
		if err == nil {
			var resp LeaderboardResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		} else if !valkeyx.IsNil(err) {
			deps.Logger.Warn("leaderboard_cache_read_failed", "err", err)
		}
	}

	ratings, err := deps.Repo.ListRatingsByRuleset(ctx, ruleset)
	if err != nil {
		return nil, err
	}
	resp := &LeaderboardResponse{Ruleset: ruleset.String(), Total: len(ratings)}
	for i := range ratings {
		if i >= limit {
			break
		}
		pr := &ratings[i]
		entry := LeaderboardEntry{
			Rank:       pr.GlobalRank,
			PlayerID:   pr.PlayerID,
			Rating:     pr.Rating,
			Volatility: pr.Volatility,
			Percentile: pr.Percentile,
		}
		if pr.Player != nil {
			entry.Username = pr.Player.Username
			entry.Country = pr.Player.Country
		}
		resp.Entries = append(resp.Entries, entry)
	}

	if deps.Cache != nil && deps.CacheTTL > 0 {
		if data, jsonErr := json.Marshal(resp); jsonErr == nil {
			cmd := deps.Cache.B().Set().Key(cacheKey).Value(string(data)).Ex(deps.CacheTTL).Build()
			if err := deps.Cache.Do(ctx, cmd).Error(); err != nil {
				deps.Logger.Warn("leaderboard_cache_write_failed", "err", err)
			}
		}
	}
	return resp, nil
}
