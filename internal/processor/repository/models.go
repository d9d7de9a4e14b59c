package repository

import (
	"time"

	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// Player: 신원 제공자가 공급하는 플레이어 참조 행.
// 레이팅 계산에 필요한 최소 필드(국가 포함)만 보관한다.
type Player struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	OsuID     int64     `gorm:"column:osu_id;not null;uniqueIndex"`
	Username  string    `gorm:"column:username;not null;default:''"`
	Country   string    `gorm:"column:country;not null;default:'';size:2;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Player) TableName() string { return "players" }

// Beatmap: 비트맵 메타데이터 제공자가 공급하는 참조 행.
// 삭제되어도 게임은 남아야 하므로 게임 쪽 FK는 SET NULL이다.
type Beatmap struct {
	ID         uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	OsuID      int64   `gorm:"column:osu_id;not null;uniqueIndex"`
	Title      string  `gorm:"column:title;not null;default:''"`
	DiffName   string  `gorm:"column:diff_name;not null;default:''"`
	StarRating float64 `gorm:"column:star_rating;not null;default:0"`
}

func (Beatmap) TableName() string { return "beatmaps" }

// Tournament: 제출된 토너먼트. 검증 워크플로우와 레이팅 처리 스윕이 상태를 갱신한다.
type Tournament struct {
	ID                  uint64                    `gorm:"column:id;primaryKey;autoIncrement"`
	Name                string                    `gorm:"column:name;not null"`
	Abbreviation        string                    `gorm:"column:abbreviation;not null;default:''"`
	Ruleset             domain.Ruleset            `gorm:"column:ruleset;not null;index"`
	RankRangeLowerBound int                       `gorm:"column:rank_range_lower_bound;not null;default:1"`
	LobbySize           int                       `gorm:"column:lobby_size;not null"`
	VerificationStatus  domain.VerificationStatus `gorm:"column:verification_status;not null;default:0;index"`
	RejectionReason     domain.RejectionReason    `gorm:"column:rejection_reason;not null;default:0"`
	ProcessingStatus    domain.ProcessingStatus   `gorm:"column:processing_status;not null;default:0;index"`
	LastProcessingDate  *time.Time                `gorm:"column:last_processing_date"`
	SubmittedByUserID   *uint64                   `gorm:"column:submitted_by_user_id"`
	SubmittedBy         *Player                   `gorm:"foreignKey:SubmittedByUserID;constraint:OnDelete:SET NULL"`
	VerifiedByUserID    *uint64                   `gorm:"column:verified_by_user_id"`
	VerifiedBy          *Player                   `gorm:"foreignKey:VerifiedByUserID;constraint:OnDelete:SET NULL"`
	AuditLock           string                    `gorm:"column:audit_lock;not null;size:36"`
	Version             int64                     `gorm:"column:version;not null;default:0"`
	CreatedAt           time.Time                 `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt           time.Time                 `gorm:"column:updated_at;not null;autoUpdateTime"`

	Matches []Match `gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`
}

func (Tournament) TableName() string { return "tournaments" }

// Match: 토너먼트에 속한 하나의 멀티플레이 매치.
// 게임/로스터/레이팅 조정을 소유하며 토너먼트 삭제 시 함께 삭제된다.
type Match struct {
	ID                 uint64                    `gorm:"column:id;primaryKey;autoIncrement"`
	OsuID              int64                     `gorm:"column:osu_id;not null;uniqueIndex"`
	TournamentID       uint64                    `gorm:"column:tournament_id;not null;index"`
	Tournament         *Tournament               `gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`
	Name               string                    `gorm:"column:name;not null;default:''"`
	StartTime          *time.Time                `gorm:"column:start_time;index"`
	EndTime            *time.Time                `gorm:"column:end_time"`
	VerificationStatus domain.VerificationStatus `gorm:"column:verification_status;not null;default:0;index"`
	RejectionReason    domain.RejectionReason    `gorm:"column:rejection_reason;not null;default:0"`
	ProcessingStatus   domain.ProcessingStatus   `gorm:"column:processing_status;not null;default:0;index"`
	WarningFlags       domain.WarningFlags       `gorm:"column:warning_flags;not null;default:0"`
	LastProcessingDate *time.Time                `gorm:"column:last_processing_date"`
	AuditLock          string                    `gorm:"column:audit_lock;not null;size:36"`
	Version            int64                     `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time                 `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;not null;autoUpdateTime"`

	Games       []Game             `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	Rosters     []MatchRoster      `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	Adjustments []RatingAdjustment `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
}

func (Match) TableName() string { return "matches" }

// Game: 매치 안의 단일 비트맵 플레이.
type Game struct {
	ID                 uint64                    `gorm:"column:id;primaryKey;autoIncrement"`
	OsuID              int64                     `gorm:"column:osu_id;not null;uniqueIndex"`
	MatchID            uint64                    `gorm:"column:match_id;not null;index"`
	Match              *Match                    `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	BeatmapID          *uint64                   `gorm:"column:beatmap_id"`
	Beatmap            *Beatmap                  `gorm:"foreignKey:BeatmapID;constraint:OnDelete:SET NULL"`
	Ruleset            domain.Ruleset            `gorm:"column:ruleset;not null"`
	ScoringType        domain.ScoringType        `gorm:"column:scoring_type;not null;default:0"`
	TeamType           domain.TeamType           `gorm:"column:team_type;not null;default:0"`
	Mods               domain.Mods               `gorm:"column:mods;not null;default:0"`
	StartTime          *time.Time                `gorm:"column:start_time"`
	EndTime            *time.Time                `gorm:"column:end_time"`
	VerificationStatus domain.VerificationStatus `gorm:"column:verification_status;not null;default:0;index"`
	RejectionReason    domain.RejectionReason    `gorm:"column:rejection_reason;not null;default:0"`
	ProcessingStatus   domain.ProcessingStatus   `gorm:"column:processing_status;not null;default:0"`
	WarningFlags       domain.WarningFlags       `gorm:"column:warning_flags;not null;default:0"`
	AuditLock          string                    `gorm:"column:audit_lock;not null;size:36"`
	Version            int64                     `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time                 `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;not null;autoUpdateTime"`

	Scores  []GameScore  `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	Rosters []GameRoster `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
}

func (Game) TableName() string { return "games" }

// GameScore: (플레이어, 게임)당 한 행의 성적 기록.
// 스코어 단위 거부가 가능하도록 자체 검증 상태를 가진다.
type GameScore struct {
	ID                 uint64                    `gorm:"column:id;primaryKey;autoIncrement"`
	GameID             uint64                    `gorm:"column:game_id;not null;uniqueIndex:idx_game_scores_game_player,priority:1"`
	Game               *Game                     `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	PlayerID           uint64                    `gorm:"column:player_id;not null;uniqueIndex:idx_game_scores_game_player,priority:2;index"`
	Score              int64                     `gorm:"column:score;not null;default:0"`
	Placement          int                       `gorm:"column:placement;not null;default:0"`
	MaxCombo           int                       `gorm:"column:max_combo;not null;default:0"`
	Count50            int                       `gorm:"column:count_50;not null;default:0"`
	Count100           int                       `gorm:"column:count_100;not null;default:0"`
	Count300           int                       `gorm:"column:count_300;not null;default:0"`
	CountMiss          int                       `gorm:"column:count_miss;not null;default:0"`
	CountKatu          int                       `gorm:"column:count_katu;not null;default:0"`
	CountGeki          int                       `gorm:"column:count_geki;not null;default:0"`
	Grade              domain.Grade              `gorm:"column:grade;not null;default:'';size:2"`
	Mods               domain.Mods               `gorm:"column:mods;not null;default:0"`
	Team               domain.Team               `gorm:"column:team;not null;default:0"`
	VerificationStatus domain.VerificationStatus `gorm:"column:verification_status;not null;default:0"`
	RejectionReason    domain.RejectionReason    `gorm:"column:rejection_reason;not null;default:0"`
	ProcessingStatus   domain.ProcessingStatus   `gorm:"column:processing_status;not null;default:0"`
	AuditLock          string                    `gorm:"column:audit_lock;not null;size:36"`
	Version            int64                     `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time                 `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (GameScore) TableName() string { return "game_scores" }

// Accuracy: 스코어의 정확도(0~100)를 계산한다. Ruleset은 소속 게임에서 가져온다.
func (s GameScore) Accuracy(ruleset domain.Ruleset) float64 {
	return domain.Accuracy(ruleset, s.Count300, s.Count100, s.Count50, s.CountMiss, s.CountKatu, s.CountGeki)
}

// MatchRoster: 매치의 한쪽 진영. 플레이어 집합과 해당 진영의 획득 포인트(이긴 게임 수)를 가진다.
// (매치, 팀)당 정확히 한 행.
type MatchRoster struct {
	ID        uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	MatchID   uint64      `gorm:"column:match_id;not null;uniqueIndex:idx_match_rosters_match_team,priority:1"`
	Match     *Match      `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	Team      domain.Team `gorm:"column:team;not null;uniqueIndex:idx_match_rosters_match_team,priority:2"`
	Roster    IDList      `gorm:"column:roster;not null;type:jsonb"`
	Score     int         `gorm:"column:score;not null;default:0"`
	CreatedAt time.Time   `gorm:"column:created_at;not null;autoCreateTime"`
}

func (MatchRoster) TableName() string { return "match_rosters" }

// GameRoster: 게임 단위의 진영 기록. 스코어 합산 값을 가진다.
type GameRoster struct {
	ID        uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	GameID    uint64      `gorm:"column:game_id;not null;uniqueIndex:idx_game_rosters_game_team,priority:1"`
	Game      *Game       `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	Team      domain.Team `gorm:"column:team;not null;uniqueIndex:idx_game_rosters_game_team,priority:2"`
	Roster    IDList      `gorm:"column:roster;not null;type:jsonb"`
	Score     int64       `gorm:"column:score;not null;default:0"`
	CreatedAt time.Time   `gorm:"column:created_at;not null;autoCreateTime"`
}

func (GameRoster) TableName() string { return "game_rosters" }

// PlayerRating: (플레이어, Ruleset)당 현재 레이팅 스냅샷. 레이팅 엔진만 갱신한다.
type PlayerRating struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID   uint64         `gorm:"column:player_id;not null;uniqueIndex:idx_player_ratings_player_ruleset,priority:1"`
	Player     *Player        `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE"`
	Ruleset    domain.Ruleset `gorm:"column:ruleset;not null;uniqueIndex:idx_player_ratings_player_ruleset,priority:2;index"`
	Rating     float64        `gorm:"column:rating;not null"`
	Volatility float64        `gorm:"column:volatility;not null"`
	Percentile float64        `gorm:"column:percentile;not null;default:0"`
	GlobalRank int32          `gorm:"column:global_rank;not null;default:0"`
	CountryRank int32         `gorm:"column:country_rank;not null;default:0"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;not null;autoUpdateTime"`

	Adjustments []RatingAdjustment `gorm:"foreignKey:PlayerRatingID;constraint:OnDelete:CASCADE"`
}

func (PlayerRating) TableName() string { return "player_ratings" }

// RatingAdjustment: 레이팅에 영향을 준 이벤트별 불변 이력 행.
// (플레이어, 매치) 유니크 제약이 배치 재실행의 멱등성을 보장한다.
// MatchID가 NULL인 행은 감쇠(Decay) 등 매치 외 이벤트다.
type RatingAdjustment struct {
	ID             uint64                `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerRatingID uint64                `gorm:"column:player_rating_id;not null;index"`
	PlayerID       uint64                `gorm:"column:player_id;not null;uniqueIndex:idx_rating_adjustments_player_match,priority:1"`
	Ruleset        domain.Ruleset        `gorm:"column:ruleset;not null;index"`
	MatchID        *uint64               `gorm:"column:match_id;uniqueIndex:idx_rating_adjustments_player_match,priority:2"`
	AdjustmentType domain.AdjustmentType `gorm:"column:adjustment_type;not null"`
	Timestamp      time.Time             `gorm:"column:timestamp;not null;index"`

	RatingBefore     float64 `gorm:"column:rating_before;not null"`
	RatingAfter      float64 `gorm:"column:rating_after;not null"`
	VolatilityBefore float64 `gorm:"column:volatility_before;not null"`
	VolatilityAfter  float64 `gorm:"column:volatility_after;not null"`

	GlobalRankBefore  int32   `gorm:"column:global_rank_before;not null;default:0"`
	GlobalRankAfter   int32   `gorm:"column:global_rank_after;not null;default:0"`
	CountryRankBefore int32   `gorm:"column:country_rank_before;not null;default:0"`
	CountryRankAfter  int32   `gorm:"column:country_rank_after;not null;default:0"`
	PercentileBefore  float64 `gorm:"column:percentile_before;not null;default:0"`
	PercentileAfter   float64 `gorm:"column:percentile_after;not null;default:0"`

	MatchCost             *float64 `gorm:"column:match_cost"`
	AverageTeammateRating *float64 `gorm:"column:average_teammate_rating"`
	AverageOpponentRating *float64 `gorm:"column:average_opponent_rating"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (RatingAdjustment) TableName() string { return "rating_adjustments" }

// RatingDelta: 이벤트 전후의 레이팅 변화량을 반환한다.
func (a RatingAdjustment) RatingDelta() float64 { return a.RatingAfter - a.RatingBefore }

// GlobalRankDelta: 이벤트 전후의 글로벌 랭크 변화량을 반환한다. (음수 = 순위 상승)
func (a RatingAdjustment) GlobalRankDelta() int32 { return a.GlobalRankAfter - a.GlobalRankBefore }

// CountryRankDelta: 이벤트 전후의 국가 랭크 변화량을 반환한다.
func (a RatingAdjustment) CountryRankDelta() int32 { return a.CountryRankAfter - a.CountryRankBefore }

// PercentileDelta: 이벤트 전후의 백분위 변화량을 반환한다.
func (a RatingAdjustment) PercentileDelta() float64 { return a.PercentileAfter - a.PercentileBefore }

// PlayerMatchStats: 매치별 플레이어 성과 요약. 스코어/조정 이력에서 재계산 가능한 파생 데이터다.
type PlayerMatchStats struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID         uint64    `gorm:"column:player_id;not null;uniqueIndex:idx_player_match_stats_player_match,priority:1"`
	MatchID          uint64    `gorm:"column:match_id;not null;uniqueIndex:idx_player_match_stats_player_match,priority:2"`
	Match            *Match    `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE"`
	MatchCost        float64   `gorm:"column:match_cost;not null;default:0"`
	AverageScore     float64   `gorm:"column:average_score;not null;default:0"`
	AverageAccuracy  float64   `gorm:"column:average_accuracy;not null;default:0"`
	AveragePlacement float64   `gorm:"column:average_placement;not null;default:0"`
	GamesWon         int       `gorm:"column:games_won;not null;default:0"`
	GamesLost        int       `gorm:"column:games_lost;not null;default:0"`
	GamesPlayed      int       `gorm:"column:games_played;not null;default:0"`
	Won              bool      `gorm:"column:won;not null;default:false"`
	TeammateIDs      IDList    `gorm:"column:teammate_ids;type:jsonb"`
	OpponentIDs      IDList    `gorm:"column:opponent_ids;type:jsonb"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (PlayerMatchStats) TableName() string { return "player_match_stats" }

// PlayerTournamentStats: 토너먼트별 플레이어 성과 롤업.
type PlayerTournamentStats struct {
	ID                 uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID           uint64    `gorm:"column:player_id;not null;uniqueIndex:idx_player_tournament_stats_pair,priority:1"`
	TournamentID       uint64    `gorm:"column:tournament_id;not null;uniqueIndex:idx_player_tournament_stats_pair,priority:2"`
	Tournament         *Tournament `gorm:"foreignKey:TournamentID;constraint:OnDelete:CASCADE"`
	AverageRatingDelta float64   `gorm:"column:average_rating_delta;not null;default:0"`
	AverageMatchCost   float64   `gorm:"column:average_match_cost;not null;default:0"`
	AverageScore       float64   `gorm:"column:average_score;not null;default:0"`
	AverageAccuracy    float64   `gorm:"column:average_accuracy;not null;default:0"`
	AveragePlacement   float64   `gorm:"column:average_placement;not null;default:0"`
	MatchesWon         int       `gorm:"column:matches_won;not null;default:0"`
	MatchesLost        int       `gorm:"column:matches_lost;not null;default:0"`
	MatchesPlayed      int       `gorm:"column:matches_played;not null;default:0"`
	GamesWon           int       `gorm:"column:games_won;not null;default:0"`
	GamesLost          int       `gorm:"column:games_lost;not null;default:0"`
	GamesPlayed        int       `gorm:"column:games_played;not null;default:0"`
	TeammateIDs        IDList    `gorm:"column:teammate_ids;type:jsonb"`
	CreatedAt          time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (PlayerTournamentStats) TableName() string { return "player_tournament_stats" }

// PlayerHighestRanks: 플레이어가 기록한 최고 랭크. 랭크 재계산 시 갱신된다.
type PlayerHighestRanks struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	PlayerID        uint64         `gorm:"column:player_id;not null;uniqueIndex:idx_player_highest_ranks_pair,priority:1"`
	Ruleset         domain.Ruleset `gorm:"column:ruleset;not null;uniqueIndex:idx_player_highest_ranks_pair,priority:2"`
	GlobalRank      int32          `gorm:"column:global_rank;not null"`
	GlobalRankDate  time.Time      `gorm:"column:global_rank_date;not null"`
	CountryRank     int32          `gorm:"column:country_rank;not null"`
	CountryRankDate time.Time      `gorm:"column:country_rank_date;not null"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (PlayerHighestRanks) TableName() string { return "player_highest_ranks" }

// ProcessingWatermark: Ruleset별 내구성 워터마크.
// 마지막으로 커밋된 매치 시각 이후만 처리하여 부분 실패 후 재개를 안전하게 만든다.
type ProcessingWatermark struct {
	Ruleset       domain.Ruleset `gorm:"column:ruleset;primaryKey;autoIncrement:false"`
	LastMatchTime time.Time      `gorm:"column:last_match_time;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (ProcessingWatermark) TableName() string { return "processing_watermarks" }
