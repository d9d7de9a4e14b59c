package config

import (
	"fmt"
	"time"

	commonconfig "github.com/park285/osu-tournament-stats-go/internal/common/config"
)

// ServerConfig: HTTP 서버 설정 (포트 등) alias
type ServerConfig = commonconfig.ServerConfig

// ServerTuningConfig: 서버 튜닝 설정 (Timeouts, Limits 등) alias
type ServerTuningConfig = commonconfig.ServerTuningConfig

// RedisConfig: Valkey 연결 설정 (파이프라인 락, 리더보드 캐시) alias
type RedisConfig = commonconfig.RedisConfig

// LogConfig: 로깅 설정 (레벨, 포맷 등) alias
type LogConfig = commonconfig.LogConfig

// PostgresConfig: PostgreSQL 데이터베이스 설정
type PostgresConfig struct {
	Host       string
	Port       int
	SocketPath string // UDS 경로 (비어있으면 TCP 사용)
	Name       string
	User       string
	Password   string
	SSLMode    string
}

// PipelineConfig: 배치 파이프라인 실행 설정
type PipelineConfig struct {
	Interval     time.Duration // 틱 주기
	LockTTL      time.Duration // Ruleset 락 TTL (배치 최장 실행 시간보다 길어야 함)
	DecayEnabled bool          // 비활성 감쇠 스윕 활성화 여부
}

// RatingConfig: 레이팅 정책 튜닝 설정
type RatingConfig struct {
	TuningPath string // YAML 튜닝 파일 경로 (비어있으면 기본값)
}

// LeaderboardConfig: 리더보드 캐시 설정
type LeaderboardConfig struct {
	CacheTTL time.Duration
}

// Config: 전체 애플리케이션 설정 구조체
type Config struct {
	Server       ServerConfig
	ServerTuning ServerTuningConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Pipeline     PipelineConfig
	Rating       RatingConfig
	Leaderboard  LeaderboardConfig
	Log          LogConfig
	Telemetry    commonconfig.TelemetryConfig // OpenTelemetry 분산 추적
}

// LoadFromEnv: 환경 변수로부터 전체 애플리케이션 설정을 로드합니다.
func LoadFromEnv() (*Config, error) {
	server, err := readServerConfig()
	if err != nil {
		return nil, err
	}
	serverTuning, err := commonconfig.ReadServerTuningConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("read server tuning config failed: %w", err)
	}
	postgres, err := readPostgresConfig()
	if err != nil {
		return nil, err
	}
	redisCfg, err := readRedisConfig()
	if err != nil {
		return nil, err
	}
	pipeline, err := readPipelineConfig()
	if err != nil {
		return nil, err
	}
	logCfg, err := commonconfig.ReadLogConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("read log config failed: %w", err)
	}
	leaderboard, err := readLeaderboardConfig()
	if err != nil {
		return nil, err
	}
	telemetry, err := commonconfig.ReadTelemetryConfigFromEnv("otr-processor")
	if err != nil {
		return nil, fmt.Errorf("read telemetry config: %w", err)
	}

	return &Config{
		Server:       server,
		ServerTuning: serverTuning,
		Postgres:     postgres,
		Redis:        redisCfg,
		Pipeline:     pipeline,
		Rating:       RatingConfig{TuningPath: commonconfig.StringFromEnv("RATING_TUNING_PATH", "")},
		Leaderboard:  leaderboard,
		Log:          logCfg,
		Telemetry:    telemetry,
	}, nil
}

func readServerConfig() (ServerConfig, error) {
	cfg, err := commonconfig.ReadServerConfigFromEnv(40288)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read server config failed: %w", err)
	}
	return cfg, nil
}

func readPostgresConfig() (PostgresConfig, error) {
	port, err := commonconfig.IntFromEnv("DB_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, fmt.Errorf("read DB_PORT failed: %w", err)
	}
	return PostgresConfig{
		Host:       commonconfig.StringFromEnv("DB_HOST", "localhost"),
		Port:       port,
		SocketPath: commonconfig.StringFromEnv("DB_SOCKET_PATH", ""),
		Name:       commonconfig.StringFromEnv("DB_NAME", "otr"),
		User:       commonconfig.StringFromEnv("DB_USER", "otr"),
		Password:   commonconfig.StringFromEnv("DB_PASSWORD", ""),
		SSLMode:    commonconfig.StringFromEnv("DB_SSLMODE", "disable"),
	}, nil
}

func readRedisConfig() (RedisConfig, error) {
	cfg, err := commonconfig.ReadRedisConfigFromEnv(
		[]string{"CACHE_HOST", "REDIS_HOST"},
		[]string{"CACHE_PORT", "REDIS_PORT"},
		[]string{"CACHE_PASSWORD", "REDIS_PASSWORD"},
		[]string{"CACHE_SOCKET_PATH", "REDIS_SOCKET_PATH"},
		"localhost",
		6379,
		"",
	)
	if err != nil {
		return RedisConfig{}, fmt.Errorf("read redis config failed: %w", err)
	}
	return cfg, nil
}

func readPipelineConfig() (PipelineConfig, error) {
	intervalSeconds, err := commonconfig.Int64FromEnv("PIPELINE_INTERVAL_SECONDS", 300)
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("read PIPELINE_INTERVAL_SECONDS failed: %w", err)
	}
	lockTTLSeconds, err := commonconfig.Int64FromEnv("PIPELINE_LOCK_TTL_SECONDS", 1800)
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("read PIPELINE_LOCK_TTL_SECONDS failed: %w", err)
	}
	decayEnabled, err := commonconfig.BoolFromEnv("PIPELINE_DECAY_ENABLED", true)
	if err != nil {
		return PipelineConfig{}, fmt.Errorf("read PIPELINE_DECAY_ENABLED failed: %w", err)
	}
	if intervalSeconds <= 0 {
		return PipelineConfig{}, fmt.Errorf("invalid PIPELINE_INTERVAL_SECONDS: %d", intervalSeconds)
	}
	if lockTTLSeconds <= 0 {
		return PipelineConfig{}, fmt.Errorf("invalid PIPELINE_LOCK_TTL_SECONDS: %d", lockTTLSeconds)
	}
	return PipelineConfig{
		Interval:     time.Duration(intervalSeconds) * time.Second,
		LockTTL:      time.Duration(lockTTLSeconds) * time.Second,
		DecayEnabled: decayEnabled,
	}, nil
}

func readLeaderboardConfig() (LeaderboardConfig, error) {
	ttlSeconds, err := commonconfig.Int64FromEnv("LEADERBOARD_CACHE_TTL_SECONDS", 60)
	if err != nil {
		return LeaderboardConfig{}, fmt.Errorf("read LEADERBOARD_CACHE_TTL_SECONDS failed: %w", err)
	}
	if ttlSeconds < 0 {
		return LeaderboardConfig{}, fmt.Errorf("invalid LEADERBOARD_CACHE_TTL_SECONDS: %d", ttlSeconds)
	}
	return LeaderboardConfig{CacheTTL: time.Duration(ttlSeconds) * time.Second}, nil
}
