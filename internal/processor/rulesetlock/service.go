// Package rulesetlock: Ruleset 단위 파이프라인 실행을 직렬화하는 Valkey 락.
// 랭크 재계산과 매치 반영은 같은 Ruleset에서 자기 자신과 동시 실행되면 안 된다.
package rulesetlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	cerrors "github.com/park285/osu-tournament-stats-go/internal/common/errors"
	"github.com/park285/osu-tournament-stats-go/internal/common/valkeyx"
	"github.com/park285/osu-tournament-stats-go/internal/processor/domain"
)

// ErrAlreadyProcessing: 해당 Ruleset의 배치가 이미 진행 중일 때 반환되는 에러
var ErrAlreadyProcessing = errors.New("ruleset already processing")

// 토큰이 일치할 때만 락을 지운다. TTL이 만료돼 다른 실행이 락을 잡았다면
// 남의 락을 지우면 안 된다.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Service: Valkey SET NX + TTL로 Ruleset별 배치 실행을 직렬화하는 락 서비스
type Service struct {
	client  valkey.Client
	logger  *slog.Logger
	prefix  string
	ttl     time.Duration
	release *valkey.Lua

	mu     sync.Mutex
	tokens map[domain.Ruleset]string
}

// New: 새로운 Service 인스턴스를 생성합니다.
func New(client valkey.Client, logger *slog.Logger, prefix string, ttl time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		logger:  logger,
		prefix:  prefix,
		ttl:     ttl,
		release: valkey.NewLuaScript(releaseScript),
		tokens:  map[domain.Ruleset]string{},
	}
}

func (s *Service) key(ruleset domain.Ruleset) string {
	return s.prefix + ":pipeline:" + ruleset.String()
}

// Acquire: 배치 락을 획득합니다. (SET NX)
// 이미 락이 존재하면 ErrAlreadyProcessing 을 반환합니다.
func (s *Service) Acquire(ctx context.Context, ruleset domain.Ruleset) error {
	key := s.key(ruleset)
	token := uuid.NewString()
	cmd := s.client.B().Set().Key(key).Value(token).Nx().Ex(s.ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if valkeyx.IsNil(err) {
			return ErrAlreadyProcessing
		}
		return fmt.Errorf("set ruleset lock failed: %w", err)
	}
	s.mu.Lock()
	s.tokens[ruleset] = token
	s.mu.Unlock()
	s.logger.Debug("ruleset_lock_acquired", "ruleset", ruleset.String())
	return nil
}

// Release: 배치 락을 해제합니다. 토큰이 일치하는 경우에만 지우므로
// TTL 만료 후 다른 실행이 잡은 락은 건드리지 않습니다.
func (s *Service) Release(ctx context.Context, ruleset domain.Ruleset) error {
	s.mu.Lock()
	token, ok := s.tokens[ruleset]
	delete(s.tokens, ruleset)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	resp := s.release.Exec(ctx, s.client, []string{s.key(ruleset)}, []string{token})
	n, err := valkeyx.ParseLuaInt64(resp)
	if err != nil {
		return fmt.Errorf("delete ruleset lock failed: %w", err)
	}
	if n == 0 {
		s.logger.Warn("ruleset_lock_not_owned", "ruleset", ruleset.String())
		return nil
	}
	s.logger.Debug("ruleset_lock_released", "ruleset", ruleset.String())
	return nil
}

// IsLocked: 현재 배치가 진행 중인지(락이 존재하는지) 확인합니다.
func (s *Service) IsLocked(ctx context.Context, ruleset domain.Ruleset) (bool, error) {
	cmd := s.client.B().Exists().Key(s.key(ruleset)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, fmt.Errorf("check ruleset lock exists failed: %w", err)
	}
	return n > 0, nil
}

func WrapAcquireError(ruleset domain.Ruleset, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAlreadyProcessing) {
		return cerrors.LockError{Key: ruleset.String(), Description: "already processing"}
	}
	return cerrors.RedisError{Operation: "ruleset_lock_acquire", Err: err}
}

func WrapReleaseError(err error) error {
	if err == nil {
		return nil
	}
	return cerrors.RedisError{Operation: "ruleset_lock_release", Err: err}
}
