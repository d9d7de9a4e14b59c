package verification

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/park285/osu-tournament-stats-go/internal/processor/audit"
	"github.com/park285/osu-tournament-stats-go/internal/processor/repository"
)

// Service: 검증 상태 전이와 자동 선별(screening)을 담당하는 서비스.
// 모든 전이는 버전 검사(낙관적 락)를 통과해야 하며 감사 레코드와 함께 커밋된다.
// 부모를 Rejected로 바꿔도 자식 엔티티는 건드리지 않는다. (감사 목적 보존)
type Service struct {
	repo     *repository.Repository
	recorder *audit.Recorder
	validate *validator.Validate
	logger   *slog.Logger
}

// New: 새로운 Service 인스턴스를 생성한다.
func New(repo *repository.Repository, recorder *audit.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		recorder: recorder,
		validate: validator.New(),
		logger:   logger,
	}
}
