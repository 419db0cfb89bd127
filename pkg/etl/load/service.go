package load

import (
	"context"
	"sync"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/aster/pkg/models"
)

// Service is the invocation surface for load cycles: it serializes runs
// through the locker and remembers the most recent result.
type Service struct {
	orchestrator *Orchestrator
	locker       Locker
	logger       ectologger.Logger

	mu   sync.Mutex
	last *models.LoadResult
}

func NewService(orchestrator *Orchestrator, locker Locker, logger ectologger.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		locker:       locker,
		logger:       logger,
	}
}

// Run executes one load cycle under the lock. It returns ErrLoadInProgress
// when another cycle is running.
func (s *Service) Run(ctx context.Context) (*models.LoadResult, error) {
	release, err := s.locker.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := s.orchestrator.Run(ctx)
	if result != nil {
		s.mu.Lock()
		s.last = result
		s.mu.Unlock()
	}

	return result, err
}

// Latest returns the most recent load result, or nil when no cycle has run.
func (s *Service) Latest() *models.LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
