package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/bunkhouse/internal/cache"
)

// CachedSolver replays the stored solution of an identical model and
// parameter set instead of searching again
type CachedSolver struct {
	backend Solver
	cache   cache.Cache
	ttl     time.Duration
}

// NewCachedSolver wraps backend with c
func NewCachedSolver(backend Solver, c cache.Cache, ttl time.Duration) *CachedSolver {
	return &CachedSolver{
		backend: backend,
		cache:   c,
		ttl:     ttl,
	}
}

// Solve implements Solver
func (s *CachedSolver) Solve(ctx context.Context, m *Model, params Params) (*Solution, error) {
	log := params.logger().Named("solver")

	fingerprint, err := m.Fingerprint()
	if err != nil {
		return nil, err
	}
	key := cache.Key("solution", fingerprint, paramsKey(params))

	if data, found := s.cache.Get(key); found {
		var sol Solution
		switch err := json.Unmarshal(data, &sol); {
		case err != nil:
			log.Warn("discarding unreadable cached solution", zap.Error(err))
		case m.Check(sol.Values) != nil:
			log.Warn("discarding cached solution that no longer fits the model")
		default:
			sol.Cached = true
			log.Info("solution cache hit", zap.String("fingerprint", fingerprint[:12]))
			return &sol, nil
		}
	}

	sol, err := s.backend.Solve(ctx, m, params)
	if err != nil {
		return sol, err
	}

	if sol.Status == StatusOptimal || sol.Status == StatusFeasible {
		data, err := json.Marshal(sol)
		if err != nil {
			return nil, fmt.Errorf("marshal solution: %w", err)
		}
		if err := s.cache.Set(key, data, s.ttl); err != nil {
			log.Warn("failed to store solution", zap.Error(err))
		}
	}

	return sol, nil
}

func paramsKey(p Params) string {
	return fmt.Sprintf("limit=%s workers=%d seed=%d patience=%d", p.TimeLimit, p.Workers, p.Seed, p.Patience)
}
