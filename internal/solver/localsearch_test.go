package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/bunkhouse/internal/cache"
)

func testParams(t *testing.T) Params {
	return Params{
		TimeLimit: 10 * time.Second,
		Workers:   2,
		Seed:      1,
		Patience:  2,
		Logger:    zaptest.NewLogger(t),
	}
}

func countAssigned(values []int) int {
	n := 0
	for _, v := range values {
		if v != Unassigned {
			n++
		}
	}
	return n
}

func TestLocalSearchOptimal(t *testing.T) {
	m := twoRooms()

	sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, int64(41), sol.Objective)
	assert.Equal(t, sol.Values[0], sol.Values[1])
	assert.NoError(t, m.Check(sol.Values))
	assert.False(t, sol.TimedOut)
}

func TestLocalSearchOverCapacity(t *testing.T) {
	m := NewModel(1)
	for _, name := range []string{"a", "b", "c"} {
		id := m.AddVar(Var{Name: name, Domain: []int{0}})
		m.Assigned = append(m.Assigned, Assigned{Var: id, Weight: 10})
	}
	m.Capacities = []Capacity{{Name: "room", Value: 0, Vars: []VarID{0, 1, 2}, Limit: 2}}

	sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	require.NoError(t, err)

	assert.Equal(t, StatusFeasible, sol.Status)
	assert.Equal(t, int64(20), sol.Objective)
	assert.Equal(t, int64(30), sol.Bound)
	assert.Equal(t, 2, countAssigned(sol.Values))
}

func TestLocalSearchAllEqualMovesTogether(t *testing.T) {
	m := NewModel(2)
	a := m.AddVar(Var{Name: "a", Domain: []int{0, 1}})
	b := m.AddVar(Var{Name: "b", Domain: []int{0, 1}})
	m.Assigned = []Assigned{{Var: a, Weight: 10}, {Var: b, Weight: 10}}
	m.Capacities = []Capacity{
		{Name: "small", Value: 0, Vars: []VarID{a, b}, Limit: 1},
		{Name: "large", Value: 1, Vars: []VarID{a, b}, Limit: 2},
	}
	m.AllEquals = []AllEqual{{Name: "pair", Vars: []VarID{a, b}}}

	sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	require.NoError(t, err)

	assert.Equal(t, StatusOptimal, sol.Status)
	assert.Equal(t, []int{1, 1}, sol.Values)
}

func TestLocalSearchPairTooBigStaysUnassigned(t *testing.T) {
	m := NewModel(1)
	a := m.AddVar(Var{Name: "a", Domain: []int{0}})
	b := m.AddVar(Var{Name: "b", Domain: []int{0}})
	m.Assigned = []Assigned{{Var: a, Weight: 10}, {Var: b, Weight: 10}}
	m.Capacities = []Capacity{{Name: "single", Value: 0, Vars: []VarID{a, b}, Limit: 1}}
	m.AllEquals = []AllEqual{{Name: "pair", Vars: []VarID{a, b}}}

	sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	require.NoError(t, err)

	assert.Equal(t, []int{Unassigned, Unassigned}, sol.Values)
	assert.NoError(t, m.Check(sol.Values))
}

func TestLocalSearchRequired(t *testing.T) {
	m := NewModel(2)
	pinned := m.AddVar(Var{Name: "pinned", Domain: []int{1}, Required: true})
	free := m.AddVar(Var{Name: "free", Domain: []int{0, 1}})
	m.Assigned = []Assigned{{Var: pinned, Weight: 10}, {Var: free, Weight: 10}}
	m.InSets = []InSet{{Var: free, Values: []int{1}, Weight: 5}}
	m.Capacities = []Capacity{{Name: "one", Value: 1, Vars: []VarID{pinned, free}, Limit: 1}}

	sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	require.NoError(t, err)

	// the pinned variable keeps value 1 even though free would prefer it
	assert.Equal(t, 1, sol.Values[pinned])
	assert.Equal(t, 0, sol.Values[free])
	assert.Equal(t, StatusFeasible, sol.Status)
}

func TestLocalSearchInfeasible(t *testing.T) {
	t.Run("empty domain", func(t *testing.T) {
		m := NewModel(1)
		m.AddVar(Var{Name: "stuck", Required: true})

		sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, sol.Status)
		assert.Equal(t, []int{Unassigned}, sol.Values)
	})

	t.Run("required over capacity", func(t *testing.T) {
		m := NewModel(1)
		a := m.AddVar(Var{Name: "a", Domain: []int{0}, Required: true})
		b := m.AddVar(Var{Name: "b", Domain: []int{0}, Required: true})
		m.Capacities = []Capacity{{Name: "single", Value: 0, Vars: []VarID{a, b}, Limit: 1}}

		sol, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, sol.Status)
		assert.Equal(t, 0, countAssigned(sol.Values))
	})
}

func TestLocalSearchDeterministic(t *testing.T) {
	build := func() *Model {
		m := NewModel(3)
		var ids []VarID
		for i := 0; i < 8; i++ {
			id := m.AddVar(Var{Name: "v", Domain: []int{0, 1, 2}})
			ids = append(ids, id)
			m.Assigned = append(m.Assigned, Assigned{Var: id, Weight: 100})
		}
		for v := 0; v < 3; v++ {
			m.Capacities = append(m.Capacities, Capacity{Value: v, Vars: ids, Limit: 3})
		}
		for i := 0; i+1 < len(ids); i++ {
			m.Pairs = append(m.Pairs, Pair{A: ids[i], B: ids[i+1], Reward: 3, Penalty: 3})
		}
		return m
	}

	first, err := NewLocalSearch().Solve(context.Background(), build(), testParams(t))
	require.NoError(t, err)
	second, err := NewLocalSearch().Solve(context.Background(), build(), testParams(t))
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values)
	assert.Equal(t, first.Objective, second.Objective)
	assert.Equal(t, 8, countAssigned(first.Values))
}

func TestLocalSearchTimeLimit(t *testing.T) {
	m := NewModel(1)
	for i := 0; i < 3; i++ {
		id := m.AddVar(Var{Name: "v", Domain: []int{0}})
		m.Assigned = append(m.Assigned, Assigned{Var: id, Weight: 1})
	}
	m.Capacities = []Capacity{{Value: 0, Vars: []VarID{0, 1, 2}, Limit: 1}}

	params := testParams(t)
	params.TimeLimit = time.Nanosecond
	params.Patience = 1 << 20

	sol, err := NewLocalSearch().Solve(context.Background(), m, params)
	require.NoError(t, err)
	assert.True(t, sol.TimedOut)
	assert.Equal(t, StatusFeasible, sol.Status)
	assert.NoError(t, m.Check(sol.Values))
}

func TestLocalSearchInvalidModel(t *testing.T) {
	m := NewModel(1)
	m.AddVar(Var{Name: "a", Domain: []int{3}})

	_, err := NewLocalSearch().Solve(context.Background(), m, testParams(t))
	assert.Error(t, err)
}

// countingSolver records how often the backend actually ran
type countingSolver struct {
	calls int
	inner Solver
}

func (c *countingSolver) Solve(ctx context.Context, m *Model, params Params) (*Solution, error) {
	c.calls++
	return c.inner.Solve(ctx, m, params)
}

func TestCachedSolverReplays(t *testing.T) {
	backend := &countingSolver{inner: NewLocalSearch()}
	s := NewCachedSolver(backend, cache.NewMemoryCache(time.Hour, time.Hour), time.Hour)

	first, err := s.Solve(context.Background(), twoRooms(), testParams(t))
	require.NoError(t, err)
	second, err := s.Solve(context.Background(), twoRooms(), testParams(t))
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Values, second.Values)

	// different parameters miss the cache
	params := testParams(t)
	params.Seed = 99
	_, err = s.Solve(context.Background(), twoRooms(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
}

func TestCachedSolverSkipsInfeasible(t *testing.T) {
	backend := &countingSolver{inner: NewLocalSearch()}
	s := NewCachedSolver(backend, cache.NewMemoryCache(time.Hour, time.Hour), time.Hour)

	m := NewModel(1)
	m.AddVar(Var{Name: "stuck", Required: true})

	for i := 0; i < 2; i++ {
		sol, err := s.Solve(context.Background(), m, testParams(t))
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, sol.Status)
	}
	assert.Equal(t, 2, backend.calls)
}

func TestCachedSolverIgnoresCorruptEntry(t *testing.T) {
	c := cache.NewMemoryCache(time.Hour, time.Hour)
	m := twoRooms()
	fp, err := m.Fingerprint()
	require.NoError(t, err)
	params := testParams(t)
	require.NoError(t, c.Set(cache.Key("solution", fp, paramsKey(params)), []byte(`{"values":[9]}`), 0))

	backend := &countingSolver{inner: NewLocalSearch()}
	sol, err := NewCachedSolver(backend, c, time.Hour).Solve(context.Background(), m, params)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	assert.False(t, sol.Cached)
}

func TestErrNoSolutionIsSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), ErrNoSolution)
	assert.ErrorIs(t, wrapped, ErrNoSolution)
}
