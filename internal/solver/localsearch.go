package solver

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/bunkhouse/internal/worker"
)

const (
	defaultTimeLimit = 30 * time.Second
	defaultPatience  = 200

	// clockEvery is how many moves run between deadline checks
	clockEvery = 256

	// constructionAttempts bounds greedy restarts when required blocks do
	// not fit on the first try
	constructionAttempts = 3
)

// LocalSearch is a portfolio of randomized local searches. Each worker
// builds a greedy assignment and improves it with relocate, swap and eject
// moves until the objective reaches its upper bound, the time limit passes
// or it stops improving.
type LocalSearch struct {
	// Throttle bounds progress logging, one key per worker
	Throttle *worker.Limiter
}

// NewLocalSearch creates the built-in backend
func NewLocalSearch() *LocalSearch {
	return &LocalSearch{Throttle: worker.NewLimiter(2, 1)}
}

// Solve runs params.Workers searches with seeds Seed, Seed+1, ... and
// returns the best assignment. Ties go to the lowest worker.
func (s *LocalSearch) Solve(ctx context.Context, m *Model, params Params) (*Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	start := time.Now()
	log := params.logger().Named("solver")

	p := compile(m)
	if p.infeasible != "" {
		log.Warn("required variable has no feasible value", zap.String("var", p.infeasible))
		sol := unassignedSolution(m, StatusInfeasible)
		sol.Elapsed = time.Since(start)
		return sol, nil
	}

	timeLimit := params.TimeLimit
	if timeLimit <= 0 {
		timeLimit = defaultTimeLimit
	}
	patience := params.Patience
	if patience <= 0 {
		patience = defaultPatience
	}
	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}
	throttle := s.Throttle
	if throttle == nil {
		throttle = worker.NewLimiter(2, 1)
	}

	log.Info("solving",
		zap.Int("vars", len(m.Vars)),
		zap.Int("blocks", len(p.blocks)),
		zap.Int("values", m.Values),
		zap.Int("workers", workers),
		zap.Duration("time_limit", timeLimit),
		zap.Int64("bound", p.bound))

	jobs := make([]worker.Job, workers)
	for i := range jobs {
		jobs[i] = &searchJob{
			problem:  p,
			index:    i,
			seed:     params.Seed + int64(i),
			deadline: start.Add(timeLimit),
			patience: patience,
			log:      log,
			throttle: throttle,
		}
	}

	var results []*searchResult
	for _, r := range worker.RunAll(ctx, workers, jobs) {
		results = append(results, r.(*searchResult))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	sol := pickBest(m, p, results)
	sol.Elapsed = time.Since(start)

	if sol.Status == StatusUnknown {
		log.Warn("no solution", zap.Duration("elapsed", sol.Elapsed))
		return sol, ErrNoSolution
	}
	if sol.Status != StatusInfeasible {
		if err := m.Check(sol.Values); err != nil {
			return nil, fmt.Errorf("search produced an invalid assignment: %w", err)
		}
	}

	log.Info("solved",
		zap.String("status", string(sol.Status)),
		zap.Int64("objective", sol.Objective),
		zap.Int64("bound", sol.Bound),
		zap.Int("worker", sol.Worker),
		zap.Bool("timed_out", sol.TimedOut),
		zap.Duration("elapsed", sol.Elapsed))

	return sol, nil
}

func pickBest(m *Model, p *problem, results []*searchResult) *Solution {
	var best *searchResult
	infeasible := 0
	for _, r := range results {
		switch {
		case r.infeasible:
			infeasible++
		case r.values == nil:
		case best == nil || r.objective > best.objective:
			best = r
		}
	}

	if best == nil {
		if infeasible > 0 {
			return unassignedSolution(m, StatusInfeasible)
		}
		return unassignedSolution(m, StatusUnknown)
	}

	status := StatusFeasible
	if best.objective >= p.bound {
		status = StatusOptimal
	}
	return &Solution{
		Status:    status,
		Values:    best.values,
		Objective: best.objective,
		Bound:     p.bound,
		TimedOut:  best.timedOut,
		Worker:    best.index,
	}
}

// searchJob is one portfolio member
type searchJob struct {
	problem  *problem
	index    int
	seed     int64
	deadline time.Time
	patience int
	log      *zap.Logger
	throttle *worker.Limiter
}

type searchResult struct {
	index      int
	values     []int
	objective  int64
	timedOut   bool
	infeasible bool
	moves      int
}

// GetError implements worker.Result. A search always returns its best
// assignment, so there is nothing to report.
func (r *searchResult) GetError() error {
	return nil
}

// Execute implements worker.Job
func (j *searchJob) Execute(ctx context.Context) worker.Result {
	ctx, cancel := context.WithDeadline(ctx, j.deadline)
	defer cancel()

	st := newState(j.problem, j.seed, j.index == 0)
	result := &searchResult{index: j.index}

	if !st.construct() {
		result.infeasible = true
		return result
	}

	key := "worker-" + strconv.Itoa(j.index)
	best := st.snapshot()
	bestObj := st.objective
	idle, perturbations := 0, 0
	stall := max(1000, 50*len(st.p.blocks))

	for {
		if bestObj >= st.p.bound {
			break
		}
		if result.moves%clockEvery == 0 && ctx.Err() != nil {
			result.timedOut = true
			break
		}
		result.moves++

		st.step()

		if st.objective > bestObj {
			bestObj = st.objective
			best = st.snapshot()
			idle, perturbations = 0, 0
			continue
		}

		idle++
		if idle < stall {
			continue
		}
		idle = 0
		perturbations++
		if perturbations > j.patience {
			break
		}
		st.restore(best)
		st.perturb()

		if j.throttle.Allow(key) {
			j.log.Debug("search progress",
				zap.Int("worker", j.index),
				zap.Int64("best", bestObj),
				zap.Int("moves", result.moves),
				zap.Int("perturbations", perturbations))
		}
	}

	result.values = best
	result.objective = bestObj
	return result
}

// state is one worker's mutable assignment
type state struct {
	p         *problem
	rng       *rand.Rand
	values    []int // per variable
	load      []int // per capacity
	stable    bool  // no shuffling, worker 0 follows input order
	objective int64

	stamp int
	mark  []int // per term, dedupes affected terms of multi-block moves
}

func newState(p *problem, seed int64, stable bool) *state {
	st := &state{
		p:      p,
		rng:    rand.New(rand.NewSource(seed)),
		values: make([]int, len(p.m.Vars)),
		load:   make([]int, len(p.m.Capacities)),
		stable: stable,
		mark:   make([]int, len(p.terms)),
	}
	for i := range st.values {
		st.values[i] = Unassigned
	}
	return st
}

func (st *state) value(b int) int {
	return st.values[st.p.blocks[b].vars[0]]
}

// fits reports whether block b may take value v given the other blocks.
// b must not currently hold v.
func (st *state) fits(b, v int) bool {
	blk := &st.p.blocks[b]
	if v == Unassigned {
		return !blk.required
	}
	if !blk.allowed[v] {
		return false
	}
	for _, use := range blk.caps[v] {
		if st.load[use.capacity]+use.count > st.p.m.Capacities[use.capacity].Limit {
			return false
		}
	}
	return true
}

// set moves block b to v without any check
func (st *state) set(b, v int) {
	blk := &st.p.blocks[b]
	old := st.value(b)
	if old == v {
		return
	}
	if old != Unassigned {
		for _, use := range blk.caps[old] {
			st.load[use.capacity] -= use.count
		}
	}
	if v != Unassigned {
		for _, use := range blk.caps[v] {
			st.load[use.capacity] += use.count
		}
	}
	for _, id := range blk.vars {
		st.values[id] = v
	}
}

// affected returns the union of terms touching the given blocks
func (st *state) affected(blocks ...int) []int {
	if len(blocks) == 1 {
		return st.p.blocks[blocks[0]].terms
	}
	st.stamp++
	var out []int
	for _, b := range blocks {
		for _, t := range st.p.blocks[b].terms {
			if st.mark[t] != st.stamp {
				st.mark[t] = st.stamp
				out = append(out, t)
			}
		}
	}
	return out
}

func (st *state) partial(terms []int) int64 {
	var total int64
	for _, t := range terms {
		total += st.p.score(st.p.terms[t], st.values)
	}
	return total
}

// change is one block move that can be undone
type change struct {
	block int
	old   int
}

// attempt applies moves, keeps them when the objective does not drop and
// undoes them otherwise. Each move is checked for feasibility in order.
func (st *state) attempt(blocks []int, moves func() ([]change, bool)) bool {
	terms := st.affected(blocks...)
	before := st.partial(terms)

	undo, ok := moves()
	if ok {
		delta := st.partial(terms) - before
		if delta >= 0 {
			st.objective += delta
			return true
		}
	}
	for i := len(undo) - 1; i >= 0; i-- {
		st.set(undo[i].block, undo[i].old)
	}
	return false
}

// move sets b to v if it fits, recording the undo step
func (st *state) move(undo *[]change, b, v int) bool {
	if st.value(b) == v {
		return true
	}
	if !st.fits(b, v) {
		return false
	}
	*undo = append(*undo, change{block: b, old: st.value(b)})
	st.set(b, v)
	return true
}

// construct greedily places blocks: required ones first, then larger ones
func (st *state) construct() bool {
	order := make([]int, len(st.p.blocks))
	for i := range order {
		order[i] = i
	}

	for attempt := 0; attempt < constructionAttempts; attempt++ {
		if attempt > 0 || !st.stable {
			st.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		sort.SliceStable(order, func(i, j int) bool {
			bi, bj := &st.p.blocks[order[i]], &st.p.blocks[order[j]]
			if bi.required != bj.required {
				return bi.required
			}
			return len(bi.vars) > len(bj.vars)
		})

		st.reset()
		ok := true
		for _, b := range order {
			if !st.placeBest(b) && st.p.blocks[b].required {
				ok = false
				break
			}
		}
		if ok {
			st.objective = st.p.m.Evaluate(st.values)
			return true
		}
	}
	return false
}

func (st *state) reset() {
	for i := range st.values {
		st.values[i] = Unassigned
	}
	for i := range st.load {
		st.load[i] = 0
	}
}

// placeBest puts an unassigned block on the value with the best gain. It
// returns false when no value fits.
func (st *state) placeBest(b int) bool {
	blk := &st.p.blocks[b]
	domain := blk.domain
	if !st.stable {
		domain = append([]int(nil), domain...)
		st.rng.Shuffle(len(domain), func(i, j int) { domain[i], domain[j] = domain[j], domain[i] })
	}

	before := st.partial(blk.terms)
	bestValue, bestGain, found := Unassigned, int64(0), false
	for _, v := range domain {
		if !st.fits(b, v) {
			continue
		}
		st.set(b, v)
		gain := st.partial(blk.terms) - before
		st.set(b, Unassigned)
		if !found || gain > bestGain {
			bestValue, bestGain, found = v, gain, true
		}
	}
	if !found {
		return false
	}
	if bestGain < 0 && !blk.required {
		return true
	}
	st.set(b, bestValue)
	return true
}

// step runs one random move
func (st *state) step() {
	n := len(st.p.blocks)
	if n == 0 {
		return
	}
	b := st.rng.Intn(n)

	switch r := st.rng.Intn(10); {
	case r < 4:
		st.relocate(b)
	case r < 7:
		st.swap(b, st.rng.Intn(n))
	default:
		st.insert(b)
	}
}

// relocate moves b to a random value, or unassigns it
func (st *state) relocate(b int) {
	blk := &st.p.blocks[b]
	choices := len(blk.domain)
	if !blk.required {
		choices++
	}
	if choices == 0 {
		return
	}
	pick := st.rng.Intn(choices)
	v := Unassigned
	if pick < len(blk.domain) {
		v = blk.domain[pick]
	}
	st.attempt([]int{b}, func() ([]change, bool) {
		var undo []change
		ok := st.move(&undo, b, v)
		return undo, ok
	})
}

// swap exchanges the values of two assigned blocks
func (st *state) swap(a, b int) {
	va, vb := st.value(a), st.value(b)
	if a == b || va == vb || va == Unassigned || vb == Unassigned {
		return
	}
	st.attempt([]int{a, b}, func() ([]change, bool) {
		var undo []change
		undo = append(undo, change{block: a, old: va}, change{block: b, old: vb})
		st.set(a, Unassigned)
		st.set(b, Unassigned)
		if !st.fits(a, vb) || !st.fits(b, va) {
			return undo, false
		}
		st.set(a, vb)
		if !st.fits(b, va) {
			return undo, false
		}
		st.set(b, va)
		return undo, true
	})
}

// insert places an unassigned block, ejecting one occupant of the target
// value when it is full. The ejected block moves elsewhere if it can.
func (st *state) insert(b int) {
	if st.value(b) != Unassigned {
		return
	}
	blk := &st.p.blocks[b]
	if len(blk.domain) == 0 {
		return
	}
	v := blk.domain[st.rng.Intn(len(blk.domain))]
	if st.fits(b, v) {
		st.attempt([]int{b}, func() ([]change, bool) {
			var undo []change
			ok := st.move(&undo, b, v)
			return undo, ok
		})
		return
	}

	occupants := st.occupants(v)
	if len(occupants) == 0 {
		return
	}
	o := occupants[st.rng.Intn(len(occupants))]
	if st.p.blocks[o].required {
		return
	}
	target := st.p.blocks[o].domain
	w := Unassigned
	if len(target) > 0 {
		w = target[st.rng.Intn(len(target))]
	}

	st.attempt([]int{b, o}, func() ([]change, bool) {
		var undo []change
		if !st.move(&undo, o, Unassigned) || !st.move(&undo, b, v) {
			return undo, false
		}
		if w != v && w != Unassigned {
			// best effort, staying unassigned is fine
			st.move(&undo, o, w)
		}
		return undo, true
	})
}

func (st *state) occupants(v int) []int {
	var out []int
	for b := range st.p.blocks {
		if st.value(b) == v {
			out = append(out, b)
		}
	}
	return out
}

// perturb unassigns a few random blocks and greedily reinserts them
func (st *state) perturb() {
	n := len(st.p.blocks)
	if n == 0 {
		return
	}
	k := max(1, n/20)
	var kicked []int
	for i := 0; i < k; i++ {
		b := st.rng.Intn(n)
		if st.p.blocks[b].required || st.value(b) == Unassigned {
			continue
		}
		st.set(b, Unassigned)
		kicked = append(kicked, b)
	}
	for _, b := range kicked {
		st.placeBest(b)
	}
	st.objective = st.p.m.Evaluate(st.values)
}

func (st *state) snapshot() []int {
	return append([]int(nil), st.values...)
}

// restore loads a snapshot and recomputes capacity loads
func (st *state) restore(values []int) {
	st.reset()
	for b := range st.p.blocks {
		st.set(b, values[st.p.blocks[b].vars[0]])
	}
	st.objective = st.p.m.Evaluate(st.values)
}
