package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/bunkhouse/internal/affinity"
	"github.com/ppiankov/bunkhouse/internal/cache"
	"github.com/ppiankov/bunkhouse/internal/dataio"
	"github.com/ppiankov/bunkhouse/internal/extract"
	"github.com/ppiankov/bunkhouse/internal/graph"
	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/normalize"
	"github.com/ppiankov/bunkhouse/internal/plan"
	"github.com/ppiankov/bunkhouse/internal/resolve"
	"github.com/ppiankov/bunkhouse/internal/score"
	"github.com/ppiankov/bunkhouse/internal/solver"
	"github.com/ppiankov/bunkhouse/internal/validate"
)

// memoryTTL bounds how long solutions stay in the in-process cache layer
const memoryTTL = time.Hour

// Pipeline orchestrates a complete planning run
type Pipeline struct {
	solver   solver.Solver
	scorer   *score.Scorer
	renderer *Renderer
	config   *model.Config
	logger   *zap.Logger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSolver replaces the solver backend
func WithSolver(s solver.Solver) Option {
	return func(p *Pipeline) { p.solver = s }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}

	var backend solver.Solver = solver.NewLocalSearch()
	if cfg.Cache.Enabled {
		backend = solver.NewCachedSolver(backend, cache.NewLayeredCache(memoryTTL, cfg.Cache.Dir, cfg.Cache.TTL), cfg.Cache.TTL)
	}

	p := &Pipeline{
		solver:   backend,
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.ColorSummary),
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads and validates a dataset
func (p *Pipeline) Load(ctx context.Context, src dataio.Source) (*model.Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if err := validate.NewValidator(src.HeaderRows()).Validate(ds); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return ds, nil
}

// Run plans beds for ds. Pins fix attendees to rooms on top of every other
// constraint. Only bad data and bad pins fail a run; an infeasible or
// timed-out solve still returns a Result with everyone accounted for.
func (p *Pipeline) Run(ctx context.Context, ds *model.Dataset, pins []model.Pin) (*model.Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	start := time.Now()

	// 1. Validate
	if err := validate.NewValidator(0).Validate(ds); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	log.Info("planning run started",
		zap.Int("rooms", len(ds.Rooms)),
		zap.Int("attendees", len(ds.Attendees)),
		zap.Int("pins", len(pins)))

	// 2. Normalize organizations and groups
	table := normalize.Build(ds.Attendees)
	attendees, auto := table.AutoAssignGroups(table.Apply(ds.Attendees))
	for _, a := range auto {
		log.Named("normalize").Info("group taken from attach text",
			zap.String("attendee", attendees[a.Attendee].FullName()),
			zap.String("group", a.Group))
	}

	// 3. Resolve attach texts
	edges, trails := resolve.New(attendees, p.config.Resolve).ResolveAll()
	resolveLog := log.Named("resolve")
	for _, t := range trails {
		if t.Method == model.MethodExact {
			continue
		}
		resolveLog.Debug("attach text resolved",
			zap.String("attendee", attendees[t.Source].FullName()),
			zap.String("text", t.Text),
			zap.String("method", string(t.Method)),
			zap.String("target", t.Target),
			zap.Float64("score", t.Score))
	}

	// 4. Classify references
	classification := graph.New(len(attendees), edges).Classify(attendees)
	for _, e := range classification.Demoted {
		log.Named("graph").Warn("mutual reference demoted to a preference",
			zap.String("from", attendees[e.From].FullName()),
			zap.String("to", attendees[e.To].FullName()))
	}

	// 5. Plan organization/building affinity
	preferred := affinity.Plan(ds.Rooms, attendees)

	// 6. Build the model
	planInput := plan.Input{
		Rooms:          ds.Rooms,
		Attendees:      attendees,
		Classification: classification,
		Affinity:       preferred,
		Pins:           pins,
	}
	built, err := plan.Build(planInput, plan.Options{
		Strict: p.config.Objective.Strict,
		Legacy: p.config.Objective.Weights,
	})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	log.Named("plan").Debug("model built",
		zap.Int("vars", len(built.Model.Vars)),
		zap.Int("mutual_pairs", len(classification.Mutual)),
		zap.Int("soft_edges", len(classification.Soft)),
		zap.Int64("place_weight", built.Weights.Place))

	// 7. Solve
	sol, err := p.solver.Solve(ctx, built.Model, solver.Params{
		TimeLimit: p.config.Solver.TimeLimit,
		Workers:   p.config.Solver.Workers,
		Seed:      p.config.Solver.Seed,
		Patience:  p.config.Solver.Patience,
		Logger:    log,
	})
	if err != nil && !errors.Is(err, solver.ErrNoSolution) {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if sol == nil {
		return nil, fmt.Errorf("solve: %w", solver.ErrNoSolution)
	}

	// 8. Extract placements and diagnostics
	result := extract.Extract(extract.Input{
		Rooms:          ds.Rooms,
		Attendees:      attendees,
		Edges:          edges,
		Trails:         trails,
		Classification: classification,
		Affinity:       preferred,
		Built:          built,
	}, sol)

	// 9. Score
	result.Score = p.scorer.Calculate(built.Model, attendees, sol)
	result.RunID = runID
	result.GeneratedAt = time.Now().UTC()

	log.Info("planning run finished",
		zap.String("status", string(result.Summary.Status)),
		zap.Int("placed", result.Summary.Placed),
		zap.Int("unplaced", result.Summary.Unplaced),
		zap.Bool("cached", result.Summary.Cached),
		zap.Duration("elapsed", time.Since(start)))

	return &result, nil
}

// RenderReport writes the result to every requested output and prints the
// terminal summary to w
func (p *Pipeline) RenderReport(w io.Writer, result *model.Result, xlsxPath, jsonPath, mdPath string, verbose bool) error {
	if xlsxPath != "" {
		if err := dataio.NewXLSXSink(xlsxPath).Write(result); err != nil {
			return fmt.Errorf("render workbook: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "✓ Wrote workbook: %s\n", xlsxPath)
		}
	}

	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(w, result)
	return nil
}
