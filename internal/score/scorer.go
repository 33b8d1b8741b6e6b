package score

import (
	"fmt"

	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/plan"
	"github.com/ppiankov/bunkhouse/internal/solver"
)

// Scorer reports how well a solution satisfies the soft constraints
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate evaluates sol against m and generates diagnostic signals, one
// per constraint family, in objective tier order
func (s *Scorer) Calculate(m *solver.Model, attendees []model.Attendee, sol *solver.Solution) model.Score {
	values := sol.Values
	var signals []model.Signal

	// 1. Placement
	signals = append(signals, s.calculatePlacement(values))

	// 2. Mutual pairs (hard)
	signals = append(signals, s.calculateMutual(m, values))

	// 3. Group cohesion
	signals = append(signals, s.calculatePairs(m, values, plan.TagGroup, model.SignalGroupCohesion, "Group-same-room"))

	// 4. One-directional attachments
	signals = append(signals, s.calculatePairs(m, values, plan.TagAttach, model.SignalAttachSoft, "Attach-same-room"))

	// 5. Org/building affinity
	signals = append(signals, s.calculateAffinity(m, values))

	// 6. Org cohesion
	signals = append(signals, s.calculatePairs(m, values, plan.TagOrg, model.SignalOrgCohesion, "Org-same-building"))

	// 7. Accessibility, only when somebody needs it
	if signal, ok := s.calculateAccessibility(attendees, values); ok {
		signals = append(signals, signal)
	}

	// 8. Solver outcome
	signals = append(signals, s.solverOutcome(sol))

	return model.Score{
		Objective: sol.Objective,
		Bound:     sol.Bound,
		Signals:   signals,
	}
}

func (s *Scorer) calculatePlacement(values []int) model.Signal {
	placed := 0
	for _, v := range values {
		if v != solver.Unassigned {
			placed++
		}
	}
	total := len(values)

	severity := model.SeverityInfo
	if placed < total {
		severity = model.SeverityWarning
	}
	if placed == 0 && total > 0 {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalPlacement,
		Severity:    severity,
		Description: fmt.Sprintf("Placed: %d/%d", placed, total),
		Data: map[string]interface{}{
			"placed":   placed,
			"unplaced": total - placed,
			"total":    total,
		},
	}
}

func (s *Scorer) calculateMutual(m *solver.Model, values []int) model.Signal {
	together, unplaced := 0, 0
	for _, eq := range m.AllEquals {
		if len(eq.Vars) == 0 {
			continue
		}
		if values[eq.Vars[0]] == solver.Unassigned {
			unplaced++
		} else {
			together++
		}
	}

	severity := model.SeverityInfo
	if unplaced > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalMutualPairs,
		Severity:    severity,
		Description: fmt.Sprintf("Mutual attach pairs: %d (hard), %d placed together", len(m.AllEquals), together),
		Data: map[string]interface{}{
			"pairs":    len(m.AllEquals),
			"together": together,
			"unplaced": unplaced,
		},
	}
}

// calculatePairs counts matched (both placed, same class) and mismatched
// (both placed, different class) pair terms carrying tag
func (s *Scorer) calculatePairs(m *solver.Model, values []int, tag string, kind model.SignalType, label string) model.Signal {
	total, matched, mismatched := 0, 0, 0
	for _, p := range m.Pairs {
		if p.Tag != tag {
			continue
		}
		total++
		a, b := values[p.A], values[p.B]
		if a == solver.Unassigned || b == solver.Unassigned {
			continue
		}
		if classOf(p, a) == classOf(p, b) {
			matched++
		} else {
			mismatched++
		}
	}

	severity := model.SeverityInfo
	if total > 0 && mismatched*2 > total {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        kind,
		Severity:    severity,
		Description: fmt.Sprintf("%s: %d/%d matched, %d mismatched", label, matched, total, mismatched),
		Data: map[string]interface{}{
			"total":      total,
			"matched":    matched,
			"mismatched": mismatched,
			"formula":    "matched: both placed together; mismatched: both placed apart",
		},
	}
}

func (s *Scorer) calculateAffinity(m *solver.Model, values []int) model.Signal {
	hits := 0
	for _, set := range m.InSets {
		if set.Tag != plan.TagAffinity {
			continue
		}
		v := values[set.Var]
		for _, want := range set.Values {
			if v == want {
				hits++
				break
			}
		}
	}

	total := 0
	for _, set := range m.InSets {
		if set.Tag == plan.TagAffinity {
			total++
		}
	}

	return model.Signal{
		Type:        model.SignalOrgAffinity,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Org-building affinity: %d/%d in preferred building", hits, total),
		Data: map[string]interface{}{
			"hits":  hits,
			"total": total,
		},
	}
}

func (s *Scorer) calculateAccessibility(attendees []model.Attendee, values []int) (model.Signal, bool) {
	needing, placed := 0, 0
	for i, a := range attendees {
		if !a.FloorOneOnly && !a.BottomBunkOnly {
			continue
		}
		needing++
		if i < len(values) && values[i] != solver.Unassigned {
			placed++
		}
	}
	if needing == 0 {
		return model.Signal{}, false
	}

	severity := model.SeverityInfo
	if placed < needing {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalAccessibility,
		Severity:    severity,
		Description: fmt.Sprintf("Accessibility needs met: %d/%d", placed, needing),
		Data: map[string]interface{}{
			"needing": needing,
			"placed":  placed,
		},
	}, true
}

func (s *Scorer) solverOutcome(sol *solver.Solution) model.Signal {
	severity := model.SeverityInfo
	switch sol.Status {
	case solver.StatusInfeasible, solver.StatusUnknown:
		severity = model.SeverityCritical
	case solver.StatusFeasible:
		if sol.TimedOut {
			severity = model.SeverityWarning
		}
	}

	gap := sol.Bound - sol.Objective
	return model.Signal{
		Type:        model.SignalSolverOutcome,
		Severity:    severity,
		Description: fmt.Sprintf("Solution: %s (objective %d of bound %d)", sol.Status, sol.Objective, sol.Bound),
		Data: map[string]interface{}{
			"status":    string(sol.Status),
			"objective": sol.Objective,
			"bound":     sol.Bound,
			"gap":       gap,
			"timed_out": sol.TimedOut,
			"cached":    sol.Cached,
			"elapsed":   sol.Elapsed.String(),
		},
	}
}

func classOf(p solver.Pair, value int) int {
	if p.Class == nil {
		return value
	}
	return p.Class[value]
}
