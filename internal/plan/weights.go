package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// ErrWeightOverflow means the strict weights do not fit in int64
var ErrWeightOverflow = errors.New("objective weights overflow")

// Weights are the per-tier objective weights
type Weights struct {
	Place    int64 `json:"place"`
	Group    int64 `json:"group"`
	Attach   int64 `json:"attach"`
	Affinity int64 `json:"affinity"`
	Org      int64 `json:"org"`
}

// TermCounts are the number of objective terms in each tier
type TermCounts struct {
	Place      int `json:"place"`
	GroupPairs int `json:"group_pairs"`
	SoftEdges  int `json:"soft_edges"`
	Affinity   int `json:"affinity"`
	OrgPairs   int `json:"org_pairs"`
}

// LegacyWeights converts configured fixed weights
func LegacyWeights(w model.WeightsConfig) Weights {
	return Weights{
		Place:    w.Place,
		Group:    w.Group,
		Attach:   w.Attach,
		Affinity: w.Affinity,
		Org:      w.Org,
	}
}

// StrictWeights makes each tier outweigh everything below it: a tier's
// weight is one more than the largest total swing all lower tiers can
// produce. Pair terms swing by reward plus penalty, single terms by weight.
func StrictWeights(n TermCounts) (Weights, error) {
	var w Weights
	var below int64 // total swing of the tiers already weighted
	var err error

	next := func(terms int, swingPerUnit int64) int64 {
		if err != nil {
			return 0
		}
		weight, e := add(below, 1)
		if e != nil {
			err = e
			return 0
		}
		swing, e := mul(int64(terms), swingPerUnit)
		if e == nil {
			swing, e = mul(swing, weight)
		}
		if e == nil {
			below, e = add(below, swing)
		}
		if e != nil {
			err = e
		}
		return weight
	}

	w.Org = next(n.OrgPairs, 2)
	w.Affinity = next(n.Affinity, 1)
	w.Attach = next(n.SoftEdges, 2)
	w.Group = next(n.GroupPairs, 2)
	w.Place = next(n.Place, 1)

	if err != nil {
		return Weights{}, err
	}
	return w, nil
}

func add(a, b int64) (int64, error) {
	if a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: %d + %d", ErrWeightOverflow, a, b)
	}
	return a + b, nil
}

func mul(a, b int64) (int64, error) {
	if a != 0 && b > math.MaxInt64/a {
		return 0, fmt.Errorf("%w: %d * %d", ErrWeightOverflow, a, b)
	}
	return a * b, nil
}
