package solver

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Unassigned is the sentinel value of a variable that takes no value
const Unassigned = -1

// VarID indexes Model.Vars
type VarID int

// Var is one categorical decision variable. Its value is one of Domain or
// Unassigned, the latter only when Required is false.
type Var struct {
	Name     string `json:"name"`
	Domain   []int  `json:"domain"`
	Required bool   `json:"required,omitempty"`
}

// Capacity bounds how many of Vars may take Value at once
type Capacity struct {
	Name  string  `json:"name"`
	Value int     `json:"value"`
	Vars  []VarID `json:"vars"`
	Limit int     `json:"limit"`
}

// AllEqual forces Vars to take the same value, Unassigned included
type AllEqual struct {
	Name string  `json:"name"`
	Vars []VarID `json:"vars"`
}

// Assigned rewards a variable for taking any value
type Assigned struct {
	Tag    string `json:"tag"`
	Var    VarID  `json:"var"`
	Weight int64  `json:"weight"`
}

// InSet rewards a variable for taking one of Values
type InSet struct {
	Tag    string `json:"tag"`
	Var    VarID  `json:"var"`
	Values []int  `json:"values"`
	Weight int64  `json:"weight"`
}

// Pair compares two variables through Class, which maps a value to a class
// id (nil means the value itself). When both are assigned the pair earns
// Reward for equal classes and loses Penalty otherwise.
type Pair struct {
	Tag     string `json:"tag"`
	A       VarID  `json:"a"`
	B       VarID  `json:"b"`
	Class   []int  `json:"class,omitempty"`
	Reward  int64  `json:"reward"`
	Penalty int64  `json:"penalty"`
}

// Model is a maximization problem over categorical variables whose values
// are 0..Values-1.
type Model struct {
	Values     int        `json:"values"`
	Vars       []Var      `json:"vars"`
	Capacities []Capacity `json:"capacities"`
	AllEquals  []AllEqual `json:"all_equals"`
	Assigned   []Assigned `json:"assigned"`
	InSets     []InSet    `json:"in_sets"`
	Pairs      []Pair     `json:"pairs"`
}

// ErrViolation is wrapped by Check for every broken hard constraint
var ErrViolation = errors.New("constraint violated")

// NewModel creates an empty model over the given number of values
func NewModel(values int) *Model {
	return &Model{Values: values}
}

// AddVar appends a variable and returns its id
func (m *Model) AddVar(v Var) VarID {
	m.Vars = append(m.Vars, v)
	return VarID(len(m.Vars) - 1)
}

// classOf maps a value through a pair's class table
func (p Pair) classOf(value int) int {
	if p.Class == nil {
		return value
	}
	return p.Class[value]
}

// Score is the contribution of p under the given assignment
func (p Pair) Score(values []int) int64 {
	va, vb := values[p.A], values[p.B]
	if va == Unassigned || vb == Unassigned {
		return 0
	}
	if p.classOf(va) == p.classOf(vb) {
		return p.Reward
	}
	return -p.Penalty
}

// Score is the contribution of s under the given assignment
func (s InSet) Score(values []int) int64 {
	v := values[s.Var]
	for _, want := range s.Values {
		if v == want {
			return s.Weight
		}
	}
	return 0
}

// Score is the contribution of a under the given assignment
func (a Assigned) Score(values []int) int64 {
	if values[a.Var] == Unassigned {
		return 0
	}
	return a.Weight
}

// Evaluate returns the objective value of an assignment
func (m *Model) Evaluate(values []int) int64 {
	var total int64
	for _, a := range m.Assigned {
		total += a.Score(values)
	}
	for _, s := range m.InSets {
		total += s.Score(values)
	}
	for _, p := range m.Pairs {
		total += p.Score(values)
	}
	return total
}

// UpperBound is the objective if every reward were collected and no
// penalty paid. It is trivial but valid.
func (m *Model) UpperBound() int64 {
	var total int64
	for _, a := range m.Assigned {
		total += max(a.Weight, 0)
	}
	for _, s := range m.InSets {
		total += max(s.Weight, 0)
	}
	for _, p := range m.Pairs {
		total += max(p.Reward, 0)
	}
	return total
}

// Check verifies an assignment against every hard constraint
func (m *Model) Check(values []int) error {
	if len(values) != len(m.Vars) {
		return fmt.Errorf("%w: %d values for %d variables", ErrViolation, len(values), len(m.Vars))
	}

	for i, v := range m.Vars {
		if err := v.check(values[i]); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}

	for _, c := range m.Capacities {
		n := 0
		for _, id := range c.Vars {
			if values[id] == c.Value {
				n++
			}
		}
		if n > c.Limit {
			return fmt.Errorf("%w: %s holds %d, limit %d", ErrViolation, c.Name, n, c.Limit)
		}
	}

	for _, eq := range m.AllEquals {
		for _, id := range eq.Vars[1:] {
			if values[id] != values[eq.Vars[0]] {
				return fmt.Errorf("%w: %s", ErrViolation, eq.Name)
			}
		}
	}

	return nil
}

func (v Var) check(value int) error {
	if value == Unassigned {
		if v.Required {
			return fmt.Errorf("%w: required but unassigned", ErrViolation)
		}
		return nil
	}
	for _, d := range v.Domain {
		if d == value {
			return nil
		}
	}
	return fmt.Errorf("%w: value %d outside domain", ErrViolation, value)
}

// Validate reports structural problems: references to unknown variables or
// values outside 0..Values-1.
func (m *Model) Validate() error {
	inRange := func(id VarID) bool { return id >= 0 && int(id) < len(m.Vars) }
	valueOK := func(v int) bool { return v >= 0 && v < m.Values }

	for _, v := range m.Vars {
		for _, d := range v.Domain {
			if !valueOK(d) {
				return fmt.Errorf("variable %q: domain value %d out of range", v.Name, d)
			}
		}
	}
	for _, c := range m.Capacities {
		if !valueOK(c.Value) {
			return fmt.Errorf("capacity %q: value %d out of range", c.Name, c.Value)
		}
		for _, id := range c.Vars {
			if !inRange(id) {
				return fmt.Errorf("capacity %q: unknown variable %d", c.Name, id)
			}
		}
	}
	for _, eq := range m.AllEquals {
		if len(eq.Vars) == 0 {
			return fmt.Errorf("all-equal %q: no variables", eq.Name)
		}
		for _, id := range eq.Vars {
			if !inRange(id) {
				return fmt.Errorf("all-equal %q: unknown variable %d", eq.Name, id)
			}
		}
	}
	for _, a := range m.Assigned {
		if !inRange(a.Var) {
			return fmt.Errorf("assigned term: unknown variable %d", a.Var)
		}
	}
	for _, s := range m.InSets {
		if !inRange(s.Var) {
			return fmt.Errorf("in-set term: unknown variable %d", s.Var)
		}
	}
	for _, p := range m.Pairs {
		if !inRange(p.A) || !inRange(p.B) {
			return fmt.Errorf("pair term: unknown variable %d/%d", p.A, p.B)
		}
		if p.Class != nil && len(p.Class) != m.Values {
			return fmt.Errorf("pair term: class table has %d entries for %d values", len(p.Class), m.Values)
		}
	}
	return nil
}

// Fingerprint is a stable hash of the model, used as a cache key
func (m *Model) Fingerprint() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal model: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
