package solver

import "sort"

type termKind int

const (
	termAssigned termKind = iota
	termInSet
	termPair
)

// term points at one objective term of the model
type term struct {
	kind termKind
	idx  int
}

// capUse is how many members of a block a capacity counts
type capUse struct {
	capacity int
	count    int
}

// block is a set of variables tied together by AllEqual constraints. The
// search always moves a block as a whole.
type block struct {
	vars     []VarID
	domain   []int            // values every member accepts, ascending
	allowed  []bool           // indexed by value
	required bool             // some member must be assigned
	caps     map[int][]capUse // value -> capacities that count this block there
	terms    []int            // indices into problem.terms touching any member
}

// problem is the read-only compiled form of a Model shared by all workers
type problem struct {
	m       *Model
	terms   []term
	blocks  []block
	blockOf []int // variable -> block
	bound   int64

	// infeasible names the first required block with an empty domain
	infeasible string
}

func compile(m *Model) *problem {
	p := &problem{
		m:     m,
		bound: m.UpperBound(),
	}

	p.blockOf = groupVars(m)
	members := make(map[int][]VarID)
	var order []int
	for v, b := range p.blockOf {
		if _, ok := members[b]; !ok {
			order = append(order, b)
		}
		members[b] = append(members[b], VarID(v))
	}

	// renumber blocks by their first variable
	renumber := make(map[int]int, len(order))
	for i, root := range order {
		renumber[root] = i
	}
	for v := range p.blockOf {
		p.blockOf[v] = renumber[p.blockOf[v]]
	}

	p.blocks = make([]block, len(order))
	for i, root := range order {
		p.blocks[i] = p.newBlock(members[root])
		if p.blocks[i].required && len(p.blocks[i].domain) == 0 && p.infeasible == "" {
			p.infeasible = m.Vars[members[root][0]].Name
		}
	}

	p.indexCapacities()
	p.indexTerms()
	return p
}

// groupVars runs union-find over AllEqual constraints and returns the root
// of each variable
func groupVars(m *Model) []int {
	parent := make([]int, len(m.Vars))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, eq := range m.AllEquals {
		first := find(int(eq.Vars[0]))
		for _, id := range eq.Vars[1:] {
			root := find(int(id))
			if root == first {
				continue
			}
			// lower index stays root so numbering follows input order
			if root < first {
				parent[first] = root
				first = root
			} else {
				parent[root] = first
			}
		}
	}

	roots := make([]int, len(m.Vars))
	for i := range roots {
		roots[i] = find(i)
	}
	return roots
}

func (p *problem) newBlock(vars []VarID) block {
	b := block{
		vars:    vars,
		allowed: make([]bool, p.m.Values),
		caps:    make(map[int][]capUse),
	}

	counts := make([]int, p.m.Values)
	for _, id := range vars {
		v := p.m.Vars[id]
		if v.Required {
			b.required = true
		}
		seen := make(map[int]bool, len(v.Domain))
		for _, d := range v.Domain {
			if !seen[d] {
				seen[d] = true
				counts[d]++
			}
		}
	}
	for value, n := range counts {
		if n == len(vars) {
			b.allowed[value] = true
			b.domain = append(b.domain, value)
		}
	}
	return b
}

func (p *problem) indexCapacities() {
	for ci, c := range p.m.Capacities {
		perBlock := make(map[int]int)
		var order []int
		for _, id := range c.Vars {
			b := p.blockOf[id]
			if perBlock[b] == 0 {
				order = append(order, b)
			}
			perBlock[b]++
		}
		for _, b := range order {
			p.blocks[b].caps[c.Value] = append(p.blocks[b].caps[c.Value], capUse{capacity: ci, count: perBlock[b]})
		}
	}
}

func (p *problem) indexTerms() {
	touch := func(t term, vars ...VarID) {
		idx := len(p.terms)
		p.terms = append(p.terms, t)
		seen := -1
		for _, v := range vars {
			b := p.blockOf[v]
			if b == seen {
				continue
			}
			seen = b
			p.blocks[b].terms = append(p.blocks[b].terms, idx)
		}
	}
	for i, a := range p.m.Assigned {
		touch(term{kind: termAssigned, idx: i}, a.Var)
	}
	for i, s := range p.m.InSets {
		touch(term{kind: termInSet, idx: i}, s.Var)
	}
	for i, pr := range p.m.Pairs {
		touch(term{kind: termPair, idx: i}, pr.A, pr.B)
	}
	for i := range p.blocks {
		p.blocks[i].terms = uniqueSorted(p.blocks[i].terms)
	}
}

func uniqueSorted(xs []int) []int {
	sort.Ints(xs)
	out := xs[:0]
	for _, x := range xs {
		if len(out) == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

func (p *problem) score(t term, values []int) int64 {
	switch t.kind {
	case termAssigned:
		return p.m.Assigned[t.idx].Score(values)
	case termInSet:
		return p.m.InSets[t.idx].Score(values)
	default:
		return p.m.Pairs[t.idx].Score(values)
	}
}
