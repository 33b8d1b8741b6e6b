package resolve

import (
	"fmt"
	"strings"

	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/normalize"
)

// person is the resolver's lowercase view of an attendee
type person struct {
	first  string
	last   string
	full   string
	org    string
	group  string
	name   string // display "First Last"
	attach string
}

// Resolver resolves attach texts against one fixed attendee universe
type Resolver struct {
	people  []person
	byFull  map[string][]int
	byFirst map[string][]int
	byLast  map[string][]int

	groups []reference
	orgs   []reference

	sim     *Similarity
	cfg     model.ResolveConfig
	cascade []matcher
}

// reference is a group or organization name a text may point at
type reference struct {
	display string
	key     string
	compact string
}

// New indexes attendees (already normalized) for resolution
func New(attendees []model.Attendee, cfg model.ResolveConfig) *Resolver {
	r := &Resolver{
		people:  make([]person, len(attendees)),
		byFull:  make(map[string][]int),
		byFirst: make(map[string][]int),
		byLast:  make(map[string][]int),
		sim:     NewSimilarity(),
		cfg:     cfg,
		cascade: defaultCascade(),
	}

	seenGroup := make(map[string]bool)
	seenOrg := make(map[string]bool)

	for i, a := range attendees {
		p := person{
			first:  strings.ToLower(strings.TrimSpace(a.First)),
			last:   strings.ToLower(strings.TrimSpace(a.Last)),
			org:    a.Org,
			group:  a.Group,
			name:   a.FullName(),
			attach: a.AttachText,
		}
		p.full = collapse(p.first + " " + p.last)
		r.people[i] = p

		if p.first != "" && p.last != "" {
			r.byFull[p.full] = append(r.byFull[p.full], i)
		}
		if p.first != "" {
			r.byFirst[p.first] = append(r.byFirst[p.first], i)
		}
		if p.last != "" {
			r.byLast[p.last] = append(r.byLast[p.last], i)
		}

		if a.Group != "" && !seenGroup[a.Group] {
			seenGroup[a.Group] = true
			r.groups = append(r.groups, newReference(a.Group))
		}
		if a.Org != "" && !seenOrg[a.Org] {
			seenOrg[a.Org] = true
			r.orgs = append(r.orgs, newReference(a.Org))
		}
	}

	return r
}

func newReference(display string) reference {
	return reference{
		display: display,
		key:     normalize.Key(display),
		compact: normalize.CompactKey(display),
	}
}

// collapse lowercases and squeezes whitespace
func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Trail is the diagnostic record of one resolution
type Trail struct {
	Source     model.AttendeeID
	Text       string
	Method     model.Method
	Target     string
	Score      float64
	Candidates []model.CandidateOutcome
	Message    string
}

// Warning converts the trail to an output record
func (t Trail) Warning(personName string) model.AttachWarning {
	return model.AttachWarning{
		Attendee:   t.Source,
		Person:     personName,
		AttachText: t.Text,
		Method:     t.Method,
		Target:     t.Target,
		Score:      t.Score,
		Candidates: t.Candidates,
		Message:    t.Message,
	}
}

// query is the state of one resolution while it moves down the cascade
type query struct {
	source   int
	text     string
	tokens   []string
	rejected map[int]bool
	trail    *Trail
}

// firstToken and lastToken assume len(tokens) >= 1
func (q *query) firstToken() string { return q.tokens[0] }
func (q *query) lastToken() string  { return q.tokens[len(q.tokens)-1] }

func (q *query) consider(c model.CandidateOutcome) {
	q.trail.Candidates = append(q.trail.Candidates, c)
}

// Resolve resolves the attach text of one attendee. Attendees without
// attach text get a TargetNone edge and an empty trail.
func (r *Resolver) Resolve(source model.AttendeeID) (model.AttachmentEdge, Trail) {
	edge := model.AttachmentEdge{
		Source: source,
		Kind:   model.TargetNone,
		Target: model.NoAttendee,
	}
	if int(source) < 0 || int(source) >= len(r.people) {
		return edge, Trail{Source: source}
	}

	attachText := r.people[source].attach
	trail := Trail{Source: source, Text: attachText}

	text := collapse(attachText)
	if text == "" {
		return edge, trail
	}

	q := &query{
		source:   int(source),
		text:     text,
		tokens:   strings.Fields(text),
		rejected: make(map[int]bool),
		trail:    &trail,
	}

	d, decided := r.referenceKind(q)
	if !decided {
		for _, m := range r.cascade {
			d = m.match(r, q)
			if d.verdict != pass {
				decided = true
				break
			}
		}
	}
	if !decided {
		d = decision{
			verdict: reject,
			method:  model.MethodUnresolved,
			message: fmt.Sprintf("UNRESOLVED: no match found for '%s'", attachText),
		}
	}

	trail.Method = d.method
	trail.Message = d.message
	trail.Score = d.confidence
	edge.Method = d.method
	edge.Confidence = d.confidence

	switch {
	case d.verdict == accept && d.kind == model.TargetAttendee:
		edge.Kind = model.TargetAttendee
		edge.Target = model.AttendeeID(d.target)
		edge.TargetName = r.people[d.target].name
		trail.Target = edge.TargetName
	case d.verdict == accept:
		edge.Kind = d.kind
		edge.TargetName = d.targetName
		trail.Target = d.targetName
	}

	return edge, trail
}

// ResolveAll resolves every attendee in input order. It returns one edge per
// attendee and one trail per non-empty attach text.
func (r *Resolver) ResolveAll() ([]model.AttachmentEdge, []Trail) {
	edges := make([]model.AttachmentEdge, len(r.people))
	var trails []Trail
	for i := range r.people {
		edge, trail := r.Resolve(model.AttendeeID(i))
		edges[i] = edge
		if trail.Method != "" {
			trails = append(trails, trail)
		}
	}
	return edges, trails
}

// referenceKind catches texts that name a group, an organization, or
// several people at once. Those never resolve to a single person.
func (r *Resolver) referenceKind(q *query) (decision, bool) {
	if strings.HasPrefix(q.text, "cr - ") || strings.Contains(q.text, ", ") || strings.Contains(q.text, " and ") {
		return decision{
			verdict: reject,
			method:  model.MethodNonPerson,
			message: fmt.Sprintf("Skipped: '%s' lists several people or a program, not one person", q.trail.Text),
		}, true
	}

	compact := strings.ReplaceAll(q.text, " ", "")
	if g, ok := exactReference(r.groups, q.text, compact); ok {
		return referenceDecision(model.TargetGroup, g, 1, q), true
	}
	if o, ok := exactReference(r.orgs, q.text, compact); ok {
		return referenceDecision(model.TargetOrganization, o, 1, q), true
	}

	// A near-miss group spelling must not hijack an exact person name.
	if others := r.others(r.byFull[q.text], q.source); len(others) > 0 {
		return decision{}, false
	}

	if g, score, ok := r.fuzzyReference(r.groups, compact); ok {
		return referenceDecision(model.TargetGroup, g, score, q), true
	}
	if o, score, ok := r.fuzzyReference(r.orgs, compact); ok {
		return referenceDecision(model.TargetOrganization, o, score, q), true
	}
	return decision{}, false
}

func exactReference(refs []reference, text, compact string) (string, bool) {
	for _, ref := range refs {
		if ref.key == text || ref.compact == compact {
			return ref.display, true
		}
	}
	return "", false
}

func (r *Resolver) fuzzyReference(refs []reference, compact string) (string, float64, bool) {
	best, bestScore := "", 0.0
	for _, ref := range refs {
		score := r.sim.Score(compact, ref.compact)
		if score > bestScore {
			best, bestScore = ref.display, score
		}
	}
	if best == "" || bestScore < r.cfg.GroupThreshold {
		return "", 0, false
	}
	return best, bestScore, true
}

func referenceDecision(kind model.TargetKind, name string, score float64, q *query) decision {
	method := model.MethodGroupRef
	label := "group"
	if kind == model.TargetOrganization {
		method = model.MethodOrgRef
		label = "organization"
	}
	return decision{
		verdict:    accept,
		kind:       kind,
		targetName: name,
		method:     method,
		confidence: score,
		message:    fmt.Sprintf("'%s' refers to %s '%s', not a person (score=%.2f)", q.trail.Text, label, name, score),
	}
}

// others drops the source itself from a candidate list
func (r *Resolver) others(ids []int, source int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != source {
			out = append(out, id)
		}
	}
	return out
}

// affinity reports the shared organizational signals of two attendees
func (r *Resolver) affinity(source, candidate int) (sameOrg, sameGroup bool) {
	s, c := r.people[source], r.people[candidate]
	sameOrg = s.org != "" && s.org == c.org
	sameGroup = s.group != "" && s.group == c.group
	return sameOrg, sameGroup
}

// signals counts shared organizational signals (0, 1 or 2)
func (r *Resolver) signals(source, candidate int) int {
	sameOrg, sameGroup := r.affinity(source, candidate)
	n := 0
	if sameOrg {
		n++
	}
	if sameGroup {
		n++
	}
	return n
}

// pickBest chooses among candidates by affinity to the source: a single
// candidate wins outright; otherwise same organization ranks first, then
// same group. A tie at the top, or no affinity at all, is ambiguous.
func (r *Resolver) pickBest(source int, candidates []int) (int, bool) {
	switch len(candidates) {
	case 0:
		return -1, false
	case 1:
		return candidates[0], true
	}

	rank := func(c int) int {
		sameOrg, sameGroup := r.affinity(source, c)
		n := 0
		if sameOrg {
			n += 2
		}
		if sameGroup {
			n++
		}
		return n
	}

	best, bestRank, tied := -1, -1, false
	for _, c := range candidates {
		switch k := rank(c); {
		case k > bestRank:
			best, bestRank, tied = c, k, false
		case k == bestRank:
			tied = true
		}
	}
	if tied || bestRank == 0 {
		return -1, false
	}
	return best, true
}

// names renders candidate display names for messages
func (r *Resolver) names(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "'" + r.people[id].name + "'"
	}
	return strings.Join(parts, ", ")
}
