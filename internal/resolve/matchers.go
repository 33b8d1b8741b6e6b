package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/bunkhouse/internal/model"
)

type verdict int

const (
	pass   verdict = iota // matcher has nothing to say, try the next one
	accept                // resolved
	reject                // stop the cascade unresolved
)

// decision is what a matcher concluded about a query
type decision struct {
	verdict    verdict
	kind       model.TargetKind
	target     int    // attendee index when kind is TargetAttendee
	targetName string // group or organization name otherwise
	method     model.Method
	confidence float64
	message    string
}

func acceptAttendee(target int, method model.Method, confidence float64, message string) decision {
	return decision{
		verdict:    accept,
		kind:       model.TargetAttendee,
		target:     target,
		method:     method,
		confidence: confidence,
		message:    message,
	}
}

func ambiguous(method model.Method, message string) decision {
	return decision{
		verdict: reject,
		method:  model.MethodAmbiguous,
		message: fmt.Sprintf("AMBIGUOUS (%s): %s", method, message),
	}
}

// matcher is one resolution strategy. The cascade runs matchers in order
// and stops at the first one that accepts or rejects.
type matcher interface {
	method() model.Method
	match(r *Resolver, q *query) decision
}

func defaultCascade() []matcher {
	return []matcher{
		exactMatcher{},
		nicknameMatcher{},
		lastNameMatcher{},
		firstNameMatcher{},
		prefixMatcher{},
		fuzzyMatcher{},
	}
}

// exactMatcher: lowercase "first last" equality
type exactMatcher struct{}

func (exactMatcher) method() model.Method { return model.MethodExact }

func (m exactMatcher) match(r *Resolver, q *query) decision {
	return r.fullNameMatch(q, q.text, m.method())
}

// fullNameMatch accepts an attendee whose full name equals key. Duplicate
// full names are split by affinity and fall back to the first in input order.
func (r *Resolver) fullNameMatch(q *query, key string, method model.Method) decision {
	candidates := r.others(r.byFull[key], q.source)
	if len(candidates) == 0 {
		return decision{}
	}

	best, ok := r.pickBest(q.source, candidates)
	if !ok {
		best = candidates[0]
	}
	msg := fmt.Sprintf("%s match to '%s'", method, r.people[best].name)
	if len(candidates) > 1 {
		msg += fmt.Sprintf(" (picked from %d attendees with that name)", len(candidates))
	}
	q.consider(model.CandidateOutcome{
		Name:     r.people[best].name,
		Raw:      1,
		Combined: 1,
		Affinity: r.signals(q.source, best),
		Accepted: true,
	})
	return acceptAttendee(best, method, 1, msg)
}

// nicknameMatcher expands a short first name and retries the exact lookup
type nicknameMatcher struct{}

func (nicknameMatcher) method() model.Method { return model.MethodNickname }

func (m nicknameMatcher) match(r *Resolver, q *query) decision {
	if len(q.tokens) != 2 {
		return decision{}
	}
	expanded, ok := expandNickname(q.firstToken())
	if !ok {
		return decision{}
	}
	return r.fullNameMatch(q, expanded+" "+q.lastToken(), m.method())
}

// lastNameMatcher matches on the last token and checks the first name is
// plausible for each candidate sharing that last name
type lastNameMatcher struct{}

func (lastNameMatcher) method() model.Method { return model.MethodLastName }

func (m lastNameMatcher) match(r *Resolver, q *query) decision {
	if len(q.tokens) != 2 {
		return decision{}
	}
	first, last := q.firstToken(), q.lastToken()

	candidates := r.others(r.byLast[last], q.source)
	if len(candidates) == 0 {
		return decision{}
	}

	expanded, _ := expandNickname(first)
	plausible := make([]int, 0, len(candidates))
	for _, c := range candidates {
		candFirst := r.people[c].first
		sim := r.sim.Score(first, candFirst)
		switch {
		case expanded == candFirst,
			candFirst != "" && first[0] == candFirst[0],
			sim >= r.cfg.FirstNameMinimum:
			plausible = append(plausible, c)
		default:
			q.rejected[c] = true
			q.consider(model.CandidateOutcome{
				Name:     r.people[c].name,
				Raw:      sim,
				Affinity: r.signals(q.source, c),
				Reason:   fmt.Sprintf("first name '%s' vs '%s' (sim=%.2f), likely a different person", first, candFirst, sim),
			})
		}
	}
	if len(plausible) == 0 {
		return decision{}
	}

	best, ok := r.pickBest(q.source, plausible)
	if !ok {
		return ambiguous(m.method(), fmt.Sprintf("'%s' could be %s", q.trail.Text, r.names(plausible)))
	}

	sim := r.sim.Score(first, r.people[best].first)
	aff := r.signals(q.source, best)
	q.consider(model.CandidateOutcome{
		Name:     r.people[best].name,
		Raw:      sim,
		Affinity: aff,
		Accepted: true,
	})
	return acceptAttendee(best, m.method(), sim, fmt.Sprintf(
		"Last-name matched to '%s' (picked from %d candidates, affinity=%d)",
		r.people[best].name, len(plausible), aff))
}

// firstNameMatcher handles single-token texts
type firstNameMatcher struct{}

func (firstNameMatcher) method() model.Method { return model.MethodFirstName }

func (m firstNameMatcher) match(r *Resolver, q *query) decision {
	if len(q.tokens) != 1 {
		return decision{}
	}

	candidates := r.others(r.byFirst[q.firstToken()], q.source)
	if len(candidates) == 0 {
		return decision{}
	}

	best, ok := r.pickBest(q.source, candidates)
	if !ok {
		return ambiguous(m.method(), fmt.Sprintf("'%s' could be %s", q.trail.Text, r.names(candidates)))
	}

	aff := r.signals(q.source, best)
	q.consider(model.CandidateOutcome{
		Name:     r.people[best].name,
		Affinity: aff,
		Accepted: true,
	})
	return acceptAttendee(best, m.method(), 1, fmt.Sprintf(
		"First-name matched to '%s' (from %d candidates, affinity=%d)",
		r.people[best].name, len(candidates), aff))
}

// prefixMatcher handles "First L" and "First Smi" abbreviations
type prefixMatcher struct{}

const maxPrefixLen = 3

func (prefixMatcher) method() model.Method { return model.MethodPrefix }

func (m prefixMatcher) match(r *Resolver, q *query) decision {
	if len(q.tokens) != 2 || len(q.lastToken()) > maxPrefixLen {
		return decision{}
	}
	first, prefix := q.firstToken(), q.lastToken()

	var candidates []int
	for _, c := range r.others(r.byFirst[first], q.source) {
		if strings.HasPrefix(r.people[c].last, prefix) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return decision{}
	}

	best, ok := r.pickBest(q.source, candidates)
	if !ok {
		return ambiguous(m.method(), fmt.Sprintf("'%s' could be %s", q.trail.Text, r.names(candidates)))
	}

	q.consider(model.CandidateOutcome{
		Name:     r.people[best].name,
		Affinity: r.signals(q.source, best),
		Accepted: true,
	})
	return acceptAttendee(best, m.method(), 1, fmt.Sprintf("Prefix matched to '%s'", r.people[best].name))
}

// fuzzyMatcher scores the text against every full name with an affinity boost
type fuzzyMatcher struct{}

// maxTrailCandidates bounds how many fuzzy runners-up a trail keeps
const maxTrailCandidates = 3

func (fuzzyMatcher) method() model.Method { return model.MethodFuzzy }

func (m fuzzyMatcher) match(r *Resolver, q *query) decision {
	type scored struct {
		id       int
		raw      float64
		combined float64
		aff      int
	}

	var ranked []scored
	for id, p := range r.people {
		if id == q.source || q.rejected[id] || p.full == "" {
			continue
		}
		raw := r.sim.Score(q.text, p.full)
		aff := r.signals(q.source, id)
		ranked = append(ranked, scored{
			id:       id,
			raw:      raw,
			combined: raw + float64(aff)*r.cfg.AffinityBonus,
			aff:      aff,
		})
	}
	if len(ranked) == 0 {
		return decision{}
	}

	// insertion order is input order, so a stable sort keeps it as the last tie-break
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].combined != ranked[j].combined {
			return ranked[i].combined > ranked[j].combined
		}
		return ranked[i].raw > ranked[j].raw
	})

	best := ranked[0]
	threshold := r.cfg.FuzzyThreshold
	if best.aff > 0 {
		threshold = r.cfg.AffinityThreshold
	}
	accepted := best.raw >= threshold

	for i := 0; i < len(ranked) && i < maxTrailCandidates; i++ {
		c := ranked[i]
		outcome := model.CandidateOutcome{
			Name:     r.people[c.id].name,
			Raw:      c.raw,
			Combined: c.combined,
			Affinity: c.aff,
			Accepted: i == 0 && accepted,
		}
		if i == 0 && !accepted {
			outcome.Reason = fmt.Sprintf("raw %.2f below threshold %.2f", c.raw, threshold)
		}
		q.consider(outcome)
	}

	if !accepted {
		return decision{
			verdict:    reject,
			method:     model.MethodUnresolved,
			confidence: best.raw,
			message: fmt.Sprintf("UNRESOLVED: no match found for '%s' (best raw=%.2f, affinity=%d)",
				q.trail.Text, best.raw, best.aff),
		}
	}

	return acceptAttendee(best.id, m.method(), best.raw, fmt.Sprintf(
		"Fuzzy matched to '%s' (raw=%.2f, affinity=%d, combined=%.2f)",
		r.people[best.id].name, best.raw, best.aff, best.combined))
}
