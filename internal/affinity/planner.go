// Package affinity assigns each organization an ordered list of preferred
// buildings so that its members can be steered toward living together.
package affinity

import (
	"sort"

	"github.com/ppiankov/bunkhouse/internal/model"
)

type building struct {
	name      string
	capacity  int
	remaining int
}

// Plan greedily hands buildings to organizations, largest organization
// first. The result is advisory: it only feeds an objective term.
func Plan(rooms []model.Room, attendees []model.Attendee) model.OrgAffinity {
	buildings := collectBuildings(rooms)
	result := make(model.OrgAffinity)
	if len(buildings) == 0 {
		return result
	}

	orgs, headcount := countOrgs(attendees)
	sort.SliceStable(orgs, func(i, j int) bool {
		return headcount[orgs[i]] > headcount[orgs[j]]
	})

	for _, org := range orgs {
		sort.SliceStable(buildings, func(i, j int) bool {
			if buildings[i].remaining != buildings[j].remaining {
				return buildings[i].remaining > buildings[j].remaining
			}
			return buildings[i].name < buildings[j].name
		})

		need := headcount[org]
		var preferred []string
		for _, b := range buildings {
			if need <= 0 || b.remaining <= 0 {
				break
			}
			take := min(need, b.remaining)
			b.remaining -= take
			need -= take
			preferred = append(preferred, b.name)
		}

		if len(preferred) == 0 {
			preferred = []string{largest(buildings).name}
		}
		result[org] = preferred
	}

	return result
}

func collectBuildings(rooms []model.Room) []*building {
	index := make(map[string]*building)
	var out []*building
	for _, r := range rooms {
		b, ok := index[r.Building]
		if !ok {
			b = &building{name: r.Building}
			index[r.Building] = b
			out = append(out, b)
		}
		b.capacity += r.Capacity()
	}
	for _, b := range out {
		b.remaining = b.capacity
	}
	return out
}

// countOrgs returns canonical organizations in first-seen order with their headcount
func countOrgs(attendees []model.Attendee) ([]string, map[string]int) {
	var orgs []string
	headcount := make(map[string]int)
	for _, a := range attendees {
		if a.Org == "" {
			continue
		}
		if headcount[a.Org] == 0 {
			orgs = append(orgs, a.Org)
		}
		headcount[a.Org]++
	}
	return orgs, headcount
}

// largest picks the building with the most total capacity, name breaking ties
func largest(buildings []*building) *building {
	best := buildings[0]
	for _, b := range buildings[1:] {
		if b.capacity > best.capacity || (b.capacity == best.capacity && b.name < best.name) {
			best = b
		}
	}
	return best
}
