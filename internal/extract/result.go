// Package extract reads a solver assignment back into placements, bunk
// levels, unplaced diagnostics and summary counts.
package extract

import (
	"sort"

	"github.com/ppiankov/bunkhouse/internal/graph"
	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/plan"
	"github.com/ppiankov/bunkhouse/internal/resolve"
	"github.com/ppiankov/bunkhouse/internal/solver"
)

// Input is the state of a run after the solver returned
type Input struct {
	Rooms          []model.Room
	Attendees      []model.Attendee
	Edges          []model.AttachmentEdge // One per attendee
	Trails         []resolve.Trail
	Classification graph.Classification
	Affinity       model.OrgAffinity
	Built          *plan.Built
}

// occupancy is what the assignment left of each room
type occupancy struct {
	room       []int             // attendee -> room index, solver.Unassigned when unplaced
	bunk       []model.BunkLevel // attendee -> bunk level
	freeBeds   []int
	freeBottom []int
}

// Status maps a solver status onto the reported one
func Status(s solver.Status) model.SolveStatus {
	switch s {
	case solver.StatusOptimal:
		return model.StatusOptimal
	case solver.StatusFeasible:
		return model.StatusFeasible
	case solver.StatusInfeasible:
		return model.StatusInfeasible
	default:
		return model.StatusTimeout
	}
}

// Extract builds the Result. Every attendee ends up in exactly one of
// Placements and Unplaced, whatever the solver status.
func Extract(in Input, sol *solver.Solution) model.Result {
	occ := assign(in, sol)
	status := Status(sol.Status)

	var result model.Result
	for i, a := range in.Attendees {
		id := model.AttendeeID(i)
		r := occ.room[i]
		if r == solver.Unassigned {
			result.Unplaced = append(result.Unplaced, model.Unplaced{
				Attendee:       id,
				First:          a.First,
				Last:           a.Last,
				Org:            a.Org,
				Group:          a.Group,
				AttachText:     a.AttachText,
				AttachResolved: resolvedName(in.Edges, id),
				FloorOneOnly:   a.FloorOneOnly,
				BottomBunkOnly: a.BottomBunkOnly,
				Reasons:        diagnose(in, occ, id, status),
			})
			continue
		}

		room := in.Rooms[r]
		_, pinned := in.Built.Pinned[id]
		result.Placements = append(result.Placements, model.Placement{
			Attendee:       id,
			Building:       room.Building,
			Room:           room.Name,
			First:          a.First,
			Last:           a.Last,
			Org:            a.Org,
			Group:          a.Group,
			Floor:          room.Floor,
			Bunk:           occ.bunk[i],
			AttachText:     a.AttachText,
			AttachResolved: resolvedName(in.Edges, id),
			Pinned:         pinned,
		})
	}

	sort.SliceStable(result.Placements, func(i, j int) bool {
		a, b := result.Placements[i], result.Placements[j]
		if a.Building != b.Building {
			return a.Building < b.Building
		}
		if a.Room != b.Room {
			return a.Room < b.Room
		}
		return bunkRank(a.Bunk) < bunkRank(b.Bunk)
	})

	for _, t := range in.Trails {
		if t.Method == model.MethodExact {
			continue
		}
		name := ""
		if int(t.Source) < len(in.Attendees) {
			name = in.Attendees[t.Source].FullName()
		}
		result.AttachWarnings = append(result.AttachWarnings, t.Warning(name))
	}

	result.Summary = summarize(in, result, sol, status)
	return result
}

// assign derives bunk levels room by room: attendees who need a bottom bunk
// take bottom bunks first, the others follow in input order and fill the
// remaining bottom bunks before any top bunk.
func assign(in Input, sol *solver.Solution) occupancy {
	n := len(in.Attendees)
	occ := occupancy{
		room:       make([]int, n),
		bunk:       make([]model.BunkLevel, n),
		freeBeds:   make([]int, len(in.Rooms)),
		freeBottom: make([]int, len(in.Rooms)),
	}

	occupants := make([][]int, len(in.Rooms))
	for i := 0; i < n; i++ {
		occ.room[i] = solver.Unassigned
		if sol == nil || i >= len(sol.Values) {
			continue
		}
		if r := sol.Values[i]; r >= 0 && r < len(in.Rooms) {
			occ.room[i] = r
			occupants[r] = append(occupants[r], i)
		}
	}

	for r, room := range in.Rooms {
		bottom := room.BottomBunks
		var rest []int
		for _, i := range occupants[r] {
			if in.Attendees[i].BottomBunkOnly && bottom > 0 {
				occ.bunk[i] = model.BunkBottom
				bottom--
				continue
			}
			rest = append(rest, i)
		}
		for _, i := range rest {
			if bottom > 0 {
				occ.bunk[i] = model.BunkBottom
				bottom--
			} else {
				occ.bunk[i] = model.BunkTop
			}
		}
		occ.freeBeds[r] = max(0, room.Capacity()-len(occupants[r]))
		occ.freeBottom[r] = bottom
	}
	return occ
}

func bunkRank(b model.BunkLevel) int {
	if b == model.BunkBottom {
		return 0
	}
	return 1
}

func resolvedName(edges []model.AttachmentEdge, id model.AttendeeID) string {
	if int(id) >= len(edges) {
		return ""
	}
	e := edges[id]
	switch e.Kind {
	case model.TargetAttendee, model.TargetGroup, model.TargetOrganization:
		return e.TargetName
	}
	return ""
}

func summarize(in Input, result model.Result, sol *solver.Solution, status model.SolveStatus) model.Summary {
	s := model.Summary{
		Total:    len(in.Attendees),
		Placed:   len(result.Placements),
		Unplaced: len(result.Unplaced),
		Status:   status,
		Affinity: in.Affinity,
	}
	for _, room := range in.Rooms {
		s.Beds += room.Capacity()
		s.BottomBeds += room.BottomBunks
	}
	if sol != nil {
		s.TimedOut = sol.TimedOut
		s.Cached = sol.Cached
		s.Objective = sol.Objective
		s.Bound = sol.Bound
		s.SolveTime = sol.Elapsed
	}

	type cell struct{ org, building string }
	counts := make(map[cell]int)
	for _, p := range result.Placements {
		counts[cell{p.Org, p.Building}]++
	}
	for c, n := range counts {
		s.OrgBuildings = append(s.OrgBuildings, model.OrgBuildingCount{Org: c.org, Building: c.building, Count: n})
	}
	sort.Slice(s.OrgBuildings, func(i, j int) bool {
		a, b := s.OrgBuildings[i], s.OrgBuildings[j]
		if a.Org != b.Org {
			return a.Org < b.Org
		}
		return a.Building < b.Building
	})
	return s
}
