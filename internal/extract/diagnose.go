package extract

import (
	"fmt"

	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/plan"
	"github.com/ppiankov/bunkhouse/internal/solver"
)

const fallbackReason = "capacity exhausted or competing constraints"

// diagnose explains, best effort, why id has no bed. It looks at the
// supply left after the assignment, not at the solver's search.
func diagnose(in Input, occ occupancy, id model.AttendeeID, status model.SolveStatus) []string {
	a := in.Attendees[id]
	var reasons []string

	if reason := requirementReason(in.Rooms, occ, a); reason != "" {
		reasons = append(reasons, reason)
	}

	if pinned, ok := separatedFrom(in.Built, id); ok {
		room := in.Rooms[in.Built.Pinned[pinned]]
		reasons = append(reasons, fmt.Sprintf("must share a room with '%s', who is pinned to %s; pins leave no suitable bed there (%d bed(s), %d bottom)",
			in.Attendees[pinned].FullName(), room.Key(), room.Capacity(), room.BottomBunks))
	} else if partner := in.Classification.PartnerOf(id); partner != model.NoAttendee {
		p := in.Attendees[partner]
		largest := 0
		for r, room := range in.Rooms {
			if plan.Eligible(room, a) && plan.Eligible(room, p) {
				largest = max(largest, occ.freeBeds[r])
			}
		}
		reasons = append(reasons, fmt.Sprintf("must share a room with '%s'; largest eligible room has %d free bed(s), the pair needs 2",
			p.FullName(), largest))
	}

	if target := in.Classification.SoftTarget(id); target != model.NoAttendee {
		t := in.Attendees[target]
		if r := occ.room[target]; r != solver.Unassigned {
			reasons = append(reasons, fmt.Sprintf("attached to '%s' (placed in %s), room may have been full", t.FullName(), in.Rooms[r].Key()))
		} else {
			reasons = append(reasons, fmt.Sprintf("attached to '%s' who is also unplaced", t.FullName()))
		}
	}

	if a.AttachText != "" && int(id) < len(in.Edges) && in.Edges[id].Kind == model.TargetNone {
		reasons = append(reasons, fmt.Sprintf("attach text '%s' could not be resolved to a person in the list", a.AttachText))
	}

	if a.Group != "" {
		reasons = append(reasons, fmt.Sprintf("group '%s' cohesion constraints may have limited options", a.Group))
	}
	if a.Org != "" {
		reasons = append(reasons, fmt.Sprintf("org '%s' building affinity may have limited available slots", a.Org))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fallbackReason)
	}

	switch status {
	case model.StatusInfeasible:
		reasons = append(reasons, "solver status infeasible: pinned assignments cannot all hold, nobody was placed")
	case model.StatusTimeout:
		reasons = append(reasons, "solver status timeout: no assignment was found within the time limit")
	}
	return reasons
}

// requirementReason compares an accessibility need against total and
// remaining supply
func requirementReason(rooms []model.Room, occ occupancy, a model.Attendee) string {
	var total, free int
	for r, room := range rooms {
		if a.FloorOneOnly && room.Floor != 1 {
			continue
		}
		if a.BottomBunkOnly {
			total += room.BottomBunks
			free += occ.freeBottom[r]
		} else {
			total += room.Capacity()
			free += occ.freeBeds[r]
		}
	}

	switch {
	case a.FloorOneOnly && a.BottomBunkOnly:
		return fmt.Sprintf("needs bottom bunk on floor 1: %d such bunks exist, %d free", total, free)
	case a.BottomBunkOnly:
		return fmt.Sprintf("needs bottom bunk: %d exist in total, %d free", total, free)
	case a.FloorOneOnly:
		return fmt.Sprintf("needs floor 1: %d beds exist there, %d free", total, free)
	}
	return ""
}

func separatedFrom(b *plan.Built, id model.AttendeeID) (model.AttendeeID, bool) {
	if b == nil {
		return model.NoAttendee, false
	}
	pinned, ok := b.Separated[id]
	return pinned, ok
}
