// Package plan turns rooms, attendees and their classified references into
// a solver model: one variable per attendee over room indices, hard
// capacity and pairing constraints, and a tiered objective.
package plan

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/bunkhouse/internal/graph"
	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/solver"
)

// Objective term tags, one per tier
const (
	TagPlace    = "place"
	TagGroup    = "group"
	TagAttach   = "attach"
	TagAffinity = "affinity"
	TagOrg      = "org"
)

var (
	// ErrUnknownPin means a pin names an attendee or room that does not exist
	ErrUnknownPin = errors.New("unknown pin")
	// ErrPinConflict means a pin breaks a hard requirement
	ErrPinConflict = errors.New("pin conflicts with a hard requirement")
)

// Input is everything the builder reads
type Input struct {
	Rooms          []model.Room
	Attendees      []model.Attendee
	Classification graph.Classification
	Affinity       model.OrgAffinity
	Pins           []model.Pin
}

// Options select the weighting scheme
type Options struct {
	Strict bool
	Legacy model.WeightsConfig
}

// Built is the model plus the lookups needed to read a solution back
type Built struct {
	Model   *solver.Model
	Weights Weights
	Counts  TermCounts

	// Var i belongs to attendee i
	Pinned map[model.AttendeeID]int // attendee -> room index

	// Separated holds mutual partners of pinned attendees whose pinned room
	// has no bed left for them: partner -> pinned attendee. Their pair
	// constraint is dropped and the partner stays unplaced.
	Separated map[model.AttendeeID]model.AttendeeID

	pinBeds   []int // beds taken by pins and their partners, per room
	pinBottom []int

	GroupChains map[string][]model.AttendeeID
	OrgChains   map[string][]model.AttendeeID

	Buildings  []string // first-seen order
	BuildingOf []int    // room index -> index into Buildings
}

// Eligible reports whether the attendee's accessibility needs allow the room
func Eligible(room model.Room, a model.Attendee) bool {
	if room.Capacity() <= 0 {
		return false
	}
	if a.FloorOneOnly && room.Floor != 1 {
		return false
	}
	if a.BottomBunkOnly && room.BottomBunks <= 0 {
		return false
	}
	return true
}

// Build constructs the model
func Build(in Input, opts Options) (*Built, error) {
	b := &Built{
		Model:       solver.NewModel(len(in.Rooms)),
		Pinned:      make(map[model.AttendeeID]int),
		Separated:   make(map[model.AttendeeID]model.AttendeeID),
		GroupChains: make(map[string][]model.AttendeeID),
		OrgChains:   make(map[string][]model.AttendeeID),
	}
	b.indexBuildings(in.Rooms)

	if err := b.applyPins(in); err != nil {
		return nil, err
	}
	if err := b.reservePartners(in); err != nil {
		return nil, err
	}

	domains := make([][]int, len(in.Attendees))
	for i, a := range in.Attendees {
		id := model.AttendeeID(i)
		if room, ok := b.Pinned[id]; ok {
			domains[i] = []int{room}
		} else if _, ok := b.Separated[id]; !ok {
			for r, room := range in.Rooms {
				if Eligible(room, a) {
					domains[i] = append(domains[i], r)
				}
			}
		}
		b.Model.AddVar(solver.Var{
			Name:     a.FullName(),
			Domain:   domains[i],
			Required: hasPin(b.Pinned, id),
		})
	}

	b.addCapacities(in, domains)
	b.addMutualPairs(in)

	groupPairs := b.chainPairs(in.Attendees, func(a model.Attendee) string { return a.Group }, in.Classification.GroupHints, b.GroupChains)
	orgPairs := b.chainPairs(in.Attendees, func(a model.Attendee) string { return a.Org }, in.Classification.OrgHints, b.OrgChains)
	affinity := b.affinitySets(in)

	b.Counts = TermCounts{
		Place:      len(in.Attendees),
		GroupPairs: len(groupPairs),
		SoftEdges:  len(in.Classification.Soft),
		Affinity:   len(affinity),
		OrgPairs:   len(orgPairs),
	}

	if opts.Strict {
		w, err := StrictWeights(b.Counts)
		if err != nil {
			return nil, err
		}
		b.Weights = w
	} else {
		b.Weights = LegacyWeights(opts.Legacy)
	}

	m := b.Model
	for i := range in.Attendees {
		m.Assigned = append(m.Assigned, solver.Assigned{Tag: TagPlace, Var: solver.VarID(i), Weight: b.Weights.Place})
	}
	for _, p := range groupPairs {
		m.Pairs = append(m.Pairs, solver.Pair{Tag: TagGroup, A: p[0], B: p[1], Reward: b.Weights.Group, Penalty: b.Weights.Group})
	}
	for _, e := range in.Classification.Soft {
		m.Pairs = append(m.Pairs, solver.Pair{
			Tag:     TagAttach,
			A:       solver.VarID(e.From),
			B:       solver.VarID(e.To),
			Reward:  b.Weights.Attach,
			Penalty: b.Weights.Attach,
		})
	}
	for _, s := range affinity {
		s.Weight = b.Weights.Affinity
		m.InSets = append(m.InSets, s)
	}
	for _, p := range orgPairs {
		m.Pairs = append(m.Pairs, solver.Pair{
			Tag:     TagOrg,
			A:       p[0],
			B:       p[1],
			Class:   b.BuildingOf,
			Reward:  b.Weights.Org,
			Penalty: b.Weights.Org,
		})
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	return b, nil
}

func hasPin(pins map[model.AttendeeID]int, id model.AttendeeID) bool {
	_, ok := pins[id]
	return ok
}

func (b *Built) indexBuildings(rooms []model.Room) {
	index := make(map[string]int)
	b.BuildingOf = make([]int, len(rooms))
	for r, room := range rooms {
		i, ok := index[room.Building]
		if !ok {
			i = len(b.Buildings)
			index[room.Building] = i
			b.Buildings = append(b.Buildings, room.Building)
		}
		b.BuildingOf[r] = i
	}
}

func nameKey(first, last string) string {
	return strings.Join(strings.Fields(strings.ToLower(first+" "+last)), " ")
}

func roomKey(building, room string) string {
	return strings.ToLower(strings.TrimSpace(building)) + "/" + strings.ToLower(strings.TrimSpace(room))
}

// applyPins resolves pins to attendee and room indices. A name shared by
// several attendees pins the first one not already pinned.
func (b *Built) applyPins(in Input) error {
	b.pinBeds = make([]int, len(in.Rooms))
	b.pinBottom = make([]int, len(in.Rooms))
	if len(in.Pins) == 0 {
		return nil
	}

	people := make(map[string][]model.AttendeeID)
	for i, a := range in.Attendees {
		k := nameKey(a.First, a.Last)
		people[k] = append(people[k], model.AttendeeID(i))
	}
	rooms := make(map[string]int)
	for r, room := range in.Rooms {
		rooms[roomKey(room.Building, room.Name)] = r
	}

	used, usedBottom := b.pinBeds, b.pinBottom

	for _, pin := range in.Pins {
		r, ok := rooms[roomKey(pin.Building, pin.Room)]
		if !ok {
			return fmt.Errorf("%w: room %s/%s", ErrUnknownPin, pin.Building, pin.Room)
		}

		id := model.NoAttendee
		for _, candidate := range people[nameKey(pin.First, pin.Last)] {
			if !hasPin(b.Pinned, candidate) {
				id = candidate
				break
			}
		}
		if id == model.NoAttendee {
			return fmt.Errorf("%w: attendee %s %s", ErrUnknownPin, pin.First, pin.Last)
		}

		a, room := in.Attendees[id], in.Rooms[r]
		if !Eligible(room, a) {
			return fmt.Errorf("%w: %s cannot use %s (floor %d, %d bottom bunks)",
				ErrPinConflict, a.FullName(), room.Key(), room.Floor, room.BottomBunks)
		}
		used[r]++
		if used[r] > room.Capacity() {
			return fmt.Errorf("%w: more pins than beds in %s", ErrPinConflict, room.Key())
		}
		if a.BottomBunkOnly {
			usedBottom[r]++
			if usedBottom[r] > room.BottomBunks {
				return fmt.Errorf("%w: more bottom-bunk pins than bottom bunks in %s", ErrPinConflict, room.Key())
			}
		}
		b.Pinned[id] = r
	}
	return nil
}

func (b *Built) addCapacities(in Input, domains [][]int) {
	holders := make([][]solver.VarID, len(in.Rooms))
	bottom := make([][]solver.VarID, len(in.Rooms))
	for i, domain := range domains {
		for _, r := range domain {
			holders[r] = append(holders[r], solver.VarID(i))
			if in.Attendees[i].BottomBunkOnly {
				bottom[r] = append(bottom[r], solver.VarID(i))
			}
		}
	}

	for r, room := range in.Rooms {
		if len(holders[r]) > 0 {
			b.Model.Capacities = append(b.Model.Capacities, solver.Capacity{
				Name:  "beds " + room.Key(),
				Value: r,
				Vars:  holders[r],
				Limit: room.Capacity(),
			})
		}
		if len(bottom[r]) > 0 {
			b.Model.Capacities = append(b.Model.Capacities, solver.Capacity{
				Name:  "bottom bunks " + room.Key(),
				Value: r,
				Vars:  bottom[r],
				Limit: room.BottomBunks,
			})
		}
	}
}

// reservePartners checks mutual pairs with a pinned member. The partner
// must be able to use the pinned room; if pins and earlier partners have
// already filled it, the partner is separated instead of forcing the whole
// model infeasible.
func (b *Built) reservePartners(in Input) error {
	for _, p := range in.Classification.Mutual {
		if int(p.A) >= len(in.Attendees) || int(p.B) >= len(in.Attendees) {
			return fmt.Errorf("mutual pair %d/%d: unknown attendee", p.A, p.B)
		}
		ra, pinnedA := b.Pinned[p.A]
		rb, pinnedB := b.Pinned[p.B]
		a, c := in.Attendees[p.A], in.Attendees[p.B]

		pinned, partner, r := p.A, p.B, ra
		switch {
		case pinnedA && pinnedB:
			if ra != rb {
				return fmt.Errorf("%w: %s and %s must share a room but are pinned apart", ErrPinConflict, a.FullName(), c.FullName())
			}
			continue
		case pinnedB:
			pinned, partner, r = p.B, p.A, rb
		case !pinnedA:
			continue
		}

		room, other := in.Rooms[r], in.Attendees[partner]
		if !Eligible(room, other) {
			return fmt.Errorf("%w: %s is pinned to %s, which %s cannot use",
				ErrPinConflict, in.Attendees[pinned].FullName(), room.Key(), other.FullName())
		}

		needBottom := 0
		if other.BottomBunkOnly {
			needBottom = 1
		}
		if b.pinBeds[r]+1 > room.Capacity() || b.pinBottom[r]+needBottom > room.BottomBunks {
			b.Separated[partner] = pinned
			continue
		}
		b.pinBeds[r]++
		b.pinBottom[r] += needBottom
	}
	return nil
}

func (b *Built) addMutualPairs(in Input) {
	for _, p := range in.Classification.Mutual {
		_, sepA := b.Separated[p.A]
		_, sepB := b.Separated[p.B]
		if sepA || sepB {
			continue
		}
		a, c := in.Attendees[p.A], in.Attendees[p.B]
		b.Model.AllEquals = append(b.Model.AllEquals, solver.AllEqual{
			Name: "mutual " + a.FullName() + " & " + c.FullName(),
			Vars: []solver.VarID{solver.VarID(p.A), solver.VarID(p.B)},
		})
	}
}

// chainPairs links the members of each group (or organization) in input
// order, hint members appended, and returns the adjacent pairs
func (b *Built) chainPairs(attendees []model.Attendee, key func(model.Attendee) string,
	hints map[string][]model.AttendeeID, chains map[string][]model.AttendeeID) [][2]solver.VarID {

	var order []string
	for i, a := range attendees {
		k := key(a)
		if k == "" {
			continue
		}
		if _, ok := chains[k]; !ok {
			order = append(order, k)
		}
		chains[k] = append(chains[k], model.AttendeeID(i))
	}

	// hint targets in sorted order keep the model independent of map order
	for _, k := range sortedKeys(hints) {
		if _, ok := chains[k]; !ok {
			order = append(order, k)
		}
		for _, id := range hints[k] {
			if !containsID(chains[k], id) {
				chains[k] = append(chains[k], id)
			}
		}
	}

	var pairs [][2]solver.VarID
	for _, k := range order {
		members := chains[k]
		for i := 0; i+1 < len(members); i++ {
			pairs = append(pairs, [2]solver.VarID{solver.VarID(members[i]), solver.VarID(members[i+1])})
		}
	}
	return pairs
}

func (b *Built) affinitySets(in Input) []solver.InSet {
	roomsOf := make(map[string][]int)
	for r, room := range in.Rooms {
		roomsOf[room.Building] = append(roomsOf[room.Building], r)
	}

	var sets []solver.InSet
	for i, a := range in.Attendees {
		preferred := in.Affinity[a.Org]
		if a.Org == "" || len(preferred) == 0 {
			continue
		}
		var values []int
		for _, building := range preferred {
			values = append(values, roomsOf[building]...)
		}
		if len(values) == 0 {
			continue
		}
		sets = append(sets, solver.InSet{Tag: TagAffinity, Var: solver.VarID(i), Values: values})
	}
	return sets
}

func sortedKeys(m map[string][]model.AttendeeID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsID(ids []model.AttendeeID, id model.AttendeeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
