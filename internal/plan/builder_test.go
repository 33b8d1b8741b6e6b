package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/bunkhouse/internal/graph"
	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/solver"
)

func testRooms() []model.Room {
	return []model.Room{
		{Building: "Lodge", Name: "101", Floor: 1, BottomBunks: 2, TopBunks: 2},
		{Building: "Lodge", Name: "201", Floor: 2, BottomBunks: 1, TopBunks: 1},
		{Building: "Cabin", Name: "A", Floor: 1, BottomBunks: 0, TopBunks: 2},
		{Building: "Cabin", Name: "Closet", Floor: 1},
	}
}

func testAttendees() []model.Attendee {
	return []model.Attendee{
		{First: "Ann", Last: "Lee", Org: "Grace", Group: "Youth"},
		{First: "Bea", Last: "Kim", Org: "Grace", Group: "Youth"},
		{First: "Cal", Last: "Ray", Org: "Hope", FloorOneOnly: true},
		{First: "Dee", Last: "Fox", Org: "Hope", BottomBunkOnly: true},
	}
}

func termsByTag(m *solver.Model) map[string]int {
	counts := make(map[string]int)
	for _, a := range m.Assigned {
		counts[a.Tag]++
	}
	for _, s := range m.InSets {
		counts[s.Tag]++
	}
	for _, p := range m.Pairs {
		counts[p.Tag]++
	}
	return counts
}

func TestEligible(t *testing.T) {
	rooms := testRooms()
	people := testAttendees()

	assert.True(t, Eligible(rooms[0], people[0]))
	assert.False(t, Eligible(rooms[3], people[0]), "no beds")
	assert.False(t, Eligible(rooms[1], people[2]), "floor 2")
	assert.False(t, Eligible(rooms[2], people[3]), "no bottom bunks")
	assert.True(t, Eligible(rooms[1], people[3]))
}

func TestBuildDomainsAndCapacities(t *testing.T) {
	b, err := Build(Input{Rooms: testRooms(), Attendees: testAttendees()}, Options{Strict: true})
	require.NoError(t, err)

	m := b.Model
	require.Len(t, m.Vars, 4)
	assert.Equal(t, []int{0, 1, 2}, m.Vars[0].Domain)
	assert.Equal(t, []int{0, 2}, m.Vars[2].Domain)
	assert.Equal(t, []int{0, 1}, m.Vars[3].Domain)

	// three bed limits plus two bottom limits, none for the closet
	var beds, bottom int
	for _, c := range m.Capacities {
		switch c.Name[:4] {
		case "beds":
			beds++
		case "bott":
			bottom++
			assert.Equal(t, []solver.VarID{3}, c.Vars)
		}
	}
	assert.Equal(t, 3, beds)
	assert.Equal(t, 2, bottom)

	assert.Equal(t, []string{"Lodge", "Cabin"}, b.Buildings)
	assert.Equal(t, []int{0, 0, 1, 1}, b.BuildingOf)
}

func TestBuildTerms(t *testing.T) {
	in := Input{
		Rooms:     testRooms(),
		Attendees: testAttendees(),
		Classification: graph.Classification{
			Mutual: []model.MutualPair{{A: 2, B: 3}},
			Soft:   []model.SoftEdge{{From: 0, To: 2}},
			GroupHints: map[string][]model.AttendeeID{
				"Youth": {3},
			},
		},
		Affinity: model.OrgAffinity{"Grace": {"Lodge"}, "Hope": {"Cabin"}},
	}

	b, err := Build(in, Options{Strict: true})
	require.NoError(t, err)

	counts := termsByTag(b.Model)
	assert.Equal(t, 4, counts[TagPlace])
	assert.Equal(t, 2, counts[TagGroup], "Ann-Bea and Bea-Dee")
	assert.Equal(t, 1, counts[TagAttach])
	assert.Equal(t, 4, counts[TagAffinity])
	assert.Equal(t, 2, counts[TagOrg])

	assert.Equal(t, []model.AttendeeID{0, 1, 3}, b.GroupChains["Youth"])
	assert.Equal(t, []model.AttendeeID{2, 3}, b.OrgChains["Hope"])

	require.Len(t, b.Model.AllEquals, 1)
	assert.Equal(t, []solver.VarID{2, 3}, b.Model.AllEquals[0].Vars)

	for _, s := range b.Model.InSets {
		if s.Var == 0 {
			assert.Equal(t, []int{0, 1}, s.Values)
		}
	}
	for _, p := range b.Model.Pairs {
		if p.Tag == TagOrg {
			assert.Equal(t, b.BuildingOf, p.Class)
		}
	}

	assert.Equal(t, TermCounts{Place: 4, GroupPairs: 2, SoftEdges: 1, Affinity: 4, OrgPairs: 2}, b.Counts)
	assert.Greater(t, b.Weights.Place, b.Weights.Group)
}

func TestBuildLegacyWeights(t *testing.T) {
	cfg := model.DefaultConfig().Objective.Weights
	b, err := Build(Input{Rooms: testRooms(), Attendees: testAttendees()}, Options{Legacy: cfg})
	require.NoError(t, err)
	assert.Equal(t, LegacyWeights(cfg), b.Weights)
	assert.Equal(t, cfg.Place, b.Model.Assigned[0].Weight)
}

func TestBuildPins(t *testing.T) {
	in := Input{
		Rooms:     testRooms(),
		Attendees: testAttendees(),
		Pins:      []model.Pin{{First: " ann ", Last: "LEE", Building: "lodge", Room: "201"}},
	}

	b, err := Build(in, Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, map[model.AttendeeID]int{0: 1}, b.Pinned)
	assert.Equal(t, []int{1}, b.Model.Vars[0].Domain)
	assert.True(t, b.Model.Vars[0].Required)
	assert.False(t, b.Model.Vars[1].Required)
}

func TestBuildPinErrors(t *testing.T) {
	tests := []struct {
		name   string
		pins   []model.Pin
		mutual []model.MutualPair
		err    error
	}{
		{
			name: "unknown room",
			pins: []model.Pin{{First: "Ann", Last: "Lee", Building: "Lodge", Room: "999"}},
			err:  ErrUnknownPin,
		},
		{
			name: "unknown attendee",
			pins: []model.Pin{{First: "Zed", Last: "Zed", Building: "Lodge", Room: "101"}},
			err:  ErrUnknownPin,
		},
		{
			name: "floor requirement",
			pins: []model.Pin{{First: "Cal", Last: "Ray", Building: "Lodge", Room: "201"}},
			err:  ErrPinConflict,
		},
		{
			name: "room without beds",
			pins: []model.Pin{{First: "Ann", Last: "Lee", Building: "Cabin", Room: "Closet"}},
			err:  ErrPinConflict,
		},
		{
			name: "too many pins",
			pins: []model.Pin{
				{First: "Ann", Last: "Lee", Building: "Lodge", Room: "201"},
				{First: "Bea", Last: "Kim", Building: "Lodge", Room: "201"},
				{First: "Dee", Last: "Fox", Building: "Lodge", Room: "201"},
			},
			err: ErrPinConflict,
		},
		{
			name:   "partner cannot follow",
			pins:   []model.Pin{{First: "Ann", Last: "Lee", Building: "Lodge", Room: "201"}},
			mutual: []model.MutualPair{{A: 0, B: 2}},
			err:    ErrPinConflict,
		},
		{
			name: "partners pinned apart",
			pins: []model.Pin{
				{First: "Ann", Last: "Lee", Building: "Lodge", Room: "101"},
				{First: "Bea", Last: "Kim", Building: "Cabin", Room: "A"},
			},
			mutual: []model.MutualPair{{A: 0, B: 1}},
			err:    ErrPinConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{
				Rooms:          testRooms(),
				Attendees:      testAttendees(),
				Pins:           tt.pins,
				Classification: graph.Classification{Mutual: tt.mutual},
			}
			_, err := Build(in, Options{Strict: true})
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuildSolves(t *testing.T) {
	in := Input{
		Rooms:          testRooms(),
		Attendees:      testAttendees(),
		Classification: graph.Classification{Mutual: []model.MutualPair{{A: 0, B: 1}}},
	}
	b, err := Build(in, Options{Strict: true})
	require.NoError(t, err)

	sol, err := solver.NewLocalSearch().Solve(context.Background(), b.Model, solver.Params{Workers: 1, Seed: 1, Patience: 5})
	require.NoError(t, err)
	assert.NoError(t, b.Model.Check(sol.Values))
	assert.Equal(t, sol.Values[0], sol.Values[1])
	for _, v := range sol.Values {
		assert.NotEqual(t, solver.Unassigned, v)
	}
}

func TestBuildSeparatesPartnerOfFullPinnedRoom(t *testing.T) {
	in := Input{
		Rooms:     testRooms(),
		Attendees: testAttendees(),
		Pins: []model.Pin{
			{First: "Ann", Last: "Lee", Building: "Lodge", Room: "201"},
			{First: "Dee", Last: "Fox", Building: "Lodge", Room: "201"},
		},
		Classification: graph.Classification{Mutual: []model.MutualPair{{A: 0, B: 1}}},
	}
	b, err := Build(in, Options{Strict: true})
	require.NoError(t, err)

	assert.Equal(t, map[model.AttendeeID]model.AttendeeID{1: 0}, b.Separated)
	assert.Empty(t, b.Model.AllEquals)
	assert.Empty(t, b.Model.Vars[1].Domain)
	assert.False(t, b.Model.Vars[1].Required)

	sol, err := solver.NewLocalSearch().Solve(context.Background(), b.Model, solver.Params{Workers: 1, Seed: 1, Patience: 5})
	require.NoError(t, err)
	assert.NotEqual(t, solver.StatusInfeasible, sol.Status)
	assert.Equal(t, 1, sol.Values[0])
	assert.Equal(t, solver.Unassigned, sol.Values[1])
	assert.Equal(t, 1, sol.Values[3])
	assert.NotEqual(t, solver.Unassigned, sol.Values[2], "unrelated attendees still place")
}

func TestBuildReservesBedForPinnedPartner(t *testing.T) {
	in := Input{
		Rooms:          testRooms(),
		Attendees:      testAttendees(),
		Pins:           []model.Pin{{First: "Ann", Last: "Lee", Building: "Lodge", Room: "201"}},
		Classification: graph.Classification{Mutual: []model.MutualPair{{A: 0, B: 1}}},
	}
	b, err := Build(in, Options{Strict: true})
	require.NoError(t, err)

	assert.Empty(t, b.Separated)
	require.Len(t, b.Model.AllEquals, 1)

	sol, err := solver.NewLocalSearch().Solve(context.Background(), b.Model, solver.Params{Workers: 1, Seed: 1, Patience: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, sol.Values[0])
	assert.Equal(t, 1, sol.Values[1])
}
