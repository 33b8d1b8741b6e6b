package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/bunkhouse/internal/model"
)

func people(pairs ...[2]string) []model.Attendee {
	out := make([]model.Attendee, len(pairs))
	for i, p := range pairs {
		out[i] = model.Attendee{First: "P", Last: string(rune('a' + i)), Org: p[0], Group: p[1]}
	}
	return out
}

func TestBuild_FirstSeenSpellingWins(t *testing.T) {
	table := Build(people(
		[2]string{"Rock Point", "MomLife"},
		[2]string{"rock point ", "Momlife"},
		[2]string{"ROCK POINT", "  MOMLIFE"},
	))

	assert.Equal(t, "Rock Point", table.Org("rock POINT"))
	assert.Equal(t, "MomLife", table.Group("momlife"))
	assert.Equal(t, []string{"Rock Point"}, table.Orgs())
	assert.Equal(t, []string{"MomLife"}, table.Groups())
}

func TestBuild_FirstSeenIsTrimmed(t *testing.T) {
	table := Build(people([2]string{"  Youth  ", ""}))
	assert.Equal(t, "Youth", table.Org("youth"))
}

func TestTable_BlankMeansNone(t *testing.T) {
	table := Build(people([2]string{"", "  "}))
	assert.Equal(t, "", table.Org(""))
	assert.Equal(t, "", table.Group("   "))
	assert.Empty(t, table.Orgs())
	assert.Empty(t, table.Groups())
}

func TestTable_Idempotent(t *testing.T) {
	table := Build(people(
		[2]string{"Staff", "Kitchen Crew"},
		[2]string{"staff", "kitchen crew"},
	))
	for _, raw := range []string{"STAFF", " staff", "Staff"} {
		once := table.Org(raw)
		assert.Equal(t, once, table.Org(once), raw)
	}
	once := table.Group("KITCHEN CREW")
	assert.Equal(t, once, table.Group(once))
}

func TestTable_UnknownSpellingPassesThrough(t *testing.T) {
	table := Build(people([2]string{"Staff", ""}))
	assert.Equal(t, "Visitors", table.Org("  Visitors "))
}

func TestTable_Apply(t *testing.T) {
	in := []model.Attendee{
		{First: " Ann ", Last: "Lee", Org: "Youth", Group: "Cabin A"},
		{First: "Bo", Last: " Kim", Org: "YOUTH", Group: "cabin a", AttachText: " Ann Lee "},
	}
	out := Build(in).Apply(in)

	require.Len(t, out, 2)
	assert.Equal(t, "Ann", out[0].First)
	assert.Equal(t, "Kim", out[1].Last)
	assert.Equal(t, "Youth", out[1].Org)
	assert.Equal(t, "Cabin A", out[1].Group)
	assert.Equal(t, "Ann Lee", out[1].AttachText)
	assert.Equal(t, " Ann ", in[0].First, "input must not be mutated")
}

func TestTable_AutoAssignGroups(t *testing.T) {
	in := []model.Attendee{
		{First: "Ann", Last: "Lee", Group: "MomLife"},
		{First: "Hannah", Last: "Emerson", AttachText: "Mom Life"},
		{First: "Cy", Last: "Ng", Group: "Other", AttachText: "momlife"},
		{First: "Di", Last: "Oz", AttachText: "Ann Lee"},
	}
	table := Build(in)
	out, assigned := table.AutoAssignGroups(in)

	require.Len(t, assigned, 1)
	assert.Equal(t, model.AttendeeID(1), assigned[0].Attendee)
	assert.Equal(t, "MomLife", out[1].Group)
	assert.Equal(t, "Other", out[2].Group, "existing group is kept")
	assert.Equal(t, "", out[3].Group)
	assert.Equal(t, "", in[1].Group)
}
