package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/bunkhouse/internal/model"
)

func testConfig() model.ResolveConfig {
	return model.DefaultConfig().Resolve
}

func attendee(first, last, org, group, attach string) model.Attendee {
	return model.Attendee{First: first, Last: last, Org: org, Group: group, AttachText: attach}
}

func TestResolveEmptyText(t *testing.T) {
	r := New([]model.Attendee{attendee("Alice", "Johnson", "", "", "  ")}, testConfig())

	edge, trail := r.Resolve(0)
	assert.Equal(t, model.TargetNone, edge.Kind)
	assert.Equal(t, model.NoAttendee, edge.Target)
	assert.Empty(t, trail.Method)
}

func TestResolveOutOfRange(t *testing.T) {
	r := New(nil, testConfig())

	edge, _ := r.Resolve(3)
	assert.Equal(t, model.TargetNone, edge.Kind)
}

func TestResolveExact(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Alice", "Johnson", "", "", "BOB   smith"),
		attendee("Bob", "Smith", "", "", ""),
	}, testConfig())

	edge, trail := r.Resolve(0)
	require.True(t, edge.Resolved())
	assert.Equal(t, model.AttendeeID(1), edge.Target)
	assert.Equal(t, model.MethodExact, edge.Method)
	assert.Equal(t, "Bob Smith", edge.TargetName)
	assert.Equal(t, 1.0, edge.Confidence)
	assert.Equal(t, "Bob Smith", trail.Target)
}

func TestResolveExcludesSelf(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Alice", "Johnson", "", "", "Alice Johnson"),
	}, testConfig())

	edge, trail := r.Resolve(0)
	assert.False(t, edge.Resolved())
	assert.Equal(t, model.MethodUnresolved, trail.Method)
}

func TestResolveDuplicateNamesPreferAffinity(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Alice", "Johnson", "Grace", "", "Bob Smith"),
		attendee("Bob", "Smith", "Hope", "", ""),
		attendee("Bob", "Smith", "Grace", "", ""),
	}, testConfig())

	edge, _ := r.Resolve(0)
	assert.Equal(t, model.AttendeeID(2), edge.Target)
}

func TestResolveNickname(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Michael", "Brown", "", "", "Jess Green"),
		attendee("Jessica", "Green", "", "", ""),
	}, testConfig())

	edge, _ := r.Resolve(0)
	assert.Equal(t, model.AttendeeID(1), edge.Target)
	assert.Equal(t, model.MethodNickname, edge.Method)
}

func TestResolveLastName(t *testing.T) {
	tests := []struct {
		name     string
		people   []model.Attendee
		wantKind model.TargetKind
		want     model.AttendeeID
		method   model.Method
	}{
		{
			name: "first letters agree",
			people: []model.Attendee{
				attendee("Ann", "Lee", "", "", "Kate Miller"),
				attendee("Katherine", "Miller", "", "", ""),
			},
			wantKind: model.TargetAttendee,
			want:     1,
			method:   model.MethodLastName,
		},
		{
			name: "same org wins among plausible",
			people: []model.Attendee{
				attendee("Ann", "Lee", "Grace", "", "J Miller"),
				attendee("John", "Miller", "Hope", "", ""),
				attendee("Jane", "Miller", "Grace", "", ""),
			},
			wantKind: model.TargetAttendee,
			want:     2,
			method:   model.MethodLastName,
		},
		{
			name: "tie is ambiguous",
			people: []model.Attendee{
				attendee("Ann", "Lee", "", "", "J Miller"),
				attendee("John", "Miller", "Hope", "", ""),
				attendee("Jane", "Miller", "Grace", "", ""),
			},
			wantKind: model.TargetNone,
			want:     model.NoAttendee,
			method:   model.MethodAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.people, testConfig())
			edge, _ := r.Resolve(0)
			assert.Equal(t, tt.wantKind, edge.Kind)
			assert.Equal(t, tt.want, edge.Target)
			assert.Equal(t, tt.method, edge.Method)
		})
	}
}

func TestResolveLastNameRejectionSkipsFuzzy(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Ann", "Lee", "", "", "Zed Miller"),
		attendee("Katherine", "Miller", "", "", ""),
	}, testConfig())

	edge, trail := r.Resolve(0)
	assert.False(t, edge.Resolved())
	assert.Equal(t, model.MethodUnresolved, trail.Method)
	require.Len(t, trail.Candidates, 1)
	assert.Equal(t, "Katherine Miller", trail.Candidates[0].Name)
	assert.False(t, trail.Candidates[0].Accepted)
	assert.Contains(t, trail.Candidates[0].Reason, "different person")
}

func TestResolveFirstName(t *testing.T) {
	t.Run("same org preferred", func(t *testing.T) {
		r := New([]model.Attendee{
			attendee("Ann", "Lee", "Grace", "", "Sam"),
			attendee("Sam", "Lee", "Hope", "", ""),
			attendee("Sam", "Park", "Grace", "", ""),
		}, testConfig())

		edge, _ := r.Resolve(0)
		assert.Equal(t, model.AttendeeID(2), edge.Target)
		assert.Equal(t, model.MethodFirstName, edge.Method)
	})

	t.Run("single candidate", func(t *testing.T) {
		r := New([]model.Attendee{
			attendee("Ann", "Lee", "", "", "sam"),
			attendee("Sam", "Park", "", "", ""),
		}, testConfig())

		edge, _ := r.Resolve(0)
		assert.Equal(t, model.AttendeeID(1), edge.Target)
	})

	t.Run("tie", func(t *testing.T) {
		r := New([]model.Attendee{
			attendee("Ann", "Lee", "", "", "Sam"),
			attendee("Sam", "Lee", "", "", ""),
			attendee("Sam", "Park", "", "", ""),
		}, testConfig())

		edge, trail := r.Resolve(0)
		assert.False(t, edge.Resolved())
		assert.Equal(t, model.MethodAmbiguous, edge.Method)
		assert.Contains(t, trail.Message, "'Sam Lee', 'Sam Park'")
	})
}

func TestResolvePrefix(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Ann", "Lee", "", "", "Dana K"),
		attendee("Dana", "Kowalski", "", "", ""),
		attendee("Dana", "Smith", "", "", ""),
	}, testConfig())

	edge, _ := r.Resolve(0)
	assert.Equal(t, model.AttendeeID(1), edge.Target)
	assert.Equal(t, model.MethodPrefix, edge.Method)
}

func TestResolveFuzzy(t *testing.T) {
	r := New([]model.Attendee{
		attendee("Alice", "Johnson", "", "", "Bob Smithh"),
		attendee("Bob", "Smith", "", "", ""),
	}, testConfig())

	edge, trail := r.Resolve(0)
	require.True(t, edge.Resolved())
	assert.Equal(t, model.AttendeeID(1), edge.Target)
	assert.Equal(t, model.MethodFuzzy, edge.Method)
	assert.InDelta(t, 0.9, edge.Confidence, 1e-9)
	require.NotEmpty(t, trail.Candidates)
	assert.True(t, trail.Candidates[0].Accepted)
}

func TestResolveFuzzyAffinityThreshold(t *testing.T) {
	// "jonh smytth" scores about 0.64 against "john smith"
	withOrg := New([]model.Attendee{
		attendee("Ann", "Lee", "Grace", "", "Jonh Smytth"),
		attendee("John", "Smith", "Grace", "", ""),
	}, testConfig())
	edge, trail := withOrg.Resolve(0)
	assert.True(t, edge.Resolved())
	assert.Equal(t, 1, trail.Candidates[0].Affinity)
	assert.InDelta(t, trail.Candidates[0].Raw+0.15, trail.Candidates[0].Combined, 1e-9)

	stranger := New([]model.Attendee{
		attendee("Ann", "Lee", "Grace", "", "Jonh Smytth"),
		attendee("John", "Smith", "Hope", "", ""),
	}, testConfig())
	edge, trail = stranger.Resolve(0)
	assert.False(t, edge.Resolved())
	assert.Equal(t, model.MethodUnresolved, trail.Method)
	assert.Contains(t, trail.Candidates[0].Reason, "below threshold")
}

func TestResolveGroupAndOrgReferences(t *testing.T) {
	people := []model.Attendee{
		attendee("Ann", "Lee", "Grace Church", "Young Adults", ""),
		attendee("Ben", "Ode", "", "", "youngadults"),
		attendee("Cal", "Ray", "", "", "GRACE CHURCH"),
		attendee("Dee", "Fox", "", "", "Young Adult"),
	}
	r := New(people, testConfig())

	edge, _ := r.Resolve(1)
	assert.Equal(t, model.TargetGroup, edge.Kind)
	assert.Equal(t, "Young Adults", edge.TargetName)
	assert.Equal(t, model.MethodGroupRef, edge.Method)

	edge, _ = r.Resolve(2)
	assert.Equal(t, model.TargetOrganization, edge.Kind)
	assert.Equal(t, "Grace Church", edge.TargetName)
	assert.Equal(t, model.MethodOrgRef, edge.Method)

	edge, _ = r.Resolve(3)
	assert.Equal(t, model.TargetGroup, edge.Kind)
	assert.GreaterOrEqual(t, edge.Confidence, 0.9)
}

func TestResolveNonPerson(t *testing.T) {
	texts := []string{"CR - Staff", "Anna and Ben", "Smith, Jones"}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			r := New([]model.Attendee{
				attendee("Ann", "Lee", "", "", text),
				attendee("Anna", "Smith", "", "", ""),
			}, testConfig())

			edge, trail := r.Resolve(0)
			assert.False(t, edge.Resolved())
			assert.Equal(t, model.MethodNonPerson, edge.Method)
			assert.NotEmpty(t, trail.Message)
		})
	}
}

func TestResolveAllDeterministic(t *testing.T) {
	people := []model.Attendee{
		attendee("Alice", "Johnson", "Grace", "Youth", "Bob Smithh"),
		attendee("Bob", "Smith", "Grace", "Youth", "Alice Johnson"),
		attendee("Sam", "Park", "Hope", "", "Sam"),
		attendee("Sam", "Lee", "Hope", "", ""),
		attendee("Dana", "Kowalski", "", "", ""),
	}

	edges1, trails1 := New(people, testConfig()).ResolveAll()
	edges2, trails2 := New(people, testConfig()).ResolveAll()

	assert.Equal(t, edges1, edges2)
	assert.Equal(t, trails1, trails2)
	require.Len(t, edges1, len(people))
	assert.Len(t, trails1, 3)
	assert.Equal(t, model.AttendeeID(1), edges1[0].Target)
	assert.Equal(t, model.AttendeeID(0), edges1[1].Target)
	assert.Equal(t, model.AttendeeID(3), edges1[2].Target)
}

func TestTrailWarning(t *testing.T) {
	trail := Trail{Source: 4, Text: "bob", Method: model.MethodFirstName, Target: "Bob Smith", Message: "m"}
	w := trail.Warning("Ann Lee")
	assert.Equal(t, model.AttendeeID(4), w.Attendee)
	assert.Equal(t, "Ann Lee", w.Person)
	assert.Equal(t, "Bob Smith", w.Target)
}

func TestSimilarityMemoizes(t *testing.T) {
	s := NewSimilarity()
	assert.Equal(t, 1.0, s.Score("x", "x"))
	assert.Equal(t, 0.0, s.Score("", "x"))
	assert.InDelta(t, 0.9, s.Score("bob smithh", "bob smith"), 1e-9)
	assert.InDelta(t, 0.9, s.Score("bob smithh", "bob smith"), 1e-9)
	assert.Equal(t, 1, s.Cached())
}

func TestExpandNickname(t *testing.T) {
	full, ok := expandNickname("bob")
	assert.True(t, ok)
	assert.Equal(t, "robert", full)

	full, ok = expandNickname("zed")
	assert.False(t, ok)
	assert.Equal(t, "zed", full)
}
