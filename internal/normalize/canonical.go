// Package normalize canonicalizes organization and group identifiers.
//
// Spelling variants that differ only by case or surrounding whitespace
// collapse onto the first spelling seen in input order. The lookup table is
// built once per run and passed along explicitly.
package normalize

import (
	"strings"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// Table maps raw org/group spellings to their canonical form
type Table struct {
	orgs   namespace
	groups namespace
}

type namespace struct {
	canonical map[string]string // key -> first-seen display form
	compact   map[string]string // key with inner spaces removed -> display form
	order     []string          // display forms in first-seen order
}

func newNamespace() namespace {
	return namespace{
		canonical: make(map[string]string),
		compact:   make(map[string]string),
	}
}

// Key folds a raw identifier to its lookup key
func Key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CompactKey is Key with inner whitespace removed as well
func CompactKey(raw string) string {
	return strings.Join(strings.Fields(Key(raw)), "")
}

func (n *namespace) observe(raw string) {
	display := strings.TrimSpace(raw)
	if display == "" {
		return
	}
	k := Key(display)
	if _, seen := n.canonical[k]; seen {
		return
	}
	n.canonical[k] = display
	n.order = append(n.order, display)
	if _, taken := n.compact[CompactKey(display)]; !taken {
		n.compact[CompactKey(display)] = display
	}
}

func (n *namespace) lookup(raw string) string {
	display := strings.TrimSpace(raw)
	if display == "" {
		return ""
	}
	if c, ok := n.canonical[Key(display)]; ok {
		return c
	}
	return display
}

// Build scans attendees in input order and records the first spelling of
// every organization and group.
func Build(attendees []model.Attendee) *Table {
	t := &Table{
		orgs:   newNamespace(),
		groups: newNamespace(),
	}
	for _, a := range attendees {
		t.orgs.observe(a.Org)
		t.groups.observe(a.Group)
	}
	return t
}

// Org returns the canonical organization for raw, or "" for blank input.
// Unknown spellings come back trimmed.
func (t *Table) Org(raw string) string {
	return t.orgs.lookup(raw)
}

// Group returns the canonical group for raw, or "" for blank input
func (t *Table) Group(raw string) string {
	return t.groups.lookup(raw)
}

// Orgs lists canonical organizations in first-seen order
func (t *Table) Orgs() []string {
	return append([]string(nil), t.orgs.order...)
}

// Groups lists canonical groups in first-seen order
func (t *Table) Groups() []string {
	return append([]string(nil), t.groups.order...)
}

// GroupForAttach reports the canonical group an attach text names, comparing
// with case and all whitespace ignored ("Mom Life" names "MomLife").
func (t *Table) GroupForAttach(text string) (string, bool) {
	k := CompactKey(text)
	if k == "" {
		return "", false
	}
	g, ok := t.groups.compact[k]
	return g, ok
}

// Apply returns a copy of attendees with names trimmed and org/group
// replaced by their canonical spelling.
func (t *Table) Apply(attendees []model.Attendee) []model.Attendee {
	out := make([]model.Attendee, len(attendees))
	for i, a := range attendees {
		a.First = strings.TrimSpace(a.First)
		a.Last = strings.TrimSpace(a.Last)
		a.AttachText = strings.TrimSpace(a.AttachText)
		a.Org = t.Org(a.Org)
		a.Group = t.Group(a.Group)
		out[i] = a
	}
	return out
}

// AutoGroup records a group taken from an attendee's attach text
type AutoGroup struct {
	Attendee model.AttendeeID
	Group    string
}

// AutoAssignGroups fills the empty group of attendees whose attach text
// names a known group. It returns the updated copy and what was assigned.
func (t *Table) AutoAssignGroups(attendees []model.Attendee) ([]model.Attendee, []AutoGroup) {
	out := append([]model.Attendee(nil), attendees...)
	var assigned []AutoGroup
	for i := range out {
		if out[i].Group != "" || out[i].AttachText == "" {
			continue
		}
		if g, ok := t.GroupForAttach(out[i].AttachText); ok {
			out[i].Group = g
			assigned = append(assigned, AutoGroup{Attendee: model.AttendeeID(i), Group: g})
		}
	}
	return out, assigned
}
