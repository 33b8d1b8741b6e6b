// Package graph classifies resolved attachment edges into mutual pairs,
// one-directional soft edges and group/organization hints.
package graph

import (
	"github.com/ppiankov/bunkhouse/internal/model"
)

// Graph is an arena of attendee references: node i is attendee i and
// out[i] lists the attendees i points at.
type Graph struct {
	out   [][]int
	edges []model.AttachmentEdge
}

// Classification is the outcome of Classify
type Classification struct {
	Mutual     []model.MutualPair            `json:"mutual"`
	Soft       []model.SoftEdge              `json:"soft"`
	Demoted    []model.SoftEdge              `json:"demoted,omitempty"` // Mutual edges that lost to an earlier pair
	GroupHints map[string][]model.AttendeeID `json:"group_hints,omitempty"`
	OrgHints   map[string][]model.AttendeeID `json:"org_hints,omitempty"`
}

// New builds the graph for n attendees. Edges that do not point at a valid
// attendee other than their source are kept only for the hint scan.
func New(n int, edges []model.AttachmentEdge) *Graph {
	g := &Graph{
		out:   make([][]int, n),
		edges: edges,
	}
	for _, e := range edges {
		src, dst := int(e.Source), int(e.Target)
		if !e.Resolved() || src == dst || src < 0 || src >= n || dst < 0 || dst >= n {
			continue
		}
		g.out[src] = append(g.out[src], dst)
	}
	return g
}

// Points reports whether a references b
func (g *Graph) Points(a, b int) bool {
	for _, t := range g.out[a] {
		if t == b {
			return true
		}
	}
	return false
}

// Classify splits the edges. Sources are scanned in ascending order, so when
// an attendee is claimed by more than one mutual reference the lowest source
// wins and the others are demoted to soft edges.
func (g *Graph) Classify(attendees []model.Attendee) Classification {
	c := Classification{
		GroupHints: make(map[string][]model.AttendeeID),
		OrgHints:   make(map[string][]model.AttendeeID),
	}

	paired := make(map[int]bool)
	seenMutual := make(map[model.MutualPair]bool)
	seenSoft := make(map[model.MutualPair]bool)

	addSoft := func(from, to int, demoted bool) {
		key := model.NewMutualPair(model.AttendeeID(from), model.AttendeeID(to))
		if seenSoft[key] {
			return
		}
		seenSoft[key] = true
		edge := model.SoftEdge{From: model.AttendeeID(from), To: model.AttendeeID(to)}
		c.Soft = append(c.Soft, edge)
		if demoted {
			c.Demoted = append(c.Demoted, edge)
		}
	}

	for src := range g.out {
		for _, dst := range g.out[src] {
			if !g.Points(dst, src) {
				addSoft(src, dst, false)
				continue
			}

			pair := model.NewMutualPair(model.AttendeeID(src), model.AttendeeID(dst))
			if seenMutual[pair] {
				continue
			}
			if paired[src] || paired[dst] {
				addSoft(src, dst, true)
				continue
			}
			seenMutual[pair] = true
			paired[src], paired[dst] = true, true
			c.Mutual = append(c.Mutual, pair)
		}
	}

	for _, e := range g.edges {
		src := int(e.Source)
		if src < 0 || src >= len(attendees) {
			continue
		}
		switch e.Kind {
		case model.TargetGroup:
			if attendees[src].Group != e.TargetName {
				c.GroupHints[e.TargetName] = append(c.GroupHints[e.TargetName], e.Source)
			}
		case model.TargetOrganization:
			if attendees[src].Org != e.TargetName {
				c.OrgHints[e.TargetName] = append(c.OrgHints[e.TargetName], e.Source)
			}
		}
	}

	return c
}

// PartnerOf returns the mutual partner of id, or NoAttendee
func (c Classification) PartnerOf(id model.AttendeeID) model.AttendeeID {
	for _, p := range c.Mutual {
		if p.A == id || p.B == id {
			return p.Other(id)
		}
	}
	return model.NoAttendee
}

// SoftTarget returns the target of id's one-directional attachment, or NoAttendee
func (c Classification) SoftTarget(id model.AttendeeID) model.AttendeeID {
	for _, e := range c.Soft {
		if e.From == id {
			return e.To
		}
	}
	return model.NoAttendee
}
