package model

// TargetKind classifies what an attach reference points at
type TargetKind string

const (
	TargetNone         TargetKind = "none"
	TargetAttendee     TargetKind = "attendee"
	TargetGroup        TargetKind = "group"
	TargetOrganization TargetKind = "organization"
)

// Method records which resolution tier produced an edge
type Method string

const (
	MethodExact      Method = "exact"
	MethodNickname   Method = "nickname"
	MethodLastName   Method = "last_name"
	MethodFirstName  Method = "first_name"
	MethodPrefix     Method = "prefix"
	MethodFuzzy      Method = "fuzzy"
	MethodGroupRef   Method = "group_ref"
	MethodOrgRef     Method = "org_ref"
	MethodNonPerson  Method = "non_person"
	MethodAmbiguous  Method = "ambiguous"
	MethodUnresolved Method = "unresolved"
)

// AttachmentEdge is the resolved form of one attendee's attach text
type AttachmentEdge struct {
	Source     AttendeeID `json:"source"`
	Kind       TargetKind `json:"kind"`
	Target     AttendeeID `json:"target"`                // Valid only when Kind == TargetAttendee
	TargetName string     `json:"target_name,omitempty"` // Display name of the attendee, group or organization
	Method     Method     `json:"method"`
	Confidence float64    `json:"confidence"`
}

// Resolved reports whether the edge points at another attendee
func (e AttachmentEdge) Resolved() bool {
	return e.Kind == TargetAttendee && e.Target != NoAttendee
}

// MutualPair is two attendees who reference each other. A < B always.
type MutualPair struct {
	A AttendeeID `json:"a"`
	B AttendeeID `json:"b"`
}

// NewMutualPair orders the two members
func NewMutualPair(x, y AttendeeID) MutualPair {
	if y < x {
		x, y = y, x
	}
	return MutualPair{A: x, B: y}
}

// Other returns the partner of id within the pair
func (p MutualPair) Other(id AttendeeID) AttendeeID {
	if p.A == id {
		return p.B
	}
	return p.A
}

// SoftEdge is a one-directional attachment kept as a preference
type SoftEdge struct {
	From AttendeeID `json:"from"`
	To   AttendeeID `json:"to"`
}

// OrgAffinity maps a canonical organization to its preferred buildings
type OrgAffinity map[string][]string
