package model

import "strings"

// AttendeeID is the position of an attendee in the loaded attendee list.
// It is the stable key used by every stage of the pipeline.
type AttendeeID int

// NoAttendee marks the absence of an attendee reference
const NoAttendee AttendeeID = -1

// Attendee is a person to be placed
type Attendee struct {
	First          string `json:"first_name" yaml:"first_name"`
	Last           string `json:"last_name" yaml:"last_name"`
	Org            string `json:"org,omitempty" yaml:"org,omitempty"`                           // Canonical organization, "" when none
	Group          string `json:"group,omitempty" yaml:"group,omitempty"`                       // Canonical group, "" when none
	AttachText     string `json:"attach,omitempty" yaml:"attach,omitempty"`                     // Free-text "room with" reference
	FloorOneOnly   bool   `json:"floor_one_only,omitempty" yaml:"floor_one_only,omitempty"`     // Accessibility: floor 1 rooms only
	BottomBunkOnly bool   `json:"bottom_bunk_only,omitempty" yaml:"bottom_bunk_only,omitempty"` // Accessibility: bottom bunk only
}

// FullName returns "First Last"
func (a Attendee) FullName() string {
	return strings.TrimSpace(a.First + " " + a.Last)
}

// Dataset is the input record set handed over by a data source
type Dataset struct {
	Rooms     []Room     `json:"rooms" yaml:"rooms"`
	Attendees []Attendee `json:"attendees" yaml:"attendees"`
}

// Pin fixes an attendee to a room. Pins come from manual edits and are
// applied as additional hard constraints on a re-run.
type Pin struct {
	First    string `json:"first_name" yaml:"first_name"`
	Last     string `json:"last_name" yaml:"last_name"`
	Building string `json:"building" yaml:"building"`
	Room     string `json:"room" yaml:"room"`
}
