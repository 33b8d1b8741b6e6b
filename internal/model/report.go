package model

import "time"

// Result is the complete outcome of one planning run
type Result struct {
	RunID       string    `json:"run_id"`       // Identifier of the pipeline invocation
	GeneratedAt time.Time `json:"generated_at"` // When the run finished

	Placements     []Placement     `json:"placements"`      // Placed attendees, ordered by building, room, bunk
	Unplaced       []Unplaced      `json:"unplaced"`        // Attendees without a bed, with reasons
	AttachWarnings []AttachWarning `json:"attach_warnings"` // Non-exact attach resolutions
	Summary        Summary         `json:"summary"`         // Aggregate counts
	Score          Score           `json:"score"`           // Soft constraint satisfaction
}

// Placement is one placed attendee
type Placement struct {
	Attendee       AttendeeID `json:"attendee"`
	Building       string     `json:"building"`
	Room           string     `json:"room"`
	First          string     `json:"first_name"`
	Last           string     `json:"last_name"`
	Org            string     `json:"org,omitempty"`
	Group          string     `json:"group,omitempty"`
	Floor          int        `json:"floor"`
	Bunk           BunkLevel  `json:"bunk"`
	AttachText     string     `json:"attach,omitempty"`
	AttachResolved string     `json:"attach_resolved,omitempty"`
	Pinned         bool       `json:"pinned,omitempty"`
}

// Unplaced is an attendee the solver left without a bed
type Unplaced struct {
	Attendee       AttendeeID `json:"attendee"`
	First          string     `json:"first_name"`
	Last           string     `json:"last_name"`
	Org            string     `json:"org,omitempty"`
	Group          string     `json:"group,omitempty"`
	AttachText     string     `json:"attach,omitempty"`
	AttachResolved string     `json:"attach_resolved,omitempty"`
	FloorOneOnly   bool       `json:"floor_one_only,omitempty"`
	BottomBunkOnly bool       `json:"bottom_bunk_only,omitempty"`
	Reasons        []string   `json:"reasons"`
}

// AttachWarning explains how an attach text was (or was not) resolved
type AttachWarning struct {
	Attendee   AttendeeID         `json:"attendee"`
	Person     string             `json:"person"`
	AttachText string             `json:"attach"`
	Method     Method             `json:"method"`
	Target     string             `json:"target,omitempty"`
	Score      float64            `json:"score,omitempty"`
	Candidates []CandidateOutcome `json:"candidates,omitempty"`
	Message    string             `json:"message"`
}

// CandidateOutcome records one candidate the resolver looked at
type CandidateOutcome struct {
	Name     string  `json:"name"`
	Raw      float64 `json:"raw,omitempty"`      // Plain similarity
	Combined float64 `json:"combined,omitempty"` // Similarity plus affinity bonus
	Affinity int     `json:"affinity"`           // Shared org/group signals
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason,omitempty"`
}

// SolveStatus is the outcome reported by the solver
type SolveStatus string

const (
	StatusOptimal    SolveStatus = "optimal"    // Proven best
	StatusFeasible   SolveStatus = "feasible"   // Valid, not proven best
	StatusInfeasible SolveStatus = "infeasible" // Hard constraints cannot all hold
	StatusTimeout    SolveStatus = "timeout"    // No solution found within the budget
)

// Summary aggregates a Result
type Summary struct {
	Total        int                `json:"total"`
	Placed       int                `json:"placed"`
	Unplaced     int                `json:"unplaced"`
	Beds         int                `json:"beds"`
	BottomBeds   int                `json:"bottom_beds"`
	Status       SolveStatus        `json:"status"`
	TimedOut     bool               `json:"timed_out"` // Budget elapsed before the search finished
	Cached       bool               `json:"cached"`    // Solution replayed from the solution cache
	Objective    int64              `json:"objective"`
	Bound        int64              `json:"bound"`
	SolveTime    time.Duration      `json:"solve_time"`
	OrgBuildings []OrgBuildingCount `json:"org_buildings"`
	Affinity     OrgAffinity        `json:"affinity,omitempty"`
}

// OrgBuildingCount is one cell of the organization-by-building distribution
type OrgBuildingCount struct {
	Org      string `json:"org"`
	Building string `json:"building"`
	Count    int    `json:"count"`
}

// Score is the transparent soft-constraint breakdown of a solution
type Score struct {
	Objective int64    `json:"objective"`
	Bound     int64    `json:"bound"`
	Signals   []Signal `json:"signals"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a soft constraint family
type SignalType string

const (
	SignalPlacement     SignalType = "placement"      // Attendees placed
	SignalGroupCohesion SignalType = "group_cohesion" // Adjacent group members sharing a room
	SignalAttachSoft    SignalType = "attach_soft"    // One-directional attachments honored
	SignalMutualPairs   SignalType = "mutual_pairs"   // Hard pairs placed together
	SignalOrgAffinity   SignalType = "org_affinity"   // Attendees in a preferred building
	SignalOrgCohesion   SignalType = "org_cohesion"   // Adjacent org members sharing a building
	SignalAccessibility SignalType = "accessibility"  // Floor/bunk requirements vs supply
	SignalSolverOutcome SignalType = "solver_outcome" // Status of the solve
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
