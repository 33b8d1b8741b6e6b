// Package resolve turns free-text "room with" references into attachment
// edges.
//
// A reference is first checked against group and organization names. If it
// names a person, an ordered cascade of matchers runs and the first one that
// reaches a verdict wins:
//   - exact: case-insensitive "first last"
//   - nickname: first token expanded through a fixed table
//   - last name: shared last name with a plausible first name
//   - first name: single token shared first name
//   - prefix: first name plus an abbreviated last name
//   - fuzzy: edit similarity plus an org/group affinity bonus
//
// Every step is deterministic. Candidates are always scanned in input order
// and every tie-break is explicit.
package resolve
