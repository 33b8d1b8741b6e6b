// Package validate checks loaded room and attendee records before any
// modeling starts. Every problem is collected; one bad record never hides
// the next.
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// Sheet names of the two input record sets
const (
	SheetRooms  = "RoomMap"
	SheetPeople = "PeopleToPlace"
)

// maxReported bounds the problems listed in an error message
const maxReported = 10

// ErrInvalidData is matched by every data validation failure
var ErrInvalidData = errors.New("invalid input data")

// FieldError is one problem with one cell
type FieldError struct {
	Sheet string `json:"sheet"`
	Row   int    `json:"row"` // 1-based, as the user sees it
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s row %d %s: %s", e.Sheet, e.Row, e.Field, e.Msg)
}

// Error carries every FieldError of a failed validation
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d problem(s)", ErrInvalidData, len(e.Fields))
	for i, f := range e.Fields {
		if i == maxReported {
			fmt.Fprintf(&b, "; and %d more", len(e.Fields)-maxReported)
			break
		}
		b.WriteString("; ")
		b.WriteString(f.String())
	}
	return b.String()
}

// Unwrap makes errors.Is(err, ErrInvalidData) hold
func (e *Error) Unwrap() error {
	return ErrInvalidData
}

// Collector accumulates field errors
type Collector struct {
	fields []FieldError
}

// Add records a problem
func (c *Collector) Add(sheet string, row int, field, format string, args ...interface{}) {
	c.fields = append(c.fields, FieldError{Sheet: sheet, Row: row, Field: field, Msg: fmt.Sprintf(format, args...)})
}

// Int parses a whole number cell. Blank cells read as zero; anything else
// that is not a number is recorded and also reads as zero.
func (c *Collector) Int(sheet string, row int, field, text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	// spreadsheets hand integers back as "2.0" now and then
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	c.Add(sheet, row, field, "%q is not a whole number", text)
	return 0
}

// Len returns the number of problems so far
func (c *Collector) Len() int {
	return len(c.fields)
}

// Err returns nil or an *Error holding every problem
func (c *Collector) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &Error{Fields: append([]FieldError(nil), c.fields...)}
}

// Validator checks a parsed dataset
type Validator struct {
	headerRows int
}

// NewValidator creates a validator. headerRows is the number of rows above
// the first record, used to report row numbers the way the source shows them.
func NewValidator(headerRows int) *Validator {
	if headerRows < 0 {
		headerRows = 0
	}
	return &Validator{headerRows: headerRows}
}

// Validate checks required fields, floors, bunk counts and duplicate rooms
func (v *Validator) Validate(ds *model.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: no dataset", ErrInvalidData)
	}

	var c Collector
	v.validateRooms(&c, ds.Rooms)
	v.validatePeople(&c, ds.Attendees)
	return c.Err()
}

func (v *Validator) row(index int) int {
	return index + 1 + v.headerRows
}

func (v *Validator) validateRooms(c *Collector, rooms []model.Room) {
	if len(rooms) == 0 {
		c.Add(SheetRooms, 0, "", "no rooms")
		return
	}

	seen := make(map[string]int)
	for i, r := range rooms {
		row := v.row(i)
		if strings.TrimSpace(r.Building) == "" {
			c.Add(SheetRooms, row, "BuildingName", "required")
		}
		if strings.TrimSpace(r.Name) == "" {
			c.Add(SheetRooms, row, "RoomName", "required")
		}
		if r.Floor != 1 && r.Floor != 2 {
			c.Add(SheetRooms, row, "RoomFloor", "must be 1 or 2, got %d", r.Floor)
		}
		if r.BottomBunks < 0 {
			c.Add(SheetRooms, row, "#BottomBunk", "must not be negative, got %d", r.BottomBunks)
		}
		if r.TopBunks < 0 {
			c.Add(SheetRooms, row, "#TopBunk", "must not be negative, got %d", r.TopBunks)
		}

		key := strings.ToLower(strings.TrimSpace(r.Building)) + "/" + strings.ToLower(strings.TrimSpace(r.Name))
		if first, ok := seen[key]; ok {
			c.Add(SheetRooms, row, "RoomName", "duplicate of row %d", first)
		} else {
			seen[key] = row
		}
	}
}

func (v *Validator) validatePeople(c *Collector, attendees []model.Attendee) {
	for i, a := range attendees {
		row := v.row(i)
		if strings.TrimSpace(a.First) == "" {
			c.Add(SheetPeople, row, "FirstName", "required")
		}
		if strings.TrimSpace(a.Last) == "" {
			c.Add(SheetPeople, row, "LastName", "required")
		}
	}
}
