package dataio

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/validate"
)

// RoomHeader and PeopleHeader are the input workbook layouts
var (
	RoomHeader   = []string{ColBuilding, ColRoom, ColFloor, ColBottom, ColTop}
	PeopleHeader = []string{ColFirst, ColLast, ColOrg, ColGroup, ColAttach, ColFloorPref, ColBunkPref}
)

// XLSXSource reads the room workbook and the people workbook. Only the
// first sheet of each is used.
type XLSXSource struct {
	RoomsPath  string
	PeoplePath string
}

// NewXLSXSource creates a workbook source
func NewXLSXSource(roomsPath, peoplePath string) *XLSXSource {
	return &XLSXSource{RoomsPath: roomsPath, PeoplePath: peoplePath}
}

// HeaderRows implements Source
func (s *XLSXSource) HeaderRows() int { return 1 }

// Load implements Source. Cell problems are collected over both workbooks
// and returned together as a *validate.Error.
func (s *XLSXSource) Load(ctx context.Context) (*model.Dataset, error) {
	roomRows, err := readFirstSheet(s.RoomsPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	peopleRows, err := readFirstSheet(s.PeoplePath)
	if err != nil {
		return nil, err
	}

	var c validate.Collector
	ds := &model.Dataset{
		Rooms:     parseRooms(&c, roomRows),
		Attendees: parsePeople(&c, peopleRows),
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return ds, nil
}

func readFirstSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", path, err)
	}
	return rows, nil
}

// table gives header-addressed access to sheet rows
type table struct {
	sheet   string
	columns map[string]int
	rows    [][]string
}

func newTable(c *validate.Collector, sheet string, rows [][]string, required []string) (*table, bool) {
	t := &table{sheet: sheet, columns: make(map[string]int)}
	if len(rows) == 0 {
		c.Add(sheet, 1, "", "missing header row")
		return t, false
	}
	for i, h := range rows[0] {
		t.columns[cleanCell(h)] = i
	}

	ok := true
	for _, name := range required {
		if _, found := t.columns[name]; !found {
			c.Add(sheet, 1, name, "missing column")
			ok = false
		}
	}

	for _, row := range rows[1:] {
		if !blankRow(row) {
			t.rows = append(t.rows, row)
		}
	}
	return t, ok
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

func (t *table) cell(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

func parseRooms(c *validate.Collector, rows [][]string) []model.Room {
	t, ok := newTable(c, validate.SheetRooms, rows, RoomHeader)
	if !ok {
		return nil
	}

	rooms := make([]model.Room, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		rooms = append(rooms, model.Room{
			Building:    t.cell(row, ColBuilding),
			Name:        t.cell(row, ColRoom),
			Floor:       c.Int(t.sheet, line, ColFloor, t.cell(row, ColFloor)),
			BottomBunks: c.Int(t.sheet, line, ColBottom, t.cell(row, ColBottom)),
			TopBunks:    c.Int(t.sheet, line, ColTop, t.cell(row, ColTop)),
		})
	}
	return rooms
}

func parsePeople(c *validate.Collector, rows [][]string) []model.Attendee {
	// only the names are required; the other columns may be left out
	t, ok := newTable(c, validate.SheetPeople, rows, []string{ColFirst, ColLast})
	if !ok {
		return nil
	}

	people := make([]model.Attendee, 0, len(t.rows))
	for _, row := range t.rows {
		people = append(people, model.Attendee{
			First:          t.cell(row, ColFirst),
			Last:           t.cell(row, ColLast),
			Org:            t.cell(row, ColOrg),
			Group:          t.cell(row, ColGroup),
			AttachText:     t.cell(row, ColAttach),
			FloorOneOnly:   parseFloorPref(t.cell(row, ColFloorPref)),
			BottomBunkOnly: parseBunkPref(t.cell(row, ColBunkPref)),
		})
	}
	return people
}

// WriteDatasetXLSX writes ds as the two input workbooks
func WriteDatasetXLSX(ds *model.Dataset, roomsPath, peoplePath string) error {
	rooms := make([][]interface{}, 0, len(ds.Rooms))
	for _, r := range ds.Rooms {
		rooms = append(rooms, []interface{}{r.Building, r.Name, r.Floor, r.BottomBunks, r.TopBunks})
	}
	if err := writeWorkbook(roomsPath, []sheet{{name: validate.SheetRooms, header: RoomHeader, rows: rooms}}); err != nil {
		return err
	}

	people := make([][]interface{}, 0, len(ds.Attendees))
	for _, a := range ds.Attendees {
		people = append(people, []interface{}{
			a.First, a.Last, a.Org, a.Group, a.AttachText, FloorPref(a.FloorOneOnly), BunkPref(a.BottomBunkOnly),
		})
	}
	return writeWorkbook(peoplePath, []sheet{{name: validate.SheetPeople, header: PeopleHeader, rows: people}})
}
