package dataio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/bunkhouse/internal/model"
	"github.com/ppiankov/bunkhouse/internal/validate"
)

func TestCleanCell(t *testing.T) {
	tests := map[string]string{
		"  Grace ": "Grace",
		"nan":      "",
		"NaN":      "",
		"None":     "",
		" none ":   "",
		"Nancy":    "Nancy",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanCell(in), "cleanCell(%q)", in)
	}
}

func TestPrefs(t *testing.T) {
	assert.True(t, parseFloorPref(" 1 "))
	assert.False(t, parseFloorPref("Any"))
	assert.False(t, parseFloorPref("2"))
	assert.True(t, parseBunkPref("bottom"))
	assert.True(t, parseBunkPref("Bottom"))
	assert.False(t, parseBunkPref("Any"))

	assert.Equal(t, "1", FloorPref(true))
	assert.Equal(t, "Any", FloorPref(false))
	assert.Equal(t, "Bottom", BunkPref(true))
}

func TestXLSXSampleLoads(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "RoomMap.xlsx")
	people := filepath.Join(dir, "PeopleToPlace.xlsx")

	sample := SampleDataset()
	require.NoError(t, WriteDatasetXLSX(sample, rooms, people))

	src := NewXLSXSource(rooms, people)
	ds, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sample, ds)
	assert.Equal(t, 1, src.HeaderRows())
}

// writeRaw writes string rows to the first sheet of a new workbook
func writeRaw(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestXLSXSourceCleansCells(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "rooms.xlsx")
	people := filepath.Join(dir, "people.xlsx")

	writeRaw(t, rooms, [][]interface{}{
		{" BuildingName ", "RoomName", "RoomFloor", "#BottomBunk", "#TopBunk"},
		{"Lodge", "1", 1, 2, "2.0"},
		{},
	})
	writeRaw(t, people, [][]interface{}{
		{"FirstName", "LastName", "OrgName", "AttachName", "BunkPref"},
		{" Ann ", "Lee", "nan", "None", "bottom"},
	})

	ds, err := NewXLSXSource(rooms, people).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Rooms, 1)
	assert.Equal(t, model.Room{Building: "Lodge", Name: "1", Floor: 1, BottomBunks: 2, TopBunks: 2}, ds.Rooms[0])
	require.Len(t, ds.Attendees, 1)
	assert.Equal(t, model.Attendee{First: "Ann", Last: "Lee", BottomBunkOnly: true}, ds.Attendees[0])
}

func TestXLSXSourceReportsCells(t *testing.T) {
	dir := t.TempDir()
	rooms := filepath.Join(dir, "rooms.xlsx")
	people := filepath.Join(dir, "people.xlsx")

	writeRaw(t, rooms, [][]interface{}{
		{"BuildingName", "RoomName", "RoomFloor", "#BottomBunk", "#TopBunk"},
		{"Lodge", "1", "first", 2, 2},
	})
	writeRaw(t, people, [][]interface{}{
		{"FirstName", "OrgName"},
		{"Ann", "Grace"},
	})

	_, err := NewXLSXSource(rooms, people).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, validate.ErrInvalidData))

	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []validate.FieldError{
		{Sheet: validate.SheetRooms, Row: 2, Field: ColFloor, Msg: `"first" is not a whole number`},
		{Sheet: validate.SheetPeople, Row: 1, Field: ColLast, Msg: "missing column"},
	}, verr.Fields)
}

func TestXLSXSourceMissingFile(t *testing.T) {
	_, err := NewXLSXSource(filepath.Join(t.TempDir(), "nope.xlsx"), "x").Load(context.Background())
	assert.Error(t, err)
	assert.False(t, errors.Is(err, validate.ErrInvalidData))
}

func TestYAMLSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retreat.yaml")
	require.NoError(t, WriteDatasetYAML(SampleDataset(), path))

	src := NewYAMLSource(path)
	ds, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SampleDataset(), ds)
	assert.Equal(t, 0, src.HeaderRows())
}

func TestYAMLSourceRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retreat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rooms:\n  - building: A\n    beds: 3\n"), 0o644))

	_, err := NewYAMLSource(path).Load(context.Background())
	assert.Error(t, err)
}

func TestPins(t *testing.T) {
	result := &model.Result{Placements: []model.Placement{
		{First: "Ann", Last: "Lee", Building: "Lodge", Room: "101"},
	}}
	path := filepath.Join(t.TempDir(), "pins.yaml")
	require.NoError(t, WritePins(PinsFromResult(result), path))

	pins, err := LoadPins(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Pin{{First: "Ann", Last: "Lee", Building: "Lodge", Room: "101"}}, pins)
}

func TestXLSXSink(t *testing.T) {
	result := &model.Result{
		Placements: []model.Placement{
			{Building: "Lodge", Room: "101", First: "Ann", Last: "Lee", Floor: 1, Bunk: model.BunkBottom},
		},
		Unplaced: []model.Unplaced{
			{First: "Bob", Last: "Smith", BottomBunkOnly: true, Reasons: []string{"one", "two"}},
		},
		AttachWarnings: []model.AttachWarning{
			{Person: "Ann Lee", AttachText: "Bobb", Method: model.MethodFuzzy, Score: 0.8, Message: "fuzzy"},
		},
		Summary: model.Summary{
			Total: 2, Placed: 1, Unplaced: 1, Status: model.StatusFeasible,
			OrgBuildings: []model.OrgBuildingCount{{Org: "Grace", Building: "Lodge", Count: 1}},
		},
	}

	path := filepath.Join(t.TempDir(), "FilledRoomMap.xlsx")
	require.NoError(t, NewXLSXSink(path).Write(result))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetPlaced, SheetUnplaced, SheetWarnings, SheetSummary}, f.GetSheetList())

	placed, err := f.GetRows(SheetPlaced)
	require.NoError(t, err)
	require.Len(t, placed, 2)
	assert.Equal(t, PlacedHeader, placed[0])
	assert.Equal(t, "Bottom", placed[1][7])

	unplaced, err := f.GetRows(SheetUnplaced)
	require.NoError(t, err)
	require.Len(t, unplaced, 2)
	assert.Equal(t, "Bottom", unplaced[1][7])
	assert.Equal(t, "one; two", unplaced[1][8])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Total People", "2"}, summary[2])
	assert.Equal(t, []string{"Grace", "Lodge", "1"}, summary[len(summary)-1])
}

func TestXLSXSinkWithoutWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, NewXLSXSink(path).Write(&model.Result{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SheetPlaced, SheetUnplaced, SheetSummary}, f.GetSheetList())
}
