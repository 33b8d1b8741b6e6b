package dataio

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// Output sheet names
const (
	SheetPlaced   = "FilledRoomMap"
	SheetUnplaced = "Unplaced"
	SheetWarnings = "AttachWarnings"
	SheetSummary  = "Summary"
)

// Output layouts
var (
	PlacedHeader = []string{
		ColBuilding, ColRoom, ColFirst, ColLast, ColOrg, ColGroup, ColFloor, ColBunk, ColAttach, ColResolved,
	}
	UnplacedHeader = []string{
		ColFirst, ColLast, ColOrg, ColGroup, ColAttach, ColResolved, ColFloorPref, ColBunkPref, ColReasons,
	}
	WarningsHeader = []string{"Person", "AttachName Value", "Method", "Score", "Resolution"}
)

// sheet is one worksheet to write. A nil header writes rows as they are.
type sheet struct {
	name   string
	header []string
	rows   [][]interface{}
	widths []float64
	color  string // header fill
}

// XLSXSink writes the result workbook
type XLSXSink struct {
	Path string
}

// NewXLSXSink creates a result workbook sink
func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{Path: path}
}

// Write implements Sink
func (s *XLSXSink) Write(result *model.Result) error {
	sheets := []sheet{
		placedSheet(result.Placements),
		unplacedSheet(result.Unplaced),
	}
	if len(result.AttachWarnings) > 0 {
		sheets = append(sheets, warningsSheet(result.AttachWarnings))
	}
	sheets = append(sheets, summarySheet(result.Summary))
	return writeWorkbook(s.Path, sheets)
}

func placedSheet(placements []model.Placement) sheet {
	rows := make([][]interface{}, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, []interface{}{
			p.Building, p.Room, p.First, p.Last, p.Org, p.Group, p.Floor, p.Bunk.Label(), p.AttachText, p.AttachResolved,
		})
	}
	return sheet{
		name:   SheetPlaced,
		header: PlacedHeader,
		rows:   rows,
		widths: []float64{18, 16, 16, 16, 18, 18, 12, 10, 22, 22},
		color:  "#4472C4",
	}
}

func unplacedSheet(unplaced []model.Unplaced) sheet {
	rows := make([][]interface{}, 0, len(unplaced))
	for _, u := range unplaced {
		rows = append(rows, []interface{}{
			u.First, u.Last, u.Org, u.Group, u.AttachText, u.AttachResolved,
			FloorPref(u.FloorOneOnly), BunkPref(u.BottomBunkOnly), strings.Join(u.Reasons, "; "),
		})
	}
	return sheet{
		name:   SheetUnplaced,
		header: UnplacedHeader,
		rows:   rows,
		widths: []float64{14, 16, 16, 18, 22, 22, 18, 12, 60},
		color:  "#C00000",
	}
}

func warningsSheet(warnings []model.AttachWarning) sheet {
	rows := make([][]interface{}, 0, len(warnings))
	for _, w := range warnings {
		var score interface{}
		if w.Score > 0 {
			score = w.Score
		}
		rows = append(rows, []interface{}{w.Person, w.AttachText, string(w.Method), score, w.Message})
	}
	return sheet{
		name:   SheetWarnings,
		header: WarningsHeader,
		rows:   rows,
		widths: []float64{24, 24, 14, 10, 60},
		color:  "#ED7D31",
	}
}

func summarySheet(s model.Summary) sheet {
	rows := [][]interface{}{
		{"Placement Summary"},
		{},
		{"Total People", s.Total},
		{"Placed", s.Placed},
		{"Unplaced", s.Unplaced},
		{"Beds", s.Beds},
		{"Solver Status", string(s.Status)},
		{"Objective", fmt.Sprintf("%d of %d", s.Objective, s.Bound)},
		{},
		{"By Organization & Building"},
		{"Organization", "Building", "Count"},
	}
	for _, c := range s.OrgBuildings {
		rows = append(rows, []interface{}{c.Org, c.Building, c.Count})
	}
	return sheet{
		name:   SheetSummary,
		rows:   rows,
		widths: []float64{30, 15, 20},
	}
}

// writeWorkbook writes sheets into a new workbook at path, in order
func writeWorkbook(path string, sheets []sheet) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh); err != nil {
			return fmt.Errorf("write sheet %s: %w", sh.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sh sheet) error {
	row := 1
	if sh.header != nil {
		if err := setRow(f, sh.name, row, toRow(sh.header)); err != nil {
			return err
		}
		if sh.color != "" {
			style, err := f.NewStyle(&excelize.Style{
				Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial", Size: 11},
				Fill:      excelize.Fill{Type: "pattern", Color: []string{sh.color}, Pattern: 1},
				Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			})
			if err != nil {
				return fmt.Errorf("create header style: %w", err)
			}
			last, err := excelize.CoordinatesToCellName(len(sh.header), 1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sh.name, "A1", last, style); err != nil {
				return fmt.Errorf("set header style: %w", err)
			}
		}
		row++
	}

	for _, values := range sh.rows {
		if err := setRow(f, sh.name, row, values); err != nil {
			return err
		}
		row++
	}

	for i, width := range sh.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh.name, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if sh.header != nil && len(sh.rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(sh.header), len(sh.rows)+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(sh.name, "A1:"+last, nil); err != nil {
			return fmt.Errorf("set auto filter: %w", err)
		}
		if err := f.SetPanes(sh.name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	return nil
}

func setRow(f *excelize.File, name string, row int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(name, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toRow(header []string) []interface{} {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}
