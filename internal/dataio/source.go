// Package dataio loads room and attendee records and writes placement
// results. Workbooks go through excelize, everything else through yaml.v3.
package dataio

import (
	"context"
	"strings"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// Source loads the input record sets
type Source interface {
	Load(ctx context.Context) (*model.Dataset, error)
	// HeaderRows is the number of rows above the first record
	HeaderRows() int
}

// Sink stores a finished result
type Sink interface {
	Write(result *model.Result) error
}

// Column names shared by the workbooks and the YAML keys' documentation
const (
	ColBuilding   = "BuildingName"
	ColRoom       = "RoomName"
	ColFloor      = "RoomFloor"
	ColBottom     = "#BottomBunk"
	ColTop        = "#TopBunk"
	ColFirst      = "FirstName"
	ColLast       = "LastName"
	ColOrg        = "OrgName"
	ColGroup      = "GroupName"
	ColAttach     = "AttachName"
	ColFloorPref  = "RoomLocationPref"
	ColBunkPref   = "BunkPref"
	ColBunk       = "Bunk"
	ColResolved   = "AttachResolved"
	ColReasons    = "Reasons"
	floorPrefOne  = "1"
	floorPrefAny  = "Any"
	bunkPrefAny   = "Any"
	bunkPrefBelow = "Bottom"
)

var placeholders = map[string]bool{
	"nan":  true,
	"NaN":  true,
	"None": true,
	"none": true,
}

// cleanCell trims a cell and reads spreadsheet placeholders as empty
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if placeholders[s] {
		return ""
	}
	return s
}

// FloorPref renders the floor requirement the way the workbooks spell it
func FloorPref(floorOneOnly bool) string {
	if floorOneOnly {
		return floorPrefOne
	}
	return floorPrefAny
}

// BunkPref renders the bunk requirement the way the workbooks spell it
func BunkPref(bottomOnly bool) string {
	if bottomOnly {
		return bunkPrefBelow
	}
	return bunkPrefAny
}

func parseFloorPref(s string) bool {
	return cleanCell(s) == floorPrefOne
}

func parseBunkPref(s string) bool {
	return strings.EqualFold(cleanCell(s), bunkPrefBelow)
}
