package model

// Room is a physical room inside a building
type Room struct {
	Building    string `json:"building" yaml:"building"`         // Building the room belongs to
	Name        string `json:"room" yaml:"room"`                 // Room name, unique within the building
	Floor       int    `json:"floor" yaml:"floor"`               // 1 or 2
	BottomBunks int    `json:"bottom_bunks" yaml:"bottom_bunks"` // Accessible (bottom) beds
	TopBunks    int    `json:"top_bunks" yaml:"top_bunks"`       // Top beds
}

// Capacity returns the total number of beds in the room
func (r Room) Capacity() int {
	return r.BottomBunks + r.TopBunks
}

// Key returns the stable "building/room" identifier
func (r Room) Key() string {
	return r.Building + "/" + r.Name
}

// BunkLevel is the level of a bed within a room
type BunkLevel string

const (
	BunkBottom BunkLevel = "bottom"
	BunkTop    BunkLevel = "top"
)

// Label returns the display form used in spreadsheets
func (b BunkLevel) Label() string {
	switch b {
	case BunkBottom:
		return "Bottom"
	case BunkTop:
		return "Top"
	default:
		return ""
	}
}
