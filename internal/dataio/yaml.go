package dataio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/bunkhouse/internal/model"
)

// YAMLSource reads one document holding rooms and attendees
type YAMLSource struct {
	Path string
}

// NewYAMLSource creates a YAML source
func NewYAMLSource(path string) *YAMLSource {
	return &YAMLSource{Path: path}
}

// HeaderRows implements Source
func (s *YAMLSource) HeaderRows() int { return 0 }

// Load implements Source
func (s *YAMLSource) Load(ctx context.Context) (*model.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var ds model.Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse dataset %s: %w", s.Path, err)
	}

	for i := range ds.Attendees {
		a := &ds.Attendees[i]
		a.First = cleanCell(a.First)
		a.Last = cleanCell(a.Last)
		a.Org = cleanCell(a.Org)
		a.Group = cleanCell(a.Group)
		a.AttachText = cleanCell(a.AttachText)
	}
	for i := range ds.Rooms {
		ds.Rooms[i].Building = cleanCell(ds.Rooms[i].Building)
		ds.Rooms[i].Name = cleanCell(ds.Rooms[i].Name)
	}
	return &ds, nil
}

// WriteDatasetYAML writes ds as a YAML source document
func WriteDatasetYAML(ds *model.Dataset, path string) error {
	return writeYAML(path, ds)
}

// pinsFile is the on-disk form of a pin list
type pinsFile struct {
	Pins []model.Pin `yaml:"pins"`
}

// LoadPins reads manual room overrides
func LoadPins(path string) ([]model.Pin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pins: %w", err)
	}
	var f pinsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse pins %s: %w", path, err)
	}
	return f.Pins, nil
}

// PinsFromResult turns every placement of a result into a pin, so a
// hand-edited copy can be fed back into a re-run
func PinsFromResult(result *model.Result) []model.Pin {
	pins := make([]model.Pin, 0, len(result.Placements))
	for _, p := range result.Placements {
		pins = append(pins, model.Pin{First: p.First, Last: p.Last, Building: p.Building, Room: p.Room})
	}
	return pins
}

// WritePins writes a pin list
func WritePins(pins []model.Pin, path string) error {
	return writeYAML(path, pinsFile{Pins: pins})
}

func writeYAML(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
