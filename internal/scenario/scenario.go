// Package scenario is the serialized form of an intervention configuration:
// a flat list of damping records plus container dimensions. A container is
// reconstructed from it with repeated Add calls, so record order never
// affects the result.
package scenario

import (
	"encoding/json"
	"fmt"

	"github.com/epiforge/epidamp/internal/damping"
)

// Record is one damping entry in flat serialized form. Exactly one of the
// shape payloads is used, selected by Shape.
type Record struct {
	Level  int         `json:"level"`
	Type   int         `json:"type"`
	Time   float64     `json:"time"`
	Shape  string      `json:"shape"`
	Scalar float64     `json:"scalar,omitempty"`
	Vector []float64   `json:"vector,omitempty"`
	Matrix [][]float64 `json:"matrix,omitempty"`
}

// Value converts the record payload into a damping value.
func (r Record) Value() (damping.Value, error) {
	switch r.Shape {
	case damping.ShapeScalar.String():
		return damping.Scalar(r.Scalar), nil
	case damping.ShapeColumnVector.String():
		if len(r.Vector) == 0 {
			return nil, fmt.Errorf("vector record without vector payload")
		}
		return damping.ColumnVector(r.Vector), nil
	case damping.ShapeMatrix.String():
		m, err := damping.MatrixFromRows(r.Matrix)
		if err != nil {
			return nil, fmt.Errorf("matrix record: %w", err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown shape %q", r.Shape)
}

// Scenario is a complete intervention configuration.
type Scenario struct {
	Name     string   `json:"name,omitempty"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Dampings []Record `json:"dampings"`
}

// Build reconstructs a damping container from the flat records. Any
// malformed record fails the whole build; a scenario that builds is valid.
func (s *Scenario) Build() (*damping.Dampings, error) {
	if s.Rows <= 0 || s.Cols <= 0 {
		return nil, fmt.Errorf("scenario dimensions %dx%d must be positive", s.Rows, s.Cols)
	}
	d := damping.New(s.Rows, s.Cols)
	for i, r := range s.Dampings {
		v, err := r.Value()
		if err != nil {
			return nil, fmt.Errorf("damping record %d: %w", i, err)
		}
		if err := d.Add(v, r.Level, r.Type, r.Time); err != nil {
			return nil, fmt.Errorf("damping record %d: %w", i, err)
		}
	}
	return d, nil
}

// Append validates a record against the scenario and adds it.
func (s *Scenario) Append(r Record) error {
	probe := *s
	probe.Dampings = append(append([]Record(nil), s.Dampings...), r)
	if _, err := probe.Build(); err != nil {
		return err
	}
	s.Dampings = append(s.Dampings, r)
	return nil
}

// Marshal serializes the scenario to JSON.
func (s *Scenario) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal parses a scenario from JSON and verifies it builds.
func Unmarshal(data []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if _, err := s.Build(); err != nil {
		return nil, err
	}
	return &s, nil
}
