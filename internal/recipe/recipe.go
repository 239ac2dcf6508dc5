// Package recipe holds the client-facing recipe model shared by the
// interpreter and the compiler.
package recipe

import (
	"strings"

	"github.com/leapstack-labs/prima/internal/catalog"
)

// Step is one requested operation application.
type Step struct {
	ID        string         `json:"id" yaml:"id"`
	Operation string         `json:"operation" yaml:"operation"`
	Column    string         `json:"column" yaml:"column"`
	Params    map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Recipe is an ordered list of steps tied to an upload session.
type Recipe struct {
	SessionID string `json:"session_id" yaml:"session_id"`
	Steps     []Step `json:"steps" yaml:"steps"`
}

// Op returns the step's operation tag.
func (s Step) Op() catalog.Op {
	return catalog.Op(s.Operation)
}

// TargetColumn resolves the column a step acts on. A non-empty string
// "col" parameter overrides the standalone Column field, so UI forms may
// submit the column either way. Other "col" values are ignored.
func (s Step) TargetColumn() string {
	if v, ok := s.Params["col"].(string); ok {
		if col := strings.TrimSpace(v); col != "" {
			return col
		}
	}
	return s.Column
}

// Label returns a short human description used in logs and reports.
func (s Step) Label() string {
	col := s.TargetColumn()
	if col == "" {
		return s.Operation
	}
	return s.Operation + "(" + col + ")"
}
