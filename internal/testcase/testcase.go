// Package testcase defines the assignment lists that make up a unit
// test for a single subprogram, and the codecs that read them from
// JSON or YAML and write them as test scripts.
package testcase

import (
	"slices"
)

// ValueMapping binds one identifier to a value token. Values are
// opaque to everything except the script writer.
type ValueMapping struct {
	Identifier string `json:"identifier" yaml:"identifier" validate:"required"`
	Value      string `json:"value" yaml:"value"`
}

// TestCase is one generated test. Order of InputValues is
// significant: the test framework applies assignments top to bottom,
// so allocations must precede writes into what they allocate.
type TestCase struct {
	Name           string         `json:"test_name,omitempty" yaml:"test_name,omitempty"`
	Description    string         `json:"test_description,omitempty" yaml:"test_description,omitempty"`
	Unit           string         `json:"unit_name,omitempty" yaml:"unit_name,omitempty"`
	Subprogram     string         `json:"subprogram_name" yaml:"subprogram_name" validate:"required"`
	InputValues    []ValueMapping `json:"input_values" yaml:"input_values" validate:"dive"`
	ExpectedValues []ValueMapping `json:"expected_values,omitempty" yaml:"expected_values,omitempty" validate:"dive"`
	RequirementID  string         `json:"requirement_id,omitempty" yaml:"requirement_id,omitempty"`
}

// Clone returns a deep copy of tc.
func (tc TestCase) Clone() TestCase {
	out := tc
	out.InputValues = slices.Clone(tc.InputValues)
	out.ExpectedValues = slices.Clone(tc.ExpectedValues)
	return out
}

// Equal reports structural equality. Nil and empty mapping lists are
// equal.
func (tc TestCase) Equal(other TestCase) bool {
	return tc.Name == other.Name &&
		tc.Description == other.Description &&
		tc.Unit == other.Unit &&
		tc.Subprogram == other.Subprogram &&
		tc.RequirementID == other.RequirementID &&
		slices.Equal(tc.InputValues, other.InputValues) &&
		slices.Equal(tc.ExpectedValues, other.ExpectedValues)
}

// InputKeys returns the set of identifiers assigned in InputValues.
func (tc TestCase) InputKeys() map[string]bool {
	keys := make(map[string]bool, len(tc.InputValues))
	for _, v := range tc.InputValues {
		keys[v.Identifier] = true
	}
	return keys
}

// HasInput reports whether id is assigned in InputValues.
func (tc TestCase) HasInput(id string) bool {
	return slices.ContainsFunc(tc.InputValues, func(v ValueMapping) bool {
		return v.Identifier == id
	})
}
