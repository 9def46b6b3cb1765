package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Formula is an account field that is either a literal number or a symbolic
// expression over named settings identifiers (for example "yearRetire - 1").
// Expressions are resolved to plain numbers by the formula resolver before
// the yearly pipeline runs. The zero value means "not set".
type Formula string

// IsZero reports whether the field was left unset in the plan.
func (f Formula) IsZero() bool {
	return f == ""
}

func (f Formula) String() string {
	return string(f)
}

// FormulaFromInt builds a literal Formula, mostly for tests and defaults.
func FormulaFromInt(v int) Formula {
	return Formula(strconv.Itoa(v))
}

// UnmarshalJSON accepts either a JSON number or a string expression.
func (f *Formula) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Formula(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = Formula(n.String())
		return nil
	}
	return fmt.Errorf("formula must be a number or a string expression, got %s", string(data))
}

// MarshalJSON emits a bare number for literal values and a string otherwise.
func (f Formula) MarshalJSON() ([]byte, error) {
	if f == "" {
		return []byte(`""`), nil
	}
	if _, err := strconv.ParseFloat(string(f), 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// UnmarshalYAML accepts scalar nodes only; numbers and strings both arrive
// as the node's literal text.
func (f *Formula) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("formula must be a number or a string expression")
	}
	*f = Formula(value.Value)
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (f Formula) MarshalYAML() (interface{}, error) {
	if v, err := strconv.ParseFloat(string(f), 64); err == nil {
		return v, nil
	}
	return string(f), nil
}
