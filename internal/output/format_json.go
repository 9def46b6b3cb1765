package output

import (
	"encoding/json"

	"github.com/hpgo/household-planner/internal/domain"
)

// JSONFormatter formats a projection as JSON.
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

// Format generates JSON output for the full projection, per-account tables
// included.
func (jf *JSONFormatter) Format(result *domain.ProjectionResult) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
