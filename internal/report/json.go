// Package report provides output formatters for patch results in
// JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/tstpatch/internal/patch"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version string         `json:"version"`
	Summary Summary        `json:"summary"`
	Results []patch.Result `json:"results"`
}

// WriteJSON writes patch results as formatted JSON to the writer.
func WriteJSON(w io.Writer, results []patch.Result, version string) error {
	if results == nil {
		results = []patch.Result{}
	}
	report := JSONReport{
		Version: version,
		Summary: Summarize(results),
		Results: results,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
