package report

import "github.com/unbound-force/tstpatch/internal/patch"

// Summary aggregates a batch of patch results.
type Summary struct {
	Cases      int `json:"cases"`
	Changed    int `json:"changed"`
	Unresolved int `json:"unresolved"`
	Skipped    int `json:"skipped"`
	Insertions int `json:"insertions"`
}

// Summarize counts results.
func Summarize(results []patch.Result) Summary {
	s := Summary{Cases: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case !r.Resolved:
			s.Unresolved++
		}
		if r.Changed() {
			s.Changed++
		}
		s.Insertions += len(r.Insertions)
	}
	return s
}
