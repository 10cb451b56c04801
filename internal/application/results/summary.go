package results

import (
	"sort"

	"github.com/turtacn/protflow/internal/domain/docking"
)

// Summary counts docking outcomes.
type Summary struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Best      *float64 `json:"best_affinity,omitempty"`
}

// Summarize computes a Summary without modifying results.
func Summarize(results []docking.DockingResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Affinity == nil {
			continue
		}
		s.Succeeded++
		if s.Best == nil || *r.Affinity < *s.Best {
			s.Best = docking.Float64(*r.Affinity)
		}
	}
	s.Failed = s.Total - s.Succeeded
	return s
}

// SortByStructureRank orders results by structure path, then pocket rank.
// Parallel batches produce completion order; callers that need a stable
// order sort with this.
func SortByStructureRank(results []docking.DockingResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Structure != results[j].Structure {
			return results[i].Structure < results[j].Structure
		}
		return results[i].Rank < results[j].Rank
	})
}

// Best returns up to n successful results sorted by ascending affinity.  A
// non-positive n returns all of them.  The input is not modified.
func Best(results []docking.DockingResult, n int) []docking.DockingResult {
	out := make([]docking.DockingResult, 0, len(results))
	for _, r := range results {
		if r.Affinity != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Affinity < *out[j].Affinity })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

//Personal.AI order the ending
