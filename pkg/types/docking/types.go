// Package docking holds the JSON shapes served by the status API and printed
// by the CLI.  They mirror the domain records with stable field names.
package docking

import (
	"time"

	domain "github.com/turtacn/protflow/internal/domain/docking"
)

// PocketDTO is one row of the pocket table.
type PocketDTO struct {
	Structure   string     `json:"structure"`
	StructureID string     `json:"structure_id"`
	Rank        int        `json:"pocket_rank"`
	Center      [3]float64 `json:"center"`
	Score       float64    `json:"score"`
	Probability *float64   `json:"probability,omitempty"`
	Predictions string     `json:"predictions,omitempty"`
}

// ResultDTO is one row of the docking table.  Affinity is null for failed
// tasks.
type ResultDTO struct {
	Structure   string     `json:"structure"`
	StructureID string     `json:"structure_id"`
	Rank        int        `json:"pocket_rank"`
	Affinity    *float64   `json:"affinity"`
	OutPath     string     `json:"out,omitempty"`
	LogPath     string     `json:"log,omitempty"`
	Center      [3]float64 `json:"center"`
}

// SummaryDTO counts docking outcomes.
type SummaryDTO struct {
	Total        int      `json:"total"`
	Succeeded    int      `json:"succeeded"`
	Failed       int      `json:"failed"`
	BestAffinity *float64 `json:"best_affinity,omitempty"`
}

// LigandDTO describes the prepared ligand of a run.
type LigandDTO struct {
	Source string  `json:"source"`
	PH     float64 `json:"ph"`
	Path   string  `json:"path"`
}

// RunDTO is a stored pipeline run.
type RunDTO struct {
	ID         string      `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Ligand     LigandDTO   `json:"ligand"`
	Pockets    []PocketDTO `json:"pockets"`
	Results    []ResultDTO `json:"results"`
}

// PocketListResponse is returned by GET /api/v1/pockets.
type PocketListResponse struct {
	Count   int         `json:"count"`
	Pockets []PocketDTO `json:"pockets"`
}

// ResultListResponse is returned by GET /api/v1/results and
// GET /api/v1/results/best.
type ResultListResponse struct {
	Summary SummaryDTO  `json:"summary"`
	Results []ResultDTO `json:"results"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FromPocket converts a domain pocket record.
func FromPocket(p domain.PocketRecord) PocketDTO {
	return PocketDTO{
		Structure:   p.Structure,
		StructureID: p.StructureID(),
		Rank:        p.Rank,
		Center:      p.Center,
		Score:       p.Score,
		Probability: p.Probability,
		Predictions: p.PredictionsPath,
	}
}

// FromPockets converts a slice, never returning nil.
func FromPockets(ps []domain.PocketRecord) []PocketDTO {
	out := make([]PocketDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, FromPocket(p))
	}
	return out
}

// FromResult converts a domain docking result.
func FromResult(r domain.DockingResult) ResultDTO {
	return ResultDTO{
		Structure:   r.Structure,
		StructureID: domain.Stem(r.Structure),
		Rank:        r.Rank,
		Affinity:    r.Affinity,
		OutPath:     r.OutPath,
		LogPath:     r.LogPath,
		Center:      r.Center,
	}
}

// FromResults converts a slice, never returning nil.
func FromResults(rs []domain.DockingResult) []ResultDTO {
	out := make([]ResultDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, FromResult(r))
	}
	return out
}

// FromRun converts a stored run.
func FromRun(run *domain.Run) RunDTO {
	dto := RunDTO{
		ID:        run.ID,
		StartedAt: run.StartedAt,
		Ligand:    LigandDTO{Source: run.Ligand.Source, PH: run.Ligand.PH, Path: run.Ligand.Path},
		Pockets:   FromPockets(run.Pockets),
		Results:   FromResults(run.Results),
	}
	if !run.FinishedAt.IsZero() {
		t := run.FinishedAt
		dto.FinishedAt = &t
	}
	return dto
}

//Personal.AI order the ending
