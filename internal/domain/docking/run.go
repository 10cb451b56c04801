package docking

import (
	"time"

	"github.com/google/uuid"
)

// Stage names shared by logs, metrics and events.
const (
	StagePredict = "predict"
	StagePockets = "pockets"
	StageLigand  = "ligand"
	StageDocking = "docking"
)

// Run groups everything one pipeline invocation produced.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Ligand     Ligand
	Pockets    []PocketRecord
	Results    []DockingResult
}

// NewRun stamps a fresh run identifier.
func NewRun(now time.Time) *Run {
	return &Run{ID: uuid.NewString(), StartedAt: now.UTC()}
}

// StageEvent is emitted once a stage finishes.
type StageEvent struct {
	EventID      string    `json:"event_id"`
	RunID        string    `json:"run_id"`
	Stage        string    `json:"stage"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Total        int       `json:"total"`
	BestAffinity *float64  `json:"best_affinity,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewStageEvent builds an event for stage with a new event id.
func NewStageEvent(runID, stage string, succeeded, failed int, best *float64, now time.Time) StageEvent {
	return StageEvent{
		EventID:      uuid.NewString(),
		RunID:        runID,
		Stage:        stage,
		Succeeded:    succeeded,
		Failed:       failed,
		Total:        succeeded + failed,
		BestAffinity: best,
		OccurredAt:   now.UTC(),
	}
}

//Personal.AI order the ending
