package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/pkg/errors"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	pocketColumns = []string{
		"run_id", "structure", "pocket_rank", "center_x", "center_y", "center_z",
		"score", "probability", "predictions_path",
	}
	resultColumns = []string{
		"run_id", "seq", "structure", "pocket_rank", "out_path", "log_path",
		"affinity", "center_x", "center_y", "center_z",
	}
)

// ResultRepository persists runs with their pocket and docking tables.
type ResultRepository struct {
	db     DB
	logger logging.Logger
}

func NewResultRepository(db DB, logger logging.Logger) *ResultRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ResultRepository{db: db, logger: logger}
}

// ─────────────────────────────────────────────────────────────────────────────
// SaveRun
// ─────────────────────────────────────────────────────────────────────────────

// SaveRun writes run atomically.  Saving the same run ID again replaces its
// pockets and results.
func (r *ResultRepository) SaveRun(ctx context.Context, run *docking.Run) error {
	if run == nil || run.ID == "" {
		return errors.NewValidationError("run.id", "must not be empty")
	}

	err := WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO runs (id, started_at, finished_at, ligand_source, ligand_path, ligand_ph)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				finished_at = EXCLUDED.finished_at,
				ligand_source = EXCLUDED.ligand_source,
				ligand_path = EXCLUDED.ligand_path,
				ligand_ph = EXCLUDED.ligand_ph`,
			run.ID, run.StartedAt, nullTime(run.FinishedAt),
			run.Ligand.Source, run.Ligand.Path, nullPH(run.Ligand),
		)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert run")
		}

		for _, table := range []string{"pockets", "docking_results"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE run_id = $1", run.ID); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to clear "+table)
			}
		}

		if len(run.Pockets) > 0 {
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"pockets"}, pocketColumns,
				pgx.CopyFromRows(pocketRows(run.ID, run.Pockets))); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert pockets")
			}
		}
		if len(run.Results) > 0 {
			if _, err := tx.CopyFrom(ctx, pgx.Identifier{"docking_results"}, resultColumns,
				pgx.CopyFromRows(resultRows(run.ID, run.Results))); err != nil {
				return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert docking results")
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save run", logging.String("run_id", run.ID), logging.Err(err))
		return err
	}

	r.logger.Debug("run saved",
		logging.String("run_id", run.ID),
		logging.Int("pockets", len(run.Pockets)),
		logging.Int("results", len(run.Results)))
	return nil
}

func pocketRows(runID string, pockets []docking.PocketRecord) [][]any {
	rows := make([][]any, 0, len(pockets))
	for _, p := range pockets {
		rows = append(rows, []any{
			runID, p.Structure, p.Rank, p.Center.X(), p.Center.Y(), p.Center.Z(),
			p.Score, p.Probability, p.PredictionsPath,
		})
	}
	return rows
}

// resultRows keeps the caller's order in seq.
func resultRows(runID string, results []docking.DockingResult) [][]any {
	rows := make([][]any, 0, len(results))
	for i, res := range results {
		rows = append(rows, []any{
			runID, i, res.Structure, res.Rank, res.OutPath, res.LogPath,
			res.Affinity, res.Center.X(), res.Center.Y(), res.Center.Z(),
		})
	}
	return rows
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullPH(l docking.Ligand) *float64 {
	if l.Path == "" {
		return nil
	}
	return docking.Float64(l.PH)
}

// ─────────────────────────────────────────────────────────────────────────────
// ListRun
// ─────────────────────────────────────────────────────────────────────────────

// ListRun loads one run with its pockets (by structure and rank) and results
// (in saved order).
func (r *ResultRepository) ListRun(ctx context.Context, runID string) (*docking.Run, error) {
	run := &docking.Run{ID: runID}
	var finished *time.Time
	var ph *float64
	err := r.db.QueryRow(ctx, `
		SELECT started_at, finished_at, ligand_source, ligand_path, ligand_ph
		FROM runs WHERE id = $1`, runID).
		Scan(&run.StartedAt, &finished, &run.Ligand.Source, &run.Ligand.Path, &ph)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NotFound("run not found: " + runID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load run")
	}
	if finished != nil {
		run.FinishedAt = *finished
	}
	if ph != nil {
		run.Ligand.PH = *ph
	}

	if run.Pockets, err = r.listPockets(ctx, runID); err != nil {
		return nil, err
	}
	if run.Results, err = r.listResults(ctx, runID); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *ResultRepository) listPockets(ctx context.Context, runID string) ([]docking.PocketRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT structure, pocket_rank, center_x, center_y, center_z, score, probability, predictions_path
		FROM pockets WHERE run_id = $1 ORDER BY structure, pocket_rank`, runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query pockets")
	}
	defer rows.Close()

	var out []docking.PocketRecord
	for rows.Next() {
		var p docking.PocketRecord
		if err := rows.Scan(&p.Structure, &p.Rank, &p.Center[0], &p.Center[1], &p.Center[2],
			&p.Score, &p.Probability, &p.PredictionsPath); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan pocket")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate pockets")
	}
	return out, nil
}

func (r *ResultRepository) listResults(ctx context.Context, runID string) ([]docking.DockingResult, error) {
	rows, err := r.db.Query(ctx, `
		SELECT structure, pocket_rank, out_path, log_path, affinity, center_x, center_y, center_z
		FROM docking_results WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query docking results")
	}
	defer rows.Close()

	var out []docking.DockingResult
	for rows.Next() {
		var res docking.DockingResult
		if err := rows.Scan(&res.Structure, &res.Rank, &res.OutPath, &res.LogPath, &res.Affinity,
			&res.Center[0], &res.Center[1], &res.Center[2]); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan docking result")
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate docking results")
	}
	return out, nil
}

//Personal.AI order the ending
