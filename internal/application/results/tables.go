// Package results persists and reloads the pocket and docking tables that
// reporting consumes.  Column order is fixed.
package results

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/turtacn/protflow/internal/domain/docking"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Default table filenames.
const (
	PocketTableName  = "pockets_summary.csv"
	DockingTableName = "vina_results.csv"
)

var (
	// PocketColumns is the pocket table header.
	PocketColumns = []string{"pdb", "pocket_rank", "center", "score", "probability", "csv"}
	// DockingColumns is the docking table header.
	DockingColumns = []string{"pdb", "pocket_rank", "out", "log", "affinity", "center"}
)

// WritePockets writes records to path.
func WritePockets(path string, records []docking.PocketRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		prob := ""
		if r.Probability != nil {
			prob = docking.FormatFloat(*r.Probability)
		}
		rows = append(rows, []string{
			r.Structure,
			strconv.Itoa(r.Rank),
			r.Center.String(),
			docking.FormatFloat(r.Score),
			prob,
			r.PredictionsPath,
		})
	}
	return writeTable(path, PocketColumns, rows)
}

// ReadPockets loads a pocket table, parsing the textual center back into
// three floats.
func ReadPockets(path string) ([]docking.PocketRecord, error) {
	rows, err := readTable(path, PocketColumns)
	if err != nil {
		return nil, err
	}
	out := make([]docking.PocketRecord, 0, len(rows))
	for i, row := range rows {
		rec := docking.PocketRecord{Structure: row[0], PredictionsPath: row[5]}
		if rec.Rank, err = strconv.Atoi(row[1]); err != nil {
			return nil, rowError(path, i, "pocket_rank", err)
		}
		if rec.Center, err = docking.ParseCenter(row[2]); err != nil {
			return nil, rowError(path, i, "center", err)
		}
		if rec.Score, err = strconv.ParseFloat(row[3], 64); err != nil {
			return nil, rowError(path, i, "score", err)
		}
		if row[4] != "" {
			p, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return nil, rowError(path, i, "probability", err)
			}
			rec.Probability = docking.Float64(p)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteDocking writes results to path.  Failed tasks have an empty affinity.
func WriteDocking(path string, results []docking.DockingResult) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		aff := ""
		if r.Affinity != nil {
			aff = docking.FormatFloat(*r.Affinity)
		}
		rows = append(rows, []string{
			r.Structure,
			strconv.Itoa(r.Rank),
			r.OutPath,
			r.LogPath,
			aff,
			r.Center.String(),
		})
	}
	return writeTable(path, DockingColumns, rows)
}

// ReadDocking loads a docking table.
func ReadDocking(path string) ([]docking.DockingResult, error) {
	rows, err := readTable(path, DockingColumns)
	if err != nil {
		return nil, err
	}
	out := make([]docking.DockingResult, 0, len(rows))
	for i, row := range rows {
		r := docking.DockingResult{Structure: row[0], OutPath: row[2], LogPath: row[3]}
		if r.Rank, err = strconv.Atoi(row[1]); err != nil {
			return nil, rowError(path, i, "pocket_rank", err)
		}
		if row[4] != "" {
			v, err := strconv.ParseFloat(row[4], 64)
			if err != nil {
				return nil, rowError(path, i, "affinity", err)
			}
			r.Affinity = docking.Float64(v)
		}
		if row[5] != "" {
			if r.Center, err = docking.ParseCenter(row[5]); err != nil {
				return nil, rowError(path, i, "center", err)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func writeTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create table directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create table file")
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to write table header")
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to write table rows")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to close table file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to publish table")
	}
	return nil
}

// readTable returns the data rows of a table whose header matches columns
// exactly.
func readTable(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("result table not found").WithDetail(path)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to open result table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(columns)
	header, err := r.Read()
	if err == io.EOF {
		return nil, apperrors.New(apperrors.ErrCodeResultTableInvalid, "result table is empty").WithDetail(path)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResultTableInvalid, "failed to read result table header")
	}
	for i, c := range columns {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != c {
			return nil, apperrors.Newf(apperrors.ErrCodeResultTableInvalid, "unexpected column %q at position %d, want %q", header[i], i, c).WithDetail(path)
		}
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeResultTableInvalid, "failed to read result table rows")
	}
	return rows, nil
}

func rowError(path string, row int, column string, err error) error {
	return apperrors.Wrap(err, apperrors.ErrCodeResultTableInvalid,
		"invalid "+column+" in row "+strconv.Itoa(row+1)).WithDetail(path)
}

//Personal.AI order the ending
