package pocket

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/turtacn/protflow/internal/domain/docking"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Column names in the detector's predictions table.
const (
	colCenterX     = "center_x"
	colCenterY     = "center_y"
	colCenterZ     = "center_z"
	colScore       = "score"
	colProbability = "probability"
)

// ReadPredictions parses a predictions table and returns its first topN rows
// as pocket records for structure.  Ranks are 1-based positions in the kept
// subset.  A missing probability column leaves Probability nil.
func ReadPredictions(path, structure string, topN int) ([]docking.PocketRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "failed to open predictions table")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "failed to read predictions header")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range []string{colCenterX, colCenterY, colCenterZ, colScore} {
		if _, ok := idx[c]; !ok {
			return nil, apperrors.Newf(apperrors.ErrCodePocketTableInvalid, "predictions table lacks column %q", c).WithDetail(path)
		}
	}
	probCol, hasProb := idx[colProbability]

	if topN < 1 {
		topN = 1
	}
	var out []docking.PocketRecord
	for len(out) < topN {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "failed to read predictions row")
		}

		rec := docking.PocketRecord{Structure: structure, Rank: len(out) + 1, PredictionsPath: path}
		for i, c := range []string{colCenterX, colCenterY, colCenterZ} {
			v, err := field(row, idx[c])
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "invalid "+c)
			}
			rec.Center[i] = v
		}
		if rec.Score, err = field(row, idx[colScore]); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "invalid score")
		}
		if hasProb && probCol < len(row) && strings.TrimSpace(row[probCol]) != "" {
			p, err := field(row, probCol)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.ErrCodePocketTableInvalid, "invalid probability")
			}
			rec.Probability = docking.Float64(p)
		}
		out = append(out, rec)
	}
	return out, nil
}

func field(row []string, i int) (float64, error) {
	if i >= len(row) {
		return 0, apperrors.Newf(apperrors.ErrCodePocketTableInvalid, "row has %d fields, want > %d", len(row), i)
	}
	return strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
}

//Personal.AI order the ending
