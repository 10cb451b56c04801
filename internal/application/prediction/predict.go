package prediction

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/protflow/internal/application/sequence"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// maxNameLen caps sanitised identifiers in bytes.
const maxNameLen = 80

// SanitizeID makes a sequence identifier safe as a filename stem.
func SanitizeID(id string) string {
	name := strings.NewReplacer("|", "_", "/", "_", `\`, "_").Replace(id)
	if len(name) <= maxNameLen {
		return name
	}
	cut := maxNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// Options controls PredictAll.
type Options struct {
	SkipExisting bool
}

// Report counts PredictAll outcomes.
type Report struct {
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Outputs   []string `json:"outputs"`
}

// PredictAll writes <outDir>/<SanitizeID(id)>.pdb for each record.  Existing
// outputs are skipped when requested; per-record failures are logged and
// counted.  Only an unusable outDir or cancellation returns an error.
func PredictAll(ctx context.Context, model Model, records []sequence.Record, outDir string, opts Options, logger logging.Logger) (Report, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	var rep Report
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return rep, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create structure directory")
	}
	logger.Info("predicting structures", logging.Int("sequences", len(records)))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		name := SanitizeID(rec.ID)
		out := filepath.Join(outDir, name+".pdb")
		if opts.SkipExisting {
			if _, err := os.Stat(out); err == nil {
				logger.Debug("structure exists, skipping", logging.String("id", name))
				rep.Skipped++
				rep.Outputs = append(rep.Outputs, out)
				continue
			}
		}
		if err := model.Predict(ctx, name, rec.Seq, out); err != nil {
			logger.Error("structure prediction failed", logging.String("id", rec.ID), logging.Err(err))
			rep.Failed++
			continue
		}
		rep.Succeeded++
		rep.Outputs = append(rep.Outputs, out)
	}

	logger.Info("prediction complete",
		logging.Int("succeeded", rep.Succeeded),
		logging.Int("skipped", rep.Skipped),
		logging.Int("failed", rep.Failed))
	return rep, nil
}

//Personal.AI order the ending
