package sequence

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Filter defaults.
const (
	DefaultMinLen = 50
	DefaultMaxLen = 1200
	DefaultLimit  = 10
)

// FilterOptions selects sequences by length.
type FilterOptions struct {
	MinLen int
	MaxLen int
	// Limit caps the selection; zero or negative keeps every match.
	Limit        int
	SortByLength bool
}

// DefaultFilterOptions returns the default length window and limit.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{MinLen: DefaultMinLen, MaxLen: DefaultMaxLen, Limit: DefaultLimit}
}

// Validate checks the window.
func (o FilterOptions) Validate() error {
	if o.MinLen < 0 {
		return apperrors.NewValidationError("min_len", "must be >= 0")
	}
	if o.MaxLen < o.MinLen {
		return apperrors.NewValidationError("max_len", "must be >= min_len")
	}
	return nil
}

// Filter keeps records with MinLen <= length <= MaxLen, optionally sorted by
// length descending, then truncated to Limit.  The input is not modified.
func Filter(records []Record, opts FilterOptions) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if n := r.Len(); n >= opts.MinLen && n <= opts.MaxLen {
			out = append(out, r)
		}
	}
	if opts.SortByLength {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Len() > out[j].Len() })
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// FilterFile reads in, filters it and, when out is non-empty, writes the
// selection there.
func FilterFile(in, out string, opts FilterOptions, logger logging.Logger) ([]Record, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	records, err := ReadFASTAFile(in)
	if err != nil {
		return nil, err
	}
	selected := Filter(records, opts)
	logger.Info("sequences filtered",
		logging.Int("total", len(records)),
		logging.Int("selected", len(selected)),
		logging.Int("min_len", opts.MinLen),
		logging.Int("max_len", opts.MaxLen),
		logging.Int("limit", opts.Limit))

	if out != "" {
		if err := writeFASTAFile(out, selected); err != nil {
			return nil, err
		}
		logger.Info("wrote selected sequences", logging.String("path", out))
	}
	return selected, nil
}

func writeFASTAFile(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create FASTA directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create FASTA file")
	}
	if err := WriteFASTA(f, records); err != nil {
		f.Close()
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to write FASTA")
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to close FASTA file")
	}
	return nil
}

//Personal.AI order the ending
