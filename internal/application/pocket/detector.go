// Package pocket runs the pocket detector over a directory of predicted
// structures and normalises its output into ranked pocket records.
package pocket

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/infrastructure/toolprobe"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

const (
	// StageName labels metrics and events.
	StageName = "pockets"
	// DetectTimeout bounds one detector run.
	DetectTimeout = 300 * time.Second
	// DefaultGlob selects structure files inside the input directory.
	DefaultGlob = "*.pdb"
	// OutputSuffix is appended to the structure stem for the detector's
	// output directory.
	OutputSuffix = "_p2"
)

// Options controls a detection batch.
type Options struct {
	Threads        int
	Visualizations int
	TopN           int
	Glob           string
}

// Detector runs P2Rank per structure.
type Detector struct {
	runner  toolexec.Runner
	p2rank  toolprobe.Availability
	logger  logging.Logger
	metrics *prometheus.PipelineMetrics
	timeout time.Duration
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithMetrics records per-structure outcomes into m.
func WithMetrics(m *prometheus.PipelineMetrics) DetectorOption {
	return func(d *Detector) { d.metrics = m }
}

// WithTimeout overrides DetectTimeout.
func WithTimeout(t time.Duration) DetectorOption {
	return func(d *Detector) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// NewDetector constructs a Detector for the resolved p2rank invocation.
func NewDetector(runner toolexec.Runner, p2rank toolprobe.Availability, logger logging.Logger, opts ...DetectorOption) *Detector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Detector{runner: runner, p2rank: p2rank, logger: logger.Named("pocket"), timeout: DetectTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ListStructures returns the files in dir matching pattern, in lexicographic
// path order.
func ListStructures(dir, pattern string) ([]docking.StructureFile, error) {
	if pattern == "" {
		pattern = DefaultGlob
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, apperrors.NotFound("structure directory does not exist").WithDetail(dir)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid structure pattern "+strconv.Quote(pattern))
	}
	sort.Strings(matches)
	out := make([]docking.StructureFile, 0, len(matches))
	for _, m := range matches {
		out = append(out, docking.NewStructureFile(filepath.Join(dir, filepath.FromSlash(m))))
	}
	return out, nil
}

// Detect runs the detector on every structure in structureDir.  Per-structure
// failures are logged and skipped; only a missing tool or a missing directory
// is returned as an error.
func (d *Detector) Detect(ctx context.Context, structureDir string, opts Options) ([]docking.PocketRecord, error) {
	if !d.p2rank.Available {
		return nil, apperrors.DependencyMissing("P2Rank").WithDetail(d.p2rank.Reason)
	}
	structures, err := ListStructures(structureDir, opts.Glob)
	if err != nil {
		return nil, err
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.TopN < 1 {
		opts.TopN = 1
	}
	if len(structures) == 0 {
		d.logger.Warn("no structure files found", logging.String("dir", structureDir), logging.String("pattern", opts.Glob))
		return nil, nil
	}

	start := time.Now()
	d.logger.Info("running pocket detection", logging.Int("structures", len(structures)))

	var records []docking.PocketRecord
	skipped := 0
	for _, s := range structures {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		recs, ok := d.detectOne(ctx, s, opts)
		if !ok {
			skipped++
			d.metrics.RecordItem(StageName, prometheus.StatusSkipped)
			continue
		}
		d.metrics.RecordItem(StageName, prometheus.StatusSucceeded)
		records = append(records, recs...)
	}

	d.metrics.RecordStage(StageName, time.Since(start))
	d.logger.Info("pocket detection complete",
		logging.Int("structures", len(structures)),
		logging.Int("succeeded", len(structures)-skipped),
		logging.Int("skipped", skipped),
		logging.Int("pockets", len(records)))
	return records, nil
}

func (d *Detector) detectOne(ctx context.Context, s docking.StructureFile, opts Options) ([]docking.PocketRecord, bool) {
	outDir := filepath.Join(filepath.Dir(s.Path), s.ID+OutputSuffix)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		d.skip(s, "cannot create output directory", err)
		return nil, false
	}

	cmd := d.p2rank.Command(d.timeout,
		"predict",
		"-f", s.Path,
		"-o", outDir,
		"-threads", strconv.Itoa(opts.Threads),
		"-visualizations", strconv.Itoa(opts.Visualizations),
	)
	d.logger.Debug("running p2rank", logging.String("structure", s.ID), logging.String("cmd", cmd.String()))
	if _, err := d.runner.Run(ctx, cmd); err != nil {
		d.skip(s, "detector failed", err)
		return nil, false
	}

	table, err := findPredictions(outDir)
	if err != nil {
		d.skip(s, "no predictions table found", err)
		return nil, false
	}
	recs, err := ReadPredictions(table, s.Path, opts.TopN)
	if err != nil {
		d.skip(s, "unreadable predictions table", err)
		return nil, false
	}
	if len(recs) == 0 {
		d.skip(s, "empty predictions", nil)
		return nil, false
	}
	d.logger.Debug("extracted pockets", logging.String("structure", s.ID), logging.Int("pockets", len(recs)))
	return recs, true
}

func (d *Detector) skip(s docking.StructureFile, reason string, err error) {
	fields := []logging.Field{logging.String("structure", s.ID), logging.String("reason", reason)}
	if err != nil {
		fields = append(fields, logging.Err(err))
	}
	d.logger.Warn("pocket detection skipped", fields...)
}

func findPredictions(dir string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "*_predictions.csv", doublestar.WithFilesOnly())
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", os.ErrNotExist
	}
	sort.Strings(matches)
	return filepath.Join(dir, matches[0]), nil
}

//Personal.AI order the ending
