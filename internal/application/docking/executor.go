// Package docking drives AutoDock Vina over a set of pocket records, one task
// per pocket, sequentially or on a bounded worker pool.
package docking

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/infrastructure/toolprobe"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

const (
	// StageName labels metrics and events.
	StageName = "docking"
	// TaskTimeout bounds one engine run.
	TaskTimeout = 600 * time.Second

	DefaultBoxSize        = 20.0
	DefaultExhaustiveness = 8
	DefaultNumModes       = 9
	DefaultMaxWorkers     = 4
)

// Params are the batch settings.
type Params struct {
	docking.BoxParams
	Parallel   bool
	MaxWorkers int
	// ForceReceptor regenerates cached receptor files.
	ForceReceptor bool
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		BoxParams: docking.BoxParams{
			BoxSize:        DefaultBoxSize,
			Exhaustiveness: DefaultExhaustiveness,
			NumModes:       DefaultNumModes,
		},
		MaxWorkers: DefaultMaxWorkers,
	}
}

// Validate checks the numeric ranges.
func (p Params) Validate() error {
	switch {
	case p.BoxSize <= 0:
		return apperrors.NewValidationError("box_size", "must be > 0")
	case p.Exhaustiveness <= 0:
		return apperrors.NewValidationError("exhaustiveness", "must be > 0")
	case p.NumModes < 1:
		return apperrors.NewValidationError("num_modes", "must be >= 1")
	case p.MaxWorkers < 1:
		return apperrors.NewValidationError("max_workers", "must be >= 1")
	}
	return nil
}

// Executor runs docking tasks.
type Executor struct {
	runner          toolexec.Runner
	vina            toolprobe.Availability
	obabel          toolprobe.Availability
	logger          logging.Logger
	metrics         *prometheus.PipelineMetrics
	locker          ReceptorLocker
	timeout         time.Duration
	receptorTimeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics records task outcomes into m.
func WithMetrics(m *prometheus.PipelineMetrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithReceptorLocker serialises receptor conversion through l.
func WithReceptorLocker(l ReceptorLocker) ExecutorOption {
	return func(e *Executor) { e.locker = l }
}

// WithTimeouts overrides TaskTimeout and ReceptorTimeout.  Zero keeps the
// default.
func WithTimeouts(task, receptor time.Duration) ExecutorOption {
	return func(e *Executor) {
		if task > 0 {
			e.timeout = task
		}
		if receptor > 0 {
			e.receptorTimeout = receptor
		}
	}
}

// NewExecutor constructs an Executor from the resolved vina and obabel
// invocations.
func NewExecutor(runner toolexec.Runner, vina, obabel toolprobe.Availability, logger logging.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	e := &Executor{
		runner:          runner,
		vina:            vina,
		obabel:          obabel,
		logger:          logger.Named("docking"),
		timeout:         TaskTimeout,
		receptorTimeout: ReceptorTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dock runs one task per pocket and returns exactly one result per task.
// Parallel batches return results in completion order, sequential batches in
// pocket order.  Only a missing engine, a missing ligand or invalid params
// fail the batch; task failures become null-affinity results.
func (e *Executor) Dock(ctx context.Context, ligandPath string, pockets []docking.PocketRecord, outDir string, p Params) ([]docking.DockingResult, error) {
	if !e.vina.Available {
		return nil, apperrors.DependencyMissing("AutoDock Vina").WithDetail(e.vina.Reason)
	}
	if !fileExists(ligandPath) {
		return nil, apperrors.New(apperrors.ErrCodeLigandMissing, "ligand file not found").WithDetail(ligandPath)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create docking output directory")
	}

	tasks := make([]docking.DockingTask, len(pockets))
	for i, pk := range pockets {
		tasks[i] = docking.NewTask(pk, p.BoxParams)
	}

	start := time.Now()
	e.logger.Info("running docking", logging.Int("tasks", len(tasks)), logging.Bool("parallel", p.Parallel && len(tasks) > 1))

	var results []docking.DockingResult
	if p.Parallel && len(tasks) > 1 {
		results = e.runParallel(ctx, ligandPath, tasks, outDir, p)
	} else {
		results = make([]docking.DockingResult, 0, len(tasks))
		for _, t := range tasks {
			results = append(results, e.runTask(ctx, ligandPath, t, outDir, p.ForceReceptor))
		}
	}

	e.metrics.RecordStage(StageName, time.Since(start))
	e.summarize(ligandPath, results)
	return results, ctx.Err()
}

func (e *Executor) runParallel(ctx context.Context, ligandPath string, tasks []docking.DockingTask, outDir string, p Params) []docking.DockingResult {
	e.logger.Info("running parallel docking", logging.Int("workers", p.MaxWorkers))

	var mu sync.Mutex
	results := make([]docking.DockingResult, 0, len(tasks))

	var g errgroup.Group
	g.SetLimit(p.MaxWorkers)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			r := e.runTask(ctx, ligandPath, t, outDir, p.ForceReceptor)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runTask never fails; every problem becomes a null-affinity result.
func (e *Executor) runTask(ctx context.Context, ligandPath string, t docking.DockingTask, outDir string, force bool) docking.DockingResult {
	id := docking.Stem(t.Structure) + "_p" + strconv.Itoa(t.Rank)

	receptor, err := e.ensureReceptor(ctx, t.Structure, force)
	if err != nil {
		e.fail(id, err)
		return docking.FailedResult(t)
	}

	outFile := filepath.Join(outDir, t.OutputName())
	logFile := filepath.Join(outDir, t.LogName())
	box := formatNumber(t.BoxSize)
	cmd := e.vina.Command(e.timeout,
		"--receptor", receptor,
		"--ligand", ligandPath,
		"--center_x", formatNumber(t.Center.X()),
		"--center_y", formatNumber(t.Center.Y()),
		"--center_z", formatNumber(t.Center.Z()),
		"--size_x", box,
		"--size_y", box,
		"--size_z", box,
		"--exhaustiveness", strconv.Itoa(t.Exhaustiveness),
		"--num_modes", strconv.Itoa(t.NumModes),
		"--out", outFile,
		"--log", logFile,
	)
	e.logger.Debug("running vina", logging.String("task", id), logging.String("cmd", cmd.String()))

	if _, err := e.runner.Run(ctx, cmd); err != nil {
		e.fail(id, apperrors.Wrap(err, apperrors.ErrCodeDockingTaskFailed, "vina failed for "+id))
		return docking.FailedResult(t)
	}

	r := docking.DockingResult{Structure: t.Structure, Rank: t.Rank, Center: t.Center}
	if fileExists(outFile) {
		r.OutPath = outFile
	}
	if fileExists(logFile) {
		r.LogPath = logFile
	}
	if v, ok := ParseVinaLog(logFile); ok {
		r.Affinity = docking.Float64(v)
		e.metrics.RecordItem(StageName, prometheus.StatusSucceeded)
	} else {
		e.logger.Warn("no affinity in vina log", logging.String("task", id), logging.String("log", logFile))
		e.metrics.RecordItem(StageName, prometheus.StatusFailed)
	}
	return r
}

func (e *Executor) fail(id string, err error) {
	e.logger.Warn("docking task failed", logging.String("task", id), logging.Err(err))
	e.metrics.RecordItem(StageName, prometheus.StatusFailed)
}

func (e *Executor) summarize(ligandPath string, results []docking.DockingResult) {
	best, ok := BestAffinity(results)
	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	e.logger.Info("docking complete",
		logging.Int("succeeded", succeeded),
		logging.Int("failed", len(results)-succeeded),
		logging.Int("total", len(results)))
	if ok {
		e.logger.Info("best affinity", logging.Float64("kcal_mol", best))
		e.metrics.SetBestAffinity(docking.Stem(ligandPath), best)
	}
}

// BestAffinity returns the minimum non-nil affinity.
func BestAffinity(results []docking.DockingResult) (float64, bool) {
	best, ok := 0.0, false
	for _, r := range results {
		if r.Affinity == nil {
			continue
		}
		if !ok || *r.Affinity < best {
			best, ok = *r.Affinity, true
		}
	}
	return best, ok
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

//Personal.AI order the ending
