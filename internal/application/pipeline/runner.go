// Package pipeline chains the optional structure prediction, pocket
// detection, ligand preparation and docking stages into one run, writes the
// result tables and hands the run to the optional sinks.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	appdocking "github.com/turtacn/protflow/internal/application/docking"
	"github.com/turtacn/protflow/internal/application/ligand"
	"github.com/turtacn/protflow/internal/application/pocket"
	"github.com/turtacn/protflow/internal/application/prediction"
	"github.com/turtacn/protflow/internal/application/results"
	"github.com/turtacn/protflow/internal/application/sequence"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/protflow/internal/infrastructure/storage/minio"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Stage outcomes reported in StageReport.Status.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Sink names used for metrics labels.
const (
	SinkArtifacts = "artifacts"
	SinkEvents    = "events"
	SinkStore     = "store"
)

// SelectedFASTA is the file written by the predict stage with the sequences
// that passed the length filter.
const SelectedFASTA = "selected.fasta"

// ─────────────────────────────────────────────────────────────────────────────
// Collaborators
// ─────────────────────────────────────────────────────────────────────────────

// PocketDetector is satisfied by *pocket.Detector.
type PocketDetector interface {
	Detect(ctx context.Context, structureDir string, opts pocket.Options) ([]docking.PocketRecord, error)
}

// LigandPreparer is satisfied by *ligand.Preparer.
type LigandPreparer interface {
	Prepare(ctx context.Context, source, outDir string, opts ligand.Options) (docking.Ligand, error)
}

// DockingExecutor is satisfied by *appdocking.Executor.
type DockingExecutor interface {
	Dock(ctx context.Context, ligandPath string, pockets []docking.PocketRecord, outDir string, p appdocking.Params) ([]docking.DockingResult, error)
}

// ArtifactSink archives run files.  Satisfied by *minio.ArtifactPublisher.
type ArtifactSink interface {
	Publish(ctx context.Context, runID string, artifacts []minio.Artifact) ([]minio.UploadResult, error)
}

// EventSink announces finished stages.  Satisfied by *kafka.EventPublisher.
type EventSink interface {
	PublishStage(ctx context.Context, ev docking.StageEvent) error
}

// ResultStore persists a finished run.  Satisfied by
// *postgres.ResultRepository.
type ResultStore interface {
	SaveRun(ctx context.Context, run *docking.Run) error
}

type nopArtifactSink struct{}

func (nopArtifactSink) Publish(context.Context, string, []minio.Artifact) ([]minio.UploadResult, error) {
	return nil, nil
}

type nopEventSink struct{}

func (nopEventSink) PublishStage(context.Context, docking.StageEvent) error { return nil }

type nopResultStore struct{}

func (nopResultStore) SaveRun(context.Context, *docking.Run) error { return nil }

// ─────────────────────────────────────────────────────────────────────────────
// Settings and report
// ─────────────────────────────────────────────────────────────────────────────

// Stages selects what a run executes.
type Stages struct {
	Predict bool
	Pockets bool
	Dock    bool
}

// PredictSettings configures the predict stage.
type PredictSettings struct {
	FASTA   string
	Filter  sequence.FilterOptions
	Options prediction.Options
}

// Settings holds the directories and per-stage options of a run.
type Settings struct {
	StructureDir string
	WorkDir      string
	ResultsDir   string

	// LigandSource is a SMILES string or a ligand structure path.
	LigandSource string
	Ligand       ligand.Options
	Pocket       pocket.Options
	Docking      appdocking.Params
	Predict      PredictSettings
}

// PocketTablePath is where the pocket table is written and reloaded.
func (s Settings) PocketTablePath() string {
	return filepath.Join(s.ResultsDir, results.PocketTableName)
}

// DockingTablePath is where the docking table is written.
func (s Settings) DockingTablePath() string {
	return filepath.Join(s.ResultsDir, results.DockingTableName)
}

// DockingDir holds poses and engine logs.
func (s Settings) DockingDir() string { return filepath.Join(s.ResultsDir, "docking") }

// LigandDir holds the prepared ligand and its intermediates.
func (s Settings) LigandDir() string { return filepath.Join(s.WorkDir, "ligand") }

// StageReport summarises one stage.
type StageReport struct {
	Stage     string        `json:"stage"`
	Status    string        `json:"status"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Reason    string        `json:"reason,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Report is the outcome of Run.
type Report struct {
	Run          *docking.Run    `json:"run"`
	Stages       []StageReport   `json:"stages"`
	Summary      results.Summary `json:"summary"`
	PocketTable  string          `json:"pocket_table,omitempty"`
	DockingTable string          `json:"docking_table,omitempty"`
}

// Stage returns the report for name, if that stage ran.
func (r *Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Runner
// ─────────────────────────────────────────────────────────────────────────────

// Runner executes pipeline runs.  Zero-value sinks are no-ops.
type Runner struct {
	detector  PocketDetector
	preparer  LigandPreparer
	executor  DockingExecutor
	models    *prediction.ModelCache
	artifacts ArtifactSink
	events    EventSink
	store     ResultStore
	metrics   *prometheus.PipelineMetrics
	logger    logging.Logger
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithModelCache enables the predict stage.
func WithModelCache(c *prediction.ModelCache) Option {
	return func(r *Runner) { r.models = c }
}

// WithArtifactSink archives tables, poses and logs after each run.
func WithArtifactSink(s ArtifactSink) Option {
	return func(r *Runner) {
		if s != nil {
			r.artifacts = s
		}
	}
}

// WithEventSink publishes one event per finished stage.
func WithEventSink(s EventSink) Option {
	return func(r *Runner) {
		if s != nil {
			r.events = s
		}
	}
}

// WithResultStore persists each finished run.
func WithResultStore(s ResultStore) Option {
	return func(r *Runner) {
		if s != nil {
			r.store = s
		}
	}
}

// WithMetrics records stage durations and sink failures.
func WithMetrics(m *prometheus.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner constructs a Runner over the stage components.
func NewRunner(detector PocketDetector, preparer LigandPreparer, executor DockingExecutor, logger logging.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Runner{
		detector:  detector,
		preparer:  preparer,
		executor:  executor,
		artifacts: nopArtifactSink{},
		events:    nopEventSink{},
		store:     nopResultStore{},
		logger:    logger.Named("pipeline"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the selected stages.  A missing tool skips its stage and the
// stages that depend on it.  Errors are returned only for batch
// preconditions: a missing structure directory, a ligand that cannot be
// prepared, an unwritable results directory or cancellation.  The tables are
// written before the sinks are called; sink failures are logged only.
func (r *Runner) Run(ctx context.Context, st Settings, stages Stages) (*Report, error) {
	run := docking.NewRun(r.now())
	rep := &Report{Run: run}
	log := r.logger.With(logging.String("run_id", run.ID))

	if err := os.MkdirAll(st.ResultsDir, 0o755); err != nil {
		return rep, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "failed to create results directory")
	}

	log.Info("pipeline started",
		logging.Bool("predict", stages.Predict),
		logging.Bool("pockets", stages.Pockets),
		logging.Bool("dock", stages.Dock))

	if stages.Predict {
		sr, err := r.predict(ctx, st)
		r.finishStage(ctx, rep, sr, nil)
		if err != nil {
			return rep, err
		}
	}

	if stages.Pockets {
		sr, pockets, err := r.detectPockets(ctx, st)
		r.finishStage(ctx, rep, sr, nil)
		if err != nil {
			return rep, err
		}
		if sr.Status == StatusCompleted {
			run.Pockets = pockets
			if err := results.WritePockets(st.PocketTablePath(), pockets); err != nil {
				return rep, err
			}
			rep.PocketTable = st.PocketTablePath()
		}
	}

	if stages.Dock {
		if run.Pockets == nil {
			run.Pockets = r.reloadPockets(st, log)
		}
		sr, err := r.dock(ctx, st, run)
		var best *float64
		if sr.Status == StatusCompleted {
			rep.Summary = results.Summarize(run.Results)
			best = rep.Summary.Best
			if werr := results.WriteDocking(st.DockingTablePath(), run.Results); werr != nil {
				if err == nil {
					err = werr
				}
			} else {
				rep.DockingTable = st.DockingTablePath()
			}
		}
		r.finishStage(ctx, rep, sr, best)
		if err != nil {
			return rep, err
		}
	}

	run.FinishedAt = r.now().UTC()
	r.deliver(ctx, rep, log)

	log.Info("pipeline finished", logging.Int("stages", len(rep.Stages)), logging.Int("results", len(run.Results)))
	return rep, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Stages
// ─────────────────────────────────────────────────────────────────────────────

func (r *Runner) predict(ctx context.Context, st Settings) (StageReport, error) {
	sr := StageReport{Stage: docking.StagePredict}
	start := time.Now()

	if r.models == nil {
		return r.skipStage(sr, start, "no structure predictor configured"), nil
	}
	if err := st.Predict.Filter.Validate(); err != nil {
		return r.failStage(sr, start, err), err
	}

	selected := filepath.Join(st.WorkDir, SelectedFASTA)
	records, err := sequence.FilterFile(st.Predict.FASTA, selected, st.Predict.Filter, r.logger)
	if err != nil {
		return r.failStage(sr, start, err), err
	}

	model, err := r.models.GetOrLoad(ctx)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing) || apperrors.IsCode(err, apperrors.ErrCodeFeatureDisabled) {
			return r.skipStage(sr, start, err.Error()), nil
		}
		return r.failStage(sr, start, err), err
	}

	pr, err := prediction.PredictAll(ctx, model, records, st.StructureDir, st.Predict.Options, r.logger)
	sr.Succeeded, sr.Skipped, sr.Failed = pr.Succeeded, pr.Skipped, pr.Failed
	if err != nil {
		return r.failStage(sr, start, err), err
	}
	sr.Status = StatusCompleted
	sr.Duration = time.Since(start)
	return sr, nil
}

func (r *Runner) detectPockets(ctx context.Context, st Settings) (StageReport, []docking.PocketRecord, error) {
	sr := StageReport{Stage: docking.StagePockets}
	start := time.Now()

	pockets, err := r.detector.Detect(ctx, st.StructureDir, st.Pocket)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing) {
			return r.skipStage(sr, start, err.Error()), nil, nil
		}
		return r.failStage(sr, start, err), nil, err
	}

	structures := map[string]struct{}{}
	for _, p := range pockets {
		structures[p.Structure] = struct{}{}
	}
	sr.Status = StatusCompleted
	sr.Succeeded = len(structures)
	sr.Duration = time.Since(start)
	if pockets == nil {
		pockets = []docking.PocketRecord{}
	}
	return sr, pockets, nil
}

// reloadPockets reads the pocket table left by an earlier run.  A missing or
// unreadable table yields no pockets.
func (r *Runner) reloadPockets(st Settings, log logging.Logger) []docking.PocketRecord {
	path := st.PocketTablePath()
	pockets, err := results.ReadPockets(path)
	if err != nil {
		log.Warn("pocket table unavailable", logging.String("path", path), logging.Err(err))
		return nil
	}
	log.Info("reloaded pocket table", logging.String("path", path), logging.Int("pockets", len(pockets)))
	return pockets
}

func (r *Runner) dock(ctx context.Context, st Settings, run *docking.Run) (StageReport, error) {
	sr := StageReport{Stage: docking.StageDocking}
	start := time.Now()

	if len(run.Pockets) == 0 {
		return r.skipStage(sr, start, "no pockets to dock"), nil
	}
	if st.LigandSource == "" {
		return r.skipStage(sr, start, "no ligand given"), nil
	}

	lig, err := r.preparer.Prepare(ctx, st.LigandSource, st.LigandDir(), st.Ligand)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing) {
			return r.skipStage(sr, start, err.Error()), nil
		}
		return r.failStage(sr, start, err), err
	}
	run.Ligand = lig

	res, err := r.executor.Dock(ctx, lig.Path, run.Pockets, st.DockingDir(), st.Docking)
	if err != nil && res == nil {
		if apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing) {
			return r.skipStage(sr, start, err.Error()), nil
		}
		return r.failStage(sr, start, err), err
	}
	run.Results = res

	s := results.Summarize(res)
	sr.Status = StatusCompleted
	sr.Succeeded, sr.Failed = s.Succeeded, s.Failed
	sr.Duration = time.Since(start)
	return sr, err
}

func (r *Runner) skipStage(sr StageReport, start time.Time, reason string) StageReport {
	sr.Status = StatusSkipped
	sr.Reason = reason
	sr.Duration = time.Since(start)
	r.logger.Warn("stage skipped", logging.String("stage", sr.Stage), logging.String("reason", reason))
	return sr
}

func (r *Runner) failStage(sr StageReport, start time.Time, err error) StageReport {
	sr.Status = StatusFailed
	sr.Reason = err.Error()
	sr.Duration = time.Since(start)
	r.logger.Error("stage failed", logging.String("stage", sr.Stage), logging.Err(err))
	return sr
}

// finishStage records the stage and, for completed stages, publishes its
// event.
func (r *Runner) finishStage(ctx context.Context, rep *Report, sr StageReport, best *float64) {
	rep.Stages = append(rep.Stages, sr)
	r.metrics.RecordStage("pipeline_"+sr.Stage, sr.Duration)
	r.logger.Info("stage summary",
		logging.String("stage", sr.Stage),
		logging.String("status", sr.Status),
		logging.Int("succeeded", sr.Succeeded),
		logging.Int("skipped", sr.Skipped),
		logging.Int("failed", sr.Failed),
		logging.Duration("duration", sr.Duration))

	if sr.Status != StatusCompleted {
		return
	}
	ev := docking.NewStageEvent(rep.Run.ID, sr.Stage, sr.Succeeded, sr.Failed+sr.Skipped, best, r.now())
	if err := r.events.PublishStage(ctx, ev); err != nil {
		r.sinkFailed(SinkEvents, err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sinks
// ─────────────────────────────────────────────────────────────────────────────

func (r *Runner) deliver(ctx context.Context, rep *Report, log logging.Logger) {
	if err := r.store.SaveRun(ctx, rep.Run); err != nil {
		r.sinkFailed(SinkStore, err)
	}

	artifacts := collectArtifacts(rep)
	if len(artifacts) == 0 {
		return
	}
	uploaded, err := r.artifacts.Publish(ctx, rep.Run.ID, artifacts)
	if err != nil {
		r.sinkFailed(SinkArtifacts, err)
		return
	}
	if len(uploaded) > 0 {
		log.Debug("artifacts delivered", logging.Int("objects", len(uploaded)))
	}
}

func (r *Runner) sinkFailed(sink string, err error) {
	r.metrics.RecordSinkError(sink)
	r.logger.Warn("sink delivery failed", logging.String("sink", sink), logging.Err(err))
}

// collectArtifacts lists the tables plus every pose and engine log.
func collectArtifacts(rep *Report) []minio.Artifact {
	var out []minio.Artifact
	if rep.PocketTable != "" {
		out = append(out, minio.Artifact{Path: rep.PocketTable, Group: "tables"})
	}
	if rep.DockingTable != "" {
		out = append(out, minio.Artifact{Path: rep.DockingTable, Group: "tables"})
	}
	for _, res := range rep.Run.Results {
		if res.OutPath != "" {
			out = append(out, minio.Artifact{Path: res.OutPath, Group: "poses"})
		}
		if res.LogPath != "" {
			out = append(out, minio.Artifact{Path: res.LogPath, Group: "logs"})
		}
	}
	return out
}

//Personal.AI order the ending
