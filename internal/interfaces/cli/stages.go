package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/turtacn/protflow/internal/application/ligand"
	"github.com/turtacn/protflow/internal/application/pipeline"
	"github.com/turtacn/protflow/internal/application/results"
	domain "github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/config"
	"github.com/turtacn/protflow/pkg/errors"
	dto "github.com/turtacn/protflow/pkg/types/docking"
)

// DefaultBestN is how many top results the stage commands print.
const DefaultBestN = 10

// ─────────────────────────────────────────────────────────────────────────────
// Output views
// ─────────────────────────────────────────────────────────────────────────────

// RunView is the printable outcome of pockets, dock and run.
type RunView struct {
	RunID        string                 `json:"run_id"`
	Stages       []pipeline.StageReport `json:"stages"`
	Summary      dto.SummaryDTO         `json:"summary"`
	Best         []dto.ResultDTO        `json:"best"`
	PocketTable  string                 `json:"pocket_table,omitempty"`
	DockingTable string                 `json:"docking_table,omitempty"`
}

func newRunView(r *pipeline.Report, bestN int) RunView {
	v := RunView{
		Stages:       r.Stages,
		PocketTable:  r.PocketTable,
		DockingTable: r.DockingTable,
		Summary: dto.SummaryDTO{
			Total:        r.Summary.Total,
			Succeeded:    r.Summary.Succeeded,
			Failed:       r.Summary.Failed,
			BestAffinity: r.Summary.Best,
		},
		Best: []dto.ResultDTO{},
	}
	if r.Run != nil {
		v.RunID = r.Run.ID
		v.Best = dto.FromResults(results.Best(r.Run.Results, bestN))
	}
	return v
}

func (v RunView) TableHeaders() []string {
	return []string{"STAGE", "STATUS", "OK", "SKIPPED", "FAILED", "DURATION", "REASON"}
}

func (v RunView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Stages))
	for _, s := range v.Stages {
		rows = append(rows, []string{
			s.Stage, s.Status,
			fmt.Sprintf("%d", s.Succeeded), fmt.Sprintf("%d", s.Skipped), fmt.Sprintf("%d", s.Failed),
			s.Duration.Truncate(time.Millisecond).String(), s.Reason,
		})
	}
	return rows
}

func (v RunView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s\n\n", v.RunID)
	sb.WriteString(FormatTable(v.TableHeaders(), v.TableRows()))

	if v.PocketTable != "" {
		fmt.Fprintf(&sb, "\npocket table:  %s\n", v.PocketTable)
	}
	if v.DockingTable != "" {
		fmt.Fprintf(&sb, "docking table: %s\n", v.DockingTable)
		fmt.Fprintf(&sb, "docked %d, succeeded %d, failed %d\n", v.Summary.Total, v.Summary.Succeeded, v.Summary.Failed)
	}
	if len(v.Best) > 0 {
		fmt.Fprintf(&sb, "\ntop %d by affinity\n", len(v.Best))
		sb.WriteString(FormatTable(bestHeaders, bestRows(v.Best)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

var bestHeaders = []string{"STRUCTURE", "POCKET", "AFFINITY", "CENTER", "POSE"}

func bestRows(best []dto.ResultDTO) [][]string {
	rows := make([][]string, 0, len(best))
	for _, r := range best {
		aff := ""
		if r.Affinity != nil {
			aff = domain.FormatFloat(*r.Affinity)
		}
		rows = append(rows, []string{
			r.StructureID, fmt.Sprintf("%d", r.Rank), aff, domain.Center(r.Center).String(), r.OutPath,
		})
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// Flag overrides
// ─────────────────────────────────────────────────────────────────────────────

// overrides binds per-command flags onto the loaded configuration.  Only flags
// the user set replace configured values.
type overrides struct {
	structures, work, results string
	topN, threads             int
	glob                      string

	ph         float64
	name       string
	noValidate bool

	boxSize        float64
	exhaustiveness int
	numModes       int
	parallel       bool
	workers        int
	forceReceptor  bool

	best int
}

func (o *overrides) bindPaths(fs *pflag.FlagSet) {
	fs.StringVar(&o.structures, "structures", "", "structure directory (default from paths.structure_dir)")
	fs.StringVar(&o.work, "work", "", "work directory (default from paths.work_dir)")
	fs.StringVar(&o.results, "results", "", "results directory (default from paths.results_dir)")
}

func (o *overrides) bindPocket(fs *pflag.FlagSet) {
	fs.IntVar(&o.topN, "top-n", config.DefaultPocketTopN, "pockets kept per structure")
	fs.IntVar(&o.threads, "threads", config.DefaultPocketThreads, "P2Rank threads")
	fs.StringVar(&o.glob, "glob", config.DefaultStructureGlob, "structure file pattern")
}

func (o *overrides) bindLigand(fs *pflag.FlagSet) {
	fs.Float64Var(&o.ph, "ph", config.DefaultLigandPH, "protonation pH")
	fs.StringVar(&o.name, "name", "", "output stem of the prepared ligand")
	fs.BoolVar(&o.noValidate, "no-validate", false, "skip structural validation of the prepared ligand")
}

func (o *overrides) bindDocking(fs *pflag.FlagSet) {
	fs.Float64Var(&o.boxSize, "box-size", config.DefaultBoxSize, "search box edge in angstroms")
	fs.IntVar(&o.exhaustiveness, "exhaustiveness", config.DefaultExhaustiveness, "Vina exhaustiveness")
	fs.IntVar(&o.numModes, "num-modes", config.DefaultNumModes, "binding modes per task")
	fs.BoolVar(&o.parallel, "parallel", false, "dock pockets concurrently")
	fs.IntVar(&o.workers, "workers", config.DefaultMaxWorkers, "concurrent docking tasks when --parallel")
	fs.BoolVar(&o.forceReceptor, "force-receptor", false, "regenerate cached receptor files")
	fs.IntVar(&o.best, "best", DefaultBestN, "top results to print")
}

// apply copies the flags that were set onto cfg and revalidates it.
func (o *overrides) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	set := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}

	if set("structures") {
		cfg.Paths.StructureDir = o.structures
	}
	if set("work") {
		cfg.Paths.WorkDir = o.work
	}
	if set("results") {
		cfg.Paths.ResultsDir = o.results
	}
	if set("top-n") {
		cfg.Pocket.TopN = o.topN
	}
	if set("threads") {
		cfg.Pocket.Threads = o.threads
	}
	if set("glob") {
		cfg.Pocket.StructureGlob = o.glob
	}
	if set("ph") {
		cfg.Ligand.PH = o.ph
	}
	if set("name") {
		cfg.Ligand.Name = o.name
	}
	if set("no-validate") {
		cfg.Ligand.SkipValidation = o.noValidate
	}
	if set("box-size") {
		cfg.Docking.BoxSize = o.boxSize
	}
	if set("exhaustiveness") {
		cfg.Docking.Exhaustiveness = o.exhaustiveness
	}
	if set("num-modes") {
		cfg.Docking.NumModes = o.numModes
	}
	if set("parallel") {
		cfg.Docking.Parallel = o.parallel
	}
	if set("workers") {
		cfg.Docking.MaxWorkers = o.workers
	}
	if set("force-receptor") {
		cfg.Docking.ForceReceptor = o.forceReceptor
	}
	if !set("best") {
		o.best = DefaultBestN
	}
	return cfg.Validate()
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

// runAndPrint executes stages and prints the run view.  The view is printed
// even when a stage failed so the partial report is not lost.
func runAndPrint(cmd *cobra.Command, o *overrides, ligandSource string, stages pipeline.Stages) error {
	cc, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	if err := o.apply(cmd.Flags(), cc.Config); err != nil {
		return err
	}

	report, runErr := cc.runStages(cmd.Context(), ligandSource, stages)
	if report != nil {
		if err := PrintResult(cmd, newRunView(report, o.best)); err != nil {
			return err
		}
	}
	return runErr
}

func newPocketsCmd() *cobra.Command {
	o := &overrides{}
	cmd := &cobra.Command{
		Use:   "pockets",
		Short: "Detect binding pockets in every structure and write pockets_summary.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAndPrint(cmd, o, "", pipeline.Stages{Pockets: true})
		},
	}
	o.bindPaths(cmd.Flags())
	o.bindPocket(cmd.Flags())
	return cmd
}

func newDockCmd() *cobra.Command {
	o := &overrides{}
	var ligandSource string
	cmd := &cobra.Command{
		Use:   "dock",
		Short: "Dock a ligand into the pockets of pockets_summary.csv and write vina_results.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAndPrint(cmd, o, ligandSource, pipeline.Stages{Dock: true})
		},
	}
	cmd.Flags().StringVarP(&ligandSource, "ligand", "l", "", "ligand SMILES or structure file (required)")
	_ = cmd.MarkFlagRequired("ligand")
	o.bindPaths(cmd.Flags())
	o.bindLigand(cmd.Flags())
	o.bindDocking(cmd.Flags())
	return cmd
}

func newRunCmd() *cobra.Command {
	o := &overrides{}
	var (
		ligandSource string
		skipPockets  bool
		predict      bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run prediction (optional), pocket detection and docking end to end",
		Long: "run executes the enabled stages in order.  Stages whose tools are missing\n" +
			"are skipped; docking reuses pockets_summary.csv when --skip-pockets is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("predict") {
				cc.Config.Prediction.Enabled = predict
			}
			stages := pipeline.Stages{
				Predict: cc.Config.Prediction.Enabled,
				Pockets: !skipPockets,
				Dock:    ligandSource != "",
			}
			if !stages.Predict && !stages.Pockets && !stages.Dock {
				return errors.NewValidationError("run", "nothing to do: give --ligand or drop --skip-pockets")
			}
			return runAndPrint(cmd, o, ligandSource, stages)
		},
	}
	cmd.Flags().StringVarP(&ligandSource, "ligand", "l", "", "ligand SMILES or structure file; docking is skipped without it")
	cmd.Flags().BoolVar(&skipPockets, "skip-pockets", false, "reuse the existing pocket table")
	cmd.Flags().BoolVar(&predict, "predict", false, "run structure prediction first (overrides prediction.enabled)")
	o.bindPaths(cmd.Flags())
	o.bindPocket(cmd.Flags())
	o.bindLigand(cmd.Flags())
	o.bindDocking(cmd.Flags())
	return cmd
}

func newLigandCmd() *cobra.Command {
	o := &overrides{}
	var outDir string
	cmd := &cobra.Command{
		Use:   "ligand <smiles|file>",
		Short: "Convert a ligand into a dockable PDBQT file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := o.apply(cmd.Flags(), cc.Config); err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(cc.Config.Paths.WorkDir, "ligand")
			}

			tc := cc.probeTools(cmd.Context())
			preparer := ligand.NewPreparer(cc.Runner, tc.Obabel, cc.Logger)
			lig, err := preparer.Prepare(cmd.Context(), args[0], outDir, ligandOptions(cc.Config))
			if err != nil {
				return err
			}
			return PrintResult(cmd, ligandView{dto.LigandDTO{Source: lig.Source, PH: lig.PH, Path: lig.Path}})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default <work>/ligand)")
	o.bindPaths(cmd.Flags())
	o.bindLigand(cmd.Flags())
	return cmd
}

type ligandView struct {
	dto.LigandDTO
}

func (v ligandView) String() string {
	return fmt.Sprintf("prepared %s at pH %s -> %s", v.Source, domain.FormatFloat(v.PH), v.Path)
}

//Personal.AI order the ending
