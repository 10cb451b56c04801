// Package ligand turns a SMILES string or a ligand structure file into a
// dockable PDBQT file with Open Babel.
package ligand

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/infrastructure/toolprobe"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

const (
	// DefaultPH is the protonation pH used when none is given.
	DefaultPH = 7.4
	// StepTimeout bounds every conversion step.
	StepTimeout = 60 * time.Second
	// DefaultSMILESName is the output stem for SMILES input.
	DefaultSMILESName = "ligand"
)

// Options controls a single preparation.
type Options struct {
	// Name overrides the output stem.  Defaults to the input file stem, or
	// "ligand" for SMILES.
	Name string
	// PH is the protonation pH passed to obabel -p, within (0, 14].  Zero
	// selects DefaultPH.
	PH       float64
	Validate bool
}

// Preparer runs the conversion chain.
type Preparer struct {
	runner  toolexec.Runner
	obabel  toolprobe.Availability
	logger  logging.Logger
	timeout time.Duration
}

// NewPreparer constructs a Preparer using the resolved obabel invocation.
func NewPreparer(runner toolexec.Runner, obabel toolprobe.Availability, logger logging.Logger) *Preparer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Preparer{runner: runner, obabel: obabel, logger: logger.Named("ligand"), timeout: StepTimeout}
}

// Prepare converts source into <outDir>/<name>.pdbqt.  An existing path is
// treated as a structure file, anything else as SMILES.  On failure the
// dockable output is removed; intermediates are left in outDir.
func (p *Preparer) Prepare(ctx context.Context, source, outDir string, opts Options) (docking.Ligand, error) {
	if source == "" {
		return docking.Ligand{}, apperrors.New(apperrors.ErrCodePreparationFailed, "empty ligand input")
	}
	if !p.obabel.Available {
		return docking.Ligand{}, apperrors.DependencyMissing("OpenBabel (obabel)").WithDetail(p.obabel.Reason)
	}
	if opts.PH < 0 || opts.PH > 14 {
		return docking.Ligand{}, apperrors.NewValidationError("ph", "must be within (0, 14]")
	}
	if opts.PH == 0 {
		opts.PH = DefaultPH
		p.logger.Info("no protonation pH given, using default", logging.Float64("ph", DefaultPH))
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return docking.Ligand{}, apperrors.Wrap(err, apperrors.ErrCodePreparationFailed, "failed to create ligand directory")
	}

	fromFile := false
	if info, err := os.Stat(source); err == nil && !info.IsDir() {
		fromFile = true
	}

	name := opts.Name
	if name == "" {
		if fromFile {
			name = docking.Stem(source)
		} else {
			name = DefaultSMILESName
		}
	}
	pdb := filepath.Join(outDir, name+".pdb")
	pdbqt := filepath.Join(outDir, name+".pdbqt")

	lig, err := p.convert(ctx, source, fromFile, outDir, name, pdb, pdbqt, opts)
	if err != nil {
		if rmErr := os.Remove(pdbqt); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.Warn("failed to remove partial ligand output", logging.String("path", pdbqt), logging.Err(rmErr))
		}
		p.logger.Error("ligand preparation failed", logging.String("source", source), logging.Err(err))
		return docking.Ligand{}, err
	}
	p.logger.Info("ligand prepared", logging.String("path", lig.Path))
	return lig, nil
}

func (p *Preparer) convert(ctx context.Context, source string, fromFile bool, outDir, name, pdb, pdbqt string, opts Options) (docking.Ligand, error) {
	if fromFile {
		p.logger.Info("converting ligand file", logging.String("source", source))
		if err := p.step(ctx, "convert to PDB", source, "-O", pdb); err != nil {
			return docking.Ligand{}, err
		}
	} else {
		if err := ValidateSMILES(source); err != nil {
			return docking.Ligand{}, apperrors.Wrap(
				apperrors.New(apperrors.ErrCodeLigandInvalidSMILES, err.Error()),
				apperrors.ErrCodePreparationFailed, "malformed SMILES")
		}
		p.logger.Info("converting SMILES", logging.String("smiles", source))
		sdf := filepath.Join(outDir, name+".sdf")
		if err := p.step(ctx, "generate 3D from SMILES", "-:"+source, "-O", sdf, "--gen3D"); err != nil {
			return docking.Ligand{}, err
		}
		if err := p.step(ctx, "convert SDF to PDB", sdf, "-O", pdb); err != nil {
			return docking.Ligand{}, err
		}
	}

	ph := strconv.FormatFloat(opts.PH, 'f', -1, 64)
	if err := p.step(ctx, "convert to PDBQT", pdb, "-O", pdbqt, "--partialcharge", "gasteiger", "-p", ph); err != nil {
		return docking.Ligand{}, err
	}
	if opts.Validate {
		if err := ValidateLigandFile(pdbqt); err != nil {
			return docking.Ligand{}, err
		}
	}
	return docking.Ligand{Source: source, PH: opts.PH, Path: pdbqt}, nil
}

func (p *Preparer) step(ctx context.Context, label string, args ...string) error {
	cmd := p.obabel.Command(p.timeout, args...)
	p.logger.Debug("running obabel", logging.String("step", label), logging.String("cmd", cmd.String()))
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		ae := apperrors.Wrap(err, apperrors.ErrCodePreparationFailed, "ligand step failed: "+label)
		if res.Stderr != "" {
			ae = ae.WithDetail(res.Stderr)
		}
		return ae
	}
	return nil
}

//Personal.AI order the ending
