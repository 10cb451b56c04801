package prediction

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Argument placeholders substituted by CommandModel.
const (
	PlaceholderID       = "{id}"
	PlaceholderSequence = "{sequence}"
	PlaceholderOutput   = "{output}"
)

// CommandModel predicts structures by running an external program once per
// sequence, e.g. `esm-fold --seq {sequence} --out {output}`.
type CommandModel struct {
	Runner  toolexec.Runner
	Command string
	Args    []string
	Timeout time.Duration
}

// Predict runs the command and checks that it produced outPath.
func (m *CommandModel) Predict(ctx context.Context, id, seq, outPath string) error {
	r := strings.NewReplacer(PlaceholderID, id, PlaceholderSequence, seq, PlaceholderOutput, outPath)
	args := make([]string, len(m.Args))
	for i, a := range m.Args {
		args[i] = r.Replace(a)
	}
	if _, err := m.Runner.Run(ctx, toolexec.Command{Name: m.Command, Args: args, Timeout: m.Timeout}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodePredictionFailed, "structure predictor failed for "+id)
	}
	if info, err := os.Stat(outPath); err != nil || info.Size() == 0 {
		return apperrors.New(apperrors.ErrCodePredictionFailed, "structure predictor produced no output").WithDetail(outPath)
	}
	return nil
}

// CommandLoader returns a Loader that resolves command on PATH.
func CommandLoader(runner toolexec.Runner, command string, args []string, timeout time.Duration) Loader {
	return func(ctx context.Context) (Model, error) {
		if command == "" {
			return nil, apperrors.New(apperrors.ErrCodeFeatureDisabled, "no structure predictor command configured")
		}
		if _, err := exec.LookPath(command); err != nil {
			return nil, apperrors.DependencyMissing(command)
		}
		return &CommandModel{Runner: runner, Command: command, Args: args, Timeout: timeout}, nil
	}
}

//Personal.AI order the ending
