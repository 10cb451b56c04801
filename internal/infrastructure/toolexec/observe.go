package toolexec

import (
	"context"
	"path/filepath"
)

// ObserveFunc receives every completed invocation.
type ObserveFunc func(cmd Command, res Result, err error)

type observedRunner struct {
	next Runner
	fn   ObserveFunc
}

// WithObserver returns a Runner that reports each invocation to fn after next
// has run it.
func WithObserver(next Runner, fn ObserveFunc) Runner {
	if fn == nil {
		return next
	}
	return &observedRunner{next: next, fn: fn}
}

func (r *observedRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	res, err := r.next.Run(ctx, cmd)
	r.fn(cmd, res, err)
	return res, err
}

// ToolName returns the label used for cmd in logs and metrics: the program
// base name, or the jar name for "java -jar x.jar" and the tool for
// "conda run -n env tool".
func ToolName(cmd Command) string {
	name := filepath.Base(cmd.Name)
	switch name {
	case "java":
		for i := 0; i < len(cmd.Args)-1; i++ {
			if cmd.Args[i] == "-jar" {
				return filepath.Base(cmd.Args[i+1])
			}
		}
	case "conda", "mamba", "micromamba":
		if len(cmd.Args) >= 4 && cmd.Args[0] == "run" && cmd.Args[1] == "-n" {
			return filepath.Base(cmd.Args[3])
		}
	}
	return name
}

//Personal.AI order the ending
