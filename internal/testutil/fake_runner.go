package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
)

// RunFunc handles one fake tool invocation.
type RunFunc func(cmd toolexec.Command) (toolexec.Result, error)

// FakeRunner implements toolexec.Runner without starting processes.  Every
// call is recorded; Handler decides the outcome (success when nil).
type FakeRunner struct {
	mu      sync.Mutex
	calls   []toolexec.Command
	Handler RunFunc
}

// NewFakeRunner returns a FakeRunner using handler.
func NewFakeRunner(handler RunFunc) *FakeRunner {
	return &FakeRunner{Handler: handler}
}

// Run records cmd and delegates to Handler.
func (f *FakeRunner) Run(ctx context.Context, cmd toolexec.Command) (toolexec.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	h := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return toolexec.Result{ExitCode: -1}, err
	}
	if h == nil {
		return toolexec.Result{}, nil
	}
	return h(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []toolexec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]toolexec.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded commands whose program name is name.
func (f *FakeRunner) CallsTo(name string) []toolexec.Command {
	var out []toolexec.Command
	for _, c := range f.Calls() {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ArgAfter returns the argument following flag in args, or "".
func ArgAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// WriteFile writes content to path, creating parent directories.  Fake
// handlers use it to emulate tool outputs.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

//Personal.AI order the ending
