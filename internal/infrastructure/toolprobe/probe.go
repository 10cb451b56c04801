package toolprobe

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
)

// MaxProbeTimeout bounds the subprocess used to disambiguate candidates.
const MaxProbeTimeout = 5 * time.Second

// Availability is the outcome of probing a tool.
type Availability struct {
	Tool      string
	Available bool
	Strategy  Strategy
	Reason    string
}

// Argv builds the invocation for args with the resolved strategy.  It returns
// nil when the tool is unavailable.
func (a Availability) Argv(args ...string) []string {
	if !a.Available || a.Strategy == nil {
		return nil
	}
	return a.Strategy.Argv(args...)
}

// Command builds a toolexec.Command for args with the resolved strategy.
func (a Availability) Command(timeout time.Duration, args ...string) toolexec.Command {
	argv := a.Argv(args...)
	if len(argv) == 0 {
		return toolexec.Command{Name: a.Tool, Args: args, Timeout: timeout}
	}
	return toolexec.Command{Name: argv[0], Args: argv[1:], Timeout: timeout}
}

// ToolSpec lists the candidate strategies for a logical tool, in preference
// order, and the arguments used for the disambiguation probe.
type ToolSpec struct {
	Name       string
	Candidates []Strategy
	ProbeArgs  []string
}

// Prober resolves ToolSpecs into Availability values.
type Prober struct {
	runner   toolexec.Runner
	logger   logging.Logger
	timeout  time.Duration
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the disambiguation timeout, capped at MaxProbeTimeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 && d <= MaxProbeTimeout {
			p.timeout = d
		}
	}
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(p *Prober) { p.lookPath = fn }
}

// WithStat replaces os.Stat.
func WithStat(fn func(string) (os.FileInfo, error)) Option {
	return func(p *Prober) { p.stat = fn }
}

// NewProber constructs a Prober.
func NewProber(runner toolexec.Runner, logger logging.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	p := &Prober{
		runner:   runner,
		logger:   logger.Named("toolprobe"),
		timeout:  MaxProbeTimeout,
		lookPath: exec.LookPath,
		stat:     os.Stat,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks each candidate cheaply and only runs a subprocess when more
// than one candidate survives.  It never returns an error.
func (p *Prober) Probe(ctx context.Context, spec ToolSpec) Availability {
	var present []Strategy
	var reasons []string
	for _, c := range spec.Candidates {
		if reason := p.cheapCheck(c); reason != "" {
			reasons = append(reasons, reason)
			continue
		}
		present = append(present, c)
	}

	switch len(present) {
	case 0:
		if len(reasons) == 0 {
			reasons = append(reasons, "no candidate invocation configured")
		}
		a := Availability{Tool: spec.Name, Reason: strings.Join(reasons, "; ")}
		p.logger.Debug("tool unavailable", logging.String("tool", spec.Name), logging.String("reason", a.Reason))
		return a
	case 1:
		return Availability{Tool: spec.Name, Available: true, Strategy: present[0]}
	}

	for _, c := range present {
		argv := c.Argv(spec.ProbeArgs...)
		_, err := p.runner.Run(ctx, toolexec.Command{Name: argv[0], Args: argv[1:], Timeout: p.timeout})
		if err == nil {
			p.logger.Debug("tool resolved", logging.String("tool", spec.Name), logging.String("strategy", c.String()))
			return Availability{Tool: spec.Name, Available: true, Strategy: c}
		}
		reasons = append(reasons, c.String()+": "+err.Error())
	}
	return Availability{Tool: spec.Name, Reason: strings.Join(reasons, "; ")}
}

// ProbeAll probes every spec and returns the results keyed by tool name.
func (p *Prober) ProbeAll(ctx context.Context, specs []ToolSpec) map[string]Availability {
	out := make(map[string]Availability, len(specs))
	for _, s := range specs {
		out[s.Name] = p.Probe(ctx, s)
	}
	return out
}

func (p *Prober) cheapCheck(s Strategy) string {
	switch v := s.(type) {
	case Native:
		if v.Path == "" {
			return "empty executable path"
		}
		if _, err := p.lookPath(v.Path); err != nil {
			return v.Path + " not found in PATH"
		}
	case Wrapper:
		if _, err := p.lookPath(v.Launcher); err != nil {
			return v.Launcher + " not found in PATH"
		}
		if v.Artifact != "" {
			if _, err := p.stat(v.Artifact); err != nil {
				return v.Artifact + " does not exist"
			}
		}
	case EnvIndirected:
		if v.Env == "" {
			return "no environment configured for " + v.Tool
		}
		if _, err := p.lookPath(v.Manager); err != nil {
			return v.Manager + " not found in PATH"
		}
	default:
		return "unsupported strategy"
	}
	return ""
}

//Personal.AI order the ending
