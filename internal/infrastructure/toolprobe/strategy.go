// Package toolprobe decides whether an external tool can be invoked and how.
//
// A tool is reachable through one of three invocation strategies: a native
// executable, a wrapper that launches an artifact (java -jar p2rank.jar), or an
// environment manager that runs the tool inside a named environment
// (conda run -n env vina).  Probing never fails on absence; it reports an
// Availability value instead.
package toolprobe

import (
	"fmt"
	"strings"
)

// StrategyKind names an invocation strategy.
type StrategyKind string

const (
	KindNative        StrategyKind = "native"
	KindWrapper       StrategyKind = "wrapper"
	KindEnvIndirected StrategyKind = "env"
)

// Strategy is a closed set of invocation strategies.  Each one builds the full
// argv for a tool invocation.
type Strategy interface {
	Kind() StrategyKind
	// Argv returns the program name followed by its arguments.
	Argv(args ...string) []string
	String() string
	sealed()
}

// Native runs an executable directly.
type Native struct {
	Path string
}

func (n Native) Kind() StrategyKind { return KindNative }

func (n Native) Argv(args ...string) []string {
	return append([]string{n.Path}, args...)
}

func (n Native) String() string { return n.Path }
func (Native) sealed()          {}

// Wrapper runs Launcher with fixed leading arguments, e.g.
// Launcher "java", Prefix ["-jar", "/opt/p2rank/p2rank.jar"].  Artifact is the
// file that must exist for the strategy to be usable.
type Wrapper struct {
	Launcher string
	Prefix   []string
	Artifact string
}

func (w Wrapper) Kind() StrategyKind { return KindWrapper }

func (w Wrapper) Argv(args ...string) []string {
	out := make([]string, 0, 1+len(w.Prefix)+len(args))
	out = append(out, w.Launcher)
	out = append(out, w.Prefix...)
	return append(out, args...)
}

func (w Wrapper) String() string {
	return strings.Join(w.Argv(), " ")
}

func (Wrapper) sealed() {}

// EnvIndirected runs Tool inside the environment Env using Manager
// ("conda run -n <env> <tool>").
type EnvIndirected struct {
	Manager string
	Env     string
	Tool    string
}

func (e EnvIndirected) Kind() StrategyKind { return KindEnvIndirected }

func (e EnvIndirected) Argv(args ...string) []string {
	return append([]string{e.Manager, "run", "-n", e.Env, e.Tool}, args...)
}

func (e EnvIndirected) String() string {
	return fmt.Sprintf("%s run -n %s %s", e.Manager, e.Env, e.Tool)
}

func (EnvIndirected) sealed() {}

//Personal.AI order the ending
