package toolprobe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/testutil"
)

func lookPathIn(found ...string) func(string) (string, error) {
	set := make(map[string]bool, len(found))
	for _, f := range found {
		set[f] = true
	}
	return func(name string) (string, error) {
		if set[name] {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("not found")
	}
}

func TestProbe_NoCandidatePresent(t *testing.T) {
	runner := testutil.NewFakeRunner(nil)
	p := NewProber(runner, logging.NewNopLogger(), WithLookPath(lookPathIn()))

	a := p.Probe(context.Background(), ToolSpec{Name: "vina", Candidates: []Strategy{Native{Path: "vina"}}})
	assert.False(t, a.Available)
	assert.Contains(t, a.Reason, "vina not found")
	assert.Nil(t, a.Argv("--help"))
	assert.Empty(t, runner.Calls())
}

func TestProbe_SingleCandidateSkipsSubprocess(t *testing.T) {
	runner := testutil.NewFakeRunner(nil)
	p := NewProber(runner, logging.NewNopLogger(), WithLookPath(lookPathIn("vina")))

	a := p.Probe(context.Background(), ToolSpec{Name: "vina", Candidates: []Strategy{Native{Path: "vina"}}, ProbeArgs: []string{"--version"}})
	require.True(t, a.Available)
	assert.Equal(t, KindNative, a.Strategy.Kind())
	assert.Empty(t, runner.Calls())
}

func TestProbe_MultipleCandidatesDisambiguated(t *testing.T) {
	runner := testutil.NewFakeRunner(func(cmd toolexec.Command) (toolexec.Result, error) {
		if cmd.Name == "vina" {
			return toolexec.Result{ExitCode: 1}, errors.New("broken install")
		}
		return toolexec.Result{}, nil
	})
	p := NewProber(runner, logging.NewNopLogger(), WithLookPath(lookPathIn("vina", "conda")), WithTimeout(2*time.Second))

	spec := ToolSpec{
		Name:       "vina",
		Candidates: []Strategy{Native{Path: "vina"}, EnvIndirected{Manager: "conda", Env: "dock", Tool: "vina"}},
		ProbeArgs:  []string{"--version"},
	}
	a := p.Probe(context.Background(), spec)
	require.True(t, a.Available)
	assert.Equal(t, KindEnvIndirected, a.Strategy.Kind())

	calls := runner.Calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		assert.Equal(t, 2*time.Second, c.Timeout)
	}
	assert.Equal(t, []string{"run", "-n", "dock", "vina", "--version"}, calls[1].Args)
}

func TestProbe_MultipleCandidatesAllFail(t *testing.T) {
	runner := testutil.NewFakeRunner(func(cmd toolexec.Command) (toolexec.Result, error) {
		return toolexec.Result{ExitCode: 1}, errors.New("nope")
	})
	p := NewProber(runner, logging.NewNopLogger(), WithLookPath(lookPathIn("obabel", "conda")))

	a := p.Probe(context.Background(), ToolSpec{
		Name:       "obabel",
		Candidates: []Strategy{Native{Path: "obabel"}, EnvIndirected{Manager: "conda", Env: "x", Tool: "obabel"}},
	})
	assert.False(t, a.Available)
	assert.Contains(t, a.Reason, "nope")
}

func TestProbe_WrapperNeedsArtifact(t *testing.T) {
	runner := testutil.NewFakeRunner(nil)
	p := NewProber(runner, logging.NewNopLogger(),
		WithLookPath(lookPathIn("java")),
		WithStat(func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }))

	a := p.Probe(context.Background(), ToolSpec{
		Name:       ToolP2Rank,
		Candidates: []Strategy{Wrapper{Launcher: "java", Prefix: []string{"-jar", "/x/p2rank.jar"}, Artifact: "/x/p2rank.jar"}},
	})
	assert.False(t, a.Available)
	assert.Contains(t, a.Reason, "/x/p2rank.jar does not exist")
}

func TestProbe_TimeoutOptionCapped(t *testing.T) {
	p := NewProber(testutil.NewFakeRunner(nil), nil, WithTimeout(time.Minute))
	assert.Equal(t, MaxProbeTimeout, p.timeout)
}

func TestStrategy_Argv(t *testing.T) {
	assert.Equal(t, []string{"vina", "--help"}, Native{Path: "vina"}.Argv("--help"))
	w := Wrapper{Launcher: "java", Prefix: []string{"-jar", "p2rank.jar"}}
	assert.Equal(t, []string{"java", "-jar", "p2rank.jar", "predict", "-f", "a.pdb"}, w.Argv("predict", "-f", "a.pdb"))
	assert.Equal(t, "java -jar p2rank.jar", w.String())
	e := EnvIndirected{Manager: "conda", Env: "protflow", Tool: "obabel"}
	assert.Equal(t, "conda run -n protflow obabel", e.String())
}

func TestAvailability_Command(t *testing.T) {
	a := Availability{Tool: "p2rank", Available: true, Strategy: Wrapper{Launcher: "java", Prefix: []string{"-jar", "p.jar"}}}
	cmd := a.Command(300*time.Second, "predict")
	assert.Equal(t, "java", cmd.Name)
	assert.Equal(t, []string{"-jar", "p.jar", "predict"}, cmd.Args)
	assert.Equal(t, 300*time.Second, cmd.Timeout)
}

func TestProbeAll(t *testing.T) {
	p := NewProber(testutil.NewFakeRunner(nil), logging.NewNopLogger(), WithLookPath(lookPathIn("obabel")))
	got := p.ProbeAll(context.Background(), []ToolSpec{
		{Name: "obabel", Candidates: []Strategy{Native{Path: "obabel"}}},
		{Name: "vina", Candidates: []Strategy{Native{Path: "vina"}}},
	})
	assert.True(t, got["obabel"].Available)
	assert.False(t, got["vina"].Available)
}

func TestFindP2RankJar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testutil.WriteFile(filepath.Join(dir, "p2rank_2.5.1", "p2rank.jar"), "jar"))

	jar, err := FindP2RankJar(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "p2rank_2.5.1", "p2rank.jar"), jar)

	_, err = FindP2RankJar(t.TempDir())
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "p2rank", "p2rank.jar")
	require.NoError(t, testutil.WriteFile(jar, "jar"))

	specs := Catalog(CatalogOptions{P2RankDir: dir, CondaEnv: "protflow"})
	require.Len(t, specs, 3)
	assert.Equal(t, ToolObabel, specs[0].Name)
	assert.Len(t, specs[0].Candidates, 2)
	assert.Equal(t, ToolP2Rank, specs[2].Name)
	w, ok := specs[2].Candidates[0].(Wrapper)
	require.True(t, ok)
	assert.Equal(t, jar, w.Artifact)

	specs = Catalog(CatalogOptions{})
	assert.Len(t, specs[0].Candidates, 1)
	assert.Equal(t, Native{Path: "prank"}, specs[2].Candidates[0])
}

//Personal.AI order the ending
