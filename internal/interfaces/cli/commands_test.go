package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/protflow/internal/application/pipeline"
	"github.com/turtacn/protflow/internal/application/results"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/testutil"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

const predictionsCSV = `name     ,rank,  score, probability, sas_points, surf_atoms,   center_x,   center_y,   center_z, residue_ids, surf_atom_ids
pocket1  ,   1,  12.50,       0.710,         90,         60,    10.1234,    -5.5000,     3.2500, A_12 A_13, 1 2 3
pocket2  ,   2,   6.20,       0.330,         40,         25,     1.0000,     2.0000,     3.0000, A_40, 4 5
`

const ligandPDBQT = "REMARK  Name = ligand\nROOT\nATOM      1  C   UNL     1       0.000   0.000   0.000  0.00  0.00    +0.000 C\nENDROOT\nTORSDOF 0\n"

// fakeTools emulates prank, obabel and vina by writing their output files.
func fakeTools(cmd toolexec.Command) (toolexec.Result, error) {
	switch cmd.Name {
	case "prank":
		pdb := testutil.ArgAfter(cmd.Args, "-f")
		out := testutil.ArgAfter(cmd.Args, "-o")
		return toolexec.Result{}, testutil.WriteFile(filepath.Join(out, filepath.Base(pdb)+"_predictions.csv"), predictionsCSV)
	case "obabel":
		return toolexec.Result{}, testutil.WriteFile(testutil.ArgAfter(cmd.Args, "-O"), ligandPDBQT)
	case "vina":
		if err := testutil.WriteFile(testutil.ArgAfter(cmd.Args, "--out"), "MODEL 1\n"); err != nil {
			return toolexec.Result{}, err
		}
		score := "REMARK VINA RESULT:    -7.5      0.000      0.000\n"
		if strings.HasPrefix(docking.Stem(testutil.ArgAfter(cmd.Args, "--receptor")), "b") {
			score = "REMARK VINA RESULT:    -9.1      0.000      0.000\n"
		}
		return toolexec.Result{}, testutil.WriteFile(testutil.ArgAfter(cmd.Args, "--log"), score)
	}
	return toolexec.Result{ExitCode: 127}, errors.New("unknown tool " + cmd.Name)
}

func findAll(name string) (string, error) { return "/usr/local/bin/" + name, nil }

func findOnly(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/local/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline commands
// ─────────────────────────────────────────────────────────────────────────────

type CommandsSuite struct {
	suite.Suite
	dir    string
	cfg    string
	runner *testutil.FakeRunner
}

func (s *CommandsSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.cfg = writeConfig(s.T(), s.dir, "")
	s.runner = testutil.NewFakeRunner(fakeTools)
	for _, name := range []string{"a.pdb", "b.pdb"} {
		s.Require().NoError(testutil.WriteFile(filepath.Join(s.dir, "structures", name), "ATOM\n"))
	}
}

func (s *CommandsSuite) run(args ...string) (RunView, error) {
	args = append(args, "--config", s.cfg, "-o", "json")
	out, err := execute(s.T(), args, WithRunner(s.runner), WithLookPath(findAll))
	var view RunView
	if out != "" {
		s.Require().NoError(json.Unmarshal([]byte(out), &view), out)
	}
	return view, err
}

func (s *CommandsSuite) stage(v RunView, name string) pipeline.StageReport {
	for _, st := range v.Stages {
		if st.Stage == name {
			return st
		}
	}
	s.FailNow("stage not reported: " + name)
	return pipeline.StageReport{}
}

func (s *CommandsSuite) TestPockets_WritesTable() {
	view, err := s.run("pockets", "--top-n", "2")
	s.Require().NoError(err)

	st := s.stage(view, docking.StagePockets)
	s.Equal(pipeline.StatusCompleted, st.Status)
	s.Equal(2, st.Succeeded)

	pockets, err := results.ReadPockets(filepath.Join(s.dir, "results", results.PocketTableName))
	s.Require().NoError(err)
	s.Len(pockets, 4)
	s.Equal(docking.Center{10.1234, -5.5, 3.25}, pockets[0].Center)
}

func (s *CommandsSuite) TestRun_EndToEnd() {
	view, err := s.run("run", "--ligand", "CCO", "--best", "1")
	s.Require().NoError(err)

	s.Equal(pipeline.StatusCompleted, s.stage(view, docking.StagePockets).Status)
	s.Equal(pipeline.StatusCompleted, s.stage(view, docking.StageDocking).Status)
	s.Equal(2, view.Summary.Total)
	s.Equal(2, view.Summary.Succeeded)
	s.Require().Len(view.Best, 1)
	s.Equal("b", view.Best[0].StructureID)
	s.InDelta(-9.1, *view.Best[0].Affinity, 1e-9)

	rows, err := results.ReadDocking(filepath.Join(s.dir, "results", results.DockingTableName))
	s.Require().NoError(err)
	s.Len(rows, 2)
	s.Len(s.runner.CallsTo("vina"), 2)
}

func (s *CommandsSuite) TestDock_ReusesPocketTable() {
	_, err := s.run("pockets")
	s.Require().NoError(err)
	prankCalls := len(s.runner.CallsTo("prank"))

	view, err := s.run("dock", "--ligand", "CCO", "--parallel", "--workers", "2")
	s.Require().NoError(err)
	s.Equal(prankCalls, len(s.runner.CallsTo("prank")))
	s.Equal(2, s.stage(view, docking.StageDocking).Succeeded)
	s.NotEmpty(view.DockingTable)
}

func (s *CommandsSuite) TestDock_WithoutPocketsIsSkipped() {
	view, err := s.run("dock", "--ligand", "CCO")
	s.Require().NoError(err)
	st := s.stage(view, docking.StageDocking)
	s.Equal(pipeline.StatusSkipped, st.Status)
	s.Empty(s.runner.CallsTo("vina"))
}

func (s *CommandsSuite) TestDock_RequiresLigand() {
	_, err := execute(s.T(), []string{"dock", "--config", s.cfg}, WithRunner(s.runner), WithLookPath(findAll))
	s.Error(err)
}

func (s *CommandsSuite) TestRun_MissingToolsSkipStages() {
	out, err := execute(s.T(), []string{"run", "--ligand", "CCO", "--config", s.cfg, "-o", "json"},
		WithRunner(s.runner), WithLookPath(findOnly("obabel")))
	s.Require().NoError(err)

	var view RunView
	s.Require().NoError(json.Unmarshal([]byte(out), &view))
	s.Equal(pipeline.StatusSkipped, s.stage(view, docking.StagePockets).Status)
	s.Empty(s.runner.CallsTo("prank"))
}

func (s *CommandsSuite) TestRun_InvalidFlagRejected() {
	_, err := s.run("run", "--ligand", "CCO", "--box-size", "0")
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func (s *CommandsSuite) TestRun_ZeroPHRejected() {
	_, err := s.run("run", "--ligand", "CCO", "--ph", "0")
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeValidation))
	s.Contains(err.Error(), "ligand.ph")
	s.Empty(s.runner.Calls())
}

func (s *CommandsSuite) TestLigand_PHFlagReachesObabel() {
	_, err := execute(s.T(), []string{"ligand", "CCO", "--ph", "6.8", "--config", s.cfg},
		WithRunner(s.runner), WithLookPath(findAll))
	s.Require().NoError(err)

	calls := s.runner.CallsTo("obabel")
	s.Require().NotEmpty(calls)
	s.Equal("6.8", testutil.ArgAfter(calls[len(calls)-1].Args, "-p"))
}

func (s *CommandsSuite) TestRun_NothingToDo() {
	_, err := s.run("run", "--skip-pockets")
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func (s *CommandsSuite) TestRun_TextOutput() {
	out, err := execute(s.T(), []string{"run", "--ligand", "CCO", "--config", s.cfg},
		WithRunner(s.runner), WithLookPath(findAll))
	s.Require().NoError(err)
	s.Contains(out, "STAGE")
	s.Contains(out, "top 2 by affinity")
	s.Contains(out, "-9.1")
}

func (s *CommandsSuite) TestLigand_Prepares() {
	outDir := filepath.Join(s.dir, "lig")
	out, err := execute(s.T(), []string{"ligand", "CCO", "--out", outDir, "--ph", "7.0", "--config", s.cfg, "-o", "json"},
		WithRunner(s.runner), WithLookPath(findAll))
	s.Require().NoError(err)

	var lig ligandView
	s.Require().NoError(json.Unmarshal([]byte(out), &lig))
	s.Equal("CCO", lig.Source)
	s.Equal(7.0, lig.PH)
	s.FileExists(lig.Path)
	s.Equal(outDir, filepath.Dir(lig.Path))
}

func (s *CommandsSuite) TestLigand_ObabelMissing() {
	_, err := execute(s.T(), []string{"ligand", "CCO", "--config", s.cfg},
		WithRunner(s.runner), WithLookPath(findOnly("vina")))
	s.Require().Error(err)
	s.True(apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing))
}

func TestCommandsSuite(t *testing.T) {
	suite.Run(t, new(CommandsSuite))
}

// ─────────────────────────────────────────────────────────────────────────────
// probe / filter
// ─────────────────────────────────────────────────────────────────────────────

func TestProbe(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), "")

	out, err := execute(t, []string{"probe", "--config", cfg, "-o", "json"}, WithLookPath(findOnly("obabel", "vina")))
	require.NoError(t, err)

	var res ProbeResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Tools, 3)
	assert.True(t, res.Tools[0].Available)
	assert.Equal(t, "obabel", res.Tools[0].Invocation)
	assert.False(t, res.Tools[2].Available)
	assert.NotEmpty(t, res.Tools[2].Reason)

	_, err = execute(t, []string{"probe", "--strict", "--config", cfg}, WithLookPath(findOnly("obabel", "vina")))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing))

	_, err = execute(t, []string{"probe", "--strict", "--config", cfg}, WithLookPath(findAll))
	assert.NoError(t, err)
}

func fastaOf(lengths ...int) string {
	var sb strings.Builder
	for i, n := range lengths {
		sb.WriteString(">seq" + string(rune('0'+i)) + " len=" + string(rune('0'+i)) + "\n")
		sb.WriteString(strings.Repeat("A", n) + "\n")
	}
	return sb.String()
}

func TestFilter(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	in := filepath.Join(dir, "in.fasta")
	require.NoError(t, os.WriteFile(in, []byte(fastaOf(30, 100, 200, 2000)), 0o644))
	outPath := filepath.Join(dir, "selected.fasta")

	out, err := execute(t, []string{"filter", in, "--out", outPath, "--config", cfg, "-o", "json"})
	require.NoError(t, err)

	var res FilterResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Selected, 2)
	assert.Equal(t, SelectedRecord{ID: "seq2", Length: 200}, res.Selected[0])
	assert.Equal(t, SelectedRecord{ID: "seq1", Length: 100}, res.Selected[1])

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), ">seq2")
	assert.NotContains(t, string(data), ">seq3")
}

func TestFilter_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	in := filepath.Join(dir, "in.fasta")
	require.NoError(t, os.WriteFile(in, []byte(fastaOf(30, 100, 200, 2000)), 0o644))

	out, err := execute(t, []string{"filter", in, "--min-len", "10", "--max-len", "5000", "--limit", "0", "--sort=false", "--config", cfg, "-o", "json"})
	require.NoError(t, err)

	var res FilterResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Selected, 4)
	assert.Equal(t, "seq0", res.Selected[0].ID)
}

func TestFilter_InvalidWindow(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "")
	in := filepath.Join(dir, "in.fasta")
	require.NoError(t, os.WriteFile(in, []byte(fastaOf(100)), 0o644))

	_, err := execute(t, []string{"filter", in, "--min-len", "500", "--max-len", "100", "--config", cfg})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

//Personal.AI order the ending
