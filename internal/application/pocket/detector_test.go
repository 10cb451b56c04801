package pocket

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/infrastructure/toolprobe"
	"github.com/turtacn/protflow/internal/testutil"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

const predictionsCSV = `name     ,rank,  score, probability, sas_points, surf_atoms,   center_x,   center_y,   center_z, residue_ids, surf_atom_ids
pocket1  ,   1,  12.50,       0.710,         90,         60,    10.1234,    -5.5000,     3.2500, A_12 A_13, 1 2 3
pocket2  ,   2,   6.20,       0.330,         40,         25,     1.0000,     2.0000,     3.0000, A_40, 4 5
pocket3  ,   3,   2.10,       0.050,         10,          8,    -1.0000,    -2.0000,    -3.0000, A_70, 6
`

var p2rankAvailable = toolprobe.Availability{
	Tool:      toolprobe.ToolP2Rank,
	Available: true,
	Strategy:  toolprobe.Wrapper{Launcher: "java", Prefix: []string{"-jar", "/opt/p2rank/p2rank.jar"}},
}

// p2rankWriting emulates P2Rank: it writes table into the -o directory unless
// the structure stem is listed in fail or empty.
func p2rankWriting(table string, fail, empty map[string]bool) testutil.RunFunc {
	return func(cmd toolexec.Command) (toolexec.Result, error) {
		pdb := testutil.ArgAfter(cmd.Args, "-f")
		out := testutil.ArgAfter(cmd.Args, "-o")
		stem := docking.Stem(pdb)
		if fail[stem] {
			return toolexec.Result{ExitCode: 1, Stderr: "java.lang.Exception: bad structure"},
				apperrors.New(apperrors.ErrCodeToolFailed, "java exited with status 1").WithDetail("java.lang.Exception: bad structure")
		}
		if empty[stem] {
			return toolexec.Result{}, nil
		}
		return toolexec.Result{}, testutil.WriteFile(filepath.Join(out, filepath.Base(pdb)+"_predictions.csv"), table)
	}
}

type DetectorSuite struct {
	suite.Suite
	dir    string
	logger *testutil.MockLogger
}

func (s *DetectorSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.logger = testutil.NewMockLogger()
	for _, name := range []string{"b.pdb", "a.pdb", "c.pdb", "notes.txt"} {
		s.Require().NoError(testutil.WriteFile(filepath.Join(s.dir, name), "ATOM\n"))
	}
}

func (s *DetectorSuite) TestDetect_OrderAndTopN() {
	runner := testutil.NewFakeRunner(p2rankWriting(predictionsCSV, nil, nil))
	d := NewDetector(runner, p2rankAvailable, s.logger)

	recs, err := d.Detect(context.Background(), s.dir, Options{Threads: 2, TopN: 2})
	s.Require().NoError(err)
	s.Require().Len(recs, 6)

	s.Equal(filepath.Join(s.dir, "a.pdb"), recs[0].Structure)
	s.Equal(1, recs[0].Rank)
	s.Equal(2, recs[1].Rank)
	s.Equal(filepath.Join(s.dir, "c.pdb"), recs[5].Structure)
	s.Equal(docking.Center{10.1234, -5.5, 3.25}, recs[0].Center)
	s.Equal(12.5, recs[0].Score)
	s.Require().NotNil(recs[0].Probability)
	s.Equal(0.71, *recs[0].Probability)
	s.Equal(filepath.Join(s.dir, "a_p2", "a.pdb_predictions.csv"), recs[0].PredictionsPath)

	calls := runner.Calls()
	s.Require().Len(calls, 3)
	s.Equal("java", calls[0].Name)
	s.Equal([]string{"-jar", "/opt/p2rank/p2rank.jar", "predict",
		"-f", filepath.Join(s.dir, "a.pdb"),
		"-o", filepath.Join(s.dir, "a_p2"),
		"-threads", "2", "-visualizations", "0"}, calls[0].Args)
	s.Equal(DetectTimeout, calls[0].Timeout)
}

func (s *DetectorSuite) TestDetect_DefaultTopNIsOne() {
	runner := testutil.NewFakeRunner(p2rankWriting(predictionsCSV, nil, nil))
	d := NewDetector(runner, p2rankAvailable, s.logger)

	recs, err := d.Detect(context.Background(), s.dir, Options{})
	s.Require().NoError(err)
	s.Len(recs, 3)
	for _, r := range recs {
		s.Equal(1, r.Rank)
	}
}

func (s *DetectorSuite) TestDetect_SkipsFailuresAndMissingTables() {
	runner := testutil.NewFakeRunner(p2rankWriting(predictionsCSV, map[string]bool{"a": true}, map[string]bool{"b": true}))
	d := NewDetector(runner, p2rankAvailable, s.logger)

	recs, err := d.Detect(context.Background(), s.dir, Options{TopN: 1})
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal(filepath.Join(s.dir, "c.pdb"), recs[0].Structure)

	skips := s.logger.Find("warn", "pocket detection skipped")
	s.Require().Len(skips, 2)
	s.Equal("a", skips[0].Field("structure"))
	s.Contains(skips[0].Field("error"), "bad structure")
	s.Equal("b", skips[1].Field("structure"))

	summary := s.logger.Find("info", "pocket detection complete")
	s.Require().Len(summary, 1)
	s.Equal(2, summary[0].Field("skipped"))
}

func (s *DetectorSuite) TestDetect_EmptyTableSkipped() {
	header := strings.SplitN(predictionsCSV, "\n", 2)[0] + "\n"
	runner := testutil.NewFakeRunner(p2rankWriting(header, nil, nil))
	d := NewDetector(runner, p2rankAvailable, s.logger)

	recs, err := d.Detect(context.Background(), s.dir, Options{})
	s.Require().NoError(err)
	s.Empty(recs)
	s.Len(s.logger.Find("warn", "pocket detection skipped"), 3)
}

func (s *DetectorSuite) TestDetect_ToolMissing() {
	d := NewDetector(testutil.NewFakeRunner(nil), toolprobe.Availability{Tool: "p2rank", Reason: "java not found in PATH"}, s.logger)
	_, err := d.Detect(context.Background(), s.dir, Options{})
	s.True(apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing))
}

func (s *DetectorSuite) TestDetect_DirectoryMissing() {
	d := NewDetector(testutil.NewFakeRunner(nil), p2rankAvailable, s.logger)
	_, err := d.Detect(context.Background(), filepath.Join(s.dir, "nope"), Options{})
	s.True(apperrors.IsNotFound(err))
}

func (s *DetectorSuite) TestDetect_NoStructures() {
	runner := testutil.NewFakeRunner(nil)
	d := NewDetector(runner, p2rankAvailable, s.logger)
	recs, err := d.Detect(context.Background(), s.T().TempDir(), Options{})
	s.NoError(err)
	s.Empty(recs)
	s.Empty(runner.Calls())
}

func (s *DetectorSuite) TestDetect_CustomGlob() {
	s.Require().NoError(testutil.WriteFile(filepath.Join(s.dir, "model.cif"), "data_\n"))
	runner := testutil.NewFakeRunner(p2rankWriting(predictionsCSV, nil, nil))
	d := NewDetector(runner, p2rankAvailable, s.logger)

	recs, err := d.Detect(context.Background(), s.dir, Options{Glob: "*.cif"})
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("model", recs[0].StructureID())
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorSuite))
}

func TestReadPredictions_MissingFile(t *testing.T) {
	_, err := ReadPredictions(filepath.Join(t.TempDir(), "x.csv"), "a.pdb", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePocketTableInvalid))
}

func TestReadPredictions_NoProbabilityColumn(t *testing.T) {
	p := filepath.Join(t.TempDir(), "t_predictions.csv")
	require.NoError(t, os.WriteFile(p, []byte("center_x,center_y,center_z,score\n1,2,3,4.5\n"), 0o644))

	recs, err := ReadPredictions(p, "a.pdb", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Probability)
	assert.Equal(t, 4.5, recs[0].Score)
}

func TestReadPredictions_MissingRequiredColumn(t *testing.T) {
	p := filepath.Join(t.TempDir(), "t_predictions.csv")
	require.NoError(t, os.WriteFile(p, []byte("center_x,center_y,score\n1,2,3\n"), 0o644))

	_, err := ReadPredictions(p, "a.pdb", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePocketTableInvalid))
}

func TestReadPredictions_BadNumber(t *testing.T) {
	p := filepath.Join(t.TempDir(), "t_predictions.csv")
	require.NoError(t, os.WriteFile(p, []byte("center_x,center_y,center_z,score\nx,2,3,4\n"), 0o644))

	_, err := ReadPredictions(p, "a.pdb", 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestListStructures_Sorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"z.pdb", "m.pdb", "a.pdb"} {
		require.NoError(t, testutil.WriteFile(filepath.Join(dir, n), "ATOM\n"))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.pdb"), 0o755))

	got, err := ListStructures(dir, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

//Personal.AI order the ending
