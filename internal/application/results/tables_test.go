package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/protflow/internal/domain/docking"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

func samplePockets() []docking.PocketRecord {
	return []docking.PocketRecord{
		{Structure: "/pdb/a.pdb", Rank: 1, Center: docking.Center{10.1234, -5.5, 3.25}, Score: 12.5, Probability: docking.Float64(0.71), PredictionsPath: "/pdb/a_p2/a.pdb_predictions.csv"},
		{Structure: "/pdb/a,b.pdb", Rank: 2, Center: docking.Center{0.1, 0.2, 0.30000000000000004}, Score: 6, PredictionsPath: "/pdb/x.csv"},
	}
}

func TestPocketTable_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", PocketTableName)
	in := samplePockets()
	require.NoError(t, WritePockets(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "pdb,pocket_rank,center,score,probability,csv", lines[0])
	assert.Equal(t, `/pdb/a.pdb,1,"(10.1234, -5.5, 3.25)",12.5,0.71,/pdb/a_p2/a.pdb_predictions.csv`, lines[1])

	out, err := ReadPockets(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDockingTable_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DockingTableName)
	in := []docking.DockingResult{
		{Structure: "/pdb/a.pdb", Rank: 1, OutPath: "/d/dock_a_p1.pdbqt", LogPath: "/d/dock_a_p1.log", Affinity: docking.Float64(-8.5), Center: docking.Center{1, 2, 3}},
		{Structure: "/pdb/b.pdb", Rank: 1, Center: docking.Center{4, 5, 6}},
	}
	require.NoError(t, WriteDocking(path, in))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, "pdb,pocket_rank,out,log,affinity,center", lines[0])
	assert.Equal(t, `/pdb/b.pdb,1,,,,"(4.0, 5.0, 6.0)"`, lines[2])

	out, err := ReadDocking(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), DockingTableName)
	require.NoError(t, WriteDocking(path, nil))
	out, err := ReadDocking(path)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadPockets_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadPockets(filepath.Join(dir, "missing.csv"))
	assert.True(t, apperrors.IsNotFound(err))

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	_, err = ReadPockets(write("empty.csv", ""))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResultTableInvalid))

	_, err = ReadPockets(write("wrongcols.csv", "pdb,rank,center,score,probability,csv\n"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResultTableInvalid))

	_, err = ReadPockets(write("badcenter.csv", "pdb,pocket_rank,center,score,probability,csv\na.pdb,1,\"(1, 2)\",1,,x\n"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResultTableInvalid))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCenterParse))

	_, err = ReadPockets(write("shortrow.csv", "pdb,pocket_rank,center,score,probability,csv\na.pdb,1\n"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResultTableInvalid))
}

func TestReadPockets_BOMHeader(t *testing.T) {
	p := filepath.Join(t.TempDir(), PocketTableName)
	require.NoError(t, os.WriteFile(p, []byte("\ufeffpdb,pocket_rank,center,score,probability,csv\na.pdb,1,\"[1, 2, 3]\",2,,x\n"), 0o644))
	recs, err := ReadPockets(p)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, docking.Center{1, 2, 3}, recs[0].Center)
	assert.Nil(t, recs[0].Probability)
}

//Personal.AI order the ending
