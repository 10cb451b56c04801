package docking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/protflow/internal/domain/docking"
)

func TestFromPocket(t *testing.T) {
	dto := FromPocket(domain.PocketRecord{
		Structure: "/s/prot_1.pdb", Rank: 2, Center: domain.Center{1.5, -2, 3},
		Score: 7.25, Probability: domain.Float64(0.61), PredictionsPath: "/s/prot_1_p2/x_predictions.csv",
	})
	assert.Equal(t, "prot_1", dto.StructureID)
	assert.Equal(t, [3]float64{1.5, -2, 3}, dto.Center)
	assert.Equal(t, 0.61, *dto.Probability)
}

func TestFromResult_FailedTaskSerialisesNullAffinity(t *testing.T) {
	b, err := json.Marshal(FromResult(domain.DockingResult{Structure: "/s/a.pdb", Rank: 1}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"affinity":null`)
	assert.NotContains(t, string(b), `"out"`)
}

func TestFromSlices_NeverNil(t *testing.T) {
	assert.NotNil(t, FromPockets(nil))
	assert.NotNil(t, FromResults(nil))
}

func TestFromRun(t *testing.T) {
	run := &domain.Run{ID: "r1", StartedAt: time.Unix(0, 0).UTC()}
	dto := FromRun(run)
	assert.Nil(t, dto.FinishedAt)
	assert.Empty(t, dto.Pockets)

	run.FinishedAt = time.Unix(10, 0).UTC()
	dto = FromRun(run)
	require.NotNil(t, dto.FinishedAt)
	assert.Equal(t, run.FinishedAt, *dto.FinishedAt)
}

//Personal.AI order the ending
