package prediction

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/protflow/internal/application/sequence"
	"github.com/turtacn/protflow/internal/infrastructure/toolexec"
	"github.com/turtacn/protflow/internal/testutil"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

type fileModel struct {
	fail  map[string]bool
	calls int32
}

func (m *fileModel) Predict(_ context.Context, id, seq, out string) error {
	atomic.AddInt32(&m.calls, 1)
	if m.fail[id] {
		return errors.New("out of memory")
	}
	return testutil.WriteFile(out, "ATOM "+seq+"\n")
}

func TestModelCache_LoadsOnce(t *testing.T) {
	var loads int32
	cache := NewModelCache(func(context.Context) (Model, error) {
		atomic.AddInt32(&loads, 1)
		return &fileModel{}, nil
	}, nil)

	m1, err := cache.GetOrLoad(context.Background())
	require.NoError(t, err)
	m2, err := cache.GetOrLoad(context.Background())
	require.NoError(t, err)
	assert.Same(t, m1, m2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))

	cache.Clear()
	_, err = cache.GetOrLoad(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&loads))
}

func TestModelCache_LoadFailure(t *testing.T) {
	cache := NewModelCache(func(context.Context) (Model, error) { return nil, errors.New("no weights") }, nil)
	_, err := cache.GetOrLoad(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeModelLoadFailed))

	_, err = NewModelCache(nil, nil).GetOrLoad(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeModelLoadFailed))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "NC_1_f.gbk_WP_2", SanitizeID(`NC_1|f.gbk/WP\2`))
	assert.Len(t, SanitizeID(strings.Repeat("x", 200)), 80)
}

func TestSanitizeID_KeepsRunesWhole(t *testing.T) {
	// the 80-byte cut falls inside the first é
	got := SanitizeID(strings.Repeat("x", 79) + strings.Repeat("é", 10))
	assert.Equal(t, strings.Repeat("x", 79), got)

	got = SanitizeID(strings.Repeat("蛋", 40))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("蛋", 26), got)
	assert.LessOrEqual(t, len(got), maxNameLen)
}

func TestPredictAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, testutil.WriteFile(filepath.Join(dir, "done.pdb"), "ATOM\n"))
	model := &fileModel{fail: map[string]bool{"bad": true}}
	logger := testutil.NewMockLogger()

	recs := []sequence.Record{{ID: "done", Seq: "MK"}, {ID: "a|b", Seq: "MKT"}, {ID: "bad", Seq: "M"}}
	rep, err := PredictAll(context.Background(), model, recs, dir, Options{SkipExisting: true}, logger)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Succeeded)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, []string{filepath.Join(dir, "done.pdb"), filepath.Join(dir, "a_b.pdb")}, rep.Outputs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&model.calls))
	assert.True(t, logger.HasMessage("error", "structure prediction failed"))
}

func TestPredictAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PredictAll(ctx, &fileModel{}, []sequence.Record{{ID: "x", Seq: "M"}}, t.TempDir(), Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandModel(t *testing.T) {
	runner := testutil.NewFakeRunner(func(cmd toolexec.Command) (toolexec.Result, error) {
		return toolexec.Result{}, testutil.WriteFile(testutil.ArgAfter(cmd.Args, "--out"), "ATOM\n")
	})
	m := &CommandModel{Runner: runner, Command: "fold", Args: []string{"--name", "{id}", "--seq", "{sequence}", "--out", "{output}"}}
	out := filepath.Join(t.TempDir(), "x.pdb")
	require.NoError(t, m.Predict(context.Background(), "x", "MKT", out))
	assert.Equal(t, []string{"--name", "x", "--seq", "MKT", "--out", out}, runner.Calls()[0].Args)
}

func TestCommandModel_NoOutput(t *testing.T) {
	m := &CommandModel{Runner: testutil.NewFakeRunner(nil), Command: "fold", Args: []string{"{output}"}}
	err := m.Predict(context.Background(), "x", "MKT", filepath.Join(t.TempDir(), "x.pdb"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePredictionFailed))
}

func TestCommandLoader(t *testing.T) {
	_, err := CommandLoader(nil, "", nil, 0)(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFeatureDisabled))

	_, err = CommandLoader(nil, "protflow-no-such-predictor", nil, 0)(context.Background())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDependencyMissing))
}

//Personal.AI order the ending
