package postgres

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/protflow/internal/domain/docking"
	"github.com/turtacn/protflow/pkg/errors"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(PostgresConfig{
		Host: "db", Port: 5432, Database: "protflow",
		Username: "u", Password: "p@ss", StatementTimeout: 5 * time.Second,
	})
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/protflow", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "5000", u.Query().Get("statement_timeout"))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:1/db", migrateURL("postgres://u:p@h:1/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
	assert.Equal(t, "pgx5://h/db", migrateURL("pgx5://h/db"))
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFS, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	up.Close()
	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}

func TestConfigurePool(t *testing.T) {
	t.Run("applies custom settings", func(t *testing.T) {
		poolCfg := &pgxpool.Config{}
		configurePool(poolCfg, PostgresConfig{
			MaxConns: 50, MinConns: 10,
			ConnMaxLifetime: 2 * time.Hour, ConnMaxIdleTime: 45 * time.Minute,
		})
		assert.Equal(t, int32(50), poolCfg.MaxConns)
		assert.Equal(t, int32(10), poolCfg.MinConns)
		assert.Equal(t, 2*time.Hour, poolCfg.MaxConnLifetime)
		assert.Equal(t, 45*time.Minute, poolCfg.MaxConnIdleTime)
	})

	t.Run("keeps defaults for zero values", func(t *testing.T) {
		poolCfg := &pgxpool.Config{MaxConns: 4}
		configurePool(poolCfg, PostgresConfig{})
		assert.Equal(t, int32(4), poolCfg.MaxConns)
	})
}

func TestRows(t *testing.T) {
	pockets := []docking.PocketRecord{{
		Structure: "/s/a.pdb", Rank: 1, Center: docking.Center{1, 2, 3}, Score: 9.5,
	}}
	rows := pocketRows("r1", pockets)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"r1", "/s/a.pdb", 1, 1.0, 2.0, 3.0, 9.5, (*float64)(nil), ""}, rows[0])

	results := []docking.DockingResult{
		{Structure: "/s/b.pdb", Rank: 2, Center: docking.Center{4, 5, 6}},
		{Structure: "/s/a.pdb", Rank: 1, Affinity: docking.Float64(-7.1), OutPath: "o", LogPath: "l"},
	}
	rrows := resultRows("r1", results)
	require.Len(t, rrows, 2)
	assert.Equal(t, 0, rrows[0][1])
	assert.Equal(t, "/s/b.pdb", rrows[0][2])
	assert.Equal(t, 1, rrows[1][1])
	assert.Equal(t, -7.1, *(rrows[1][6].(*float64)))
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullTime(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, *nullTime(now))

	assert.Nil(t, nullPH(docking.Ligand{}))
	assert.Equal(t, 7.4, *nullPH(docking.Ligand{Path: "l.pdbqt", PH: 7.4}))
}

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		require.NoError(t, WithTransaction(ctx, b, func(ctx context.Context, tx pgx.Tx) error { return nil }))
		assert.True(t, b.tx.committed)
		assert.False(t, b.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{}}
		err := WithTransaction(ctx, b, func(ctx context.Context, tx pgx.Tx) error { return fmt.Errorf("boom") })
		assert.EqualError(t, err, "boom")
		assert.True(t, b.tx.rolledBack)
		assert.False(t, b.tx.committed)
	})

	t.Run("begin failure", func(t *testing.T) {
		b := &fakeBeginner{err: fmt.Errorf("down")}
		err := WithTransaction(ctx, b, func(ctx context.Context, tx pgx.Tx) error { return nil })
		assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	})

	t.Run("commit failure", func(t *testing.T) {
		b := &fakeBeginner{tx: &fakeTx{commitErr: fmt.Errorf("serialization")}}
		err := WithTransaction(ctx, b, func(ctx context.Context, tx pgx.Tx) error { return nil })
		assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	})
}

func TestSaveRun_RequiresID(t *testing.T) {
	repo := NewResultRepository(nil, nil)
	err := repo.SaveRun(context.Background(), &docking.Run{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	err = repo.SaveRun(context.Background(), nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

//Personal.AI order the ending
