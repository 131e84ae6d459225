package db

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiva/tripplanner/migrations"
)

type recordingExecer struct {
	stmts  []string
	failOn int
}

func (r *recordingExecer) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	if r.failOn > 0 && len(r.stmts) == r.failOn {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	return pgconn.CommandTag{}, nil
}

func TestApplyMigrations_NameOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.up.sql": {Data: []byte("CREATE INDEX b;")},
		"001_create.up.sql":    {Data: []byte("CREATE TABLE a;")},
		"001_create.down.sql":  {Data: []byte("DROP TABLE a;")},
		"README.md":            {Data: []byte("docs")},
	}
	exec := &recordingExecer{}

	n, err := ApplyMigrations(context.Background(), exec, fsys)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"CREATE TABLE a;", "CREATE INDEX b;"}, exec.stmts)
}

func TestApplyMigrations_StopsOnFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.up.sql": {Data: []byte("ok")},
		"002_b.up.sql": {Data: []byte("bad")},
		"003_c.up.sql": {Data: []byte("never")},
	}
	exec := &recordingExecer{failOn: 2}

	n, err := ApplyMigrations(context.Background(), exec, fsys)
	assert.ErrorContains(t, err, "apply migration 002_b.up.sql")
	assert.Equal(t, 1, n)
	assert.Len(t, exec.stmts, 2)
}

func TestEmbeddedSchema(t *testing.T) {
	exec := &recordingExecer{}
	n, err := ApplyMigrations(context.Background(), exec, migrations.FS)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Contains(t, exec.stmts[0], "CREATE TABLE IF NOT EXISTS trip_plans")
	assert.Contains(t, exec.stmts[0], "CREATE TABLE IF NOT EXISTS bookings")
}
