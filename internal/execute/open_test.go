package execute

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/testutil"
)

func TestOpenSQLite_Pragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()
	exec, closeFn, err := Connect(ctx, "sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer closeFn()

	_, err = exec.Exec(ctx, testutil.EntitySchemaSQL, nil)
	require.NoError(t, err)

	s, err := NewSession("sqlite3", exec)
	require.NoError(t, err)
	n, err := s.Exec(ctx, testutil.EntityTable(), testutil.EntityUpsert(), map[string]any{"Name": "x", "Version": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, _, err := Connect(context.Background(), "oracle", "")
	assert.Error(t, err)
}
