package cli

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/execute"
	"github.com/roach88/upsql/internal/testutil"
)

// seedDatabase creates a SQLite file with one entity {1, "a", 3}.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.db")
	db, err := execute.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(testutil.EntitySchemaSQL)
	require.NoError(t, err)
	testutil.InsertEntity(t, db, testutil.Entity{Id: 1, Name: "a", Version: 3})
	return path
}

func loadVersion(t *testing.T, path, name string) int64 {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	return testutil.LoadEntity(t, db, name).Version
}

func TestExecUpsert(t *testing.T) {
	dsn := seedDatabase(t)

	out, err := runCLI(t, "exec", entitiesFile, "-c", "upsert_entity",
		"--driver", "sqlite3", "--dsn", dsn, "-p", "Name=a", "-p", "Version=1")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ upsert_entity: 1 row(s) affected")
	assert.Equal(t, int64(4), loadVersion(t, dsn, "a"))
}

func TestExecUpsertReturningJSON(t *testing.T) {
	dsn := seedDatabase(t)

	out, err := runCLI(t, "exec", entitiesFile, "-c", "upsert_returning",
		"--driver", "sqlite3", "--dsn", dsn, "-p", "Name=a", "-p", "Version=1", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Command string           `json:"command"`
			Rows    []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "upsert_returning", resp.Data.Command)
	require.Len(t, resp.Data.Rows, 1)
	assert.EqualValues(t, 1, resp.Data.Rows[0]["Id"])
	assert.EqualValues(t, 4, resp.Data.Rows[0]["Version"])
}

func TestExecReturningText(t *testing.T) {
	dsn := seedDatabase(t)

	out, err := runCLI(t, "exec", entitiesFile, "-c", "upsert_returning",
		"--driver", "sqlite3", "--dsn", dsn, "-p", "Name=b", "-p", "Version=9")
	require.NoError(t, err)
	assert.Contains(t, out, "upsert_returning: 1 row(s) returned")
	assert.Contains(t, out, "Id=2 Version=9")
}

func TestExecDelete(t *testing.T) {
	dsn := seedDatabase(t)

	out, err := runCLI(t, "exec", entitiesFile, "-c", "remove", "--dsn", dsn, "-p", "Id=1")
	require.NoError(t, err)
	assert.Contains(t, out, "remove: 1 row(s) affected")
}

func TestExecMissingParameter(t *testing.T) {
	dsn := seedDatabase(t)

	out, err := runCLI(t, "exec", entitiesFile, "-c", "upsert_entity", "--dsn", dsn, "-p", "Name=a")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E010]")
	assert.Contains(t, out, "@Version")
	assert.Equal(t, int64(3), loadVersion(t, dsn, "a"))
}

func TestExecErrors(t *testing.T) {
	dsn := seedDatabase(t)

	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{"no dsn", []string{"exec", entitiesFile, "-c", "remove"}, "E001", ExitCommandError},
		{"unknown command", []string{"exec", entitiesFile, "-c", "nope", "--dsn", dsn}, "E005", ExitCommandError},
		{"bad param", []string{"exec", entitiesFile, "-c", "remove", "--dsn", dsn, "-p", "Id"}, "E001", ExitCommandError},
		{"unknown driver", []string{"exec", entitiesFile, "-c", "remove", "--dsn", dsn, "--driver", "oracle"}, "E009", ExitFailure},
		{"spec error", []string{"exec", "testdata/invalid.yaml", "-c", "wrong_conflict", "--dsn", dsn}, "CONFLICT_COLUMN_NOT_INSERTED", ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestExecRequiresCommandFlag(t *testing.T) {
	_, err := runCLI(t, "exec", entitiesFile, "--dsn", "x.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command")
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"Name=a=b", "Version=3", "Ratio=0.5", "Active=true", "Note=null", " Spaced =x", "Label=NaN"})
	require.NoError(t, err)
	assert.Equal(t, execute.Params{
		"Name":    "a=b",
		"Version": int64(3),
		"Ratio":   0.5,
		"Active":  true,
		"Note":    nil,
		"Spaced":  "x",
		"Label":   "NaN",
	}, params)

	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
}
