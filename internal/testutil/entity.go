package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/metadata"
)

// Entity is the row shape used across tests.
type Entity struct {
	Id      int64
	Name    string
	Version int64
}

// EntityTableName is the physical table name of Entity.
const EntityTableName = "Entities"

// EntitySchemaSQL creates the Entities table in SQLite. The unique index
// on Name is the conflict target of upserts.
const EntitySchemaSQL = `CREATE TABLE "Entities" (
	"Id" INTEGER PRIMARY KEY,
	"Name" TEXT NOT NULL UNIQUE,
	"Version" INTEGER NOT NULL
)`

// EntitySchemaPostgresSQL is EntitySchemaSQL for PostgreSQL.
const EntitySchemaPostgresSQL = `CREATE TABLE "Entities" (
	"Id" BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
	"Name" TEXT NOT NULL UNIQUE,
	"Version" BIGINT NOT NULL
)`

// EntityTable returns column metadata for Entity with identity mapping.
func EntityTable() *metadata.Table {
	return metadata.NewTable(EntityTableName, map[string]string{
		"Id":      "Id",
		"Name":    "Name",
		"Version": "Version",
	})
}

// OpenEntityDB opens a fresh SQLite database in a temp dir with the
// Entities table created. The database is closed when the test ends.
func OpenEntityDB(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "entities.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetMaxOpenConns(1)

	_, err = db.ExecContext(context.Background(), EntitySchemaSQL)
	require.NoError(t, err)
	return db
}

// InsertEntity seeds a row.
func InsertEntity(t testing.TB, db *sql.DB, e Entity) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO "Entities" ("Id", "Name", "Version") VALUES (?, ?, ?)`, e.Id, e.Name, e.Version)
	require.NoError(t, err)
}

// LoadEntity reads the row with the given name.
func LoadEntity(t testing.TB, db *sql.DB, name string) Entity {
	t.Helper()
	var e Entity
	err := db.QueryRowContext(context.Background(),
		`SELECT "Id", "Name", "Version" FROM "Entities" WHERE "Name" = ?`, name).Scan(&e.Id, &e.Name, &e.Version)
	require.NoError(t, err)
	return e
}
