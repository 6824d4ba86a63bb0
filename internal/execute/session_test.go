package execute

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/expr"
	"github.com/roach88/upsql/internal/testutil"
)

func newSQLiteSession(t *testing.T, opts ...Option) (*Session, *testutil.Entity) {
	t.Helper()
	db := testutil.OpenEntityDB(t)
	seed := testutil.Entity{Id: 1, Name: "a", Version: 3}
	testutil.InsertEntity(t, db, seed)

	opts = append([]Option{WithIDGenerator(testutil.NewFixedIDGenerator(""))}, opts...)
	s, err := NewSession("sqlite3", NewSQLExecutor(db), opts...)
	require.NoError(t, err)
	return s, &seed
}

func TestSession_UpsertBumpsVersionOnConflict(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenEntityDB(t)
	testutil.InsertEntity(t, db, testutil.Entity{Id: 1, Name: "a", Version: 3})

	s, err := NewSession("sqlite3", NewSQLExecutor(db))
	require.NoError(t, err)

	n, err := s.Exec(ctx, testutil.EntityTable(), testutil.EntityUpsert(), map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(4), testutil.LoadEntity(t, db, "a").Version)
}

func TestSession_UpsertPredicateSuppressesUpdate(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenEntityDB(t)
	testutil.InsertEntity(t, db, testutil.Entity{Id: 1, Name: "a", Version: 3})

	s, err := NewSession("sqlite3", NewSQLExecutor(db))
	require.NoError(t, err)

	cmd := testutil.EntityUpsert()
	cmd.Where = testutil.NegativeVersion()

	n, err := s.Exec(ctx, testutil.EntityTable(), cmd, map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Equal(t, int64(3), testutil.LoadEntity(t, db, "a").Version)
}

func TestSession_UpsertInsertsNewRow(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenEntityDB(t)

	s, err := NewSession("sqlite3", NewSQLExecutor(db))
	require.NoError(t, err)

	n, err := s.Exec(ctx, testutil.EntityTable(), testutil.EntityUpsert(), struct {
		Name    string
		Version int64
	}{"b", 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(7), testutil.LoadEntity(t, db, "b").Version)
}

func TestPrepared_QueryReturnsOutput(t *testing.T) {
	ctx := context.Background()
	s, seed := newSQLiteSession(t)

	cmd := testutil.EntityUpsert()
	cmd.Output = testutil.Output("Id", "Version")

	p, err := s.Prepare(testutil.EntityTable(), cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Version"}, p.Parameters())
	assert.Equal(t, command.KindUpsert, p.Kind())

	row, err := p.QueryFirst(ctx, map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)
	assert.EqualValues(t, seed.Id, row["Id"])
	assert.EqualValues(t, 4, row["Version"])

	row, err = p.QueryFirst(ctx, map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)
	assert.EqualValues(t, 5, row["Version"])
}

func TestPrepared_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteSession(t)
	table := testutil.EntityTable()
	byID := testutil.ByID()

	rows, err := s.Query(ctx, table, command.Update{
		Update: testutil.BumpVersion(),
		Where:  &byID,
		Output: testutil.Output("Version"),
	}, map[string]any{"Id": 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 4, rows[0]["Version"])

	n, err := s.Exec(ctx, table, command.Delete{Where: testutil.ByID()}, map[string]any{"Id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Exec(ctx, table, command.Delete{Where: testutil.ByID()}, map[string]any{"Id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPrepared_QueryFirstNoRows(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteSession(t)

	cmd := testutil.EntityUpsert()
	cmd.Where = testutil.NegativeVersion()
	cmd.Output = testutil.Output("Id")

	p, err := s.Prepare(testutil.EntityTable(), cmd)
	require.NoError(t, err)

	row, err := p.QueryFirstOrDefault(ctx, map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)
	assert.Nil(t, row)

	_, err = p.QueryFirst(ctx, map[string]any{"Name": "a", "Version": 1})
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestPrepared_MissingParameter(t *testing.T) {
	s, _ := newSQLiteSession(t)

	_, err := s.Exec(context.Background(), testutil.EntityTable(), testutil.EntityUpsert(), map[string]any{"Name": "a"})
	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, []string{"Version"}, missing.Names)
}

func TestSession_SpecErrorNotExecuted(t *testing.T) {
	s, _ := newSQLiteSession(t)

	cmd := testutil.EntityUpsert()
	cmd.ConflictColumns = nil

	_, err := s.Exec(context.Background(), testutil.EntityTable(), cmd, nil)
	code, ok := expr.SpecErrorCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, expr.ErrCodeMissingConflictColumns, code)
}

func TestSession_UnknownProvider(t *testing.T) {
	_, err := NewSession("oracle", NewSQLExecutor(nil))
	assert.True(t, errors.Is(err, dialect.ErrUnknownProvider))

	_, err = NewSession("sqlite3", nil)
	assert.Error(t, err)
}

func TestSession_CustomRegistry(t *testing.T) {
	r := dialect.NewRegistry()
	require.NoError(t, r.Register("custom", dialect.NewMerge()))

	s, err := NewSession("custom", NewSQLExecutor(nil), WithRegistry(r))
	require.NoError(t, err)
	assert.Equal(t, "merge", s.Generator().Name())
	assert.Equal(t, "custom", s.Provider())
}

func TestSession_LogsExecutionID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ids := testutil.NewSequenceIDGenerator()

	s, _ := newSQLiteSession(t, WithLogger(logger), WithIDGenerator(ids))

	_, err := s.Exec(context.Background(), testutil.EntityTable(), testutil.EntityUpsert(), map[string]any{"Name": "a", "Version": 1})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "command prepared")
	assert.Contains(t, out, "exec_id=exec-1")
	assert.Contains(t, out, "rows_affected=1")
	assert.Equal(t, int64(1), ids.Current())
}
