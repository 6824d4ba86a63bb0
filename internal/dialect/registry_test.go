package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Providers(t *testing.T) {
	r := NewDefaultRegistry()

	assert.Equal(t, []string{"mssql", "pgx", "postgres", "sqlite3", "sqlserver"}, r.Providers())

	for _, p := range []string{"postgres", "pgx", "sqlite3"} {
		g, err := r.Lookup(p)
		require.NoError(t, err)
		assert.Equal(t, "on-conflict", g.Name(), p)
	}
	for _, p := range []string{"sqlserver", "mssql"} {
		g, err := r.Lookup(p)
		require.NoError(t, err)
		assert.Equal(t, "merge", g.Name(), p)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	_, err := NewDefaultRegistry().Lookup("oracle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProvider))
	assert.Contains(t, err.Error(), "oracle")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Providers())

	require.NoError(t, r.Register("cockroach", NewOnConflict()))
	g, err := r.Lookup("cockroach")
	require.NoError(t, err)
	assert.Equal(t, "on-conflict", g.Name())

	assert.Error(t, r.Register("cockroach", NewMerge()))
	assert.Error(t, r.Register("", NewMerge()))
	assert.Error(t, r.Register("x", nil))
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
