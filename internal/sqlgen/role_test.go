package sqlgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/expr"
)

func TestResolveRole_FromMap(t *testing.T) {
	row, params := expr.NewSlot("row"), expr.NewSlot("params")
	roles := RoleMap{row: RolePreviousRow, params: RoleArgument}

	role, err := ResolveRole(row.Field("Version"), roles)
	require.NoError(t, err)
	assert.Equal(t, RolePreviousRow, role)

	role, err = ResolveRole(params.Field("Version"), roles)
	require.NoError(t, err)
	assert.Equal(t, RoleArgument, role)
}

func TestResolveRole_EmptyMapIsArgument(t *testing.T) {
	row := expr.NewSlot("row")

	role, err := ResolveRole(row.Field("Version"), nil)
	require.NoError(t, err)
	assert.Equal(t, RoleArgument, role)

	role, err = ResolveRole(row.Field("Version"), RoleMap{})
	require.NoError(t, err)
	assert.Equal(t, RoleArgument, role)
}

func TestResolveRole_PointerField(t *testing.T) {
	row := expr.NewSlot("row")
	f := row.Field("Version")

	role, err := ResolveRole(&f, RoleMap{row: RoleCandidateRow})
	require.NoError(t, err)
	assert.Equal(t, RoleCandidateRow, role)
}

func TestResolveRole_Errors(t *testing.T) {
	row, stranger := expr.NewSlot("row"), expr.NewSlot("row")

	_, err := ResolveRole(stranger.Field("Version"), RoleMap{row: RolePreviousRow})
	require.Error(t, err)
	var rre *RoleResolutionError
	require.True(t, errors.As(err, &rre))
	assert.Equal(t, "Version", rre.Field)
	assert.True(t, expr.IsSpecError(err))

	_, err = ResolveRole(expr.Const(1), RoleMap{row: RolePreviousRow})
	require.Error(t, err)
	assert.True(t, errors.As(err, &rre))
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "none", RoleNone.String())
	assert.Equal(t, "candidate-row", RoleCandidateRow.String())
	assert.Equal(t, "previous-row", RolePreviousRow.String())
	assert.Equal(t, "argument", RoleArgument.String())
	assert.Equal(t, "Role(9)", Role(9).String())
}

func TestQuoters(t *testing.T) {
	assert.Equal(t, `"Entities"`, DoubleQuotes{}.QuoteName("Entities"))
	assert.Equal(t, `"a""b"`, DoubleQuotes{}.QuoteName(`a"b`))
	assert.Equal(t, `"app"."Entities"`, DoubleQuotes{}.QuoteTableName("app", "Entities"))
	assert.Equal(t, `"Entities"`, DoubleQuotes{}.QuoteTableName("", "Entities"))

	assert.Equal(t, `[Entities]`, Brackets{}.QuoteName("Entities"))
	assert.Equal(t, `[a]]b]`, Brackets{}.QuoteName("a]b"))
	assert.Equal(t, `[dbo].[Entities]`, Brackets{}.QuoteTableName("dbo", "Entities"))
}
