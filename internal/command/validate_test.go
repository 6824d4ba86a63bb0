package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/upsql/internal/expr"
)

func entityInsert() expr.InsertSpec {
	return expr.NewInsert(func(p *expr.Slot) expr.Record {
		return expr.NewRecord(
			expr.Bind("Name", p.Field("Name")),
			expr.Bind("Version", p.Field("Version")),
		)
	})
}

func bumpVersion() expr.UpdateSpec {
	return expr.NewUpdate(func(row, _ *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Version", expr.Add(row.Field("Version"), expr.Const(1))))
	})
}

func validUpsert() Upsert {
	return Upsert{
		Insert:          entityInsert(),
		ConflictColumns: []string{"Name"},
		Update:          bumpVersion(),
	}
}

func assertSpecCode(t *testing.T, err error, code expr.SpecErrorCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := expr.SpecErrorCodeOf(err)
	require.True(t, ok, "expected SpecError, got %v", err)
	assert.Equal(t, code, got)
}

func TestCommand_Kinds(t *testing.T) {
	cmds := map[Kind]Command{
		KindDelete: Delete{},
		KindInsert: Insert{},
		KindUpdate: Update{},
		KindUpsert: Upsert{},
	}
	for kind, cmd := range cmds {
		assert.Equal(t, kind, cmd.Kind())
	}
}

func TestUpsert_Valid(t *testing.T) {
	cmd := validUpsert()
	where := expr.NewPredicate(func(row, _ *expr.Slot) expr.Node {
		return expr.Lt(row.Field("Version"), expr.Const(0))
	})
	out := expr.OutputFields("Id", "Version")
	cmd.Where = &where
	cmd.Output = &out

	assert.NoError(t, cmd.Validate())
}

func TestUpsert_ConflictColumns(t *testing.T) {
	cmd := validUpsert()
	cmd.ConflictColumns = nil
	assertSpecCode(t, cmd.Validate(), expr.ErrCodeMissingConflictColumns)

	cmd.ConflictColumns = []string{"Name", "Name"}
	assertSpecCode(t, cmd.Validate(), expr.ErrCodeDuplicateConflictColumn)

	cmd.ConflictColumns = []string{"Id"}
	assertSpecCode(t, cmd.Validate(), expr.ErrCodeConflictColumnNotInserted)
}

func TestInsert_RecordRules(t *testing.T) {
	assertSpecCode(t, Insert{}.Validate(), expr.ErrCodeEmptyRecord)

	dup := expr.NewInsert(func(p *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Name", p.Field("Name")), expr.Bind("Name", p.Field("Other")))
	})
	assertSpecCode(t, Insert{Insert: dup}.Validate(), expr.ErrCodeDuplicateBinding)

	nested := expr.NewInsert(func(p *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Name", expr.NewRecord(expr.Bind("x", p.Field("Name")))))
	})
	assertSpecCode(t, Insert{Insert: nested}.Validate(), expr.ErrCodeNestedRecord)

	missing := expr.InsertSpec{Values: expr.NewRecord(expr.Bind("Name", nil))}
	assertSpecCode(t, Insert{Insert: missing}.Validate(), expr.ErrCodeMissingPart)
}

func TestInsert_ForeignSlot(t *testing.T) {
	stranger := expr.NewSlot("params")
	ins := expr.NewInsert(func(p *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Name", stranger.Field("Name")))
	})

	assertSpecCode(t, Insert{Insert: ins}.Validate(), expr.ErrCodeForeignSlot)
}

func TestUpdate_SlotsAllowed(t *testing.T) {
	upd := expr.NewUpdate(func(row, p *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Version", expr.Add(row.Field("Version"), p.Field("Delta"))))
	})
	assert.NoError(t, Update{Update: upd}.Validate())

	insertParams := entityInsert().Params
	foreign := expr.NewUpdate(func(row, _ *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Version", insertParams.Field("Version")))
	})
	assertSpecCode(t, Update{Update: foreign}.Validate(), expr.ErrCodeForeignSlot)
}

func TestUpdate_PredicateRules(t *testing.T) {
	where := expr.PredicateSpec{Row: expr.NewSlot("row")}
	assertSpecCode(t, Update{Update: bumpVersion(), Where: &where}.Validate(), expr.ErrCodeMissingPart)

	stranger := expr.NewSlot("row")
	foreign := expr.NewPredicate(func(_, _ *expr.Slot) expr.Node {
		return expr.Eq(stranger.Field("Id"), expr.Const(1))
	})
	assertSpecCode(t, Update{Update: bumpVersion(), Where: &foreign}.Validate(), expr.ErrCodeForeignSlot)
}

func TestDelete_Valid(t *testing.T) {
	cmd := Delete{Where: expr.NewPredicate(func(row, p *expr.Slot) expr.Node {
		return expr.Eq(row.Field("Id"), p.Field("Id"))
	})}
	assert.NoError(t, cmd.Validate())

	assertSpecCode(t, Delete{}.Validate(), expr.ErrCodeMissingPart)
}

func TestOutput_Rules(t *testing.T) {
	computed := expr.NewOutput(func(row *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Next", expr.Add(row.Field("Version"), expr.Const(1))))
	})
	assertSpecCode(t, Insert{Insert: entityInsert(), Output: &computed}.Validate(), expr.ErrCodeInvalidOutput)

	stranger := expr.NewSlot("row")
	foreign := expr.NewOutput(func(_ *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Id", stranger.Field("Id")))
	})
	assertSpecCode(t, Insert{Insert: entityInsert(), Output: &foreign}.Validate(), expr.ErrCodeInvalidOutput)

	empty := expr.OutputSpec{Row: expr.NewSlot("row")}
	assertSpecCode(t, Insert{Insert: entityInsert(), Output: &empty}.Validate(), expr.ErrCodeEmptyRecord)

	noRow := expr.OutputSpec{}
	assertSpecCode(t, Insert{Insert: entityInsert(), Output: &noRow}.Validate(), expr.ErrCodeMissingPart)

	dup := expr.OutputFields("Id", "Id")
	assertSpecCode(t, Insert{Insert: entityInsert(), Output: &dup}.Validate(), expr.ErrCodeDuplicateBinding)
}
