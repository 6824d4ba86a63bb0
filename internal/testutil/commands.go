package testutil

import (
	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/expr"
	"github.com/roach88/upsql/internal/metadata"
)

// EntityInsert assigns Name and Version from the parameters.
func EntityInsert() expr.InsertSpec {
	return expr.NewInsert(func(p *expr.Slot) expr.Record {
		return expr.NewRecord(
			expr.Bind("Name", p.Field("Name")),
			expr.Bind("Version", p.Field("Version")),
		)
	})
}

// BumpVersion sets Version = previous Version + 1.
func BumpVersion() expr.UpdateSpec {
	return expr.NewUpdate(func(row, _ *expr.Slot) expr.Record {
		return expr.NewRecord(expr.Bind("Version", expr.Add(row.Field("Version"), expr.Const(1))))
	})
}

// NegativeVersion is the predicate row.Version < 0, which never holds for
// seeded rows.
func NegativeVersion() *expr.PredicateSpec {
	p := expr.NewPredicate(func(row, _ *expr.Slot) expr.Node {
		return expr.Lt(row.Field("Version"), expr.Const(0))
	})
	return &p
}

// ByID is the predicate row.Id = params.Id.
func ByID() expr.PredicateSpec {
	return expr.NewPredicate(func(row, p *expr.Slot) expr.Node {
		return expr.Eq(row.Field("Id"), p.Field("Id"))
	})
}

// Output projects the named fields under their own names.
func Output(fields ...string) *expr.OutputSpec {
	out := expr.OutputFields(fields...)
	return &out
}

// EntityUpsert is the upsert keyed on Name that bumps Version on
// conflict.
func EntityUpsert() command.Upsert {
	return command.Upsert{
		Insert:          EntityInsert(),
		ConflictColumns: []string{"Name"},
		Update:          BumpVersion(),
	}
}

// TagTable has two conflict columns that are both filled from one
// parameter.
func TagTable() *metadata.Table {
	return metadata.NewTable("Tags", map[string]string{
		"Name":  "Name",
		"Slug":  "Slug",
		"Count": "Count",
	})
}

// TagUpsert inserts Name and Slug from params.Name and bumps Count on
// conflict.
func TagUpsert() command.Upsert {
	return command.Upsert{
		Insert: expr.NewInsert(func(p *expr.Slot) expr.Record {
			return expr.NewRecord(
				expr.Bind("Name", p.Field("Name")),
				expr.Bind("Slug", p.Field("Name")),
				expr.Bind("Count", expr.Const(1)),
			)
		}),
		ConflictColumns: []string{"Name", "Slug"},
		Update: expr.NewUpdate(func(row, _ *expr.Slot) expr.Record {
			return expr.NewRecord(expr.Bind("Count", expr.Add(row.Field("Count"), expr.Const(1))))
		}),
	}
}
