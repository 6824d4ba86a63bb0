package dialect

import (
	"bytes"
	"fmt"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/metadata"
	"github.com/roach88/upsql/internal/sqlgen"
)

// OnConflict generates PostgreSQL-style statements:
//
//	insert into t as T (cols)
//	values (vals)
//	on conflict (keys) do update set ...
//	where ...
//	returning ...
//
// The previous row is aliased T. There is no lock hint; the conflict
// clause is atomic in the database.
type OnConflict struct {
	quoter sqlgen.Quoter
}

// NewOnConflict creates an OnConflict generator. Identifiers are quoted
// ANSI style unless WithQuoter supplies another quoter.
func NewOnConflict(opts ...Option) *OnConflict {
	return &OnConflict{quoter: buildOptions(sqlgen.DoubleQuotes{}, opts).quoter}
}

func (g *OnConflict) Name() string { return "on-conflict" }

func (g *OnConflict) Delete(table *metadata.Table, cmd command.Delete) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("delete from ", tableName(r.Quoter(), table), " where ")
	s.render(func(b *bytes.Buffer) error { return r.Predicate(b, cmd.Where, sqlgen.RoleNone) })
	return s.result(g.Name(), cmd.Kind())
}

func (g *OnConflict) Insert(table *metadata.Table, cmd command.Insert) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("insert into ", tableName(r.Quoter(), table), " (")
	s.render(func(b *bytes.Buffer) error { return r.ColumnList(b, cmd.Insert) })
	s.write(")\nvalues (")
	s.render(func(b *bytes.Buffer) error { return r.ValueList(b, cmd.Insert) })
	s.write(")")
	if cmd.Output != nil {
		s.write("\nreturning ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "") })
	}
	return s.result(g.Name(), cmd.Kind())
}

func (g *OnConflict) Update(table *metadata.Table, cmd command.Update) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("update ", tableName(r.Quoter(), table), " as ", sqlgen.PreviousRowAlias, " set ")
	s.render(func(b *bytes.Buffer) error { return r.AssignmentList(b, cmd.Update, sqlgen.RolePreviousRow) })
	if cmd.Where != nil {
		s.write("\nwhere ")
		s.render(func(b *bytes.Buffer) error { return r.Predicate(b, *cmd.Where, sqlgen.RolePreviousRow) })
	}
	if cmd.Output != nil {
		s.write("\nreturning ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "") })
	}
	return s.result(g.Name(), cmd.Kind())
}

func (g *OnConflict) Upsert(table *metadata.Table, cmd command.Upsert) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("insert into ", tableName(r.Quoter(), table), " as ", sqlgen.PreviousRowAlias, " (")
	s.render(func(b *bytes.Buffer) error { return r.ColumnList(b, cmd.Insert) })
	s.write(")\nvalues (")
	s.render(func(b *bytes.Buffer) error { return r.ValueList(b, cmd.Insert) })
	s.write(")\non conflict (")
	s.render(func(b *bytes.Buffer) error { return r.ConflictColumns(b, cmd.ConflictColumns) })
	s.write(") do update set ")
	s.render(func(b *bytes.Buffer) error { return r.AssignmentList(b, cmd.Update, sqlgen.RolePreviousRow) })
	if cmd.Where != nil {
		s.write("\nwhere ")
		s.render(func(b *bytes.Buffer) error { return r.Predicate(b, *cmd.Where, sqlgen.RolePreviousRow) })
	}
	if cmd.Output != nil {
		s.write("\nreturning ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "") })
	}
	return s.result(g.Name(), cmd.Kind())
}
