package dialect

import (
	"bytes"
	"fmt"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/expr"
	"github.com/roach88/upsql/internal/metadata"
	"github.com/roach88/upsql/internal/sqlgen"
)

// Merge generates SQL Server-style statements. Upserts become
//
//	merge t with (holdlock) as T
//	using (select @p as [p], ...) as S
//	on (T.[c] = S.[p] and ...)
//	when matched [and pred] then update set ...
//	when not matched then insert (cols) values (vals)
//	output inserted.[c] as N, ...;
//
// HOLDLOCK is always emitted. Every statement ends with ';'.
type Merge struct {
	quoter sqlgen.Quoter
}

// NewMerge creates a Merge generator. Identifiers are bracket-quoted
// unless WithQuoter supplies another quoter.
func NewMerge(opts ...Option) *Merge {
	return &Merge{quoter: buildOptions(sqlgen.Brackets{}, opts).quoter}
}

func (g *Merge) Name() string { return "merge" }

func (g *Merge) Delete(table *metadata.Table, cmd command.Delete) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("delete from ", tableName(r.Quoter(), table), " where ")
	s.render(func(b *bytes.Buffer) error { return r.Predicate(b, cmd.Where, sqlgen.RoleNone) })
	s.write(";")
	return s.result(g.Name(), cmd.Kind())
}

func (g *Merge) Insert(table *metadata.Table, cmd command.Insert) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("insert into ", tableName(r.Quoter(), table), " (")
	s.render(func(b *bytes.Buffer) error { return r.ColumnList(b, cmd.Insert) })
	s.write(")")
	if cmd.Output != nil {
		s.write("\noutput ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "inserted.") })
	}
	s.write("\nvalues (")
	s.render(func(b *bytes.Buffer) error { return r.ValueList(b, cmd.Insert) })
	s.write(");")
	return s.result(g.Name(), cmd.Kind())
}

// Update renders the row slot with no qualifier: a plain update has no
// target alias.
func (g *Merge) Update(table *metadata.Table, cmd command.Update) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("update ", tableName(r.Quoter(), table), " set ")
	s.render(func(b *bytes.Buffer) error { return r.AssignmentList(b, cmd.Update, sqlgen.RoleNone) })
	if cmd.Output != nil {
		s.write("\noutput ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "inserted.") })
	}
	if cmd.Where != nil {
		s.write("\nwhere ")
		s.render(func(b *bytes.Buffer) error { return r.Predicate(b, *cmd.Where, sqlgen.RoleNone) })
	}
	s.write(";")
	return s.result(g.Name(), cmd.Kind())
}

func (g *Merge) Upsert(table *metadata.Table, cmd command.Upsert) (string, error) {
	if err := prepare(table, cmd); err != nil {
		return "", fmt.Errorf("%s %s: %w", g.Name(), cmd.Kind(), err)
	}
	r := sqlgen.NewRenderer(table, g.quoter)

	var s statement
	s.write("merge ", tableName(r.Quoter(), table), " with (holdlock) as ", sqlgen.PreviousRowAlias, "\nusing (select ")
	s.render(func(b *bytes.Buffer) error { return g.sourceList(b, table, cmd) })
	s.write(") as ", sqlgen.CandidateRowAlias, "\non (")
	s.render(func(b *bytes.Buffer) error { return g.matchCondition(b, r, table, cmd) })
	s.write(")\nwhen matched")
	if cmd.Where != nil {
		s.write(" and ")
		s.render(func(b *bytes.Buffer) error { return matchedPredicate(b, r, *cmd.Where) })
	}
	s.write(" then update set ")
	s.render(func(b *bytes.Buffer) error { return r.AssignmentList(b, cmd.Update, sqlgen.RolePreviousRow) })
	s.write("\nwhen not matched then insert (")
	s.render(func(b *bytes.Buffer) error { return r.ColumnList(b, cmd.Insert) })
	s.write(") values (")
	s.render(func(b *bytes.Buffer) error { return r.ValueList(b, cmd.Insert) })
	s.write(")")
	if cmd.Output != nil {
		s.write("\noutput ")
		s.render(func(b *bytes.Buffer) error { return r.Projection(b, *cmd.Output, "inserted.") })
	}
	s.write(";")
	return s.result(g.Name(), cmd.Kind())
}

// conflictBindings returns the insert bindings that assign conflict
// columns, in insert order.
func conflictBindings(cmd command.Upsert) []expr.Binding {
	keys := make(map[string]bool, len(cmd.ConflictColumns))
	for _, c := range cmd.ConflictColumns {
		keys[c] = true
	}
	var bindings []expr.Binding
	for _, b := range cmd.Insert.Values.Bindings {
		if keys[b.Name] {
			bindings = append(bindings, b)
		}
	}
	return bindings
}

type paramKey struct {
	slot  *expr.Slot
	field string
}

// sourceList declares each distinct parameter referenced by the conflict
// bindings exactly once: @p as [p]. Two distinct parameters mapping to the
// same placeholder name are ambiguous. Upsert validation already rejects
// fields of any slot other than the insert parameters, so through Upsert
// this check only guards the placeholder contract.
func (g *Merge) sourceList(buf *bytes.Buffer, table *metadata.Table, cmd command.Upsert) error {
	seen := make(map[paramKey]bool)
	byName := make(map[string]paramKey)
	var names []string

	for _, b := range conflictBindings(cmd) {
		for _, f := range expr.Fields(b.Value) {
			key := paramKey{slot: f.Owner, field: f.Name}
			if seen[key] {
				continue
			}
			name := table.ParameterName(f.Name)
			if prev, ok := byName[name]; ok && prev != key {
				return expr.NewSpecError(expr.ErrCodeAmbiguousParameter, "conflict."+b.Name,
					"parameters %s.%s and %s.%s share placeholder @%s",
					prev.slot.Name(), prev.field, f.Owner.Name(), f.Name, name)
			}
			if !sqlgen.IsIdentifier(name) {
				return expr.NewSpecError(expr.ErrCodeInvalidParameter, f.Name,
					"%q is not a valid parameter name", name)
			}
			seen[key] = true
			byName[name] = key
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return expr.NewSpecError(expr.ErrCodeEmptyList, "conflict",
			"conflict columns reference no parameters")
	}

	var scratch bytes.Buffer
	for _, name := range names {
		scratch.WriteString("@")
		scratch.WriteString(name)
		scratch.WriteString(" as ")
		scratch.WriteString(g.quoter.QuoteName(name))
		scratch.WriteString(", ")
	}
	scratch.Truncate(scratch.Len() - len(", "))
	buf.Write(scratch.Bytes())
	return nil
}

// matchCondition renders T.[col] = <value> for each conflict binding with
// the insert parameters read from the source row S.
func (g *Merge) matchCondition(buf *bytes.Buffer, r *sqlgen.Renderer, table *metadata.Table, cmd command.Upsert) error {
	roles := sqlgen.RoleMap{cmd.Insert.Params: sqlgen.RoleCandidateRow}

	var scratch bytes.Buffer
	for _, b := range conflictBindings(cmd) {
		col, err := table.Column(b.Name)
		if err != nil {
			return err
		}
		scratch.WriteString(sqlgen.PreviousRowAlias)
		scratch.WriteString(".")
		scratch.WriteString(g.quoter.QuoteName(col))
		scratch.WriteString(" = ")
		if err := r.Render(&scratch, b.Value, roles); err != nil {
			return err
		}
		scratch.WriteString(" and ")
	}
	scratch.Truncate(scratch.Len() - len(" and "))
	buf.Write(scratch.Bytes())
	return nil
}

// matchedPredicate renders the update predicate of a merge. Binary
// expressions already carry their parentheses; anything else is wrapped.
func matchedPredicate(buf *bytes.Buffer, r *sqlgen.Renderer, where expr.PredicateSpec) error {
	if _, ok := expr.Normalize(where.Body).(expr.Binary); ok {
		return r.Predicate(buf, where, sqlgen.RolePreviousRow)
	}
	var scratch bytes.Buffer
	scratch.WriteString("(")
	if err := r.Predicate(&scratch, where, sqlgen.RolePreviousRow); err != nil {
		return err
	}
	scratch.WriteString(")")
	buf.Write(scratch.Bytes())
	return nil
}
