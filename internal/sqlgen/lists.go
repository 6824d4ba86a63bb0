package sqlgen

import (
	"bytes"

	"github.com/roach88/upsql/internal/expr"
)

const listSeparator = ", "

// list renders items with the trailing-separator policy: the separator is
// appended after every element and the final one is cut. Empty input is
// a specification error. buf is untouched on error.
func list[T any](buf *bytes.Buffer, part string, items []T, each func(*bytes.Buffer, T) error) error {
	if len(items) == 0 {
		return expr.NewSpecError(expr.ErrCodeEmptyList, part, "%s has no elements", part)
	}

	var scratch bytes.Buffer
	for _, item := range items {
		if err := each(&scratch, item); err != nil {
			return err
		}
		scratch.WriteString(listSeparator)
	}
	scratch.Truncate(scratch.Len() - len(listSeparator))

	buf.Write(scratch.Bytes())
	return nil
}

// ColumnList renders the quoted target columns of an insert in binding
// order, e.g. "Name", "Version".
func (r *Renderer) ColumnList(buf *bytes.Buffer, spec expr.InsertSpec) error {
	return list(buf, "insert columns", spec.Values.Bindings, func(b *bytes.Buffer, binding expr.Binding) error {
		col, err := r.table.Column(binding.Name)
		if err != nil {
			return err
		}
		b.WriteString(r.quoter.QuoteName(col))
		return nil
	})
}

// ValueList renders the value expressions of an insert. No role map is
// supplied, so every field access becomes a placeholder.
func (r *Renderer) ValueList(buf *bytes.Buffer, spec expr.InsertSpec) error {
	return list(buf, "insert values", spec.Values.Bindings, func(b *bytes.Buffer, binding expr.Binding) error {
		return r.Render(b, binding.Value, nil)
	})
}

// AssignmentList renders col = expr pairs. The update's row slot renders
// in rowRole and its params slot as placeholders.
func (r *Renderer) AssignmentList(buf *bytes.Buffer, spec expr.UpdateSpec, rowRole Role) error {
	roles := rowRoles(spec.Row, spec.Params, rowRole)
	return list(buf, "update assignments", spec.Values.Bindings, func(b *bytes.Buffer, binding expr.Binding) error {
		col, err := r.table.Column(binding.Name)
		if err != nil {
			return err
		}
		b.WriteString(r.quoter.QuoteName(col))
		b.WriteString(" = ")
		return r.Render(b, binding.Value, roles)
	})
}

// Predicate renders a predicate body with the same two-role mapping as
// AssignmentList.
func (r *Renderer) Predicate(buf *bytes.Buffer, spec expr.PredicateSpec, rowRole Role) error {
	if spec.Body == nil {
		return expr.NewSpecError(expr.ErrCodeMissingPart, "where", "predicate has no body")
	}
	return r.Render(buf, spec.Body, rowRoles(spec.Row, spec.Params, rowRole))
}

// Projection renders "<qualifier><quoted column> as <alias>" items. Each
// output binding must be a plain field access on the output row; the
// binding name is the alias.
func (r *Renderer) Projection(buf *bytes.Buffer, spec expr.OutputSpec, qualifier string) error {
	return list(buf, "output", spec.Values.Bindings, func(b *bytes.Buffer, binding expr.Binding) error {
		f, ok := expr.Normalize(binding.Value).(expr.Field)
		if !ok || f.Owner != spec.Row {
			return expr.NewSpecError(expr.ErrCodeInvalidOutput, "output."+binding.Name,
				"output binding must be a field of the output row")
		}
		if !IsIdentifier(binding.Name) {
			return expr.NewSpecError(expr.ErrCodeInvalidParameter, "output."+binding.Name,
				"%q is not a valid output alias", binding.Name)
		}
		col, err := r.table.Column(f.Name)
		if err != nil {
			return err
		}
		b.WriteString(qualifier)
		b.WriteString(r.quoter.QuoteName(col))
		b.WriteString(" as ")
		b.WriteString(binding.Name)
		return nil
	})
}

// ConflictColumns renders the quoted columns of a conflict target.
func (r *Renderer) ConflictColumns(buf *bytes.Buffer, fields []string) error {
	return list(buf, "conflict columns", fields, func(b *bytes.Buffer, field string) error {
		col, err := r.table.Column(field)
		if err != nil {
			return err
		}
		b.WriteString(r.quoter.QuoteName(col))
		return nil
	})
}

func rowRoles(row, params *expr.Slot, rowRole Role) RoleMap {
	roles := RoleMap{}
	if row != nil {
		roles[row] = rowRole
	}
	if params != nil {
		roles[params] = RoleArgument
	}
	return roles
}
