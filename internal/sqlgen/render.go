// Package sqlgen renders expression trees and lists of bindings to SQL
// fragments. It knows nothing about command shapes; dialect generators
// assemble its fragments into statements.
//
// All output is deterministic and the package keeps no state between
// calls, so a Renderer may be shared by concurrent generators.
package sqlgen

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/upsql/internal/expr"
	"github.com/roach88/upsql/internal/metadata"
)

// Qualifiers prepended to fields rendered in a row role.
const (
	PreviousRowAlias  = "T"
	CandidateRowAlias = "S"
)

// Renderer renders expressions against one table's metadata.
type Renderer struct {
	table  *metadata.Table
	quoter Quoter
}

// NewRenderer creates a Renderer.
func NewRenderer(table *metadata.Table, quoter Quoter) *Renderer {
	return &Renderer{table: table, quoter: quoter}
}

// Quoter returns the identifier quoter used by the renderer.
func (r *Renderer) Quoter() Quoter {
	return r.quoter
}

// Render appends the SQL text of n to buf. On error buf is left
// untouched.
func (r *Renderer) Render(buf *bytes.Buffer, n expr.Node, roles RoleMap) error {
	var scratch bytes.Buffer
	if err := r.render(&scratch, n, roles); err != nil {
		return err
	}
	buf.Write(scratch.Bytes())
	return nil
}

func (r *Renderer) render(buf *bytes.Buffer, n expr.Node, roles RoleMap) error {
	if n == nil {
		return expr.Unsupported(nil, "missing expression")
	}

	switch node := expr.Normalize(n).(type) {
	case expr.Field:
		return r.renderField(buf, node, roles)
	case expr.Constant:
		return renderConstant(buf, node)
	case expr.Binary:
		return r.renderBinary(buf, node, roles)
	case expr.Conditional:
		return r.renderConditional(buf, node, roles)
	case expr.Record:
		return expr.Unsupported(node, "record is only legal at the root of a specification")
	default:
		return expr.Unsupported(n, "construct is outside the expression model")
	}
}

func (r *Renderer) renderField(buf *bytes.Buffer, f expr.Field, roles RoleMap) error {
	role, err := ResolveRole(f, roles)
	if err != nil {
		return err
	}

	switch role {
	case RoleNone, RolePreviousRow:
		col, err := r.table.Column(f.Name)
		if err != nil {
			return err
		}
		if role == RolePreviousRow {
			buf.WriteString(PreviousRowAlias)
			buf.WriteByte('.')
		}
		buf.WriteString(r.quoter.QuoteName(col))
	case RoleCandidateRow:
		name, err := r.parameterName(f.Name)
		if err != nil {
			return err
		}
		buf.WriteString(CandidateRowAlias)
		buf.WriteByte('.')
		buf.WriteString(r.quoter.QuoteName(name))
	case RoleArgument:
		name, err := r.parameterName(f.Name)
		if err != nil {
			return err
		}
		buf.WriteByte('@')
		buf.WriteString(name)
	default:
		return &RoleResolutionError{Slot: f.Owner, Field: f.Name, Reason: "unknown role " + role.String()}
	}
	return nil
}

// parameterName returns the placeholder name for a field, checked to be a
// plain identifier.
func (r *Renderer) parameterName(field string) (string, error) {
	name := r.table.ParameterName(field)
	if !IsIdentifier(name) {
		return "", expr.NewSpecError(expr.ErrCodeInvalidParameter, field,
			"%q is not a valid parameter name", name)
	}
	return name, nil
}

func (r *Renderer) renderBinary(buf *bytes.Buffer, b expr.Binary, roles RoleMap) error {
	tok, ok := b.Op.Token()
	if !ok {
		return expr.Unsupported(b, "operator %s", b.Op)
	}
	buf.WriteByte('(')
	if err := r.render(buf, b.Left, roles); err != nil {
		return err
	}
	buf.WriteByte(' ')
	buf.WriteString(tok)
	buf.WriteByte(' ')
	if err := r.render(buf, b.Right, roles); err != nil {
		return err
	}
	buf.WriteByte(')')
	return nil
}

func (r *Renderer) renderConditional(buf *bytes.Buffer, c expr.Conditional, roles RoleMap) error {
	buf.WriteString("case when ")
	if err := r.render(buf, c.Test, roles); err != nil {
		return err
	}
	buf.WriteString(" then ")
	if err := r.render(buf, c.IfTrue, roles); err != nil {
		return err
	}
	buf.WriteString(" else ")
	if err := r.render(buf, c.IfFalse, roles); err != nil {
		return err
	}
	buf.WriteString(" end")
	return nil
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// renderConstant writes a literal. Nullable wrappers are unwrapped first:
// nil pointers and invalid sql.Null* values render NULL.
func renderConstant(buf *bytes.Buffer, c expr.Constant) error {
	v, err := unwrapConstant(c.Value)
	if err != nil {
		return expr.Unsupported(c, "%v", err)
	}

	switch val := v.(type) {
	case nil:
		buf.WriteString("NULL")
		return nil
	case decimal.Decimal:
		buf.WriteString(val.String())
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			buf.WriteByte('1')
		} else {
			buf.WriteByte('0')
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return expr.Unsupported(c, "non-finite number %v", f)
		}
		if rv.Kind() == reflect.Float32 {
			buf.WriteString(decimal.NewFromFloat32(float32(f)).String())
		} else {
			buf.WriteString(decimal.NewFromFloat(f).String())
		}
	case reflect.String:
		buf.WriteByte('\'')
		buf.WriteString(strings.ReplaceAll(rv.String(), "'", "''"))
		buf.WriteByte('\'')
	default:
		return expr.Unsupported(c, "constant of type %T", v)
	}
	return nil
}

func unwrapConstant(v any) (any, error) {
	for depth := 0; depth < 8; depth++ {
		if v == nil {
			return nil, nil
		}
		switch val := v.(type) {
		case decimal.Decimal:
			return val, nil
		case *decimal.Decimal:
			if val == nil {
				return nil, nil
			}
			return *val, nil
		case decimal.NullDecimal:
			if !val.Valid {
				return nil, nil
			}
			return val.Decimal, nil
		}

		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, nil
			}
			if !rv.Type().Implements(valuerType) {
				v = rv.Elem().Interface()
				continue
			}
		}
		if valuer, ok := v.(driver.Valuer); ok {
			next, err := valuer.Value()
			if err != nil {
				return nil, err
			}
			v = next
			continue
		}
		return v, nil
	}
	return nil, errTooDeep
}

var errTooDeep = errors.New("constant nests too many nullable wrappers")

// IsIdentifier reports whether s is a plain identifier usable as a
// placeholder name or output alias: [A-Za-z_][A-Za-z0-9_]*.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
