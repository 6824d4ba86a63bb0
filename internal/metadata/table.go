// Package metadata describes the table a command targets: its name,
// optional schema and the mapping from logical field names to physical
// column names.
package metadata

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/roach88/upsql/internal/expr"
)

// Table is read-only column metadata for one entity.
type Table struct {
	Schema  string            // optional schema qualifier
	Name    string            // physical table name
	Columns map[string]string // logical field → physical column
}

// NewTable creates a Table. The columns map is copied.
func NewTable(name string, columns map[string]string) *Table {
	cols := make(map[string]string, len(columns))
	for k, v := range columns {
		cols[k] = v
	}
	return &Table{Name: name, Columns: cols}
}

// WithSchema returns a copy of the table qualified by schema.
func (t *Table) WithSchema(schema string) *Table {
	clone := NewTable(t.Name, t.Columns)
	clone.Schema = schema
	return clone
}

// Column returns the physical column for a logical field.
func (t *Table) Column(field string) (string, error) {
	col, ok := t.Columns[field]
	if !ok {
		return "", expr.NewSpecError(expr.ErrCodeUnknownField, field,
			"field %q has no column mapping in table %s", field, t.Name)
	}
	return col, nil
}

// ParameterName returns the placeholder name for a logical field. It is
// the field name verbatim; execution binds arguments under this name.
func (t *Table) ParameterName(field string) string {
	return field
}

// Fields returns the logical field names in sorted order.
func (t *Table) Fields() []string {
	fields := make([]string, 0, len(t.Columns))
	for f := range t.Columns {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Validate checks that the table is usable by a generator.
func (t *Table) Validate() error {
	if t == nil {
		return expr.NewSpecError(expr.ErrCodeMissingPart, "table", "table metadata is nil")
	}
	if strings.TrimSpace(t.Name) == "" {
		return expr.NewSpecError(expr.ErrCodeMissingPart, "table", "table name is empty")
	}
	if len(t.Columns) == 0 {
		return expr.NewSpecError(expr.ErrCodeMissingPart, "table", "table %s has no columns", t.Name)
	}
	return nil
}

// Option configures FromStruct.
type Option func(*Table)

// WithName overrides the derived table name.
func WithName(name string) Option {
	return func(t *Table) { t.Name = name }
}

// InSchema sets the table schema.
func InSchema(schema string) Option {
	return func(t *Table) { t.Schema = schema }
}

// FromStruct derives table metadata from a struct type.
//
// Every exported field maps to a column named after the field unless a
// `db:"column"` tag overrides it; `db:"-"` skips the field. The table name
// defaults to the pluralized type name (Entity → Entities).
func FromStruct(v any, opts ...Option) (*Table, error) {
	typ := reflect.TypeOf(v)
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("metadata: expected struct, got %T", v)
	}

	t := &Table{
		Name:    inflect.Pluralize(typ.Name()),
		Columns: make(map[string]string),
	}

	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		col := sf.Name
		if tag, ok := sf.Tag.Lookup("db"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				col = name
			}
		}
		t.Columns[sf.Name] = col
	}

	for _, opt := range opts {
		opt(t)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return t, nil
}
