package execute

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Params holds parameter values keyed by logical field name.
type Params map[string]any

// MissingParameterError reports placeholders that have no value.
type MissingParameterError struct {
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing value for @%s", strings.Join(e.Names, ", @"))
}

// ParamsOf converts v into Params. v may be nil, Params, a
// map[string]any, or a struct (or pointer to one) whose exported fields
// become parameters under their Go field names.
func ParamsOf(v any) (Params, error) {
	switch p := v.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return copyParams(p), nil
	case map[string]any:
		return copyParams(p), nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Params{}, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("parameters must be a map or struct, got %T", v)
	}

	rt := rv.Type()
	out := make(Params, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		out[f.Name] = rv.Field(i).Interface()
	}
	return out, nil
}

func copyParams(m map[string]any) Params {
	out := make(Params, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// bind picks the values for names, in order. Every name must be present.
func bind(names []string, params Params) ([]sql.NamedArg, error) {
	args := make([]sql.NamedArg, 0, len(names))
	var missing []string
	for _, name := range names {
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		args = append(args, sql.Named(name, v))
	}
	if len(missing) > 0 {
		return nil, &MissingParameterError{Names: missing}
	}
	return args, nil
}
