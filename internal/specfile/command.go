package specfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/expr"
)

// Assignment is one name: expression entry of a record.
type Assignment struct {
	Name string
	Expr string
	Line int
}

// Assignments is an ordered record definition.
type Assignments []Assignment

func (a *Assignments) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of field: expression", node.Line)
	}
	out := make(Assignments, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: value of %q must be an expression", v.Line, k.Value)
		}
		out = append(out, Assignment{Name: normalizeName(k.Value), Expr: v.Value, Line: v.Line})
	}
	*a = out
	return nil
}

// OutputDef is either a list of row fields projected under their own
// names or a mapping of alias: expression.
type OutputDef struct {
	Fields      []string
	Assignments Assignments
}

func (o *OutputDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, n := range node.Content {
			o.Fields = append(o.Fields, normalizeName(n.Value))
		}
		return nil
	case yaml.MappingNode:
		return o.Assignments.UnmarshalYAML(node)
	default:
		return fmt.Errorf("line %d: output must be a list of fields or a mapping", node.Line)
	}
}

// CommandDef is one command as written in a file.
type CommandDef struct {
	Name     string      `yaml:"name"`
	Kind     string      `yaml:"kind"`
	Insert   Assignments `yaml:"insert"`
	Update   Assignments `yaml:"update"`
	Conflict []string    `yaml:"conflict"`
	Where    string      `yaml:"where"`
	Output   *OutputDef  `yaml:"output"`
}

// Build converts the definition into a command. Expressions are parsed
// here; the command itself is validated by the generator.
func (d CommandDef) Build() (command.Command, error) {
	cmd, err := d.build()
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", d.Name, err)
	}
	return cmd, nil
}

func (d CommandDef) build() (command.Command, error) {
	switch command.Kind(strings.ToLower(d.Kind)) {
	case command.KindDelete:
		if err := d.forbid("insert", "update", "conflict", "output"); err != nil {
			return nil, err
		}
		where, err := d.predicate()
		if err != nil {
			return nil, err
		}
		if where == nil {
			return nil, fmt.Errorf("where is required")
		}
		return command.Delete{Where: *where}, nil

	case command.KindInsert:
		if err := d.forbid("update", "conflict", "where"); err != nil {
			return nil, err
		}
		ins, err := d.insert()
		if err != nil {
			return nil, err
		}
		out, err := d.output()
		if err != nil {
			return nil, err
		}
		return command.Insert{Insert: ins, Output: out}, nil

	case command.KindUpdate:
		if err := d.forbid("insert", "conflict"); err != nil {
			return nil, err
		}
		upd, err := d.update()
		if err != nil {
			return nil, err
		}
		where, err := d.predicate()
		if err != nil {
			return nil, err
		}
		out, err := d.output()
		if err != nil {
			return nil, err
		}
		return command.Update{Update: upd, Where: where, Output: out}, nil

	case command.KindUpsert:
		ins, err := d.insert()
		if err != nil {
			return nil, err
		}
		upd, err := d.update()
		if err != nil {
			return nil, err
		}
		where, err := d.predicate()
		if err != nil {
			return nil, err
		}
		out, err := d.output()
		if err != nil {
			return nil, err
		}
		conflict := make([]string, len(d.Conflict))
		for i, c := range d.Conflict {
			conflict[i] = normalizeName(c)
		}
		return command.Upsert{Insert: ins, ConflictColumns: conflict, Update: upd, Where: where, Output: out}, nil

	default:
		return nil, fmt.Errorf("unknown kind %q (want delete, insert, update or upsert)", d.Kind)
	}
}

// forbid rejects sections that the command kind does not use.
func (d CommandDef) forbid(parts ...string) error {
	for _, p := range parts {
		var set bool
		switch p {
		case "insert":
			set = len(d.Insert) > 0
		case "update":
			set = len(d.Update) > 0
		case "conflict":
			set = len(d.Conflict) > 0
		case "where":
			set = d.Where != ""
		case "output":
			set = d.Output != nil
		}
		if set {
			return fmt.Errorf("%s is not allowed for %s commands", p, d.Kind)
		}
	}
	return nil
}

func (d CommandDef) insert() (expr.InsertSpec, error) {
	params := expr.NewSlot("params")
	rec, err := record("insert", d.Insert, Scope{"params": params})
	return expr.InsertSpec{Params: params, Values: rec}, err
}

func (d CommandDef) update() (expr.UpdateSpec, error) {
	row, params := expr.NewSlot("row"), expr.NewSlot("params")
	rec, err := record("update", d.Update, Scope{"row": row, "params": params})
	return expr.UpdateSpec{Row: row, Params: params, Values: rec}, err
}

func (d CommandDef) predicate() (*expr.PredicateSpec, error) {
	if strings.TrimSpace(d.Where) == "" {
		return nil, nil
	}
	row, params := expr.NewSlot("row"), expr.NewSlot("params")
	body, err := ParseExpression(d.Where, Scope{"row": row, "params": params})
	if err != nil {
		return nil, fmt.Errorf("where: %w", err)
	}
	return &expr.PredicateSpec{Row: row, Params: params, Body: body}, nil
}

func (d CommandDef) output() (*expr.OutputSpec, error) {
	if d.Output == nil {
		return nil, nil
	}
	if len(d.Output.Assignments) == 0 {
		out := expr.OutputFields(d.Output.Fields...)
		return &out, nil
	}
	row := expr.NewSlot("row")
	rec, err := record("output", d.Output.Assignments, Scope{"row": row})
	if err != nil {
		return nil, err
	}
	return &expr.OutputSpec{Row: row, Values: rec}, nil
}

func record(part string, as Assignments, scope Scope) (expr.Record, error) {
	bindings := make([]expr.Binding, 0, len(as))
	for _, a := range as {
		n, err := ParseExpression(a.Expr, scope)
		if err != nil {
			return expr.Record{}, fmt.Errorf("%s.%s (line %d): %w", part, a.Name, a.Line, err)
		}
		bindings = append(bindings, expr.Bind(a.Name, n))
	}
	return expr.NewRecord(bindings...), nil
}
