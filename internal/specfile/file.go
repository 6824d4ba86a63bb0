package specfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/upsql/internal/metadata"
)

// Format is the syntax of a command file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unrecognized command file extension %q", filepath.Ext(path))
	}
}

// File is a parsed command file.
type File struct {
	Path     string       `yaml:"-"`
	Table    TableDef     `yaml:"table"`
	Commands []CommandDef `yaml:"commands"`
}

// TableDef describes the target table. Columns maps logical field names
// to column names; a list of names maps each field to itself.
type TableDef struct {
	Name    string  `yaml:"name"`
	Schema  string  `yaml:"schema"`
	Columns Columns `yaml:"columns"`
}

// Columns maps logical field names to column names.
type Columns map[string]string

func (c *Columns) UnmarshalYAML(node *yaml.Node) error {
	out := make(Columns)
	switch node.Kind {
	case yaml.SequenceNode:
		for _, n := range node.Content {
			name := normalizeName(n.Value)
			out[name] = name
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			out[normalizeName(node.Content[i].Value)] = normalizeName(node.Content[i+1].Value)
		}
	default:
		return fmt.Errorf("line %d: columns must be a mapping or a list", node.Line)
	}
	*c = out
	return nil
}

// Load reads and parses the command file at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read command file: %w", err)
	}
	f, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a command file. CUE input is evaluated and exported to
// JSON first so both formats share one decoder and keep field order.
func Parse(data []byte, format Format) (*File, error) {
	switch format {
	case FormatYAML:
	case FormatCUE:
		v := cuecontext.New().CompileBytes(data)
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("compile CUE: %w", err)
		}
		js, err := v.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("export CUE: %w", err)
		}
		data = js
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := f.check(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) check() error {
	if f.Table.Name == "" {
		return fmt.Errorf("table.name is required")
	}
	if len(f.Table.Columns) == 0 {
		return fmt.Errorf("table.columns is required")
	}
	seen := make(map[string]bool, len(f.Commands))
	for i, c := range f.Commands {
		if c.Name == "" {
			return fmt.Errorf("commands[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("commands[%d]: duplicate command name %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// Metadata returns the table metadata described by the file.
func (f *File) Metadata() *metadata.Table {
	t := metadata.NewTable(normalizeName(f.Table.Name), f.Table.Columns)
	if f.Table.Schema != "" {
		t = t.WithSchema(normalizeName(f.Table.Schema))
	}
	return t
}

// Lookup returns the command with the given name.
func (f *File) Lookup(name string) (CommandDef, bool) {
	for _, c := range f.Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandDef{}, false
}

// normalizeName puts names read from files into NFC so that visually
// identical identifiers compare equal.
func normalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func (s Scope) names() string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
