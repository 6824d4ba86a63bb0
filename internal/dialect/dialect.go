// Package dialect assembles command specifications into complete SQL
// statements for one database dialect.
//
// Two strategies are provided:
//   - OnConflict: INSERT ... ON CONFLICT DO UPDATE with RETURNING
//     (PostgreSQL, SQLite)
//   - Merge: MERGE ... WITH (HOLDLOCK) with OUTPUT (SQL Server)
//
// Generators are stateless. Every call validates the command first and
// returns no text on failure. Identical inputs produce byte-identical
// text.
//
// Placeholders in the generated text are @Name, where Name is the
// logical field name of the referenced parameter. The execute package
// binds arguments under those names.
package dialect

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/metadata"
	"github.com/roach88/upsql/internal/sqlgen"
)

// Generator produces command text for one dialect.
type Generator interface {
	// Name identifies the dialect strategy, e.g. "on-conflict".
	Name() string

	Delete(table *metadata.Table, cmd command.Delete) (string, error)
	Insert(table *metadata.Table, cmd command.Insert) (string, error)
	Update(table *metadata.Table, cmd command.Update) (string, error)
	Upsert(table *metadata.Table, cmd command.Upsert) (string, error)
}

// Option configures a generator.
type Option func(*options)

type options struct {
	quoter sqlgen.Quoter
}

// WithQuoter sets the identifier quoter used for table and column names
// and for the MERGE source-row aliases. A nil quoter is ignored.
func WithQuoter(q sqlgen.Quoter) Option {
	return func(o *options) {
		if q != nil {
			o.quoter = q
		}
	}
}

func buildOptions(def sqlgen.Quoter, opts []Option) options {
	o := options{quoter: def}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ErrNilCommand is returned by Generate for a nil command, including a
// nil command pointer.
var ErrNilCommand = errors.New("cannot generate nil command")

// Generate dispatches cmd to the matching Generator method.
func Generate(g Generator, table *metadata.Table, cmd command.Command) (string, error) {
	if cmd == nil {
		return "", ErrNilCommand
	}

	switch c := cmd.(type) {
	case command.Delete:
		return g.Delete(table, c)
	case *command.Delete:
		if c == nil {
			return "", ErrNilCommand
		}
		return g.Delete(table, *c)
	case command.Insert:
		return g.Insert(table, c)
	case *command.Insert:
		if c == nil {
			return "", ErrNilCommand
		}
		return g.Insert(table, *c)
	case command.Update:
		return g.Update(table, c)
	case *command.Update:
		if c == nil {
			return "", ErrNilCommand
		}
		return g.Update(table, *c)
	case command.Upsert:
		return g.Upsert(table, c)
	case *command.Upsert:
		if c == nil {
			return "", ErrNilCommand
		}
		return g.Upsert(table, *c)
	default:
		return "", fmt.Errorf("unsupported command type: %T", cmd)
	}
}

// prepare validates inputs shared by every generator method.
func prepare(table *metadata.Table, cmd command.Command) error {
	if err := table.Validate(); err != nil {
		return err
	}
	return cmd.Validate()
}

// statement accumulates command text and remembers the first error, so
// assembly code can read as a straight sequence of clauses.
type statement struct {
	buf bytes.Buffer
	err error
}

func (s *statement) write(parts ...string) {
	if s.err != nil {
		return
	}
	for _, p := range parts {
		s.buf.WriteString(p)
	}
}

func (s *statement) render(fn func(*bytes.Buffer) error) {
	if s.err != nil {
		return
	}
	s.err = fn(&s.buf)
}

func (s *statement) result(dialect string, kind command.Kind) (string, error) {
	if s.err != nil {
		return "", fmt.Errorf("%s %s: %w", dialect, kind, s.err)
	}
	return s.buf.String(), nil
}

func tableName(q sqlgen.Quoter, table *metadata.Table) string {
	return q.QuoteTableName(table.Schema, table.Name)
}
