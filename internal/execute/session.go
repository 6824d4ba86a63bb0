package execute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/upsql/internal/command"
	"github.com/roach88/upsql/internal/dialect"
	"github.com/roach88/upsql/internal/metadata"
)

// ErrNoRows is returned by QueryFirst when the command produced no rows.
var ErrNoRows = errors.New("execute: no rows in result")

// IDGenerator produces execution ids that correlate the log lines of one
// statement execution.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 execution ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Session binds a provider's generator to an executor.
//
// Thread-safety: a Session is immutable after construction and safe for
// concurrent use if its Executor is.
type Session struct {
	provider string
	gen      dialect.Generator
	exec     Executor
	registry *dialect.Registry
	logger   *slog.Logger
	ids      IDGenerator
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithIDGenerator sets the execution id source. The default is
// UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// WithRegistry resolves the provider in r instead of dialect.Default().
func WithRegistry(r *dialect.Registry) Option {
	return func(s *Session) { s.registry = r }
}

// NewSession looks up the generator registered for provider.
func NewSession(provider string, exec Executor, opts ...Option) (*Session, error) {
	if exec == nil {
		return nil, fmt.Errorf("session for %q: nil executor", provider)
	}
	s := &Session{
		provider: provider,
		exec:     exec,
		registry: dialect.Default(),
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	gen, err := s.registry.Lookup(provider)
	if err != nil {
		return nil, err
	}
	s.gen = gen
	return s, nil
}

// Provider returns the provider name the session was created for.
func (s *Session) Provider() string { return s.provider }

// Generator returns the dialect generator in use.
func (s *Session) Generator() dialect.Generator { return s.gen }

// Prepare generates the text of cmd once. The result can be executed any
// number of times.
func (s *Session) Prepare(table *metadata.Table, cmd command.Command) (*Prepared, error) {
	text, err := dialect.Generate(s.gen, table, cmd)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("command prepared",
		"provider", s.provider,
		"dialect", s.gen.Name(),
		"kind", cmd.Kind(),
		"table", table.Name,
	)
	return &Prepared{
		session: s,
		kind:    cmd.Kind(),
		text:    text,
		names:   Placeholders(text),
	}, nil
}

// Exec prepares and executes cmd in one step.
func (s *Session) Exec(ctx context.Context, table *metadata.Table, cmd command.Command, params any) (int64, error) {
	p, err := s.Prepare(table, cmd)
	if err != nil {
		return 0, err
	}
	return p.Exec(ctx, params)
}

// Query prepares cmd and returns its output rows.
func (s *Session) Query(ctx context.Context, table *metadata.Table, cmd command.Command, params any) ([]Row, error) {
	p, err := s.Prepare(table, cmd)
	if err != nil {
		return nil, err
	}
	return p.Query(ctx, params)
}

// Prepared is generated command text ready for execution.
type Prepared struct {
	session *Session
	kind    command.Kind
	text    string
	names   []string
}

// Text returns the generated command text.
func (p *Prepared) Text() string { return p.text }

// Kind returns the kind of the prepared command.
func (p *Prepared) Kind() command.Kind { return p.kind }

// Parameters returns the placeholder names the text expects, in order of
// first appearance.
func (p *Prepared) Parameters() []string {
	return append([]string(nil), p.names...)
}

// Exec runs the command and returns the number of affected rows.
func (p *Prepared) Exec(ctx context.Context, params any) (int64, error) {
	id, args, err := p.begin(params)
	if err != nil {
		return 0, err
	}

	n, err := p.session.exec.Exec(ctx, p.text, args)
	if err != nil {
		p.session.logger.Error("command failed", "exec_id", id, "kind", p.kind, "error", err)
		return 0, fmt.Errorf("exec %s: %w", p.kind, err)
	}
	p.session.logger.Info("command executed", "exec_id", id, "kind", p.kind, "rows_affected", n)
	return n, nil
}

// Query runs the command and returns its output rows. Commands without
// an output clause return no rows.
func (p *Prepared) Query(ctx context.Context, params any) ([]Row, error) {
	id, args, err := p.begin(params)
	if err != nil {
		return nil, err
	}

	rows, err := p.session.exec.Query(ctx, p.text, args)
	if err != nil {
		p.session.logger.Error("command failed", "exec_id", id, "kind", p.kind, "error", err)
		return nil, fmt.Errorf("query %s: %w", p.kind, err)
	}
	p.session.logger.Info("command executed", "exec_id", id, "kind", p.kind, "rows", len(rows))
	return rows, nil
}

// QueryFirst returns the first output row, or ErrNoRows.
func (p *Prepared) QueryFirst(ctx context.Context, params any) (Row, error) {
	row, err := p.QueryFirstOrDefault(ctx, params)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNoRows
	}
	return row, nil
}

// QueryFirstOrDefault returns the first output row, or nil when there is
// none.
func (p *Prepared) QueryFirstOrDefault(ctx context.Context, params any) (Row, error) {
	rows, err := p.Query(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (p *Prepared) begin(params any) (string, []sql.NamedArg, error) {
	values, err := ParamsOf(params)
	if err != nil {
		return "", nil, fmt.Errorf("%s parameters: %w", p.kind, err)
	}
	args, err := bind(p.names, values)
	if err != nil {
		return "", nil, fmt.Errorf("%s parameters: %w", p.kind, err)
	}
	id := p.session.ids.Generate()
	p.session.logger.Debug("executing command",
		"exec_id", id,
		"kind", p.kind,
		"statement", p.text,
		"parameters", p.names,
	)
	return id, args, nil
}
