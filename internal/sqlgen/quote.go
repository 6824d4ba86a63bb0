package sqlgen

import (
	"strings"

	"github.com/lib/pq"
)

// Quoter quotes identifiers for one dialect.
type Quoter interface {
	QuoteName(name string) string
	QuoteTableName(schema, name string) string
}

// DoubleQuotes quotes identifiers ANSI style: "name", with embedded
// quotes doubled. Used by PostgreSQL and SQLite.
type DoubleQuotes struct{}

func (DoubleQuotes) QuoteName(name string) string {
	return pq.QuoteIdentifier(name)
}

func (q DoubleQuotes) QuoteTableName(schema, name string) string {
	return qualify(q, schema, name)
}

// Brackets quotes identifiers SQL Server style: [name], with embedded
// closing brackets doubled.
type Brackets struct{}

func (Brackets) QuoteName(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (q Brackets) QuoteTableName(schema, name string) string {
	return qualify(q, schema, name)
}

func qualify(q Quoter, schema, name string) string {
	if schema == "" {
		return q.QuoteName(name)
	}
	return q.QuoteName(schema) + "." + q.QuoteName(name)
}
