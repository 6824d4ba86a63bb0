// Package execute runs generated command text against a database.
//
// A Session pairs a provider name with the dialect generator registered
// for it and an Executor that talks to the driver. Commands are prepared
// once into text and can then be executed many times with different
// parameters:
//
//	s, _ := execute.NewSession("sqlite3", execute.NewSQLExecutor(db))
//	p, _ := s.Prepare(table, upsert)
//	n, err := p.Exec(ctx, map[string]any{"Name": "a", "Version": 1})
//
// Parameters are bound by name. Every @Name placeholder in the text must
// have a value; extra values are ignored.
package execute
