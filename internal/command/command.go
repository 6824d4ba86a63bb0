// Package command defines the command specifications a dialect generator
// turns into SQL: delete, insert, update and upsert.
//
// Commands are plain values. Once handed to a generator they are treated
// as immutable; every generator validates a command before emitting any
// text.
package command

import "github.com/roach88/upsql/internal/expr"

// Kind names a command variant.
type Kind string

const (
	KindDelete Kind = "delete"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindUpsert Kind = "upsert"
)

// Command is a command specification.
//
// This is a sealed interface - only types in this package implement it.
type Command interface {
	Kind() Kind
	Validate() error
	commandNode() // Marker method - seals interface to this package
}

// Delete removes the rows matching Where. Deletes have no output clause.
type Delete struct {
	Where expr.PredicateSpec
}

func (Delete) commandNode() {}
func (Delete) Kind() Kind   { return KindDelete }

// Insert adds one row.
type Insert struct {
	Insert expr.InsertSpec
	Output *expr.OutputSpec // optional
}

func (Insert) commandNode() {}
func (Insert) Kind() Kind   { return KindInsert }

// Update modifies the rows matching Where, or every row when Where is nil.
type Update struct {
	Update expr.UpdateSpec
	Where  *expr.PredicateSpec // optional
	Output *expr.OutputSpec    // optional
}

func (Update) commandNode() {}
func (Update) Kind() Kind   { return KindUpdate }

// Upsert inserts one row, or updates the existing row identified by the
// conflict columns. Where restricts which existing rows are updated.
type Upsert struct {
	Insert          expr.InsertSpec
	ConflictColumns []string // logical field names, a subset of Insert's bindings
	Update          expr.UpdateSpec
	Where           *expr.PredicateSpec // optional
	Output          *expr.OutputSpec    // optional
}

func (Upsert) commandNode() {}
func (Upsert) Kind() Kind   { return KindUpsert }
