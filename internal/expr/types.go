package expr

import "fmt"

// Node is an expression tree node.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// Slot is the identity handle of one bound lambda parameter.
// Compare slots by pointer, never by name.
type Slot struct {
	name string
}

// NewSlot creates a fresh slot. The name is only used in diagnostics.
func NewSlot(name string) *Slot {
	return &Slot{name: name}
}

// Name returns the diagnostic name of the slot.
func (s *Slot) Name() string {
	if s == nil {
		return "<nil>"
	}
	return s.name
}

func (s *Slot) String() string {
	return s.Name()
}

// Field returns an access to the named field of the slot.
func (s *Slot) Field(name string) Field {
	return Field{Owner: s, Name: name}
}

// Field accesses a named field on a slot, e.g. row.Version.
type Field struct {
	Owner *Slot  // binder the field belongs to
	Name  string // logical field name
}

func (Field) exprNode() {}

func (f Field) String() string {
	return f.Owner.Name() + "." + f.Name
}

// Constant is a literal value.
//
// Supported values: nil, bool, Go integer and float kinds, decimal.Decimal,
// string, pointers to any of those, and driver.Valuer implementations
// producing one of those. Other values are rejected at render time.
type Constant struct {
	Value any
}

func (Constant) exprNode() {}

// Op is a binary operator.
type Op int

const (
	OpAdd Op = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpAnd
	OpOr
)

var opTokens = map[Op]string{
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpEqual:          "=",
	OpNotEqual:       "<>",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpAnd:            "and",
	OpOr:             "or",
}

// Token returns the SQL spelling of the operator and whether it is known.
func (o Op) Token() (string, bool) {
	tok, ok := opTokens[o]
	return tok, ok
}

func (o Op) String() string {
	if tok, ok := opTokens[o]; ok {
		return tok
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
}

func (Binary) exprNode() {}

// Conditional evaluates to IfTrue when Test holds and IfFalse otherwise.
type Conditional struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
}

func (Conditional) exprNode() {}

// Binding pairs a target name with the expression that produces its value.
type Binding struct {
	Name  string
	Value Node
}

// Record is an ordered list of bindings. Order is significant: it is the
// column order of the generated text.
//
// A Record is only legal as the root of an insert, update or output
// specification.
type Record struct {
	Bindings []Binding
}

func (Record) exprNode() {}

// Names returns the binding names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.Bindings))
	for i, b := range r.Bindings {
		names[i] = b.Name
	}
	return names
}

// Lookup returns the binding with the given name.
func (r Record) Lookup(name string) (Binding, bool) {
	for _, b := range r.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// Normalize converts pointer variants (*Field, *Binary, ...) to their value
// form so callers can switch on value types only. Nil pointers and
// unknown nodes are returned unchanged.
func Normalize(n Node) Node {
	switch v := n.(type) {
	case *Field:
		if v != nil {
			return *v
		}
	case *Constant:
		if v != nil {
			return *v
		}
	case *Binary:
		if v != nil {
			return *v
		}
	case *Conditional:
		if v != nil {
			return *v
		}
	case *Record:
		if v != nil {
			return *v
		}
	}
	return n
}
