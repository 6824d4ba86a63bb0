package expr

// Const wraps a literal value.
func Const(v any) Constant { return Constant{Value: v} }

// Null is the null literal.
func Null() Constant { return Constant{} }

func Add(l, r Node) Binary { return Binary{Op: OpAdd, Left: l, Right: r} }
func Sub(l, r Node) Binary { return Binary{Op: OpSubtract, Left: l, Right: r} }
func Mul(l, r Node) Binary { return Binary{Op: OpMultiply, Left: l, Right: r} }
func Div(l, r Node) Binary { return Binary{Op: OpDivide, Left: l, Right: r} }
func Eq(l, r Node) Binary  { return Binary{Op: OpEqual, Left: l, Right: r} }
func Ne(l, r Node) Binary  { return Binary{Op: OpNotEqual, Left: l, Right: r} }
func Gt(l, r Node) Binary  { return Binary{Op: OpGreater, Left: l, Right: r} }
func Ge(l, r Node) Binary  { return Binary{Op: OpGreaterOrEqual, Left: l, Right: r} }
func Lt(l, r Node) Binary  { return Binary{Op: OpLess, Left: l, Right: r} }
func Le(l, r Node) Binary  { return Binary{Op: OpLessOrEqual, Left: l, Right: r} }
func And(l, r Node) Binary { return Binary{Op: OpAnd, Left: l, Right: r} }
func Or(l, r Node) Binary  { return Binary{Op: OpOr, Left: l, Right: r} }

// If builds a conditional expression.
func If(test, ifTrue, ifFalse Node) Conditional {
	return Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}
}

// Bind pairs a name with an expression.
func Bind(name string, value Node) Binding {
	return Binding{Name: name, Value: value}
}

// NewRecord builds a record from bindings, keeping their order.
func NewRecord(bindings ...Binding) Record {
	return Record{Bindings: bindings}
}
