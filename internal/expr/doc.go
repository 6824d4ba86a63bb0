// Package expr provides the closed expression model that upsql compiles
// to SQL.
//
// ARCHITECTURE:
//
// Commands are described by small lambda-shaped specifications whose
// bodies are expression trees:
//
//	[command spec] → [expr tree] → [sqlgen renderer] → [dialect text]
//
// The model is deliberately tiny. A node is one of:
//   - Field: access to a named field on a bound slot (row or parameters)
//   - Constant: null, boolean, numeric or string literal
//   - Binary: arithmetic, comparison or logical operator
//   - Conditional: test ? ifTrue : ifFalse
//   - Record: ordered name → expression bindings (root of insert, update
//     and output specifications only)
//
// Anything else (function calls, sub-queries, unary operators) cannot be
// built with this package and is rejected by the renderer.
//
// SEALED INTERFACES:
//
// Node is a sealed interface using the marker method pattern. Only types
// in this package implement it, so renderers can switch exhaustively and
// treat the default case as an unsupported construct.
//
// SLOTS:
//
// A Slot stands for one bound lambda parameter. Identity is the pointer:
// two slots with the same name are different binders. The renderer maps
// slots (never names) to rendering roles, so `row.Version` and
// `params.Version` render differently even though the field name matches.
//
// Example:
//
//	upd := expr.NewUpdate(func(row, params *expr.Slot) expr.Record {
//	    return expr.NewRecord(
//	        expr.Bind("Version", expr.Add(row.Field("Version"), expr.Const(1))),
//	    )
//	})
package expr
