package specfile

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	"github.com/roach88/upsql/internal/expr"
)

// Scope maps the identifiers an expression may use to their slots.
type Scope map[string]*expr.Slot

var parserEnv = mustEnv()

func mustEnv() *cel.Env {
	env, err := cel.NewEnv()
	if err != nil {
		panic(fmt.Sprintf("create CEL environment: %v", err))
	}
	return env
}

var binaryOps = map[string]expr.Op{
	operators.Add:           expr.OpAdd,
	operators.Subtract:      expr.OpSubtract,
	operators.Multiply:      expr.OpMultiply,
	operators.Divide:        expr.OpDivide,
	operators.Equals:        expr.OpEqual,
	operators.NotEquals:     expr.OpNotEqual,
	operators.Greater:       expr.OpGreater,
	operators.GreaterEquals: expr.OpGreaterOrEqual,
	operators.Less:          expr.OpLess,
	operators.LessEquals:    expr.OpLessOrEqual,
	operators.LogicalAnd:    expr.OpAnd,
	operators.LogicalOr:     expr.OpOr,
}

// ParseExpression parses src as a CEL expression and converts it to an
// expression tree.
//
// Accepted forms are literals (int, uint, double, string, bool, null),
// field selection on a scope identifier (params.Name), the arithmetic,
// comparison and logical operators, and the ternary operator
// (a ? b : c). Function calls, lists, maps, indexing and has() are
// rejected.
func ParseExpression(src string, scope Scope) (expr.Node, error) {
	ast, iss := parserEnv.Parse(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("parse %q: %w", src, iss.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	return convert(parsed.GetExpr(), scope)
}

func convert(e *exprpb.Expr, scope Scope) (expr.Node, error) {
	switch k := e.GetExprKind().(type) {
	case *exprpb.Expr_ConstExpr:
		return convertConstant(k.ConstExpr)
	case *exprpb.Expr_SelectExpr:
		return convertSelect(k.SelectExpr, scope)
	case *exprpb.Expr_IdentExpr:
		return nil, fmt.Errorf("identifier %q must select a field, e.g. %s.Name", k.IdentExpr.GetName(), k.IdentExpr.GetName())
	case *exprpb.Expr_CallExpr:
		return convertCall(k.CallExpr, scope)
	case *exprpb.Expr_ListExpr:
		return nil, fmt.Errorf("list literals are not supported")
	case *exprpb.Expr_StructExpr:
		return nil, fmt.Errorf("map and message literals are not supported")
	case *exprpb.Expr_ComprehensionExpr:
		return nil, fmt.Errorf("comprehensions are not supported")
	default:
		return nil, fmt.Errorf("unsupported expression %T", k)
	}
}

func convertConstant(c *exprpb.Constant) (expr.Node, error) {
	switch v := c.GetConstantKind().(type) {
	case *exprpb.Constant_NullValue:
		return expr.Null(), nil
	case *exprpb.Constant_BoolValue:
		return expr.Const(v.BoolValue), nil
	case *exprpb.Constant_Int64Value:
		return expr.Const(v.Int64Value), nil
	case *exprpb.Constant_Uint64Value:
		if v.Uint64Value > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d out of range", v.Uint64Value)
		}
		return expr.Const(int64(v.Uint64Value)), nil
	case *exprpb.Constant_DoubleValue:
		return expr.Const(v.DoubleValue), nil
	case *exprpb.Constant_StringValue:
		return expr.Const(v.StringValue), nil
	default:
		return nil, fmt.Errorf("unsupported literal %T", v)
	}
}

func convertSelect(s *exprpb.Expr_Select, scope Scope) (expr.Node, error) {
	if s.GetTestOnly() {
		return nil, fmt.Errorf("has() is not supported")
	}
	ident := s.GetOperand().GetIdentExpr()
	if ident == nil {
		return nil, fmt.Errorf("nested selection .%s is not supported", s.GetField())
	}
	slot, ok := scope[ident.GetName()]
	if !ok {
		return nil, fmt.Errorf("unknown identifier %q (allowed: %s)", ident.GetName(), scope.names())
	}
	return slot.Field(normalizeName(s.GetField())), nil
}

func convertCall(c *exprpb.Expr_Call, scope Scope) (expr.Node, error) {
	fn := c.GetFunction()
	args := c.GetArgs()

	if fn == operators.Conditional && len(args) == 3 {
		nodes, err := convertAll(args, scope)
		if err != nil {
			return nil, err
		}
		return expr.If(nodes[0], nodes[1], nodes[2]), nil
	}

	op, ok := binaryOps[fn]
	if !ok || c.GetTarget() != nil {
		return nil, fmt.Errorf("function %q is not supported", displayFunction(fn))
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("operator %s needs two operands", op)
	}

	nodes, err := convertAll(args, scope)
	if err != nil {
		return nil, err
	}
	// Chained logical operators may arrive flattened.
	acc := expr.Binary{Op: op, Left: nodes[0], Right: nodes[1]}
	for _, n := range nodes[2:] {
		acc = expr.Binary{Op: op, Left: acc, Right: n}
	}
	return acc, nil
}

func convertAll(args []*exprpb.Expr, scope Scope) ([]expr.Node, error) {
	nodes := make([]expr.Node, len(args))
	for i, a := range args {
		n, err := convert(a, scope)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

func displayFunction(fn string) string {
	if name, ok := operators.FindReverse(fn); ok {
		return name
	}
	return fn
}
