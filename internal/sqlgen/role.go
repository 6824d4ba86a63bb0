package sqlgen

import (
	"fmt"

	"github.com/roach88/upsql/internal/expr"
)

// Role decides how a field access on a slot is rendered.
type Role int

const (
	// RoleNone renders a bare quoted column.
	RoleNone Role = iota
	// RoleCandidateRow renders S.<quoted parameter name> (MERGE source row).
	RoleCandidateRow
	// RolePreviousRow renders T.<quoted column> (existing target row).
	RolePreviousRow
	// RoleArgument renders @<parameter name>.
	RoleArgument
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleCandidateRow:
		return "candidate-row"
	case RolePreviousRow:
		return "previous-row"
	case RoleArgument:
		return "argument"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// RoleMap assigns a role to each slot for one rendering pass. Keys are
// slot identities.
type RoleMap map[*expr.Slot]Role

// RoleResolutionError reports a field whose role cannot be determined.
type RoleResolutionError struct {
	Slot   *expr.Slot
	Field  string
	Reason string
}

func (e *RoleResolutionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("role resolution: %s", e.Reason)
	}
	return fmt.Sprintf("role resolution for %s.%s: %s", e.Slot.Name(), e.Field, e.Reason)
}

func (e *RoleResolutionError) Is(target error) bool {
	return target == expr.ErrSpecification
}

// ResolveRole returns the role of a field access.
//
// An empty or nil role map resolves every field to RoleArgument. A slot
// missing from a non-empty map, or a node that is not a field access, is
// a specification error.
func ResolveRole(n expr.Node, roles RoleMap) (Role, error) {
	f, ok := expr.Normalize(n).(expr.Field)
	if !ok {
		return RoleNone, &RoleResolutionError{Reason: fmt.Sprintf("%T is not a field access", n)}
	}
	if len(roles) == 0 {
		return RoleArgument, nil
	}
	role, ok := roles[f.Owner]
	if !ok {
		return RoleNone, &RoleResolutionError{Slot: f.Owner, Field: f.Name, Reason: "slot is not bound in this context"}
	}
	return role, nil
}
