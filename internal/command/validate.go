package command

import "github.com/roach88/upsql/internal/expr"

// Validate checks the delete specification.
func (c Delete) Validate() error {
	return validatePredicate("where", c.Where)
}

// Validate checks the insert specification.
func (c Insert) Validate() error {
	if err := validateInsert(c.Insert); err != nil {
		return err
	}
	return validateOutput(c.Output)
}

// Validate checks the update specification.
func (c Update) Validate() error {
	if err := validateUpdate(c.Update); err != nil {
		return err
	}
	if c.Where != nil {
		if err := validatePredicate("where", *c.Where); err != nil {
			return err
		}
	}
	return validateOutput(c.Output)
}

// Validate checks the upsert specification, including the conflict
// columns: non-empty, unique and assigned by the insert.
func (c Upsert) Validate() error {
	if err := validateInsert(c.Insert); err != nil {
		return err
	}
	if err := validateUpdate(c.Update); err != nil {
		return err
	}

	if len(c.ConflictColumns) == 0 {
		return expr.NewSpecError(expr.ErrCodeMissingConflictColumns, "conflict",
			"upsert requires at least one conflict column")
	}
	seen := make(map[string]bool, len(c.ConflictColumns))
	for _, col := range c.ConflictColumns {
		if seen[col] {
			return expr.NewSpecError(expr.ErrCodeDuplicateConflictColumn, "conflict."+col,
				"conflict column %q listed twice", col)
		}
		seen[col] = true
		if _, ok := c.Insert.Values.Lookup(col); !ok {
			return expr.NewSpecError(expr.ErrCodeConflictColumnNotInserted, "conflict."+col,
				"conflict column %q is not assigned by the insert", col)
		}
	}

	if c.Where != nil {
		if err := validatePredicate("where", *c.Where); err != nil {
			return err
		}
	}
	return validateOutput(c.Output)
}

func validateInsert(spec expr.InsertSpec) error {
	return validateRecord("insert", spec.Values, spec.Params)
}

func validateUpdate(spec expr.UpdateSpec) error {
	return validateRecord("update", spec.Values, spec.Row, spec.Params)
}

// validateRecord checks a root record: non-empty, unique names, no nested
// records and field accesses only on the allowed slots.
func validateRecord(part string, rec expr.Record, allowed ...*expr.Slot) error {
	if len(rec.Bindings) == 0 {
		return expr.NewSpecError(expr.ErrCodeEmptyRecord, part, "%s assigns no fields", part)
	}

	seen := make(map[string]bool, len(rec.Bindings))
	for _, b := range rec.Bindings {
		field := part + "." + b.Name
		if b.Name == "" {
			return expr.NewSpecError(expr.ErrCodeMissingPart, part, "binding without a name")
		}
		if seen[b.Name] {
			return expr.NewSpecError(expr.ErrCodeDuplicateBinding, field, "%q assigned twice", b.Name)
		}
		seen[b.Name] = true
		if err := validateExpression(field, b.Value, allowed); err != nil {
			return err
		}
	}
	return nil
}

func validatePredicate(part string, spec expr.PredicateSpec) error {
	return validateExpression(part, spec.Body, []*expr.Slot{spec.Row, spec.Params})
}

func validateExpression(field string, n expr.Node, allowed []*expr.Slot) error {
	if n == nil {
		return expr.NewSpecError(expr.ErrCodeMissingPart, field, "missing expression")
	}
	if expr.ContainsRecord(n) {
		return expr.NewSpecError(expr.ErrCodeNestedRecord, field, "records are only legal at the root")
	}
	for _, f := range expr.Fields(n) {
		if f.Owner == nil || !contains(allowed, f.Owner) {
			return expr.NewSpecError(expr.ErrCodeForeignSlot, field,
				"%s is not a parameter of this specification", f)
		}
	}
	return nil
}

func validateOutput(out *expr.OutputSpec) error {
	if out == nil {
		return nil
	}
	if out.Row == nil {
		return expr.NewSpecError(expr.ErrCodeMissingPart, "output", "output has no row slot")
	}
	if len(out.Values.Bindings) == 0 {
		return expr.NewSpecError(expr.ErrCodeEmptyRecord, "output", "output projects no fields")
	}

	seen := make(map[string]bool, len(out.Values.Bindings))
	for _, b := range out.Values.Bindings {
		if seen[b.Name] {
			return expr.NewSpecError(expr.ErrCodeDuplicateBinding, "output."+b.Name, "%q projected twice", b.Name)
		}
		seen[b.Name] = true
		f, ok := expr.Normalize(b.Value).(expr.Field)
		if !ok || f.Owner != out.Row {
			return expr.NewSpecError(expr.ErrCodeInvalidOutput, "output."+b.Name,
				"output binding must be a field of the output row")
		}
	}
	return nil
}

func contains(slots []*expr.Slot, s *expr.Slot) bool {
	for _, candidate := range slots {
		if candidate != nil && candidate == s {
			return true
		}
	}
	return false
}
