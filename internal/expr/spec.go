package expr

// InsertSpec is the shape params => record. Each binding names a target
// field and gives the expression for its value.
type InsertSpec struct {
	Params *Slot
	Values Record
}

// UpdateSpec is the shape (row, params) => record. Row stands for the
// existing (previous) row, Params for the bound arguments.
type UpdateSpec struct {
	Row    *Slot
	Params *Slot
	Values Record
}

// PredicateSpec is the shape (row, params) => bool.
type PredicateSpec struct {
	Row    *Slot
	Params *Slot
	Body   Node
}

// OutputSpec is the shape row => record. Every binding must be a plain
// field access on Row; the binding name becomes the result alias.
type OutputSpec struct {
	Row    *Slot
	Values Record
}

// NewInsert builds an InsertSpec from a function of a fresh params slot.
func NewInsert(fn func(params *Slot) Record) InsertSpec {
	params := NewSlot("params")
	return InsertSpec{Params: params, Values: fn(params)}
}

// NewUpdate builds an UpdateSpec from a function of fresh row and params
// slots.
func NewUpdate(fn func(row, params *Slot) Record) UpdateSpec {
	row, params := NewSlot("row"), NewSlot("params")
	return UpdateSpec{Row: row, Params: params, Values: fn(row, params)}
}

// NewPredicate builds a PredicateSpec from a function of fresh row and
// params slots.
func NewPredicate(fn func(row, params *Slot) Node) PredicateSpec {
	row, params := NewSlot("row"), NewSlot("params")
	return PredicateSpec{Row: row, Params: params, Body: fn(row, params)}
}

// NewOutput builds an OutputSpec from a function of a fresh row slot.
func NewOutput(fn func(row *Slot) Record) OutputSpec {
	row := NewSlot("row")
	return OutputSpec{Row: row, Values: fn(row)}
}

// OutputFields is a shorthand for an output projecting the named fields
// under their own names.
func OutputFields(names ...string) OutputSpec {
	return NewOutput(func(row *Slot) Record {
		bindings := make([]Binding, len(names))
		for i, name := range names {
			bindings[i] = Bind(name, row.Field(name))
		}
		return NewRecord(bindings...)
	})
}
