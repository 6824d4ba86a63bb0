package expr

// Walk visits n and its children in pre-order, the same order in which
// they are rendered. If fn returns false the children of that node are
// skipped. Nil nodes are not visited.
func Walk(n Node, fn func(Node) bool) {
	n = Normalize(n)
	if n == nil || !fn(n) {
		return
	}

	switch node := n.(type) {
	case Binary:
		Walk(node.Left, fn)
		Walk(node.Right, fn)
	case Conditional:
		Walk(node.Test, fn)
		Walk(node.IfTrue, fn)
		Walk(node.IfFalse, fn)
	case Record:
		for _, b := range node.Bindings {
			Walk(b.Value, fn)
		}
	}
}

// Fields returns every field access in n in render order, duplicates
// included.
func Fields(n Node) []Field {
	var fields []Field
	Walk(n, func(node Node) bool {
		if f, ok := node.(Field); ok {
			fields = append(fields, f)
		}
		return true
	})
	return fields
}

// Slots returns the distinct slots referenced by n in first-use order.
func Slots(n Node) []*Slot {
	var slots []*Slot
	seen := make(map[*Slot]bool)
	for _, f := range Fields(n) {
		if !seen[f.Owner] {
			seen[f.Owner] = true
			slots = append(slots, f.Owner)
		}
	}
	return slots
}

// ContainsRecord reports whether a Record appears anywhere in n.
func ContainsRecord(n Node) bool {
	found := false
	Walk(n, func(node Node) bool {
		if _, ok := node.(Record); ok {
			found = true
		}
		return !found
	})
	return found
}
