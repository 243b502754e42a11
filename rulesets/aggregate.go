package rulesets

// Result is the externally visible output of one analysis: every reachable
// rule-set entry, the deduplicated union of every field's possible rules
// across all entries, and whether any entry was guarded by a branch test.
type Result struct {
	Entries []Entry

	// Merged unions every field's flattened rule values across all entries,
	// with set semantics on duplicate tokens.
	Merged map[string][]RuleValue

	// HasConditions reports whether at least one entry was emitted under a
	// non-empty condition path.
	HasConditions bool
}

// FieldOrder returns every field name across all entries in first-seen
// order, giving consumers a stable ordering for the Merged map.
func (r *Result) FieldOrder() []string {
	var order []string
	seen := make(map[string]bool)
	for _, entry := range r.Entries {
		for _, field := range entry.Rules.Fields() {
			if !seen[field] {
				seen[field] = true
				order = append(order, field)
			}
		}
	}
	return order
}

// aggregate combines the entries accumulated by the tracker into the final
// result.
func aggregate(entries []Entry) *Result {
	result := &Result{
		Entries: entries,
		Merged:  make(map[string][]RuleValue),
	}

	seen := make(map[string]map[string]bool)
	for _, entry := range entries {
		if len(entry.Conditions) > 0 {
			result.HasConditions = true
		}
		for _, field := range entry.Rules.Fields() {
			value, _ := entry.Rules.Get(field)
			if seen[field] == nil {
				seen[field] = make(map[string]bool)
			}
			for _, item := range Flatten(value) {
				key := item.key()
				if seen[field][key] {
					continue
				}
				seen[field][key] = true
				result.Merged[field] = append(result.Merged[field], item)
			}
		}
	}

	return result
}
