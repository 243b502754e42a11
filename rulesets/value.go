// Package rulesets statically infers the set of validation-rule shapes a PHP
// rules() method can produce under its branching logic. It approximates the
// method's control flow over the tree-sitter AST: assignments populate a flat
// variable scope, if/elseif/else branches extend a condition path, and every
// reachable return of a field-rule array emits one rule-set entry.
//
// The analysis never fails: expressions that cannot be resolved statically
// degrade to a missing map entry or a textual fallback value.
package rulesets

import "strings"

// ValueKind discriminates the variants of a RuleValue.
type ValueKind int

const (
	// KindToken is a plain rule token such as "required" or "in:a,b".
	KindToken ValueKind = iota
	// KindList is an ordered list of alternative rule items for one field.
	KindList
	// KindEnum references an enum-backed rule by its type name.
	KindEnum
)

// RuleValue is one validation rule value: a token, a list of values, or an
// enum reference. Values are immutable once built.
type RuleValue struct {
	Kind  ValueKind
	Token string
	List  []RuleValue
	Enum  string
}

// Token builds a plain token value.
func Token(s string) RuleValue {
	return RuleValue{Kind: KindToken, Token: s}
}

// List builds a list value.
func List(items []RuleValue) RuleValue {
	return RuleValue{Kind: KindList, List: items}
}

// EnumRef builds an enum-backed rule reference.
func EnumRef(typeName string) RuleValue {
	return RuleValue{Kind: KindEnum, Enum: typeName}
}

// key returns a stable identity string used for set-union deduplication.
func (v RuleValue) key() string {
	switch v.Kind {
	case KindEnum:
		return "enum:" + v.Enum
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.key()
		}
		return "list:" + strings.Join(parts, "\x00")
	default:
		return "token:" + v.Token
	}
}

// Flatten normalizes a rule value into a list of individual values. A list
// yields its items; a bare token containing the "|" separator is split into
// one token per segment; anything else yields itself.
func Flatten(v RuleValue) []RuleValue {
	switch v.Kind {
	case KindList:
		return v.List
	case KindToken:
		if strings.Contains(v.Token, "|") {
			parts := strings.Split(v.Token, "|")
			out := make([]RuleValue, 0, len(parts))
			for _, p := range parts {
				if p != "" {
					out = append(out, Token(p))
				}
			}
			return out
		}
	}
	return []RuleValue{v}
}

// FieldRuleMap maps validated field names to their rule values, preserving
// insertion order.
type FieldRuleMap struct {
	fields []string
	values map[string]RuleValue
}

// NewFieldRuleMap creates an empty field-rule map.
func NewFieldRuleMap() *FieldRuleMap {
	return &FieldRuleMap{values: make(map[string]RuleValue)}
}

// Set assigns a rule value to a field. An existing field keeps its position.
func (m *FieldRuleMap) Set(field string, value RuleValue) {
	if _, ok := m.values[field]; !ok {
		m.fields = append(m.fields, field)
	}
	m.values[field] = value
}

// Get returns the value for a field.
func (m *FieldRuleMap) Get(field string) (RuleValue, bool) {
	v, ok := m.values[field]
	return v, ok
}

// Fields returns the field names in insertion order.
func (m *FieldRuleMap) Fields() []string {
	return m.fields
}

// Len returns the number of fields.
func (m *FieldRuleMap) Len() int {
	return len(m.fields)
}

// Clone returns an independent copy.
func (m *FieldRuleMap) Clone() *FieldRuleMap {
	out := NewFieldRuleMap()
	for _, f := range m.fields {
		out.Set(f, m.values[f])
	}
	return out
}

// MergeOver unions other into m, with other's fields overwriting m's on
// collision. Used for array_merge semantics where a later argument wins.
func (m *FieldRuleMap) MergeOver(other *FieldRuleMap) {
	if other == nil {
		return
	}
	for _, f := range other.fields {
		m.Set(f, other.values[f])
	}
}

// MergeUnder unions other into m, keeping m's fields on collision. Used for
// the PHP "+" array union where the left operand wins.
func (m *FieldRuleMap) MergeUnder(other *FieldRuleMap) {
	if other == nil {
		return
	}
	for _, f := range other.fields {
		if _, ok := m.values[f]; !ok {
			m.Set(f, other.values[f])
		}
	}
}

// TokenMap flattens every field's value into a list of individual rule
// values, in field insertion order.
func (m *FieldRuleMap) TokenMap() map[string][]RuleValue {
	out := make(map[string][]RuleValue, len(m.fields))
	for _, f := range m.fields {
		out[f] = Flatten(m.values[f])
	}
	return out
}
