package rulesets

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/phpast"
)

// evalExpr turns an expression denoting a whole field-rule map into a
// FieldRuleMap, or nil when the expression cannot be resolved statically.
func (a *analysis) evalExpr(node *sitter.Node) *FieldRuleMap {
	node = phpast.Unparen(node)
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "array_creation_expression":
		return a.evalArray(node)

	case "variable_name":
		return a.scope[phpast.Text(node, a.src)]

	case "function_call_expression":
		// array_merge combines maps left to right with later arguments
		// overwriting earlier ones on key collision.
		if phpast.CalleeName(node, a.src) == "array_merge" {
			merged := NewFieldRuleMap()
			for _, arg := range phpast.CallArgs(node) {
				merged.MergeOver(a.evalExpr(arg))
			}
			if merged.Len() == 0 {
				return nil
			}
			return merged
		}

	case "binary_expression":
		// The PHP "+" array union keeps the left operand's fields on
		// collision, the inverse of array_merge.
		if phpast.Text(node.ChildByFieldName("operator"), a.src) == "+" {
			left := a.evalExpr(node.ChildByFieldName("left"))
			right := a.evalExpr(node.ChildByFieldName("right"))
			if left == nil {
				return right
			}
			union := left.Clone()
			union.MergeUnder(right)
			return union
		}

	case "member_call_expression":
		// $this->helperRules() resolves through the method-return cache.
		if object := node.ChildByFieldName("object"); object != nil &&
			phpast.Text(object, a.src) == "$this" {
			name := phpast.Text(node.ChildByFieldName("name"), a.src)
			if cached, ok := a.methods[name]; ok {
				return cached
			}
		}

	case "conditional_expression":
		// The guarding condition is not evaluated; the true branch is
		// preferred when it resolves, a deliberate static approximation.
		if body := node.ChildByFieldName("body"); body != nil {
			if m := a.evalExpr(body); m != nil {
				return m
			}
		}
		return a.evalExpr(node.ChildByFieldName("alternative"))
	}

	return nil
}

// arrayElement is one entry of an array literal.
type arrayElement struct {
	key    *sitter.Node // nil for bare values
	value  *sitter.Node
	spread bool
}

// arrayElements decomposes an array_creation_expression into its entries.
func arrayElements(node *sitter.Node) []arrayElement {
	var out []arrayElement
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "array_element_initializer":
			element := arrayElement{}
			named := int(child.NamedChildCount())
			if named > 0 && child.NamedChild(0).Type() == "variadic_unpacking" {
				element.spread = true
			} else if child.ChildCount() > 0 && child.Child(0).Type() == "..." {
				element.spread = true
			} else if named >= 2 {
				element.key = child.NamedChild(0)
				element.value = child.NamedChild(named - 1)
			} else if named == 1 {
				element.value = child.NamedChild(0)
			}
			out = append(out, element)
		case "variadic_unpacking":
			out = append(out, arrayElement{spread: true})
		}
	}
	return out
}

// evalArray builds a FieldRuleMap from an array literal. Entries without a
// statically known key are skipped, as are spread items; non-literal keys
// fall back to their source text.
func (a *analysis) evalArray(node *sitter.Node) *FieldRuleMap {
	rules := NewFieldRuleMap()
	for _, element := range arrayElements(node) {
		if element.spread || element.value == nil {
			continue
		}
		key, ok := a.arrayKey(element.key)
		if !ok {
			continue
		}
		rules.Set(key, a.normalizeValue(element.value))
	}
	return rules
}

// arrayKey resolves an array key node to a field name. Literal strings and
// integers resolve directly; other expressions degrade to source text; a
// missing key yields false and the entry is skipped.
func (a *analysis) arrayKey(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	if s, ok := phpast.StringLiteral(node, a.src); ok {
		return s, true
	}
	if node.Type() == "integer" {
		return phpast.Text(node, a.src), true
	}
	fallback := phpast.Pretty(node, a.src)
	if strings.TrimSpace(fallback) == "" {
		return "", false
	}
	return fallback, true
}
