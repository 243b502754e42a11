package rulesets

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/phpast"
)

// normalizeValue turns one expression denoting a rule value into a canonical
// RuleValue. It is total: unrecognized expressions degrade to a token holding
// the pretty-printed source text, never nil and never an error.
func (a *analysis) normalizeValue(node *sitter.Node) RuleValue {
	node = phpast.Unparen(node)
	if node == nil {
		return Token("")
	}

	switch node.Type() {
	case "string", "encapsed_string":
		if s, ok := phpast.StringLiteral(node, a.src); ok {
			return Token(s)
		}

	case "array_creation_expression":
		var items []RuleValue
		for _, element := range arrayElements(node) {
			if element.spread || element.value == nil {
				continue
			}
			items = append(items, a.normalizeValue(element.value))
		}
		return List(items)

	case "scoped_call_expression":
		if v, ok := a.normalizeBuilderCall(node); ok {
			return v
		}

	case "object_creation_expression":
		if v, ok := a.normalizeEnumRule(node); ok {
			return v
		}

	case "member_call_expression":
		// Chained qualifiers such as Rule::exists('users')->where(...) are
		// collapsed to the root builder call; the qualifiers are discarded.
		if root := chainRoot(node); root != nil {
			switch root.Type() {
			case "scoped_call_expression":
				if v, ok := a.normalizeBuilderCall(root); ok {
					return v
				}
			case "object_creation_expression":
				if v, ok := a.normalizeEnumRule(root); ok {
					return v
				}
			}
		}

	case "binary_expression":
		op := phpast.Text(node.ChildByFieldName("operator"), a.src)
		if op == "." {
			left := a.normalizeValue(node.ChildByFieldName("left"))
			right := a.normalizeValue(node.ChildByFieldName("right"))
			if left.Kind == KindToken && right.Kind == KindToken {
				return Token(left.Token + right.Token)
			}
		}
	}

	return Token(phpast.Pretty(node, a.src))
}

// normalizeBuilderCall recognizes the structured Rule:: builder family and
// converts each to its canonical rule token.
func (a *analysis) normalizeBuilderCall(call *sitter.Node) (RuleValue, bool) {
	scope := phpast.Unqualify(phpast.Text(call.ChildByFieldName("scope"), a.src))
	if scope != "Rule" {
		return RuleValue{}, false
	}

	name := phpast.Text(call.ChildByFieldName("name"), a.src)
	args := phpast.CallArgs(call)

	switch name {
	case "in":
		return Token("in:" + strings.Join(a.literalArgs(args), ",")), true

	case "exists":
		return Token("exists:" + a.joinLiterals(args, ",", 2)), true

	case "unique":
		return Token("unique:" + a.joinLiterals(args, ",", 2)), true

	case "requiredIf":
		literals := a.literalArgs(args)
		if len(literals) >= 2 {
			return Token("required_if:" + literals[0] + "," + literals[1]), true
		}
		return Token(phpast.Pretty(call, a.src)), true

	case "enum":
		if len(args) > 0 {
			if typeName, ok := a.classReference(args[0]); ok {
				return EnumRef(typeName), true
			}
		}
	}

	return RuleValue{}, false
}

// normalizeEnumRule recognizes new Enum(SomeType::class) instantiations.
func (a *analysis) normalizeEnumRule(node *sitter.Node) (RuleValue, bool) {
	var className string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "name" || child.Type() == "qualified_name" {
			className = phpast.Unqualify(phpast.Text(child, a.src))
			break
		}
	}
	if className != "Enum" {
		return RuleValue{}, false
	}
	for _, arg := range phpast.CallArgs(node) {
		if typeName, ok := a.classReference(arg); ok {
			return EnumRef(typeName), true
		}
	}
	return RuleValue{}, false
}

// classReference extracts the type name from a SomeType::class expression.
func (a *analysis) classReference(node *sitter.Node) (string, bool) {
	if node == nil || node.Type() != "class_constant_access_expression" {
		return "", false
	}
	text := phpast.Text(node, a.src)
	if idx := strings.Index(text, "::"); idx > 0 {
		return phpast.Unqualify(text[:idx]), true
	}
	return "", false
}

// literalArgs resolves call arguments to literal strings, flattening a single
// array-literal argument. Non-literal arguments contribute nothing.
func (a *analysis) literalArgs(args []*sitter.Node) []string {
	out := []string{}
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if arg.Type() == "array_creation_expression" {
			for _, element := range arrayElements(arg) {
				if element.spread || element.value == nil {
					continue
				}
				if s, ok := phpast.StringLiteral(element.value, a.src); ok {
					out = append(out, s)
				} else if element.value.Type() == "integer" {
					out = append(out, phpast.Text(element.value, a.src))
				}
			}
			continue
		}
		if s, ok := phpast.StringLiteral(arg, a.src); ok {
			out = append(out, s)
		} else if arg.Type() == "integer" {
			out = append(out, phpast.Text(arg, a.src))
		}
	}
	return out
}

// joinLiterals joins up to max leading literal arguments with sep, dropping
// anything non-literal.
func (a *analysis) joinLiterals(args []*sitter.Node, sep string, max int) string {
	literals := a.literalArgs(args)
	if len(literals) > max {
		literals = literals[:max]
	}
	return strings.Join(literals, sep)
}

// chainRoot descends a method-call chain to its base expression, e.g. from
// Rule::exists('users')->where(...)->withoutTrashed() down to the Rule::exists
// call. Returns nil when the chain does not bottom out at a call or
// instantiation.
func chainRoot(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Type() {
		case "member_call_expression", "nullsafe_member_call_expression":
			node = node.ChildByFieldName("object")
		case "scoped_call_expression", "object_creation_expression":
			return node
		default:
			return nil
		}
	}
	return nil
}
