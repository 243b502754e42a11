package rulesets

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/phpast"
)

// ConditionKind discriminates the recognized shapes of a branch test.
type ConditionKind string

const (
	// CondHTTPMethod is a request-method check such as $request->isMethod('post').
	CondHTTPMethod ConditionKind = "http_method"
	// CondUser is a check chained off the current-user accessor,
	// such as $request->user()->isAdmin().
	CondUser ConditionKind = "user"
	// CondRequestField is a request field presence check such as
	// $request->has('email') or $request->missing('token').
	CondRequestField ConditionKind = "request_field"
	// CondRuleWhen is a static Rule::when(...) builder call.
	CondRuleWhen ConditionKind = "rule_when"
	// CondElse marks an else branch. It is a bare marker, not the negation
	// of the preceding sibling conditions.
	CondElse ConditionKind = "else"
	// CondCustom is the catch-all for any unrecognized test.
	CondCustom ConditionKind = "custom"
)

// Condition describes the semantic shape of one branch test. It is immutable
// once created; the classifier is total and always produces a Condition.
type Condition struct {
	Kind ConditionKind

	// Method is the HTTP method for CondHTTPMethod, when the argument was a
	// string literal. Empty otherwise.
	Method string

	// MethodName is the called method for CondUser checks.
	MethodName string

	// Accessor and Field describe CondRequestField checks. Either may be
	// empty when not statically resolvable.
	Accessor string
	Field    string

	// Source is the pretty-printed source text of the test. Empty for
	// CondElse.
	Source string
}

// ElseCondition is the marker pushed for else branches.
var ElseCondition = Condition{Kind: CondElse}

// Describe renders a human-readable label for the condition, used by the
// documentation layer to title one-of variants.
func (c Condition) Describe() string {
	switch c.Kind {
	case CondHTTPMethod:
		if c.Method != "" {
			return fmt.Sprintf("request method is %s", strings.ToUpper(c.Method))
		}
		return c.Source
	case CondUser:
		return fmt.Sprintf("user %s()", c.MethodName)
	case CondRequestField:
		if c.Field != "" {
			return fmt.Sprintf("request %s '%s'", c.Accessor, c.Field)
		}
		return c.Source
	case CondElse:
		return "otherwise"
	default:
		return c.Source
	}
}

// requestFieldAccessors are the request methods recognized as field
// presence/absence checks.
var requestFieldAccessors = map[string]bool{
	"has":         true,
	"hasAny":      true,
	"filled":      true,
	"missing":     true,
	"exists":      true,
	"isNotFilled": true,
}

// classify maps a branch-test expression to a Condition. The first matching
// rule wins; anything unrecognized becomes CondCustom with the pretty-printed
// source text, so classification can never fail.
func (a *analysis) classify(expr *sitter.Node) Condition {
	expr = phpast.Unparen(expr)
	if expr == nil {
		return Condition{Kind: CondCustom}
	}
	source := phpast.Pretty(expr, a.src)

	// A leading negation still carries the inner test's shape; the source
	// text keeps the negation for display.
	inner := expr
	if inner.Type() == "unary_op_expression" && inner.NamedChildCount() > 0 &&
		strings.HasPrefix(phpast.Text(inner, a.src), "!") {
		inner = phpast.Unparen(inner.NamedChild(0))
	}

	switch inner.Type() {
	case "member_call_expression", "nullsafe_member_call_expression":
		name := phpast.Text(inner.ChildByFieldName("name"), a.src)
		args := phpast.CallArgs(inner)

		if name == "isMethod" {
			cond := Condition{Kind: CondHTTPMethod, Source: source}
			if len(args) > 0 {
				if method, ok := phpast.StringLiteral(args[0], a.src); ok {
					cond.Method = method
				}
			}
			return cond
		}

		if object := inner.ChildByFieldName("object"); object != nil {
			objName := phpast.CalleeName(object, a.src)
			if objName == "user" || objName == "auth" {
				return Condition{Kind: CondUser, MethodName: name, Source: source}
			}
		}

		if requestFieldAccessors[name] {
			cond := Condition{Kind: CondRequestField, Accessor: name, Source: source}
			if len(args) > 0 {
				if field, ok := phpast.StringLiteral(args[0], a.src); ok {
					cond.Field = field
				}
			}
			return cond
		}

	case "scoped_call_expression":
		scope := phpast.Unqualify(phpast.Text(inner.ChildByFieldName("scope"), a.src))
		name := phpast.Text(inner.ChildByFieldName("name"), a.src)
		if scope == "Rule" && name == "when" {
			return Condition{Kind: CondRuleWhen, Source: source}
		}
	}

	return Condition{Kind: CondCustom, Source: source}
}
