package rulesets

import (
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/phpast"
)

// Entry is one reachable field-rule map, tagged with the chain of branch
// tests that leads to its return statement. Probability is the heuristic
// weight 2^-depth ranking how likely this branch combination is the primary
// shape.
type Entry struct {
	Conditions  []Condition
	Rules       *FieldRuleMap
	Probability float64
}

// analysis carries the mutable state of one invocation: the source bytes,
// the flat variable scope, the helper-method return cache, and the entries
// accumulated so far. It lives for exactly one Analyze call.
type analysis struct {
	src     []byte
	scope   map[string]*FieldRuleMap
	methods map[string]*FieldRuleMap
	entries []Entry
	path    []Condition
}

// Analyze walks a method body and enumerates every field-rule map reachable
// under any combination of branch choices. siblings maps the enclosing
// declaration's other method names to their bodies; those matching the
// helper-method naming convention seed the method-return cache before the
// main traversal.
//
// The body may be nil or unparseable; the result is then empty, never an
// error.
func Analyze(body *sitter.Node, src []byte, siblings map[string]*sitter.Node) *Result {
	a := &analysis{
		src:     src,
		scope:   make(map[string]*FieldRuleMap),
		methods: make(map[string]*FieldRuleMap),
	}

	for name, sibling := range siblings {
		if !isHelperRuleMethod(name) {
			continue
		}
		if rules := a.firstArrayReturn(sibling); rules != nil {
			a.methods[name] = rules
		}
	}

	a.walkBody(body)
	return aggregate(a.entries)
}

// AnalyzeArrayLiteral evaluates a bare field-rule array literal, such as the
// argument of an inline $request->validate([...]) call, into a single
// unconditional entry.
func AnalyzeArrayLiteral(node *sitter.Node, src []byte) *Result {
	a := &analysis{
		src:     src,
		scope:   make(map[string]*FieldRuleMap),
		methods: make(map[string]*FieldRuleMap),
	}
	if node != nil && phpast.Unparen(node).Type() == "array_creation_expression" {
		if rules := a.evalArray(phpast.Unparen(node)); rules != nil && rules.Len() > 0 {
			a.entries = append(a.entries, Entry{Rules: rules, Probability: 1})
		}
	}
	return aggregate(a.entries)
}

// isHelperRuleMethod reports whether a sibling method name follows the
// recognized helper conventions for rule fragments, e.g. commonRules,
// baseRules, updateRules.
func isHelperRuleMethod(name string) bool {
	return name == "rules" || strings.HasSuffix(name, "Rules")
}

// firstArrayReturn extracts the field-rule map from a helper method's first
// return of an array literal. The helper body is not otherwise traversed as
// a branch source.
func (a *analysis) firstArrayReturn(body *sitter.Node) *FieldRuleMap {
	if body == nil {
		return nil
	}
	if body.Type() == "return_statement" {
		if body.NamedChildCount() > 0 {
			expr := phpast.Unparen(body.NamedChild(0))
			if expr != nil && expr.Type() == "array_creation_expression" {
				return a.evalArray(expr)
			}
		}
		return nil
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		if rules := a.firstArrayReturn(body.NamedChild(i)); rules != nil {
			return rules
		}
	}
	return nil
}

// walkBody processes a branch body, which is either a statement block or a
// single unbraced statement.
func (a *analysis) walkBody(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "compound_statement", "colon_block", "program":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			a.processStatement(node.NamedChild(i))
		}
	default:
		a.processStatement(node)
	}
}

// processStatement dispatches one statement. Statements are visited in
// source order; an if construct's children are fully handled here and must
// not also be visited by the default walk.
func (a *analysis) processStatement(stmt *sitter.Node) {
	switch stmt.Type() {
	case "expression_statement":
		a.trackAssignment(stmt)

	case "if_statement":
		a.trackIf(stmt)

	case "return_statement":
		a.trackReturn(stmt)

	case "compound_statement":
		a.walkBody(stmt)

	default:
		// Other statement kinds are traversed for nested statements but
		// otherwise ignored.
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			child := stmt.NamedChild(i)
			if child.Type() == "compound_statement" || strings.HasSuffix(child.Type(), "_statement") {
				a.processStatement(child)
			}
		}
	}
}

// trackAssignment records $var = [...] assignments into the variable scope.
// The scope is deliberately flat, not block-scoped: an assignment made
// inside one branch stays visible for the remainder of the traversal.
func (a *analysis) trackAssignment(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	expr := stmt.NamedChild(0)
	if expr.Type() != "assignment_expression" {
		return
	}
	left := expr.ChildByFieldName("left")
	right := phpast.Unparen(expr.ChildByFieldName("right"))
	if left == nil || right == nil || left.Type() != "variable_name" {
		return
	}
	if right.Type() != "array_creation_expression" {
		return
	}
	a.scope[phpast.Text(left, a.src)] = a.evalArray(right)
}

// trackIf classifies each branch test, pushes it onto the condition path,
// processes the branch body, and pops. Sibling branches never observe each
// other's path contribution; else is recorded as a bare marker rather than a
// negation of the prior tests.
func (a *analysis) trackIf(stmt *sitter.Node) {
	cond := a.classify(stmt.ChildByFieldName("condition"))
	a.underCondition(cond, stmt.ChildByFieldName("body"))

	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		child := stmt.NamedChild(i)
		switch child.Type() {
		case "else_if_clause":
			elseifCond := a.classify(child.ChildByFieldName("condition"))
			a.underCondition(elseifCond, child.ChildByFieldName("body"))
		case "else_clause":
			a.underCondition(ElseCondition, child.ChildByFieldName("body"))
		}
	}
}

// underCondition runs a branch body with the condition pushed on the path.
func (a *analysis) underCondition(cond Condition, body *sitter.Node) {
	a.path = append(a.path, cond)
	a.walkBody(body)
	a.path = a.path[:len(a.path)-1]
}

// trackReturn emits an entry for a return whose expression evaluates to a
// field-rule map. Unresolvable returns contribute nothing.
func (a *analysis) trackReturn(stmt *sitter.Node) {
	if stmt.NamedChildCount() == 0 {
		return
	}
	rules := a.evalExpr(stmt.NamedChild(0))
	if rules == nil {
		return
	}
	conditions := make([]Condition, len(a.path))
	copy(conditions, a.path)
	a.entries = append(a.entries, Entry{
		Conditions:  conditions,
		Rules:       rules,
		Probability: math.Pow(2, -float64(len(a.path))),
	})
}
