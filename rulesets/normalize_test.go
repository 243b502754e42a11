package rulesets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larascan/larascan/rulesets"
)

// ruleFor analyzes a one-field rules body and returns the normalized value.
func ruleFor(t *testing.T, valueExpr string) rulesets.RuleValue {
	t.Helper()
	result := analyzeRules(t, `return ['field' => `+valueExpr+`];`)
	require.Len(t, result.Entries, 1)
	value, ok := result.Entries[0].Rules.Get("field")
	require.True(t, ok)
	return value
}

func TestNormalize_StringLiteral(t *testing.T) {
	assert.Equal(t, rulesets.Token("required|string|max:255"), ruleFor(t, `'required|string|max:255'`))
}

func TestNormalize_ArrayOfRules(t *testing.T) {
	value := ruleFor(t, `['required', 'integer', Rule::in(['a', 'b'])]`)
	require.Equal(t, rulesets.KindList, value.Kind)
	require.Len(t, value.List, 3)
	assert.Equal(t, "required", value.List[0].Token)
	assert.Equal(t, "integer", value.List[1].Token)
	assert.Equal(t, "in:a,b", value.List[2].Token)
}

func TestNormalize_RuleIn(t *testing.T) {
	assert.Equal(t, "in:a,b", ruleFor(t, `Rule::in(['a', 'b'])`).Token)
	assert.Equal(t, "in:a,b,c", ruleFor(t, `Rule::in('a', 'b', 'c')`).Token)
}

func TestNormalize_RuleInWithoutResolvableArguments(t *testing.T) {
	assert.Equal(t, "in:", ruleFor(t, `Rule::in($dynamic)`).Token)
}

func TestNormalize_RuleExists(t *testing.T) {
	assert.Equal(t, "exists:users", ruleFor(t, `Rule::exists('users')`).Token)
	assert.Equal(t, "exists:users,email", ruleFor(t, `Rule::exists('users', 'email')`).Token)
}

func TestNormalize_RuleUnique(t *testing.T) {
	assert.Equal(t, "unique:users", ruleFor(t, `Rule::unique('users')`).Token)
	assert.Equal(t, "unique:users,email", ruleFor(t, `Rule::unique('users', 'email')`).Token)
}

func TestNormalize_RuleRequiredIf(t *testing.T) {
	assert.Equal(t, "required_if:type,company", ruleFor(t, `Rule::requiredIf('type', 'company')`).Token)
}

func TestNormalize_EnumInstantiation(t *testing.T) {
	value := ruleFor(t, `new Enum(Status::class)`)
	require.Equal(t, rulesets.KindEnum, value.Kind)
	assert.Equal(t, "Status", value.Enum)
}

func TestNormalize_QualifiedEnumInstantiation(t *testing.T) {
	value := ruleFor(t, `new \Illuminate\Validation\Rules\Enum(\App\Enums\Status::class)`)
	require.Equal(t, rulesets.KindEnum, value.Kind)
	assert.Equal(t, "Status", value.Enum)
}

func TestNormalize_RuleEnumBuilder(t *testing.T) {
	value := ruleFor(t, `Rule::enum(Status::class)`)
	require.Equal(t, rulesets.KindEnum, value.Kind)
	assert.Equal(t, "Status", value.Enum)
}

func TestNormalize_ChainedBuilderCollapsesToRoot(t *testing.T) {
	value := ruleFor(t, `Rule::exists('users', 'id')->where(fn ($q) => $q->whereNull('deleted_at'))`)
	assert.Equal(t, "exists:users,id", value.Token)
}

func TestNormalize_StringConcatenation(t *testing.T) {
	assert.Equal(t, "max:255", ruleFor(t, `'max:' . '255'`).Token)
}

func TestNormalize_ConcatenationWithNonLiteralDegradesToText(t *testing.T) {
	value := ruleFor(t, `'max:' . $limit`)
	require.Equal(t, rulesets.KindToken, value.Kind)
	assert.Contains(t, value.Token, "max:")
	assert.Contains(t, value.Token, "$limit")
}

func TestNormalize_UnrecognizedExpressionFallsBackToSourceText(t *testing.T) {
	value := ruleFor(t, `$this->computeRule(42)`)
	require.Equal(t, rulesets.KindToken, value.Kind)
	assert.Contains(t, value.Token, "computeRule(42)")
}

func TestFlatten(t *testing.T) {
	assert.Len(t, rulesets.Flatten(rulesets.Token("required|string")), 2)
	assert.Len(t, rulesets.Flatten(rulesets.Token("required")), 1)
	assert.Len(t, rulesets.Flatten(rulesets.EnumRef("Status")), 1)

	list := rulesets.List([]rulesets.RuleValue{rulesets.Token("a"), rulesets.Token("b")})
	assert.Len(t, rulesets.Flatten(list), 2)
}

func TestConditionDescribe(t *testing.T) {
	cases := []struct {
		cond rulesets.Condition
		want string
	}{
		{rulesets.Condition{Kind: rulesets.CondHTTPMethod, Method: "post"}, "request method is POST"},
		{rulesets.Condition{Kind: rulesets.CondUser, MethodName: "isAdmin"}, "user isAdmin()"},
		{rulesets.Condition{Kind: rulesets.CondRequestField, Accessor: "has", Field: "draft"}, "request has 'draft'"},
		{rulesets.ElseCondition, "otherwise"},
		{rulesets.Condition{Kind: rulesets.CondCustom, Source: "config('x')"}, "config('x')"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.cond.Describe())
	}
}
