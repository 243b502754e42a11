package openapi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/larascan/larascan/rulesets"
	"github.com/larascan/larascan/schema"
)

func variantFrom(fields []string, rules map[string][]rulesets.RuleValue, label string, prob float64) schema.Variant {
	return schema.Variant{
		Label:       label,
		Probability: prob,
		Description: schema.FromRules(fields, rules),
	}
}

func TestBuild_PostWithRequestBody(t *testing.T) {
	item := Item{
		Method:  "POST",
		Path:    "/users",
		Summary: "UserController@store",
		Tag:     "users",
		Variants: []schema.Variant{
			variantFrom(
				[]string{"name", "age"},
				map[string][]rulesets.RuleValue{
					"name": {rulesets.Token("required"), rulesets.Token("string")},
					"age":  {rulesets.Token("integer")},
				},
				"", 1,
			),
		},
	}

	doc := Build(Info{Title: "Test API", Version: "1.0.0"}, []Item{item})

	require.Contains(t, doc.Paths, "/users")
	op := doc.Paths["/users"].Post
	require.NotNil(t, op)
	assert.Equal(t, "post-users", op.OperationID)

	require.NotNil(t, op.RequestBody)
	body := op.RequestBody.Content["application/json"].Schema
	require.NotNil(t, body)
	assert.Equal(t, "object", body.Type)
	assert.Contains(t, body.Properties, "name")
	assert.Equal(t, []string{"name"}, body.Required)
	assert.Equal(t, "integer", body.Properties["age"].Type)

	require.Contains(t, op.Responses, "422")
	assert.Equal(t, []TagObject{{Name: "users"}}, doc.Tags)
}

func TestBuild_GetUsesQueryParameters(t *testing.T) {
	item := Item{
		Method: "GET",
		Path:   "/users",
		Variants: []schema.Variant{
			variantFrom(
				[]string{"page"},
				map[string][]rulesets.RuleValue{
					"page": {rulesets.Token("integer")},
				},
				"", 1,
			),
		},
	}

	doc := Build(Info{}, []Item{item})
	op := doc.Paths["/users"].Get
	require.NotNil(t, op)
	assert.Nil(t, op.RequestBody)
	require.Len(t, op.Parameters, 1)
	assert.Equal(t, "page", op.Parameters[0].Name)
	assert.Equal(t, "query", op.Parameters[0].In)
}

func TestBuild_BranchingProducesOneOf(t *testing.T) {
	item := Item{
		Method: "POST",
		Path:   "/posts",
		Variants: []schema.Variant{
			variantFrom([]string{"title"}, map[string][]rulesets.RuleValue{
				"title": {rulesets.Token("required")},
			}, "When request method is POST", 0.5),
			variantFrom([]string{"title"}, map[string][]rulesets.RuleValue{
				"title": {rulesets.Token("sometimes")},
			}, "When otherwise", 0.5),
		},
	}

	doc := Build(Info{}, []Item{item})
	body := doc.Paths["/posts"].Post.RequestBody.Content["application/json"].Schema
	require.Len(t, body.OneOf, 2)
	assert.Equal(t, "When request method is POST", body.OneOf[0].Title)
	assert.Equal(t, "When otherwise", body.OneOf[1].Title)
}

func TestBuild_NoVariantsStillDocumentsOperation(t *testing.T) {
	doc := Build(Info{}, []Item{{Method: "DELETE", Path: "/users/{id}"}})
	op := doc.Paths["/users/{id}"].Delete
	require.NotNil(t, op)
	assert.NotContains(t, op.Responses, "422")
	assert.Equal(t, "delete-users-id", op.OperationID)
}

func TestWriteFile(t *testing.T) {
	doc := Build(Info{Title: "Test", Version: "0.1.0"}, []Item{
		{Method: "GET", Path: "/ping"},
	})

	path := filepath.Join(t.TempDir(), "out", "openapi.v3.yaml")
	require.NoError(t, WriteFile(path, doc))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# OpenAPI 3.0 specification"))

	var parsed Document
	body := content[strings.Index(string(content), "\n\n"):]
	require.NoError(t, yaml.Unmarshal(body, &parsed))
	assert.Equal(t, "3.0.3", parsed.OpenAPI)
	assert.Contains(t, parsed.Paths, "/ping")
}
