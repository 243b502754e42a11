package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/larascan/larascan/schema"
)

// Item is one analyzed endpoint ready for rendering: an HTTP method and path
// plus the request-body variants inferred from its validation rules.
type Item struct {
	Method   string
	Path     string
	Summary  string
	Tag      string
	Variants []schema.Variant
}

// Info carries document-level metadata from configuration.
type Info struct {
	Title       string
	Description string
	Version     string
	Servers     []string
}

// Build assembles the OpenAPI document from analyzed endpoints. Paths are
// emitted in sorted order for stable output.
func Build(info Info, items []Item) *Document {
	doc := &Document{
		OpenAPI: "3.0.3",
		Info: InfoObject{
			Title:       info.Title,
			Description: info.Description,
			Version:     info.Version,
		},
		Paths: make(map[string]PathItem),
	}

	for _, server := range info.Servers {
		doc.Servers = append(doc.Servers, ServerObject{URL: server})
	}

	tags := make(map[string]bool)
	for _, item := range items {
		pathItem := doc.Paths[item.Path]
		setOperation(&pathItem, item.Method, buildOperation(item))
		doc.Paths[item.Path] = pathItem
		if item.Tag != "" {
			tags[item.Tag] = true
		}
	}

	tagNames := make([]string, 0, len(tags))
	for name := range tags {
		tagNames = append(tagNames, name)
	}
	sort.Strings(tagNames)
	for _, name := range tagNames {
		doc.Tags = append(doc.Tags, TagObject{Name: name})
	}

	return doc
}

// setOperation assigns an operation to its verb slot.
func setOperation(item *PathItem, method string, op *Operation) {
	switch method {
	case "GET":
		item.Get = op
	case "POST":
		item.Post = op
	case "PUT":
		item.Put = op
	case "PATCH":
		item.Patch = op
	case "DELETE":
		item.Delete = op
	case "OPTIONS":
		item.Options = op
	}
}

// buildOperation renders one endpoint. Body-less verbs document the inferred
// fields as query parameters; body verbs get a request body, with a oneOf
// schema when the validation rules branch into multiple shapes.
func buildOperation(item Item) *Operation {
	op := &Operation{
		Summary:     item.Summary,
		OperationID: operationID(item.Method, item.Path),
		Responses: map[string]Response{
			"200": {Description: "Successful response"},
		},
	}
	if item.Tag != "" {
		op.Tags = []string{item.Tag}
	}

	if len(item.Variants) == 0 {
		return op
	}

	op.Responses["422"] = Response{Description: "Validation error"}

	switch item.Method {
	case "GET", "DELETE", "OPTIONS":
		primary := item.Variants[0]
		for _, prop := range primary.Description.Properties {
			op.Parameters = append(op.Parameters, Parameter{
				Name:     prop.Name,
				In:       "query",
				Required: prop.Required,
				Schema:   schemaForProperty(prop),
			})
		}
	default:
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]MediaType{
				"application/json": {Schema: bodySchema(item.Variants)},
			},
		}
	}

	return op
}

// bodySchema renders the request-body schema: a single object, or a oneOf
// across branch variants titled by their condition labels.
func bodySchema(variants []schema.Variant) *Schema {
	if len(variants) == 1 {
		return schemaForVariant(variants[0])
	}
	oneOf := make([]*Schema, 0, len(variants))
	for _, variant := range variants {
		s := schemaForVariant(variant)
		s.Title = variant.Label
		oneOf = append(oneOf, s)
	}
	return &Schema{OneOf: oneOf}
}

// schemaForVariant renders one variant as an object schema.
func schemaForVariant(variant schema.Variant) *Schema {
	s := &Schema{
		Type:       "object",
		Properties: make(map[string]*Schema),
		Required:   variant.Description.Required(),
	}
	for _, prop := range variant.Description.Properties {
		s.Properties[prop.Name] = schemaForProperty(prop)
	}
	return s
}

// schemaForProperty renders one field description.
func schemaForProperty(prop *schema.Property) *Schema {
	s := &Schema{
		Type:     prop.Type,
		Format:   prop.Format,
		Enum:     prop.Enum,
		Nullable: prop.Nullable,
	}

	if len(prop.Rules) > 0 {
		s.Description = "Validation: " + strings.Join(prop.Rules, "|")
	}
	if prop.EnumType != "" {
		s.Description = fmt.Sprintf("Value of enum %s. %s", prop.EnumType, s.Description)
	}

	switch prop.Type {
	case "integer", "number":
		s.Minimum = prop.Min
		s.Maximum = prop.Max
	case "string":
		if prop.Min != nil {
			length := int(*prop.Min)
			s.MinLength = &length
		}
		if prop.Max != nil {
			length := int(*prop.Max)
			s.MaxLength = &length
		}
	case "array":
		if prop.Items != nil {
			s.Items = &Schema{Type: prop.Items.Type}
		}
	}

	return s
}

// operationID builds a stable identifier like "get-users-id".
func operationID(method, path string) string {
	slug := strings.NewReplacer("/", "-", "{", "", "}", "").Replace(strings.Trim(path, "/"))
	if slug == "" {
		slug = "root"
	}
	return strings.ToLower(method) + "-" + slug
}
