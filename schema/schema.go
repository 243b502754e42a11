// Package schema converts inferred field-rule maps into schema descriptions:
// JSON-ish types, formats, and constraints suitable for OpenAPI rendering.
package schema

import (
	"strconv"
	"strings"

	"github.com/larascan/larascan/rulesets"
)

// Property describes one validated field.
type Property struct {
	Name     string
	Type     string
	Format   string
	Enum     []string
	EnumType string
	Nullable bool
	Required bool
	Min      *float64
	Max      *float64
	Items    *Property
	Rules    []string
}

// Description is the schema shape of one field-rule map, with properties in
// the map's field order.
type Description struct {
	Properties []*Property
}

// Required returns the names of all required properties.
func (d *Description) Required() []string {
	var out []string
	for _, p := range d.Properties {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// FromRules builds a Description from a field-rule map. fields gives the
// property order; rules maps each field to its flattened rule values.
func FromRules(fields []string, rules map[string][]rulesets.RuleValue) *Description {
	desc := &Description{}
	for _, field := range fields {
		desc.Properties = append(desc.Properties, propertyFrom(field, rules[field]))
	}
	return desc
}

// propertyFrom infers one property from its rule values. Two passes: the
// first settles the type, the second applies type-dependent constraints.
func propertyFrom(name string, values []rulesets.RuleValue) *Property {
	prop := &Property{Name: name, Type: "string"}

	for _, v := range values {
		switch v.Kind {
		case rulesets.KindEnum:
			prop.EnumType = v.Enum
			prop.Rules = append(prop.Rules, "enum:"+v.Enum)
		case rulesets.KindToken:
			prop.Rules = append(prop.Rules, v.Token)
			if t := typeForToken(v.Token); t != "" {
				prop.Type = t
			}
		case rulesets.KindList:
			for _, item := range rulesets.Flatten(v) {
				prop.Rules = append(prop.Rules, item.Token)
				if t := typeForToken(item.Token); t != "" {
					prop.Type = t
				}
			}
		}
	}

	for _, token := range prop.Rules {
		applyConstraint(prop, token)
	}

	if prop.Type == "array" && prop.Items == nil {
		prop.Items = &Property{Type: "string"}
	}

	return prop
}

// typeForToken maps a type-determining rule token to a schema type.
func typeForToken(token string) string {
	switch ruleName(token) {
	case "integer", "int", "digits", "digits_between":
		return "integer"
	case "numeric", "decimal":
		return "number"
	case "boolean", "bool", "accepted", "declined":
		return "boolean"
	case "array":
		return "array"
	case "json":
		return "object"
	}
	return ""
}

// applyConstraint applies one rule token's constraint to the property.
func applyConstraint(prop *Property, token string) {
	name, arg := ruleName(token), ruleArg(token)

	switch name {
	case "required":
		prop.Required = true
	case "sometimes":
		prop.Required = false
	case "nullable":
		prop.Nullable = true
	case "email":
		prop.Format = "email"
	case "uuid":
		prop.Format = "uuid"
	case "url", "active_url":
		prop.Format = "uri"
	case "ip", "ipv4", "ipv6":
		prop.Format = "ipv4"
	case "date", "date_format":
		prop.Format = "date-time"
	case "password":
		prop.Format = "password"
	case "file", "image":
		prop.Format = "binary"
	case "in":
		if arg != "" {
			prop.Enum = strings.Split(arg, ",")
		}
	case "min":
		if f, err := strconv.ParseFloat(arg, 64); err == nil {
			prop.Min = &f
		}
	case "max":
		if f, err := strconv.ParseFloat(arg, 64); err == nil {
			prop.Max = &f
		}
	case "between":
		bounds := strings.SplitN(arg, ",", 2)
		if len(bounds) == 2 {
			if lo, err := strconv.ParseFloat(bounds[0], 64); err == nil {
				prop.Min = &lo
			}
			if hi, err := strconv.ParseFloat(bounds[1], 64); err == nil {
				prop.Max = &hi
			}
		}
	}
}

// ruleName returns the rule token's name, i.e. everything before the first
// ":".
func ruleName(token string) string {
	if idx := strings.Index(token, ":"); idx >= 0 {
		return token[:idx]
	}
	return token
}

// ruleArg returns the rule token's argument portion, or "".
func ruleArg(token string) string {
	if idx := strings.Index(token, ":"); idx >= 0 {
		return token[idx+1:]
	}
	return ""
}
