// Package openapi renders analyzed endpoints into an OpenAPI 3.0 document.
package openapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document represents the complete OpenAPI 3.0 specification.
type Document struct {
	OpenAPI string              `yaml:"openapi"`
	Info    InfoObject          `yaml:"info"`
	Servers []ServerObject      `yaml:"servers,omitempty"`
	Paths   map[string]PathItem `yaml:"paths"`
	Tags    []TagObject         `yaml:"tags,omitempty"`
}

// InfoObject contains API metadata.
type InfoObject struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
}

// ServerObject defines an API server.
type ServerObject struct {
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`
}

// TagObject defines an API tag.
type TagObject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// PathItem describes the operations available on a path.
type PathItem struct {
	Get     *Operation `yaml:"get,omitempty"`
	Post    *Operation `yaml:"post,omitempty"`
	Put     *Operation `yaml:"put,omitempty"`
	Patch   *Operation `yaml:"patch,omitempty"`
	Delete  *Operation `yaml:"delete,omitempty"`
	Options *Operation `yaml:"options,omitempty"`
}

// Operation describes a single API operation.
type Operation struct {
	Summary     string              `yaml:"summary,omitempty"`
	Description string              `yaml:"description,omitempty"`
	OperationID string              `yaml:"operationId,omitempty"`
	Tags        []string            `yaml:"tags,omitempty"`
	Parameters  []Parameter         `yaml:"parameters,omitempty"`
	RequestBody *RequestBody        `yaml:"requestBody,omitempty"`
	Responses   map[string]Response `yaml:"responses"`
}

// Parameter describes an operation parameter.
type Parameter struct {
	Name        string  `yaml:"name"`
	In          string  `yaml:"in"`
	Required    bool    `yaml:"required,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Schema      *Schema `yaml:"schema"`
}

// RequestBody describes an operation's request payload.
type RequestBody struct {
	Description string               `yaml:"description,omitempty"`
	Required    bool                 `yaml:"required,omitempty"`
	Content     map[string]MediaType `yaml:"content"`
}

// Response describes an operation response.
type Response struct {
	Description string               `yaml:"description"`
	Content     map[string]MediaType `yaml:"content,omitempty"`
}

// MediaType describes a media type and schema.
type MediaType struct {
	Schema *Schema `yaml:"schema"`
}

// Schema is a JSON Schema object as embedded in OpenAPI documents.
type Schema struct {
	Type        string             `yaml:"type,omitempty"`
	Format      string             `yaml:"format,omitempty"`
	Title       string             `yaml:"title,omitempty"`
	Description string             `yaml:"description,omitempty"`
	Properties  map[string]*Schema `yaml:"properties,omitempty"`
	Required    []string           `yaml:"required,omitempty"`
	Items       *Schema            `yaml:"items,omitempty"`
	Enum        []string           `yaml:"enum,omitempty"`
	Nullable    bool               `yaml:"nullable,omitempty"`
	Minimum     *float64           `yaml:"minimum,omitempty"`
	Maximum     *float64           `yaml:"maximum,omitempty"`
	MinLength   *int               `yaml:"minLength,omitempty"`
	MaxLength   *int               `yaml:"maxLength,omitempty"`
	OneOf       []*Schema          `yaml:"oneOf,omitempty"`
}

// WriteFile writes the document as YAML with a generated-file header.
func WriteFile(path string, doc *Document) error {
	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	header := []byte(strings.TrimSpace(`
# OpenAPI 3.0 specification generated by larascan
# DO NOT EDIT MANUALLY - regenerate with: larascan generate
`) + "\n\n")

	if err := os.WriteFile(path, append(header, yamlData...), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
