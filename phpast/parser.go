// Package phpast provides PHP AST parsing and declaration extraction using tree-sitter.
package phpast

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// Parser extracts class and method declarations from PHP source files.
// It is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new PHP parser.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())
	return &Parser{parser: p}
}

// File is the result of parsing one PHP source file. The underlying
// tree-sitter tree stays alive until Close is called; all nodes reachable
// from File become invalid afterwards.
type File struct {
	Path      string
	Hash      string
	Source    []byte
	Namespace string
	Classes   []*Class
	Root      *sitter.Node

	tree *sitter.Tree
}

// Close releases the parse tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Class represents a class declaration.
type Class struct {
	Name    string
	Extends string
	Methods []*Method
	Node    *sitter.Node
}

// Method represents a method declaration inside a class.
type Method struct {
	Name       string
	Visibility string
	Params     []Param
	Body       *sitter.Node
	Node       *sitter.Node
}

// Param is a single formal parameter with its declared type, if any.
type Param struct {
	Name string
	Type string
}

// Method returns the named method of the class, or nil.
func (c *Class) Method(name string) *Method {
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// SiblingBodies returns the bodies of every method except the named one,
// keyed by method name. Used to seed helper-method return caches.
func (c *Class) SiblingBodies(except string) map[string]*sitter.Node {
	bodies := make(map[string]*sitter.Node, len(c.Methods))
	for _, m := range c.Methods {
		if m.Name == except || m.Body == nil {
			continue
		}
		bodies[m.Name] = m.Body
	}
	return bodies
}

// ParseFile parses a single PHP file.
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*File, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	file, err := p.Parse(ctx, content)
	if err != nil {
		return nil, err
	}
	file.Path = filePath
	return file, nil
}

// Parse parses PHP source from memory.
func (p *Parser) Parse(ctx context.Context, content []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	root := tree.RootNode()
	file := &File{
		Hash:   ComputeHash(content),
		Source: content,
		Root:   root,
		tree:   tree,
	}

	p.extractDeclarations(root, content, file)
	return file, nil
}

// extractDeclarations walks the program for namespace and class declarations.
// Classes nested in namespace blocks are collected the same as top-level ones.
func (p *Parser) extractDeclarations(node *sitter.Node, content []byte, file *File) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_definition":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				file.Namespace = Text(nameNode, content)
			}
			// Braced namespaces carry their declarations in a body block.
			if body := child.ChildByFieldName("body"); body != nil {
				p.extractDeclarations(body, content, file)
			}
		case "class_declaration":
			if class := p.extractClass(child, content); class != nil {
				file.Classes = append(file.Classes, class)
			}
		}
	}
}

// extractClass extracts a class declaration with its methods.
func (p *Parser) extractClass(node *sitter.Node, content []byte) *Class {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	class := &Class{
		Name: Text(nameNode, content),
		Node: node,
	}

	// Base clause is a plain child, not a field.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "base_clause" && child.NamedChildCount() > 0 {
			class.Extends = Unqualify(Text(child.NamedChild(0), content))
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return class
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		if child.Type() != "method_declaration" {
			continue
		}
		if method := p.extractMethod(child, content); method != nil {
			class.Methods = append(class.Methods, method)
		}
	}

	return class
}

// extractMethod extracts one method declaration.
func (p *Parser) extractMethod(node *sitter.Node, content []byte) *Method {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	method := &Method{
		Name:       Text(nameNode, content),
		Visibility: "public",
		Body:       node.ChildByFieldName("body"),
		Node:       node,
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "visibility_modifier" {
			method.Visibility = Text(child, content)
		}
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		method.Params = p.extractParams(params, content)
	}

	return method
}

// extractParams extracts parameter names and declared types.
func (p *Parser) extractParams(node *sitter.Node, content []byte) []Param {
	var params []Param
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "simple_parameter", "property_promotion_parameter":
			param := Param{}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				param.Name = strings.TrimPrefix(Text(nameNode, content), "$")
			}
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = Unqualify(strings.TrimPrefix(Text(typeNode, content), "?"))
			}
			if param.Name != "" {
				params = append(params, param)
			}
		}
	}
	return params
}
