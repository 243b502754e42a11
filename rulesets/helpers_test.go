package rulesets_test

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// findNode returns the first node of the given type in a depth-first walk.
func findNode(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == nodeType {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findNode(node.NamedChild(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}
