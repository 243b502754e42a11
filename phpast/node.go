package phpast

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the raw source text covered by a node.
func Text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// Pretty returns the node's source text with runs of whitespace collapsed
// to single spaces, suitable for diagnostics and fallback values.
func Pretty(node *sitter.Node, content []byte) string {
	return strings.Join(strings.Fields(Text(node, content)), " ")
}

// StringLiteral extracts the content of a string literal node without its
// quotes. The second return is false when the node is not a string literal.
func StringLiteral(node *sitter.Node, content []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "string", "encapsed_string":
		raw := Text(node, content)
		for _, q := range []string{`"`, `'`} {
			if strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) && len(raw) >= 2 {
				return raw[1 : len(raw)-1], true
			}
		}
		return raw, true
	}
	return "", false
}

// Unparen unwraps parenthesized expressions down to the inner expression.
func Unparen(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	return node
}

// CallArgs returns the argument expressions of a call-like node, unwrapping
// the argument wrapper nodes the grammar inserts. Variadic unpackings are
// returned as-is so callers can decide how to degrade.
func CallArgs(call *sitter.Node) []*sitter.Node {
	if call == nil {
		return nil
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		// object_creation_expression has no arguments field.
		for i := 0; i < int(call.NamedChildCount()); i++ {
			if child := call.NamedChild(i); child.Type() == "arguments" {
				args = child
				break
			}
		}
	}
	if args == nil {
		return nil
	}

	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "argument" {
			if child.NamedChildCount() > 0 {
				out = append(out, child.NamedChild(0))
			}
			continue
		}
		out = append(out, child)
	}
	return out
}

// CalleeName returns the called method or function name of a call node.
func CalleeName(call *sitter.Node, content []byte) string {
	if call == nil {
		return ""
	}
	switch call.Type() {
	case "member_call_expression", "scoped_call_expression", "nullsafe_member_call_expression":
		return Text(call.ChildByFieldName("name"), content)
	case "function_call_expression":
		return Unqualify(Text(call.ChildByFieldName("function"), content))
	}
	return ""
}

// Unqualify strips any namespace qualifier from a PHP name.
func Unqualify(name string) string {
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// ComputeHash computes a short content hash for change detection.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}
