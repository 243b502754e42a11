// Package routes discovers API endpoints from Laravel route files.
package routes

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/phpast"
)

// Endpoint is one discovered route: an HTTP method and path bound to a
// controller action.
type Endpoint struct {
	Method     string
	Path       string
	Controller string
	Action     string
	File       string
}

// httpVerbs maps Route facade method names to HTTP methods.
var httpVerbs = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"patch":   "PATCH",
	"delete":  "DELETE",
	"options": "OPTIONS",
}

// resourceActions are the endpoints a Route::resource registration expands
// to, in Laravel's conventional order.
var resourceActions = []struct {
	method, suffix, action string
}{
	{"GET", "", "index"},
	{"POST", "", "store"},
	{"GET", "/{id}", "show"},
	{"PUT", "/{id}", "update"},
	{"DELETE", "/{id}", "destroy"},
}

// Parser extracts endpoints from route files.
type Parser struct {
	php *phpast.Parser
}

// NewParser creates a route file parser.
func NewParser() *Parser {
	return &Parser{php: phpast.NewParser()}
}

// ParseFile parses one route file and returns its endpoints in source order.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]Endpoint, error) {
	file, err := p.php.ParseFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	defer file.Close()

	walker := &routeWalker{src: file.Source, file: path}
	walker.walkStatements(file.Root, "")
	return walker.endpoints, nil
}

// routeWalker accumulates endpoints while walking route registrations.
type routeWalker struct {
	src       []byte
	file      string
	endpoints []Endpoint
}

// walkStatements scans a statement list for route registrations.
func (w *routeWalker) walkStatements(node *sitter.Node, prefix string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "expression_statement" && child.NamedChildCount() > 0 {
			w.handleExpression(child.NamedChild(0), prefix)
		}
	}
}

// handleExpression interprets one route registration expression. Trailing
// chained qualifiers such as ->name('x') or ->middleware('auth') are ignored;
// a chained ->group(fn) recurses with any ->prefix('x') applied.
func (w *routeWalker) handleExpression(expr *sitter.Node, prefix string) {
	expr = phpast.Unparen(expr)
	if expr == nil {
		return
	}

	// Route::prefix('admin')->group(function () { ... })
	if expr.Type() == "member_call_expression" {
		name := phpast.Text(expr.ChildByFieldName("name"), w.src)
		if name == "group" {
			chainPrefix := w.chainPrefix(expr.ChildByFieldName("object"))
			for _, arg := range phpast.CallArgs(expr) {
				w.walkClosure(arg, joinPath(prefix, chainPrefix))
			}
			return
		}
		// Qualifier chain: descend to the root registration call.
		w.handleExpression(expr.ChildByFieldName("object"), prefix)
		return
	}

	if expr.Type() != "scoped_call_expression" {
		return
	}
	scope := phpast.Unqualify(phpast.Text(expr.ChildByFieldName("scope"), w.src))
	if scope != "Route" {
		return
	}

	name := phpast.Text(expr.ChildByFieldName("name"), w.src)
	args := phpast.CallArgs(expr)

	switch {
	case httpVerbs[name] != "":
		w.addEndpoint(httpVerbs[name], args, prefix)

	case name == "match" && len(args) >= 3:
		for _, verb := range w.stringList(args[0]) {
			if method := httpVerbs[strings.ToLower(verb)]; method != "" {
				w.addEndpointWith(method, args[1], args[2], prefix)
			}
		}

	case name == "resource" || name == "apiResource":
		w.addResource(args, prefix)

	case name == "group" && len(args) >= 2:
		groupPrefix := w.arrayStringValue(args[0], "prefix")
		w.walkClosure(args[1], joinPath(prefix, groupPrefix))
	}
}

// chainPrefix collects prefix('...') segments from a qualifier chain rooted
// at the Route facade.
func (w *routeWalker) chainPrefix(node *sitter.Node) string {
	var segments []string
	for node != nil {
		switch node.Type() {
		case "member_call_expression", "scoped_call_expression":
			name := phpast.Text(node.ChildByFieldName("name"), w.src)
			if name == "prefix" {
				args := phpast.CallArgs(node)
				if len(args) > 0 {
					if s, ok := phpast.StringLiteral(args[0], w.src); ok {
						segments = append([]string{s}, segments...)
					}
				}
			}
			if node.Type() == "scoped_call_expression" {
				return strings.Join(segments, "/")
			}
			node = node.ChildByFieldName("object")
		default:
			return strings.Join(segments, "/")
		}
	}
	return strings.Join(segments, "/")
}

// walkClosure descends into a group callback body.
func (w *routeWalker) walkClosure(node *sitter.Node, prefix string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "anonymous_function_creation_expression", "arrow_function":
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkStatements(body, prefix)
		}
	}
}

// addEndpoint registers a verb route from (path, action) arguments.
func (w *routeWalker) addEndpoint(method string, args []*sitter.Node, prefix string) {
	if len(args) < 2 {
		return
	}
	w.addEndpointWith(method, args[0], args[1], prefix)
}

func (w *routeWalker) addEndpointWith(method string, pathArg, actionArg *sitter.Node, prefix string) {
	path, ok := phpast.StringLiteral(pathArg, w.src)
	if !ok {
		return
	}
	controller, action := w.parseAction(actionArg)
	if controller == "" {
		return
	}
	w.endpoints = append(w.endpoints, Endpoint{
		Method:     method,
		Path:       joinPath(prefix, path),
		Controller: controller,
		Action:     action,
		File:       w.file,
	})
}

// addResource expands Route::resource('photos', PhotoController::class).
func (w *routeWalker) addResource(args []*sitter.Node, prefix string) {
	if len(args) < 2 {
		return
	}
	base, ok := phpast.StringLiteral(args[0], w.src)
	if !ok {
		return
	}
	controller := w.classReference(args[1])
	if controller == "" {
		return
	}
	for _, r := range resourceActions {
		w.endpoints = append(w.endpoints, Endpoint{
			Method:     r.method,
			Path:       joinPath(prefix, base) + r.suffix,
			Controller: controller,
			Action:     r.action,
			File:       w.file,
		})
	}
}

// parseAction resolves the controller/action from either the tuple form
// [Controller::class, 'method'] or the string form 'Controller@method'.
func (w *routeWalker) parseAction(node *sitter.Node) (controller, action string) {
	if node == nil {
		return "", ""
	}

	if node.Type() == "array_creation_expression" {
		var parts []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			item := node.NamedChild(i)
			if item.Type() != "array_element_initializer" || item.NamedChildCount() == 0 {
				continue
			}
			parts = append(parts, phpast.Text(item.NamedChild(0), w.src))
		}
		if len(parts) >= 2 {
			controller = classNameFromReference(parts[0])
			action = strings.Trim(parts[1], `'"`)
			return controller, action
		}
		if len(parts) == 1 {
			// Single-action controller: [InvokeController::class]
			return classNameFromReference(parts[0]), "__invoke"
		}
		return "", ""
	}

	if s, ok := phpast.StringLiteral(node, w.src); ok {
		if idx := strings.Index(s, "@"); idx > 0 {
			return phpast.Unqualify(s[:idx]), s[idx+1:]
		}
		return phpast.Unqualify(s), "__invoke"
	}

	return "", ""
}

// classReference extracts a class name from a Foo::class argument.
func (w *routeWalker) classReference(node *sitter.Node) string {
	if node == nil || node.Type() != "class_constant_access_expression" {
		return ""
	}
	return classNameFromReference(phpast.Text(node, w.src))
}

// classNameFromReference turns "App\Http\PhotoController::class" into
// "PhotoController".
func classNameFromReference(text string) string {
	text = strings.TrimSuffix(text, "::class")
	return phpast.Unqualify(strings.TrimSpace(text))
}

// stringList resolves an array literal of string literals.
func (w *routeWalker) stringList(node *sitter.Node) []string {
	if node == nil || node.Type() != "array_creation_expression" {
		return nil
	}
	var out []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		item := node.NamedChild(i)
		if item.Type() != "array_element_initializer" || item.NamedChildCount() == 0 {
			continue
		}
		if s, ok := phpast.StringLiteral(item.NamedChild(0), w.src); ok {
			out = append(out, s)
		}
	}
	return out
}

// arrayStringValue looks up a string value by key in an array literal, e.g.
// the 'prefix' attribute of a group array.
func (w *routeWalker) arrayStringValue(node *sitter.Node, key string) string {
	if node == nil || node.Type() != "array_creation_expression" {
		return ""
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		item := node.NamedChild(i)
		if item.Type() != "array_element_initializer" || item.NamedChildCount() < 2 {
			continue
		}
		k, ok := phpast.StringLiteral(item.NamedChild(0), w.src)
		if !ok || k != key {
			continue
		}
		if v, ok := phpast.StringLiteral(item.NamedChild(int(item.NamedChildCount())-1), w.src); ok {
			return v
		}
	}
	return ""
}

// joinPath joins route path segments with single slashes and a leading "/".
func joinPath(parts ...string) string {
	var segments []string
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			segments = append(segments, part)
		}
	}
	return "/" + strings.Join(segments, "/")
}
