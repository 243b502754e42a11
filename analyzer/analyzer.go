// Package analyzer orchestrates a scan: it discovers endpoints from route
// files, resolves each endpoint's validation source (a FormRequest rules()
// method or an inline $request->validate call), runs the rule-set analysis,
// and converts the results into documentation variants.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/larascan/larascan/config"
	"github.com/larascan/larascan/phpast"
	"github.com/larascan/larascan/routes"
	"github.com/larascan/larascan/rulesets"
	"github.com/larascan/larascan/schema"
)

// EndpointDoc is the analysis outcome for one endpoint.
type EndpointDoc struct {
	Endpoint routes.Endpoint
	RuleSets *rulesets.Result
	Variants []schema.Variant

	// SourceFile is where the validation rules were found, if anywhere.
	SourceFile string
}

// Report is the outcome of one full scan.
type Report struct {
	RunID     string
	Endpoints []EndpointDoc
}

// Analyzer runs scans over a Laravel application tree.
type Analyzer struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *resultCache
}

// New creates an analyzer from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		cfg:    cfg,
		logger: logger,
		cache:  newResultCache(),
	}
}

// Run performs one full scan: route discovery, class indexing, and parallel
// per-endpoint analysis. Endpoints that cannot be resolved still appear in
// the report, with no variants; an unresolvable endpoint is degraded output,
// not an error.
func (a *Analyzer) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	root := a.cfg.Scan.Root

	routeFiles, err := routes.DiscoverRouteFiles(root, a.cfg.Scan.RouteFiles)
	if err != nil {
		return nil, fmt.Errorf("discover route files: %w", err)
	}

	parser := routes.NewParser()
	var endpoints []routes.Endpoint
	for _, file := range routeFiles {
		eps, err := parser.ParseFile(ctx, file)
		if err != nil {
			a.logger.Warn("Skipping unparseable route file", "path", file, "error", err)
			continue
		}
		endpoints = append(endpoints, eps...)
	}
	a.logger.Info("Discovered endpoints",
		"run_id", runID,
		"route_files", len(routeFiles),
		"endpoints", len(endpoints))

	index, err := routes.BuildClassIndex(ctx, root, a.cfg.Scan.ClassGlobs, a.logger)
	if err != nil {
		return nil, fmt.Errorf("index classes: %w", err)
	}
	a.logger.Debug("Indexed classes", "count", index.Len())

	docs := a.analyzeAll(ctx, endpoints, index)

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Endpoint.Path != docs[j].Endpoint.Path {
			return docs[i].Endpoint.Path < docs[j].Endpoint.Path
		}
		return docs[i].Endpoint.Method < docs[j].Endpoint.Method
	})

	return &Report{RunID: runID, Endpoints: docs}, nil
}

// analyzeAll fans endpoints out over a worker pool. Each worker owns its own
// PHP parser; results land at their endpoint's index so output order is
// deterministic.
func (a *Analyzer) analyzeAll(ctx context.Context, endpoints []routes.Endpoint, index *routes.ClassIndex) []EndpointDoc {
	docs := make([]EndpointDoc, len(endpoints))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < a.cfg.Scan.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker := newWorker(a, index)
			for i := range jobs {
				docs[i] = worker.analyze(ctx, endpoints[i])
			}
		}()
	}

	for i := range endpoints {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return docs
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return docs
}

// worker analyzes endpoints one at a time with a dedicated parser.
type worker struct {
	analyzer *Analyzer
	index    *routes.ClassIndex
	parser   *phpast.Parser
}

func newWorker(a *Analyzer, index *routes.ClassIndex) *worker {
	return &worker{analyzer: a, index: index, parser: phpast.NewParser()}
}

// analyze resolves and analyzes one endpoint's validation rules.
func (w *worker) analyze(ctx context.Context, endpoint routes.Endpoint) EndpointDoc {
	doc := EndpointDoc{Endpoint: endpoint}

	controllerFile, ok := w.index.Lookup(endpoint.Controller)
	if !ok {
		w.analyzer.logger.Debug("Controller not found",
			"controller", endpoint.Controller, "path", endpoint.Path)
		return doc
	}

	file, err := w.parser.ParseFile(ctx, controllerFile)
	if err != nil {
		w.analyzer.logger.Warn("Skipping unparseable controller",
			"path", controllerFile, "error", err)
		return doc
	}
	defer file.Close()

	class := w.findClass(file, endpoint.Controller)
	if class == nil {
		return doc
	}
	action := class.Method(endpoint.Action)
	if action == nil {
		return doc
	}

	// A FormRequest-typed parameter points at a rules() method; otherwise
	// fall back to an inline $request->validate([...]) call.
	if result, source := w.analyzeFormRequest(ctx, action); result != nil {
		doc.RuleSets = result
		doc.SourceFile = source
	} else if result := w.analyzeInlineValidation(action, file.Source); result != nil {
		doc.RuleSets = result
		doc.SourceFile = controllerFile
	}

	if doc.RuleSets != nil {
		doc.Variants = schema.Variants(doc.RuleSets)
	}
	return doc
}

// findClass picks the declared class matching the endpoint's controller.
func (w *worker) findClass(file *phpast.File, name string) *phpast.Class {
	for _, class := range file.Classes {
		if class.Name == name {
			return class
		}
	}
	return nil
}

// analyzeFormRequest resolves a custom request class from the action's
// parameter types and analyzes its rules() method. Analysis results are
// cached by content hash, so unchanged files are not re-analyzed across
// scans in watch mode.
func (w *worker) analyzeFormRequest(ctx context.Context, action *phpast.Method) (*rulesets.Result, string) {
	for _, param := range action.Params {
		typeName := phpast.Unqualify(param.Type)
		if !strings.HasSuffix(typeName, "Request") || typeName == "Request" {
			continue
		}
		requestFile, ok := w.index.Lookup(typeName)
		if !ok {
			continue
		}

		file, err := w.parser.ParseFile(ctx, requestFile)
		if err != nil {
			continue
		}

		class := w.findClass(file, typeName)
		if class == nil || class.Method("rules") == nil {
			file.Close()
			continue
		}

		cacheKey := file.Hash + ":" + typeName + ":rules"
		if cached, ok := w.analyzer.cache.get(cacheKey); ok {
			file.Close()
			return cached, requestFile
		}

		rules := class.Method("rules")
		result := rulesets.Analyze(rules.Body, file.Source, class.SiblingBodies("rules"))
		file.Close()

		w.analyzer.cache.put(cacheKey, result)
		return result, requestFile
	}
	return nil, ""
}

// analyzeInlineValidation finds a $request->validate([...]) call in the
// action body and evaluates its array argument.
func (w *worker) analyzeInlineValidation(action *phpast.Method, src []byte) *rulesets.Result {
	call := findValidateCall(action.Body, src)
	if call == nil {
		return nil
	}
	args := phpast.CallArgs(call)
	if len(args) == 0 {
		return nil
	}
	result := rulesets.AnalyzeArrayLiteral(args[0], src)
	if len(result.Entries) == 0 {
		return nil
	}
	return result
}

// validateCallNames are the request methods recognized as inline validation.
var validateCallNames = map[string]bool{
	"validate":        true,
	"validateWithBag": true,
}

// findValidateCall locates the first inline validation call in a subtree.
func findValidateCall(node *sitter.Node, src []byte) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "member_call_expression" {
		name := phpast.Text(node.ChildByFieldName("name"), src)
		if validateCallNames[name] {
			return node
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := findValidateCall(node.NamedChild(i), src); found != nil {
			return found
		}
	}
	return nil
}
