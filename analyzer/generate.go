package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/larascan/larascan/openapi"
)

// Generate runs a scan and writes the OpenAPI document to the configured
// output path. It returns the report so callers can summarize the run.
func (a *Analyzer) Generate(ctx context.Context) (*Report, error) {
	report, err := a.Run(ctx)
	if err != nil {
		return nil, err
	}

	doc := openapi.Build(openapi.Info{
		Title:       a.cfg.App.Title,
		Description: a.cfg.App.Description,
		Version:     a.cfg.App.Version,
		Servers:     a.cfg.App.Servers,
	}, Items(report))

	if err := openapi.WriteFile(a.cfg.Output.Path, doc); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	a.logger.Info("Wrote OpenAPI document",
		"run_id", report.RunID,
		"path", a.cfg.Output.Path,
		"endpoints", len(report.Endpoints))
	return report, nil
}

// InvalidateCache drops cached analysis results. Watch mode calls this when
// source files change so the next scan re-reads everything it needs.
func (a *Analyzer) InvalidateCache() {
	a.cache.Invalidate()
}

// Items converts a report into renderable endpoint items.
func Items(report *Report) []openapi.Item {
	items := make([]openapi.Item, 0, len(report.Endpoints))
	for _, doc := range report.Endpoints {
		items = append(items, openapi.Item{
			Method:   doc.Endpoint.Method,
			Path:     doc.Endpoint.Path,
			Summary:  summarize(doc),
			Tag:      tagFor(doc.Endpoint.Path),
			Variants: doc.Variants,
		})
	}
	return items
}

// summarize builds a human-readable operation summary from the controller.
func summarize(doc EndpointDoc) string {
	if doc.Endpoint.Controller == "" {
		return ""
	}
	if doc.Endpoint.Action == "" || doc.Endpoint.Action == "__invoke" {
		return doc.Endpoint.Controller
	}
	return fmt.Sprintf("%s %s", doc.Endpoint.Controller, doc.Endpoint.Action)
}

// tagFor groups operations by the first path segment, skipping the common
// api prefix so /api/users and /users land under the same tag.
func tagFor(path string) string {
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		if segment == "" || segment == "api" || strings.HasPrefix(segment, "{") {
			continue
		}
		return segment
	}
	return ""
}
