package routes

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/larascan/larascan/phpast"
)

// ClassIndex maps PHP class names to the files declaring them. Built once
// per scan and shared by the analyzer to resolve controllers and request
// classes.
type ClassIndex struct {
	byName map[string]string
}

// Lookup returns the file declaring the named class.
func (idx *ClassIndex) Lookup(className string) (string, bool) {
	path, ok := idx.byName[className]
	return path, ok
}

// Len returns the number of indexed classes.
func (idx *ClassIndex) Len() int {
	return len(idx.byName)
}

// BuildClassIndex globs the given patterns under root and indexes every
// class declaration found. Files that fail to parse are skipped; the first
// declaration of a name wins.
func BuildClassIndex(ctx context.Context, root string, patterns []string, logger *slog.Logger) (*ClassIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	index := &ClassIndex{byName: make(map[string]string)}
	parser := phpast.NewParser()

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}

		for _, match := range matches {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			file, err := parser.ParseFile(ctx, match)
			if err != nil {
				logger.Debug("skipping unparseable file", "path", match, "error", err)
				continue
			}
			for _, class := range file.Classes {
				if _, exists := index.byName[class.Name]; !exists {
					index.byName[class.Name] = match
				}
			}
			file.Close()
		}
	}

	return index, nil
}

// DiscoverRouteFiles globs route file patterns under root.
func DiscoverRouteFiles(root string, patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				files = append(files, match)
			}
		}
	}
	return files, nil
}
