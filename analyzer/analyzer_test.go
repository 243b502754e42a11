package analyzer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larascan/larascan/config"
)

const fixtureRoutes = `<?php

use Illuminate\Support\Facades\Route;

Route::get('/posts', [PostController::class, 'index']);
Route::post('/posts', [PostController::class, 'store']);
`

const fixtureController = `<?php

namespace App\Http\Controllers;

class PostController extends Controller
{
    public function index(Request $request)
    {
        $data = $request->validate([
            'page' => 'integer|min:1',
        ]);

        return Post::paginate();
    }

    public function store(StorePostRequest $request)
    {
        return Post::create($request->validated());
    }
}
`

const fixtureRequest = `<?php

namespace App\Http\Requests;

class StorePostRequest extends FormRequest
{
    public function rules()
    {
        if ($this->isMethod('post')) {
            return [
                'title' => 'required|string|max:255',
                'status' => 'in:draft,published',
            ];
        }

        return [
            'title' => 'sometimes|string',
        ];
    }
}
`

func writeFixtureApp(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"routes/api.php":                           fixtureRoutes,
		"app/Http/Controllers/PostController.php": fixtureController,
		"app/Http/Requests/StorePostRequest.php":  fixtureRequest,
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func fixtureAnalyzer(t *testing.T, root string) *Analyzer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scan.Root = root
	cfg.Output.Path = filepath.Join(root, "openapi.v3.yaml")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, logger)
}

func TestRunResolvesFormRequestRules(t *testing.T) {
	root := writeFixtureApp(t)
	a := fixtureAnalyzer(t, root)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Endpoints, 2)

	// Sorted by path then method: GET before POST.
	get, post := report.Endpoints[0], report.Endpoints[1]
	assert.Equal(t, "GET", get.Endpoint.Method)
	assert.Equal(t, "POST", post.Endpoint.Method)

	require.NotNil(t, post.RuleSets)
	assert.True(t, post.RuleSets.HasConditions)
	require.Len(t, post.Variants, 2)
	assert.Contains(t, post.SourceFile, "StorePostRequest.php")

	fields := post.RuleSets.Merged
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
}

func TestRunResolvesInlineValidation(t *testing.T) {
	root := writeFixtureApp(t)
	a := fixtureAnalyzer(t, root)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	get := report.Endpoints[0]
	require.NotNil(t, get.RuleSets)
	assert.False(t, get.RuleSets.HasConditions)
	require.Len(t, get.Variants, 1)
	assert.Contains(t, get.SourceFile, "PostController.php")

	page, ok := get.RuleSets.Merged["page"]
	require.True(t, ok)
	require.NotEmpty(t, page)
}

func TestRunCachesByContentHash(t *testing.T) {
	root := writeFixtureApp(t)
	a := fixtureAnalyzer(t, root)

	_, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, a.cache.results, 1)

	// Second run hits the cache without re-analyzing.
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, a.cache.results, 1)
	require.NotNil(t, report.Endpoints[1].RuleSets)

	a.InvalidateCache()
	assert.Empty(t, a.cache.results)
}

func TestRunToleratesMissingController(t *testing.T) {
	root := t.TempDir()
	routesDir := filepath.Join(root, "routes")
	require.NoError(t, os.MkdirAll(routesDir, 0o755))
	routeSrc := `<?php
Route::post('/ghosts', [GhostController::class, 'store']);
`
	require.NoError(t, os.WriteFile(filepath.Join(routesDir, "api.php"), []byte(routeSrc), 0o644))

	a := fixtureAnalyzer(t, root)
	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Endpoints, 1)
	assert.Nil(t, report.Endpoints[0].RuleSets)
	assert.Empty(t, report.Endpoints[0].Variants)
}

func TestGenerateWritesDocument(t *testing.T) {
	root := writeFixtureApp(t)
	a := fixtureAnalyzer(t, root)

	report, err := a.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Endpoints, 2)

	content, err := os.ReadFile(a.cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "openapi: 3.0.3")
	assert.Contains(t, string(content), "/posts")
	assert.Contains(t, string(content), "oneOf")
}

func TestItemsTagging(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/users/{id}", "users"},
		{"/users", "users"},
		{"/", ""},
		{"/api/{tenant}/orders", "orders"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tagFor(tt.path), tt.path)
	}
}
