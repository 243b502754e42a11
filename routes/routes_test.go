package routes

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRoutes(t *testing.T, src string) []Endpoint {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "api.php")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	endpoints, err := NewParser().ParseFile(context.Background(), path)
	require.NoError(t, err)
	return endpoints
}

func TestParseFile_VerbRoutes(t *testing.T) {
	endpoints := parseRoutes(t, `<?php

use App\Http\Controllers\UserController;

Route::get('/users', [UserController::class, 'index']);
Route::post('/users', [UserController::class, 'store']);
Route::put('/users/{id}', [UserController::class, 'update']);
Route::delete('/users/{id}', [UserController::class, 'destroy']);
`)

	require.Len(t, endpoints, 4)
	assert.Equal(t, Endpoint{Method: "GET", Path: "/users", Controller: "UserController", Action: "index", File: endpoints[0].File}, endpoints[0])
	assert.Equal(t, "POST", endpoints[1].Method)
	assert.Equal(t, "/users/{id}", endpoints[2].Path)
	assert.Equal(t, "destroy", endpoints[3].Action)
}

func TestParseFile_StringAction(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::get('/legacy', 'LegacyController@show');
`)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "LegacyController", endpoints[0].Controller)
	assert.Equal(t, "show", endpoints[0].Action)
}

func TestParseFile_SingleActionController(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::post('/webhooks', [WebhookController::class]);
`)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "WebhookController", endpoints[0].Controller)
	assert.Equal(t, "__invoke", endpoints[0].Action)
}

func TestParseFile_ChainedQualifiersIgnored(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::get('/users', [UserController::class, 'index'])->name('users.index')->middleware('auth');
`)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "/users", endpoints[0].Path)
	assert.Equal(t, "index", endpoints[0].Action)
}

func TestParseFile_GroupPrefix(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::group(['prefix' => 'api/v1'], function () {
    Route::get('/users', [UserController::class, 'index']);
    Route::post('/users', [UserController::class, 'store']);
});
`)

	require.Len(t, endpoints, 2)
	assert.Equal(t, "/api/v1/users", endpoints[0].Path)
	assert.Equal(t, "/api/v1/users", endpoints[1].Path)
}

func TestParseFile_PrefixGroupChain(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::prefix('admin')->group(function () {
    Route::get('/stats', [StatsController::class, 'show']);
});
`)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "/admin/stats", endpoints[0].Path)
}

func TestParseFile_Resource(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::resource('photos', PhotoController::class);
`)

	require.Len(t, endpoints, 5)
	assert.Equal(t, "index", endpoints[0].Action)
	assert.Equal(t, "/photos", endpoints[0].Path)
	assert.Equal(t, "store", endpoints[1].Action)
	assert.Equal(t, "/photos/{id}", endpoints[2].Path)
	assert.Equal(t, "DELETE", endpoints[4].Method)
}

func TestParseFile_Match(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
Route::match(['get', 'post'], '/form', [FormController::class, 'handle']);
`)

	require.Len(t, endpoints, 2)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "POST", endpoints[1].Method)
}

func TestParseFile_NonRouteStatementsIgnored(t *testing.T) {
	endpoints := parseRoutes(t, `<?php
$x = 42;
somethingElse();
Other::get('/nope', [C::class, 'a']);
`)

	assert.Empty(t, endpoints)
}

func TestBuildClassIndex(t *testing.T) {
	tmpDir := t.TempDir()
	appDir := filepath.Join(tmpDir, "app", "Http", "Controllers")
	require.NoError(t, os.MkdirAll(appDir, 0755))

	controller := `<?php
namespace App\Http\Controllers;
class UserController {
    public function index() { return []; }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "UserController.php"), []byte(controller), 0644))

	index, err := BuildClassIndex(context.Background(), tmpDir, []string{"app/**/*.php"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len())

	path, ok := index.Lookup("UserController")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(appDir, "UserController.php"), path)
}

func TestDiscoverRouteFiles(t *testing.T) {
	tmpDir := t.TempDir()
	routesDir := filepath.Join(tmpDir, "routes")
	require.NoError(t, os.MkdirAll(routesDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(routesDir, "api.php"), []byte("<?php"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(routesDir, "web.php"), []byte("<?php"), 0644))

	files, err := DiscoverRouteFiles(tmpDir, []string{"routes/*.php", "routes/api.php"})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
