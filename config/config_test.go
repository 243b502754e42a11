package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.App.Title != "Laravel API" {
		t.Errorf("expected default title Laravel API, got %s", cfg.App.Title)
	}
	if cfg.Scan.Root != "." {
		t.Errorf("expected default root ., got %s", cfg.Scan.Root)
	}
	if len(cfg.Scan.RouteFiles) == 0 {
		t.Error("expected default route files")
	}
	if cfg.Scan.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Scan.Workers)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("expected default debounce 300ms, got %v", cfg.Watch.Debounce)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing title",
			modify:  func(c *Config) { c.App.Title = "" },
			wantErr: true,
		},
		{
			name:    "missing root",
			modify:  func(c *Config) { c.Scan.Root = "" },
			wantErr: true,
		},
		{
			name:    "no route files",
			modify:  func(c *Config) { c.Scan.RouteFiles = nil },
			wantErr: true,
		},
		{
			name:    "zero workers",
			modify:  func(c *Config) { c.Scan.Workers = 0 },
			wantErr: true,
		},
		{
			name:    "missing output path",
			modify:  func(c *Config) { c.Output.Path = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	overlay := &Config{}
	overlay.App.Title = "My API"
	overlay.Scan.Workers = 2
	overlay.Output.Path = "docs/openapi.yaml"

	base.Merge(overlay)

	if base.App.Title != "My API" {
		t.Errorf("Title = %s, want My API", base.App.Title)
	}
	if base.Scan.Workers != 2 {
		t.Errorf("Workers = %d, want 2", base.Scan.Workers)
	}
	if base.Output.Path != "docs/openapi.yaml" {
		t.Errorf("Output.Path = %s, want docs/openapi.yaml", base.Output.Path)
	}
	// Untouched fields keep their defaults.
	if len(base.Scan.RouteFiles) == 0 {
		t.Error("RouteFiles should keep defaults")
	}
}

func TestConfigMergeNil(t *testing.T) {
	base := DefaultConfig()
	base.Merge(nil)
	if base.App.Title != "Laravel API" {
		t.Error("merging nil should not change config")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "larascan.yaml")
	content := `
app:
  title: Shop API
  version: 2.0.0
scan:
  workers: 4
output:
  path: specs/openapi.v3.yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.App.Title != "Shop API" {
		t.Errorf("Title = %s, want Shop API", cfg.App.Title)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Scan.Workers)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/larascan.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(path, []byte("app: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}
