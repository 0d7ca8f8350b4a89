package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Workers != 8 {
		t.Errorf("expected default workers 8, got %d", cfg.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
	if cfg.ExcludeDirs != nil {
		t.Error("expected nil excludeDirs (built-in defaults apply)")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"author": "Jane Doe",
		"rootPaths": ["/home/jane/projects"],
		"excludeDirs": ["generated"],
		"includePatterns": {"unity": ["Assets/**/*.cs"]},
		"workers": 4
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Author != "Jane Doe" {
		t.Errorf("unexpected author %q", cfg.Author)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Workers)
	}
	if !reflect.DeepEqual(cfg.ExcludeDirs, []string{"generated"}) {
		t.Errorf("unexpected excludeDirs %v", cfg.ExcludeDirs)
	}
	if !reflect.DeepEqual(cfg.IncludePatterns["unity"], []string{"Assets/**/*.cs"}) {
		t.Errorf("unexpected unity include patterns %v", cfg.IncludePatterns["unity"])
	}
	// Absent categories stay nil so built-in defaults apply.
	if cfg.ExcludeExtensions != nil {
		t.Error("expected nil excludeExtensions")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(dir); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Author = "Jane Doe"
	cfg.RootPaths = []string{"/home/jane/projects"}

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Author != cfg.Author {
		t.Errorf("expected author %q, got %q", cfg.Author, loaded.Author)
	}
	if !reflect.DeepEqual(loaded.RootPaths, cfg.RootPaths) {
		t.Errorf("expected rootPaths %v, got %v", cfg.RootPaths, loaded.RootPaths)
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing author", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RootPaths = []string{"/tmp"}
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing author")
		}
	})

	t.Run("missing roots", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Author = "Jane"
		if err := cfg.Validate(); err == nil {
			t.Error("expected error for missing root paths")
		}
	})

	t.Run("valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Author = "Jane"
		cfg.RootPaths = []string{"/tmp"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestOverriddenCategories(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.OverriddenCategories(); len(got) != 0 {
		t.Errorf("expected no overrides, got %v", got)
	}

	cfg.ExcludeDirs = []string{"generated"}
	cfg.ExcludeFilenames = []string{}
	got := cfg.OverriddenCategories()
	want := []string{"excludeDirs", "excludeFilenames"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
