package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/storypane-dev/storypane/internal/config"
	clierrors "github.com/storypane-dev/storypane/internal/errors"
)

func TestResolveProjectDir_FlagWins(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	cfg := config.Load()

	got, err := resolveProjectDir(cfg, dir)
	if err != nil {
		t.Fatalf("resolveProjectDir(%q) error: %v", dir, err)
	}

	if got != dir {
		t.Errorf("resolveProjectDir = %q, want %q", got, dir)
	}
}

func TestResolveProjectDir_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := config.Load()

	_, err := resolveProjectDir(cfg, filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T", err)
	}
}

func TestLoadProjectConfig_AppliesOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()

	overlay := []byte("port = 6016\ninactivity_minutes = 10\n")
	if err := os.WriteFile(filepath.Join(dir, config.ProjectOverlayName), overlay, 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	cfg, resolved, err := loadProjectConfig(dir)
	if err != nil {
		t.Fatalf("loadProjectConfig error: %v", err)
	}

	if resolved != dir {
		t.Errorf("resolved dir = %q, want %q", resolved, dir)
	}

	if got := cfg.Port(); got != 6016 {
		t.Errorf("Port = %d, want overlay value 6016", got)
	}

	if got := cfg.GetInt("server.inactivity_minutes"); got != 10 {
		t.Errorf("inactivity_minutes = %d, want overlay value 10", got)
	}
}

func TestLoadProjectConfig_BadOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, config.ProjectOverlayName), []byte("port = {"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	_, _, err := loadProjectConfig(dir)
	if err == nil {
		t.Fatal("expected error for malformed overlay")
	}
}
