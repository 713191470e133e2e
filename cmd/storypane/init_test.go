package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storypane-dev/storypane/internal/config"
	clierrors "github.com/storypane-dev/storypane/internal/errors"
)

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out, buf := testWriter()

	cmd := newInitCmd()
	cmd.SetArgs(args)
	cmd.SetContext(out.WithContext(t.Context()))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	return buf.String(), err
}

func TestInitWritesOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()

	got, err := runInit(t, "--dir", dir)
	if err != nil {
		t.Fatalf("init error: %v", err)
	}

	overlayPath := filepath.Join(dir, config.ProjectOverlayName)
	if _, statErr := os.Stat(overlayPath); statErr != nil {
		t.Fatalf("overlay not written: %v", statErr)
	}

	// No marker dir in a bare temp dir, so init should point at setup docs.
	if !strings.Contains(got, "not set up") {
		t.Errorf("output = %q, want missing-setup warning", got)
	}
}

func TestInitRefusesExistingOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()

	if _, err := runInit(t, "--dir", dir); err != nil {
		t.Fatalf("first init error: %v", err)
	}

	_, err := runInit(t, "--dir", dir)
	if err == nil {
		t.Fatal("expected error for existing overlay")
	}

	var cliErr *clierrors.CLIError
	if !clierrors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T", err)
	}

	if !strings.Contains(cliErr.Hint, "--force") {
		t.Errorf("hint = %q, want to mention --force", cliErr.Hint)
	}
}

func TestInitForceOverwrites(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()

	if _, err := runInit(t, "--dir", dir); err != nil {
		t.Fatalf("first init error: %v", err)
	}

	if _, err := runInit(t, "--dir", dir, "--force"); err != nil {
		t.Fatalf("forced init error: %v", err)
	}
}
