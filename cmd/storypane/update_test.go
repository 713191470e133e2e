package main

import (
	"io"
	"strings"
	"testing"

	"github.com/storypane-dev/storypane/internal/buildinfo"
)

func TestUpdateCmd_DisabledByEnv(t *testing.T) {
	t.Setenv("STORYPANE_UPDATE_DISABLED", "1")

	out, buf := testWriter()

	cmd := newUpdateCmd()
	cmd.SetArgs([]string{})
	cmd.SetContext(out.WithContext(t.Context()))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.Contains(buf.String(), "disabled") {
		t.Errorf("expected 'disabled' in output, got: %q", buf.String())
	}
}

func TestUpdateCmd_DevBuild(t *testing.T) {
	t.Setenv("STORYPANE_UPDATE_DISABLED", "")

	oldVersion := buildinfo.Version
	buildinfo.Version = "dev"

	defer func() { buildinfo.Version = oldVersion }()

	out, buf := testWriter()

	cmd := newUpdateCmd()
	cmd.SetArgs([]string{})
	cmd.SetContext(out.WithContext(t.Context()))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.Contains(buf.String(), "Development build") {
		t.Errorf("expected 'Development build' in output, got: %q", buf.String())
	}
}
