package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/storypane-dev/storypane/internal/output"
	"github.com/storypane-dev/storypane/internal/terminal"
	"github.com/storypane-dev/storypane/internal/testutil"
)

func testWriter() (*output.Writer, *bytes.Buffer) {
	var buf bytes.Buffer

	term := &terminal.Info{IsTTY: false, NoColor: true, Width: 80, Height: 24}

	return output.NewWriter(&buf, &buf, term), &buf
}

func TestConfigList_Defaults_Golden(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, buf := testWriter()
	cmd := newConfigListCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config list should succeed: %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "config_list_defaults.golden")
}

func TestConfigGet_Default_Golden(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, buf := testWriter()
	cmd := newConfigGetCmd()
	cmd.SetArgs([]string{"storybook.port"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config get should succeed: %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "config_get_default.golden")
}

func TestConfigGet_Unset(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, buf := testWriter()
	cmd := newConfigGetCmd()
	cmd.SetArgs([]string{"no.such.key"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config get should succeed: %v", err)
	}

	if !strings.Contains(buf.String(), "not set") {
		t.Errorf("output = %q, want to contain 'not set'", buf.String())
	}
}

func TestConfigSet_PersistsValue(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, _ := testWriter()
	cmd := newConfigSetCmd()
	cmd.SetArgs([]string{"storybook.port", "6007"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config set should succeed: %v", err)
	}

	// A fresh load must see the persisted value.
	out2, buf2 := testWriter()
	get := newConfigGetCmd()
	get.SetArgs([]string{"storybook.port"})
	get.SetOut(io.Discard)
	get.SetErr(io.Discard)
	get.SetContext(out2.WithContext(t.Context()))

	if err := get.Execute(); err != nil {
		t.Fatalf("config get should succeed: %v", err)
	}

	if !strings.Contains(buf2.String(), "6007") {
		t.Errorf("output = %q, want persisted port 6007", buf2.String())
	}
}

func TestVersionCmd_Golden(t *testing.T) {
	out, buf := testWriter()
	cmd := newVersionCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetContext(out.WithContext(t.Context()))

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version should succeed: %v", err)
	}

	testutil.AssertGolden(t, buf.String(), "version.golden")
}
