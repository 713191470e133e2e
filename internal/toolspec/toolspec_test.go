package toolspec

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestGet_Storybook(t *testing.T) {
	spec, ok := Get("storybook")
	if !ok {
		t.Fatal("storybook spec not registered")
	}

	if spec.Binary != "npx" {
		t.Errorf("binary = %q, want npx", spec.Binary)
	}

	if spec.DefaultPort != 6006 {
		t.Errorf("defaultPort = %d, want 6006", spec.DefaultPort)
	}

	if spec.MarkerDir != ".storybook" {
		t.Errorf("markerDir = %q, want .storybook", spec.MarkerDir)
	}

	if spec.Remediation == "" {
		t.Error("remediation must not be empty; precondition errors carry it")
	}
}

func TestGet_Unknown(t *testing.T) {
	if _, ok := Get("webpack-dashboard"); ok {
		t.Error("unexpected spec for unknown tool")
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()

	want := []string{"ladle", "storybook"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Names() = %v, want %v", names, want)
	}
}

func TestCommandArgs_SubstitutesPlaceholders(t *testing.T) {
	spec, _ := Get("storybook")

	args := spec.CommandArgs(7007)

	assertContains := func(want string) {
		t.Helper()
		for _, arg := range args {
			if arg == want {
				return
			}
		}
		t.Errorf("args %v missing %q", args, want)
	}

	assertContains("7007")
	assertContains(".storybook")
	assertContains("--ci")
	assertContains("--disable-telemetry")

	for _, arg := range args {
		if arg == "{port}" || arg == "{marker}" {
			t.Errorf("unsubstituted placeholder in args: %v", args)
		}
	}

	// The spec's own Args must not be mutated.
	for _, arg := range spec.Args {
		if arg == "7007" {
			t.Error("CommandArgs mutated the spec")
		}
	}
}

func TestMarkerPath(t *testing.T) {
	spec, _ := Get("storybook")

	got := spec.MarkerPath("/srv/ui")
	want := filepath.Join("/srv/ui", ".storybook")

	if got != want {
		t.Errorf("MarkerPath() = %q, want %q", got, want)
	}
}

func TestDocsURL(t *testing.T) {
	spec, _ := Get("storybook")

	tests := []struct {
		base string
		slug string
		want string
	}{
		{"http://localhost:6006/", "components-button", "http://localhost:6006/?path=/docs/components-button--docs"},
		{"http://localhost:6006", "forms-input", "http://localhost:6006/?path=/docs/forms-input--docs"},
	}

	for _, tt := range tests {
		if got := spec.DocsURL(tt.base, tt.slug); got != tt.want {
			t.Errorf("DocsURL(%q, %q) = %q, want %q", tt.base, tt.slug, got, tt.want)
		}
	}
}

func TestMatchesReady(t *testing.T) {
	spec, _ := Get("storybook")

	tests := []struct {
		line string
		want bool
	}{
		{"╭ Local: http://localhost:6006/ ╮", true},
		{"Storybook started in 4.2s", true},
		{"info => serving static files from ./public", true},
		{"webpack compiling...", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := spec.MatchesReady(tt.line); got != tt.want {
			t.Errorf("MatchesReady(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
