// Package toolspec describes the external dev-server tools Storypane can
// supervise. Each tool is declared in an embedded YAML file: how to invoke
// it non-interactively, which stdout lines indicate readiness, where its
// project marker directory lives, and how component documentation pages
// are addressed.
//
// The registry exists because tool console output is not a stable contract
// across versions; keeping the patterns in data makes them cheap to extend.
package toolspec

import (
	"embed"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tools/*.yaml
var toolsFS embed.FS

// Spec describes one supervisable dev-server tool, loaded from an embedded
// YAML file.
type Spec struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"displayName"`
	Binary      string   `yaml:"binary"`
	Args        []string `yaml:"args"`
	Env         []string `yaml:"env"`

	// MarkerDir is the project-relative directory whose presence proves
	// the tool is set up; start requests fail fast when it is missing.
	MarkerDir string `yaml:"markerDir"`

	// Remediation is the command a user runs to create MarkerDir.
	Remediation string `yaml:"remediation"`

	DefaultPort int `yaml:"defaultPort"`

	// ReadyPatterns are substrings scanned for in the tool's stdout; any
	// match counts as a readiness signal.
	ReadyPatterns []string `yaml:"readyPatterns"`

	// DocsPath is the URL path+query for a component's documentation page,
	// with {slug} substituted by the component's slugified title.
	DocsPath string `yaml:"docsPath"`
}

var specs = mustLoadSpecs(toolsFS)

func mustLoadSpecs(fsys embed.FS) map[string]*Spec {
	entries, err := fsys.ReadDir("tools")
	if err != nil {
		panic(fmt.Sprintf("toolspec: read tools dir: %v", err))
	}

	loaded := make(map[string]*Spec, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		data, readErr := fsys.ReadFile("tools/" + entry.Name())
		if readErr != nil {
			panic(fmt.Sprintf("toolspec: read tool file %s: %v", entry.Name(), readErr))
		}

		var spec Spec
		if unmarshalErr := yaml.Unmarshal(data, &spec); unmarshalErr != nil {
			panic(fmt.Sprintf("toolspec: parse tool file %s: %v", entry.Name(), unmarshalErr))
		}

		if spec.Name == "" {
			panic(fmt.Sprintf("toolspec: tool file %s has no name", entry.Name()))
		}

		loaded[spec.Name] = &spec
	}

	return loaded
}

// Get returns the spec for a tool name.
func Get(name string) (*Spec, bool) {
	spec, ok := specs[name]
	return spec, ok
}

// Names returns the registered tool names, sorted.
func Names() []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// CommandArgs renders the tool's argv for the given port, substituting
// placeholders. The returned slice is a copy.
func (s *Spec) CommandArgs(port int) []string {
	args := make([]string, 0, len(s.Args))
	for _, arg := range s.Args {
		arg = strings.ReplaceAll(arg, "{port}", strconv.Itoa(port))
		arg = strings.ReplaceAll(arg, "{marker}", s.MarkerDir)
		args = append(args, arg)
	}

	return args
}

// MarkerPath returns the absolute path of the tool's marker directory
// under the given project directory.
func (s *Spec) MarkerPath(projectDir string) string {
	return filepath.Join(projectDir, s.MarkerDir)
}

// DocsURL returns the address of a component's documentation page on a
// server rooted at base (e.g. "http://localhost:6006/").
func (s *Spec) DocsURL(base, slug string) string {
	base = strings.TrimSuffix(base, "/")
	path := strings.ReplaceAll(s.DocsPath, "{slug}", slug)

	return base + "/" + path
}

// MatchesReady reports whether a stdout line contains any readiness pattern.
func (s *Spec) MatchesReady(line string) bool {
	for _, pattern := range s.ReadyPatterns {
		if strings.Contains(line, pattern) {
			return true
		}
	}

	return false
}
