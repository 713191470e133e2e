// Package story resolves a source file into a previewable target: which
// story file covers it, what its docs page is titled, and the slug that
// title maps to in the dev server's URL scheme.
//
// Parsing is regex-based and best-effort. Story files are JavaScript or
// TypeScript and a full parse would need a JS toolchain; the fields we
// extract (CSF title, prop names) follow rigid enough conventions that
// pattern matching is reliable in practice.
package story

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/storypane-dev/storypane/internal/errors"
)

// storyExtensions are the companion story file suffixes, in preference
// order.
var storyExtensions = []string{".stories.tsx", ".stories.ts", ".stories.jsx", ".stories.js", ".stories.mdx"}

// Prop is one entry of a component's props contract.
type Prop struct {
	Name     string
	Type     string
	Optional bool
}

// Target is a resolved preview target.
type Target struct {
	// Path is the file the user asked to preview, as given.
	Path string

	// StoryFile is the story file backing the preview: Path itself when it
	// is a story file, otherwise a sibling companion. Empty when the
	// component has no stories yet.
	StoryFile string

	// Title is the docs page title: the CSF default-export title when one
	// is declared, otherwise derived from the file name.
	Title string

	// Slug is Title in the dev server's URL form.
	Slug string

	// Props is the component's props contract, when one was found.
	Props []Prop
}

var (
	csfTitlePattern    = regexp.MustCompile(`\btitle:\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	displayNamePattern = regexp.MustCompile(`\.displayName\s*=\s*['"]([^'"]+)['"]`)
	propsBlockPattern  = regexp.MustCompile(`(?s)(?:interface|type)\s+\w*Props\s*=?\s*(?:extends[^{]*)?\{(.*?)\n\}`)
	propLinePattern    = regexp.MustCompile(`(?m)^\s*(?:readonly\s+)?([A-Za-z_$][\w$]*)(\??)\s*:\s*([^;\n]+?)\s*;?\s*$`)
)

// Resolve inspects the file at path and returns its preview target.
func Resolve(path string) (*Target, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errors.PreviewTargetMissing(path)
	}

	target := &Target{Path: path}

	if isStoryFile(path) {
		target.StoryFile = path
	} else {
		target.StoryFile = findCompanion(path)
	}

	target.Title = resolveTitle(target)
	target.Slug = Slugify(target.Title)
	target.Props = scanProps(path)

	return target, nil
}

func isStoryFile(path string) bool {
	base := filepath.Base(path)
	for _, ext := range storyExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}

	return false
}

// findCompanion looks for a sibling story file sharing the component's
// base name.
func findCompanion(path string) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))

	for _, ext := range storyExtensions {
		candidate := stem + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	return ""
}

// resolveTitle prefers the CSF title from the story file, then the
// component's declared displayName, then the file name itself.
func resolveTitle(target *Target) string {
	if target.StoryFile != "" {
		if data, err := os.ReadFile(target.StoryFile); err == nil {
			if match := csfTitlePattern.FindSubmatch(data); match != nil {
				return string(match[1])
			}
		}
	}

	if data, err := os.ReadFile(target.Path); err == nil {
		if match := displayNamePattern.FindSubmatch(data); match != nil {
			return string(match[1])
		}
	}

	base := filepath.Base(target.Path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimSuffix(base, ".stories")

	return base
}

// Slugify converts a docs title into the dev server's URL id form:
// lowercase, with path separators and other non-alphanumerics collapsed
// to single dashes ("Components/Button" becomes "components-button").
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastDash := true // suppress a leading dash

	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}

// scanProps extracts the component's props contract from an
// `interface XxxProps` or `type XxxProps =` block. Returns nil when no
// such block exists or the file is unreadable.
func scanProps(path string) []Prop {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	block := propsBlockPattern.FindSubmatch(data)
	if block == nil {
		return nil
	}

	var props []Prop

	for _, line := range propLinePattern.FindAllSubmatch(block[1], -1) {
		props = append(props, Prop{
			Name:     string(line[1]),
			Optional: string(line[2]) == "?",
			Type:     string(line[3]),
		})
	}

	return props
}
