package viewer

import (
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/storypane-dev/storypane/internal/paths"
	"github.com/storypane-dev/storypane/internal/story"
)

//go:embed bootstrap.html.tmpl
var bootstrapHTML string

var bootstrapTmpl = template.Must(template.New("bootstrap").Parse(bootstrapHTML))

// bootstrapData parameterizes the bootstrap document. Its polling mirrors
// the session's own probe budget so both surfaces give up together.
type bootstrapData struct {
	Title          string
	BaseURL        string
	ContentURL     string
	PollIntervalMs int
	MaxAttempts    int
}

// WriteBootstrap renders the self-refreshing wrapper document for a target
// and returns its path. External browsers cannot show a waiting surface
// the way the panel does; the wrapper polls the docs page itself and swaps
// it in once the server answers.
func (s *Session) WriteBootstrap() (string, error) {
	dir, err := paths.ViewerDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	target := s.Target()

	data := bootstrapData{
		Title:          target.Title,
		BaseURL:        s.sup.BaseURL(),
		ContentURL:     s.URL(),
		PollIntervalMs: int(ProbeInterval.Milliseconds()),
		MaxAttempts:    DefaultMaxAttempts,
	}

	path := filepath.Join(dir, bootstrapFileName(target))

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}

	if err := bootstrapTmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	return path, nil
}

func bootstrapFileName(target *story.Target) string {
	slug := target.Slug
	if slug == "" {
		slug = "preview"
	}

	return fmt.Sprintf("%s.html", slug)
}
