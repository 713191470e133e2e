package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/storypane-dev/storypane/internal/supervisor"
	"github.com/storypane-dev/storypane/internal/viewer"
	"github.com/storypane-dev/storypane/internal/watch"
)

// Run drives the preview panel until the user quits. When watchPath is
// non-empty, edits to that file are fed into the panel as activity.
func Run(ctx context.Context, session *viewer.Session, sup *supervisor.Supervisor, watchPath string, notices <-chan string, logger *slog.Logger) error {
	p := tea.NewProgram(NewPanel(session, sup, notices), tea.WithContext(ctx))

	if watchPath != "" {
		w, err := watch.New(watchPath, watch.DefaultDebounce, func() {
			p.Send(fileChangedMsg{})
		}, logger)
		if err != nil {
			return err
		}

		defer w.Close()
	}

	_, err := p.Run()

	return err
}
