package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/storypane-dev/storypane/internal/config"
	clierrors "github.com/storypane-dev/storypane/internal/errors"
	"github.com/storypane-dev/storypane/internal/observability"
	"github.com/storypane-dev/storypane/internal/supervisor"
	"github.com/storypane-dev/storypane/internal/toolspec"
)

// noticeBuffer bounds how many supervisor notices can queue before the
// consumer picks them up.
const noticeBuffer = 8

// resolveProjectDir returns the absolute project directory: the --dir flag
// when set, otherwise the configured storybook.dir.
func resolveProjectDir(cfg *config.Config, dirFlag string) (string, error) {
	dir := dirFlag
	if dir == "" {
		dir = cfg.ProjectDir()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", clierrors.ProjectDirMissing(dir)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", clierrors.ProjectDirMissing(abs)
	}

	return abs, nil
}

// loadProjectConfig loads user configuration and merges the project's
// .storypane.toml overlay when one exists.
func loadProjectConfig(dirFlag string) (*config.Config, string, error) {
	cfg := config.Load()

	dir, err := resolveProjectDir(cfg, dirFlag)
	if err != nil {
		return nil, "", err
	}

	if err := cfg.ApplyProjectOverlay(dir); err != nil {
		return nil, "", clierrors.ConfigFailed("read project overlay", err)
	}

	return cfg, dir, nil
}

// resolveSpec maps the configured tool name to its spec.
func resolveSpec(cfg *config.Config) (*toolspec.Spec, error) {
	name := cfg.Tool()

	spec, ok := toolspec.Get(name)
	if !ok {
		return nil, clierrors.ToolNotFound(name, toolspec.Names())
	}

	return spec, nil
}

// buildSupervisor wires a supervisor for the project the command targets.
// Settings are re-read from configuration on every start request, so edits
// to port or timeout take effect on the next start without rebuilding.
// The returned channel carries user-facing notices (crashes, idle stops).
func buildSupervisor(cmd *cobra.Command, dirFlag string) (*supervisor.Supervisor, *config.Config, <-chan string, error) {
	cfg, dir, err := loadProjectConfig(dirFlag)
	if err != nil {
		return nil, nil, nil, err
	}

	spec, err := resolveSpec(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	loadSettings := func() (supervisor.Settings, error) {
		fresh := config.Load()
		if overlayErr := fresh.ApplyProjectOverlay(dir); overlayErr != nil {
			return supervisor.Settings{}, clierrors.ConfigFailed("read project overlay", overlayErr)
		}

		return supervisor.Settings{
			ProjectDir:        dir,
			Port:              fresh.Port(),
			InactivityTimeout: fresh.InactivityTimeout(),
		}, nil
	}

	notices := make(chan string, noticeBuffer)
	notify := func(msg string) {
		select {
		case notices <- msg:
		default:
		}
	}

	logger := observability.FromContext(cmd.Context())
	sup := supervisor.New(spec, loadSettings, logger, notify)

	return sup, cfg, notices, nil
}
