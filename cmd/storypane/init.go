package main

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/storypane-dev/storypane/internal/config"
	clierrors "github.com/storypane-dev/storypane/internal/errors"
	"github.com/storypane-dev/storypane/internal/output"
)

func newInitCmd() *cobra.Command {
	var (
		dirFlag string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up Storypane for a project",
		Long: `Write a project overlay file pinning the dev-server settings.

The overlay (` + config.ProjectOverlayName + `) records the tool, port, and
inactivity timeout for this project so every contributor previews against
the same server. If one already exists, use --force to overwrite it.`,
		Example: `  storypane init
  storypane init --dir ./packages/ui`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			cfg, dir, err := loadProjectConfig(dirFlag)
			if err != nil {
				return err
			}

			spec, err := resolveSpec(cfg)
			if err != nil {
				return err
			}

			overlayPath := filepath.Join(dir, config.ProjectOverlayName)
			if _, statErr := os.Stat(overlayPath); statErr == nil && !force {
				return clierrors.OverlayExists(overlayPath)
			}

			overlay := config.ProjectOverlay{
				Tool:              cfg.Tool(),
				Port:              cfg.Port(),
				InactivityMinutes: cfg.GetInt("server.inactivity_minutes"),
			}

			data, err := toml.Marshal(overlay)
			if err != nil {
				return clierrors.ConfigFailed("encode project overlay", err)
			}

			if err := os.WriteFile(overlayPath, data, 0o644); err != nil {
				return clierrors.ConfigFailed("write project overlay", err)
			}

			out.Success("Wrote %s", overlayPath)

			markerPath := spec.MarkerPath(dir)
			if info, statErr := os.Stat(markerPath); statErr != nil || !info.IsDir() {
				out.Warning("%s is not set up here (missing %s)", spec.DisplayName, markerPath)
				out.Info("%s", spec.Remediation)

				return nil
			}

			out.Muted("Run 'storypane preview <file>' to open a component.")

			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing overlay file")

	return cmd
}
