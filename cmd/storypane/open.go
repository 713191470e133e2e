package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storypane-dev/storypane/internal/browser"
	"github.com/storypane-dev/storypane/internal/observability"
	"github.com/storypane-dev/storypane/internal/output"
	"github.com/storypane-dev/storypane/internal/story"
	"github.com/storypane-dev/storypane/internal/viewer"
)

func newOpenCmd() *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "open [file]",
		Short: "Open the dev server in a browser",
		Long: `Open the dev server in the default browser.

With a file argument the component's documentation page is opened; with
no argument the server's root page is. The dev server is started first
if it is not already running.`,
		Example: `  storypane open
  storypane open src/Button.tsx`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			var target *story.Target

			if len(args) == 1 {
				resolved, err := story.Resolve(args[0])
				if err != nil {
					return err
				}

				target = resolved
			}

			sup, _, _, err := buildSupervisor(cmd, dirFlag)
			if err != nil {
				return err
			}

			spin := out.Spinner("Starting dev server")
			spin.Start()

			port, err := sup.Start(cmd.Context())
			if err != nil {
				spin.StopWithFailure("Dev server failed to start")
				return err
			}

			spin.StopWithSuccess(fmt.Sprintf("Dev server on port %d", port))

			url := sup.BaseURL()
			if target != nil {
				session := viewer.NewSession(sup, target, logger)
				url = session.URL()
			}

			if err := browser.Open(url); err != nil {
				return err
			}

			out.Success("Opened %s", url)

			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")

	return cmd
}
