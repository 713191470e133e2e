package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storypane-dev/storypane/internal/browser"
	"github.com/storypane-dev/storypane/internal/observability"
	"github.com/storypane-dev/storypane/internal/output"
	"github.com/storypane-dev/storypane/internal/story"
	"github.com/storypane-dev/storypane/internal/tui"
	"github.com/storypane-dev/storypane/internal/viewer"
)

func newPreviewCmd() *cobra.Command {
	var (
		dirFlag     string
		openBrowser bool
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Preview a component or story file",
		Long: `Open a live preview panel for a component.

The dev server is started if it is not already running (an externally
started instance on the configured port is used as-is). The panel waits
for the server to answer, then shows the component's documentation page
address and props. Edits to the previewed file keep the server marked
active; they never force a reload, the dev server hot-reloads on its own.`,
		Example: `  storypane preview src/Button.tsx
  storypane preview src/Button.stories.tsx --browser`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			target, err := story.Resolve(args[0])
			if err != nil {
				return err
			}

			sup, _, notices, err := buildSupervisor(cmd, dirFlag)
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

			session := viewer.NewSession(sup, target, logger)

			if openBrowser {
				path, bootErr := session.WriteBootstrap()
				if bootErr != nil {
					return bootErr
				}

				if openErr := browser.Open("file://" + path); openErr != nil {
					return openErr
				}

				out.Success("Opened %s in your browser", target.Title)

				return nil
			}

			watchPath := target.Path
			if noWatch {
				watchPath = ""
			}

			return tui.Run(cmd.Context(), session, sup, watchPath, notices, logger)
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")
	cmd.Flags().BoolVar(&openBrowser, "browser", false, "Open in the default browser instead of the panel")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not watch the previewed file for activity")

	return cmd
}
