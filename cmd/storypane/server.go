package main

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/storypane-dev/storypane/internal/errors"
	"github.com/storypane-dev/storypane/internal/output"
	"github.com/storypane-dev/storypane/internal/supervisor"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage the supervised dev server",
		Long:  `Start, stop, and inspect the component dev server Storypane supervises.`,
	}

	cmd.AddCommand(newServerStartCmd())
	cmd.AddCommand(newServerStopCmd())
	cmd.AddCommand(newServerStatusCmd())

	return cmd
}

func newServerStartCmd() *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the dev server",
		Long: `Start the project's dev server and wait for it to become ready.

Starting is idempotent: if a server is already running on the configured
port (whether or not Storypane launched it), this reports its address and
exits. The server keeps running after this command returns; the inactivity
auto-stop only applies while a preview panel is supervising it. Use
'storypane server stop' to end a detached server.`,
		Example: `  storypane server start
  storypane server start --dir ./packages/ui`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

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

			spin.StopWithSuccess(fmt.Sprintf("Dev server ready at http://localhost:%d/", port))

			if !sup.CanStop() {
				out.Muted("This instance was started outside storypane; it will not be stopped automatically.")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")

	return cmd
}

func newServerStopCmd() *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the dev server",
		Long: `Stop a dev server that Storypane started.

Instances started outside storypane are never stopped; the command
reports an error instead.`,
		Example: `  storypane server stop`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			sup, _, _, err := buildSupervisor(cmd, dirFlag)
			if err != nil {
				return err
			}

			if !sup.IsRunning() {
				return clierrors.ServerNotRunning()
			}

			// Ownership does not survive the process that spawned the
			// server, so a stop from a fresh invocation consults the
			// on-disk record instead.
			rec, ok := supervisor.ReadRecord()
			if !ok || !rec.Alive() {
				return clierrors.StopRefused(sup.Port())
			}

			if err := supervisor.StopRecorded(rec, 0); err != nil {
				return err
			}

			out.Success("Dev server stopped")

			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")

	return cmd
}

// serverStatus is the JSON shape of 'server status'.
type serverStatus struct {
	Running bool   `json:"running"`
	Phase   string `json:"phase"`
	Port    int    `json:"port"`
	PID     int    `json:"pid,omitempty"`
	Owned   bool   `json:"owned"`
	URL     string `json:"url,omitempty"`
}

func newServerStatusCmd() *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dev server status",
		Long: `Report whether the dev server is running and, if so, its URL, phase,
and PID. Also indicates whether Storypane owns the instance or it was
started externally.`,
		Example: `  storypane server status
  storypane server status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			sup, _, _, err := buildSupervisor(cmd, dirFlag)
			if err != nil {
				return err
			}

			running := sup.IsRunning()
			snap := sup.GetStatus()

			status := serverStatus{
				Running: running,
				Phase:   snap.Phase.String(),
				Port:    sup.Port(),
				PID:     snap.PID,
				Owned:   snap.Owned,
			}

			if running {
				status.URL = sup.BaseURL()

				// This invocation did not spawn the server; the on-disk
				// record tells an earlier one's child from an external
				// instance.
				if !snap.Owned {
					status.Phase = "ready"

					if rec, ok := supervisor.ReadRecord(); ok && rec.Alive() {
						status.Owned = true
						status.PID = rec.PID
					}
				}
			}

			if out.JSON {
				return out.PrintJSON(status)
			}

			if !running {
				out.Muted("Dev server is not running (port %d free)", status.Port)
				return nil
			}

			out.Success("Dev server running at %s", status.URL)

			if status.Owned {
				out.Print("  phase: %s\n  pid:   %d\n", status.Phase, status.PID)
			} else {
				out.Muted("  started outside storypane (will not be stopped automatically)")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dirFlag, "dir", "", "Project directory (default: configured storybook.dir)")

	return cmd
}
