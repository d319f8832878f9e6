package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/espfs/webnav/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webnav",
		Short: "History-mode router and server for the file explorer UI",
		Long: `webnav serves a single-page application in history mode.

It maps URL paths to views, answers deep links with the index
document, and keeps each browser's session history in sync with a
server-side router over a WebSocket bridge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default: webnav.toml or webnav.json in the working directory)")

	cmd.AddCommand(
		serveCmd(),
		routesCmd(),
		matchCmd(),
		versionCmd(),
	)
	return cmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
