// Package main implements the designorch CLI.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "designorch",
		Short: "Route design processing work across AI providers",
		Long: `designorch turns a design payload into documentation, code generation,
reasoning and optimization tasks, routes each task to a provider and merges
the results into one report.

Configuration is read from --config (YAML) and DESIGNORCH_* environment
variables, for example DESIGNORCH_ORCHESTRATOR_MAX_CONCURRENT=5.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "override logging.format (json, console)")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newProvidersCmd(flags))
	root.AddCommand(newServeCmd(flags))
	return root
}

// errRunFailed is returned when a run completes without success so the
// process exits non-zero after the result has been printed.
var errRunFailed = errors.New("orchestration failed")
