package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/dotscaffold/internal/cli"
	serrors "github.com/example/dotscaffold/internal/errors"
	"github.com/example/dotscaffold/internal/version"
	"github.com/example/dotscaffold/internal/wire"
)

func main() {
	var opts wire.Options

	rootCmd := &cobra.Command{
		Use:     "dotscaffold",
		Short:   "dotscaffold - layered .NET solution generator",
		Version: version.String(),
		Long: `dotscaffold generates a six-module .NET solution with a fixed reference
graph, pinned packages, a connection-string appsettings.json and an initial
git commit. Every run is recorded in a local journal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.Console = cmd.OutOrStdout()
			wire.Configure(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "dotscaffold home (default $DOTSCAFFOLD_HOME or ~/.dotscaffold)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Only show warnings, errors and the final result")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return serrors.Wrap(serrors.EInputValidation, "invalid flags", err)
	})

	rootCmd.AddCommand(cli.NewCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	err := rootCmd.Execute()
	wire.Close()
	if err != nil {
		serrors.Print(os.Stderr, err)
		os.Exit(serrors.ExitCode(err))
	}
}
