package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/oo-cli/oo/core/config"
	"github.com/oo-cli/oo/core/launcher"
)

// Version is stamped by the release build.
var Version = "1.0.0"

// rootCmd hands the raw argument vector to the launcher untouched: the
// descriptor-slot grammar (including values like "-" and "+file") is owned by
// the launcher's own classifier, so cobra must not parse flags here.
var rootCmd = &cobra.Command{
	Use:                "oo [options] <stdin> <stdout> <stderr> [--] <commandline>...",
	Short:              "Run a command line, customizing how the processes' standard I/O is redirected",
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	Args:               cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fs := afero.NewOsFs()

		cfg, err := config.Load(fs, config.Path())
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", launcher.ProgramName, err)
			os.Exit(2)
		}

		l := launcher.New(fs, os.Stdin, os.Stdout, os.Stderr, cfg, Version)
		os.Exit(l.Main(args))
	},
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
