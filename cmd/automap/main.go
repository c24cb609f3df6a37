// Package main provides the CLI entrypoint for automap-generator.
//
// automap-generator reads mapping profiles declared with the automap marker
// package and writes one mapping method per declared type pair:
//   - gen writes the generated files
//   - check fails when generated files on disk are out of date
//   - inspect prints the extracted declarations and their resolution
//   - codes lists the diagnostics it can report
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("automap.cli")

var rootCmd = &cobra.Command{
	Use:           "automap",
	Short:         "Compile-time struct mapping generator",
	Long:          `automap generates mapping methods from profiles declared with the automap marker package.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if quiet {
			verbosity = -1
		}

		commonlog.Configure(verbosity, nil)
	},
}

// addGlobalFlags registers the flags shared by every command.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: automap.yaml or automap.toml in --dir)")
	flags.StringP("dir", "C", ".", "directory to load packages from")
	flags.String("marker", "", "import path of the marker package")
	flags.StringSlice("tags", nil, "build tags")
	flags.Bool("warnings-as-errors", false, "fail on warnings")
	flags.Bool("no-comments", false, "omit explanatory comments in generated code")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.CountP("verbose", "v", "increase log verbosity")
	flags.BoolP("quiet", "q", false, "suppress logs")
}

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(versionCmd)

	addGlobalFlags(rootCmd.PersistentFlags())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		errorColor.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
