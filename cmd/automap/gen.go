package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"automap-generator/internal/gen"
	"automap-generator/internal/pipeline"
)

var genCmd = &cobra.Command{
	Use:   "gen [packages...]",
	Short: "Generate mapping methods",
	Long:  `Loads the packages, resolves every declared mapping and writes one <Source>_To_<Dest> file per mapping next to the source type.`,
	RunE:  runGen,
}

func init() {
	genCmd.Flags().Int("jobs", 0, "concurrent file writes (0 = GOMAXPROCS)")
	genCmd.Flags().Bool("dry-run", false, "report changes without writing")
}

func runGen(cmd *cobra.Command, args []string) error {
	setupColor(cmd)

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if err := failOnDiagnostics(&res.Diagnostics, cfg.WarningsAsErrors); err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	written, err := gen.WriteFiles(cmd.Context(), res.Artifacts, gen.WriteOptions{
		Jobs:         cfg.Jobs,
		ManifestPath: cfg.ManifestPath(),
		Dirs:         res.Dirs,
		DryRun:       dryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	for _, path := range written.Written {
		okColor.Fprint(out, "wrote   ")
		fmt.Fprintln(out, path)
	}

	for _, path := range written.Removed {
		warningColor.Fprint(out, "removed ")
		fmt.Fprintln(out, path)
	}

	log.Infof("%d written, %d unchanged, %d removed",
		len(written.Written), len(written.Unchanged), len(written.Removed))

	return nil
}
