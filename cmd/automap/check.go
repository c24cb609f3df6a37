package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"automap-generator/internal/pipeline"
)

var errOutdated = errors.New("generated files are out of date, run automap gen")

var checkCmd = &cobra.Command{
	Use:   "check [packages...]",
	Short: "Verify generated files are up to date",
	Long:  `Regenerates every mapping in memory and fails when a file on disk is missing or differs.`,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	out := cmd.OutOrStdout()
	stale := 0

	for _, file := range res.Artifacts {
		existing, err := os.ReadFile(file.Path())

		switch {
		case errors.Is(err, os.ErrNotExist):
			errorColor.Fprint(out, "missing ")
		case err != nil:
			return fmt.Errorf("reading %s: %w", file.Path(), err)
		case !bytes.Equal(existing, file.Content):
			errorColor.Fprint(out, "stale   ")
		default:
			continue
		}

		fmt.Fprintln(out, file.Path())
		stale++
	}

	if stale > 0 {
		return errOutdated
	}

	okColor.Fprintf(out, "%d generated file(s) up to date\n", len(res.Artifacts))

	return nil
}
