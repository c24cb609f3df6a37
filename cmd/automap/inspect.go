package main

import (
	"github.com/spf13/cobra"

	"automap-generator/internal/plan"
	"automap-generator/internal/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [packages...]",
	Short: "Print extracted mappings and their resolution as YAML",
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	setupColor(cmd)

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	printDiagnostics(cmd.ErrOrStderr(), &res.Diagnostics)

	data, err := plan.ExportYAML(res.Specs, res.Plan)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}
