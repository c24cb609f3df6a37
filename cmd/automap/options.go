package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"automap-generator/internal/config"
)

// loadConfig builds the run settings: defaults, then the config file, then
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	dir, _ := flags.GetString("dir")

	path, _ := flags.GetString("config")
	if path == "" {
		path = config.Find(dir)
	}

	cfg := config.Default()

	if path != "" {
		var err error

		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}

		log.Debugf("using config %s", path)
	}

	if flags.Changed("dir") || cfg.Dir == "" {
		cfg.Dir = dir
	}

	abs, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.Dir, err)
	}

	cfg.Dir = abs

	if len(args) > 0 {
		cfg.Patterns = args
	}

	if flags.Changed("marker") {
		cfg.MarkerPackage, _ = flags.GetString("marker")
	}

	if flags.Changed("tags") {
		cfg.Tags, _ = flags.GetStringSlice("tags")
	}

	if flags.Changed("warnings-as-errors") {
		cfg.WarningsAsErrors, _ = flags.GetBool("warnings-as-errors")
	}

	if noComments, _ := flags.GetBool("no-comments"); noComments {
		cfg.Comments = false
	}

	if flags.Changed("jobs") {
		cfg.Jobs, _ = flags.GetInt("jobs")
	}

	if flags.Changed("verbose") {
		cfg.Verbosity, _ = flags.GetCount("verbose")
	}

	return cfg, cfg.Validate()
}
