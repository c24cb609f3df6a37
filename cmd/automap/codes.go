package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"automap-generator/internal/diagnostic"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List the diagnostic codes and their default severity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		setupColor(cmd)
		printCodes(cmd.OutOrStdout())
	},
}

// printCodes writes the diagnostic table, one code per line.
func printCodes(w io.Writer) {
	for _, d := range diagnostic.Descriptors() {
		codeColor.Fprint(w, d.Code+" ")
		severityColor(d.Severity).Fprintf(w, "%-7s", d.Severity.String())
		fmt.Fprintln(w, " "+d.Title)
	}
}
