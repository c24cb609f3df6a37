package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"automap-generator/internal/diagnostic"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	codeColor    = color.New(color.Faint)
	okColor      = color.New(color.FgGreen)
)

// setupColor applies the --color flag.
func setupColor(cmd *cobra.Command) {
	mode, _ := cmd.Flags().GetString("color")

	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

func severityColor(s diagnostic.DiagnosticSeverity) *color.Color {
	switch s {
	case diagnostic.DiagnosticError:
		return errorColor
	case diagnostic.DiagnosticWarning:
		return warningColor
	default:
		return infoColor
	}
}

// printDiagnostics writes diagnostics sorted by position, one per line.
func printDiagnostics(w io.Writer, diags *diagnostic.Diagnostics) {
	for _, d := range diags.Sorted() {
		if d.Pos.IsValid() {
			fmt.Fprintf(w, "%s: ", d.Pos)
		}

		codeColor.Fprint(w, d.Code+" ")
		severityColor(d.Severity).Fprint(w, d.Severity.String())
		fmt.Fprint(w, ": ")

		if d.TypePair != "" {
			fmt.Fprintf(w, "[%s] ", d.TypePair)
		}

		if d.FieldPath != "" {
			fmt.Fprintf(w, "%s: ", d.FieldPath)
		}

		fmt.Fprint(w, d.Message)

		if len(d.Suggestions) > 0 {
			fmt.Fprintf(w, " (did you mean %s?)", strings.Join(d.Suggestions, " or "))
		}

		fmt.Fprintln(w)
	}
}

// failOnDiagnostics prints the diagnostics and turns error severities into
// a command failure.
func failOnDiagnostics(diags *diagnostic.Diagnostics, warningsAsErrors bool) error {
	if warningsAsErrors {
		diags.PromoteWarnings()
	}

	printDiagnostics(os.Stderr, diags)

	if diags.HasErrors() {
		return fmt.Errorf("%d error(s) reported", len(diags.Errors))
	}

	return nil
}
