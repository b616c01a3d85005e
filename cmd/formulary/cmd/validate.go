package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarterbit/formulary/internal/codegen"
	"github.com/quarterbit/formulary/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document...]",
	Short: "Validate formula documents without evaluating them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate parses, normalizes and lowers each document. Lowering runs
// the dependency resolver and the expression scanner, so it surfaces
// structural faults and unresolvable expressions without needing inputs.
func runValidate(cmd *cobra.Command, args []string) error {
	failed := false
	for _, path := range args {
		doc, err := config.LoadDocument(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		_, warning, err := codegen.Lower(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		if warning != nil {
			fmt.Fprintf(os.Stdout, "%s: ok (%d formulas, circular dependency between %s)\n",
				path, len(doc.Formulas), strings.Join(warning.FormulaIDs, ", "))
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: ok (%d formulas)\n", path, len(doc.Formulas))
	}
	if failed {
		return fmt.Errorf("validation failed")
	}
	return nil
}
