package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarterbit/formulary/internal/codegen"
	"github.com/quarterbit/formulary/internal/config"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile a formula document into a target-language function",
	RunE:  runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("document", "d", "", "formula document path (json or yaml)")
	generateCmd.Flags().StringP("target", "t", "javascript", fmt.Sprintf("target language (%s)", strings.Join(codegen.Targets(), ", ")))
	generateCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	generateCmd.Flags().String("function-name", "", "name of the emitted function (default evaluate)")
	generateCmd.MarkFlagRequired("document")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("document")
	doc, err := config.LoadDocument(path)
	if err != nil {
		return err
	}

	program, warning, err := codegen.Lower(doc)
	if err != nil {
		return err
	}
	if warning != nil {
		slog.Warn("dependency deadlock broken", "formulas", strings.Join(warning.FormulaIDs, ", "))
	}

	target, _ := cmd.Flags().GetString("target")
	backend, err := codegen.ForTarget(target)
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("function-name"); name != "" {
		switch b := backend.(type) {
		case *codegen.JavaScript:
			b.FunctionName = name
		case *codegen.Python:
			b.FunctionName = name
		}
	}

	source, err := backend.Generate(program)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		fmt.Fprint(os.Stdout, source)
		return nil
	}
	if err := os.WriteFile(output, []byte(source), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	slog.Info("generated", "target", backend.Target(), "output", output, "statements", len(program.Stmts))
	return nil
}
