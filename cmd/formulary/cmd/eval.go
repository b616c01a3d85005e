package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarterbit/formulary/internal/catalog"
	"github.com/quarterbit/formulary/internal/config"
	"github.com/quarterbit/formulary/internal/engine"
	"github.com/quarterbit/formulary/internal/store"
	"github.com/quarterbit/formulary/internal/types"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a formula document against inputs",
	RunE:  runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringP("document", "d", "", "formula document path (json or yaml)")
	evalCmd.Flags().String("name", "", "stored configuration name (alternative to --document)")
	evalCmd.Flags().Int("version", 0, "stored configuration version (0 = latest)")
	evalCmd.Flags().StringP("inputs", "i", "{}", "input values as JSON object, or @path to a JSON file")
	evalCmd.Flags().Bool("save", false, "record the run in the database")
}

func runEval(cmd *cobra.Command, args []string) error {
	doc, configID, err := resolveDocument(cmd)
	if err != nil {
		return err
	}

	inputs, err := parseInputs(cmd)
	if err != nil {
		return err
	}

	eng := engine.New(catalog.NewWithBuiltins(), engine.Options{Precision: settings.Precision})
	result, err := eng.Evaluate(doc, inputs)
	if err != nil {
		return err
	}

	if result.Warning != nil {
		slog.Warn("dependency deadlock broken", "formulas", strings.Join(result.Warning.FormulaIDs, ", "))
	}
	slog.Info("evaluation complete",
		"run_id", result.RunID.String(),
		"formulas", len(doc.Formulas),
		"elapsed", result.Elapsed)

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.Open(settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		warning := ""
		if result.Warning != nil {
			warning = result.Warning.String()
		}
		if err := st.RecordRun(result.RunID.String(), configID, inputs, result.Outputs, warning, result.Elapsed); err != nil {
			return err
		}
	}

	encoded, err := json.MarshalIndent(result.Outputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(encoded))
	return nil
}

// resolveDocument loads the document from --document, or from the store
// when --name is given. Returns the configuration id when the store served
// it, for run records.
func resolveDocument(cmd *cobra.Command) (*types.Document, string, error) {
	path, _ := cmd.Flags().GetString("document")
	name, _ := cmd.Flags().GetString("name")

	switch {
	case path != "" && name != "":
		return nil, "", fmt.Errorf("--document and --name are mutually exclusive")
	case path != "":
		doc, err := config.LoadDocument(path)
		return doc, "", err
	case name != "":
		version, _ := cmd.Flags().GetInt("version")
		st, err := store.Open(settings.DatabaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open database: %w", err)
		}
		defer st.Close()

		cfg, err := st.GetConfiguration(name, version)
		if err != nil {
			return nil, "", err
		}
		doc, err := cfg.Decode()
		if err != nil {
			return nil, "", err
		}
		return doc, cfg.ID, nil
	default:
		return nil, "", fmt.Errorf("either --document or --name is required")
	}
}

// parseInputs decodes --inputs: a JSON object inline, or @path to a file.
func parseInputs(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("inputs")
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		content, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs file: %w", err)
		}
		data = content
	}
	var inputs map[string]any
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("inputs must be a JSON object: %w", err)
	}
	return inputs, nil
}
