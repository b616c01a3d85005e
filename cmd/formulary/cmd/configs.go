package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarterbit/formulary/internal/config"
	"github.com/quarterbit/formulary/internal/store"
	"github.com/quarterbit/formulary/internal/types"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store a formula document as a versioned configuration",
	RunE:  runSave,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored configurations",
	RunE:  runList,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent evaluation runs",
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().StringP("document", "d", "", "formula document path (json or yaml)")
	saveCmd.Flags().String("name", "", "configuration name")
	saveCmd.MarkFlagRequired("document")
	saveCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	runsCmd.AddCommand(runsShowCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("document")
	name, _ := cmd.Flags().GetString("name")

	doc, err := config.LoadDocument(path)
	if err != nil {
		return err
	}

	st, err := store.Open(settings.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	cfg, err := st.SaveConfiguration(name, doc)
	if err != nil {
		return err
	}
	slog.Info("configuration stored", "name", cfg.Name, "version", cfg.Version, "id", cfg.ID)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(settings.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	configs, err := st.ListConfigurations()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tID\tCREATED")
	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", c.Name, c.Version, c.ID, c.CreatedAt)
	}
	return w.Flush()
}

func runRuns(cmd *cobra.Command, args []string) error {
	st, err := store.Open(settings.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := st.ListRuns(limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCONFIGURATION\tELAPSED\tWARNING\tCREATED")
	for _, r := range runs {
		configID := "-"
		if r.ConfigurationID.Valid {
			configID = r.ConfigurationID.String
		}
		warning := "-"
		if r.Warning.Valid {
			warning = r.Warning.String
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%s\t%s\n", r.ID, configID, r.ElapsedMs, warning, r.CreatedAt)
	}
	return w.Flush()
}

// runRunsShow resolves one run by id. The id is validated before touching
// the database so a typo reads as a usage error, not a missing row.
func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := types.ParseRunID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	st, err := store.Open(settings.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	r, err := st.GetRun(id.String())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "run:           %s\n", r.ID)
	if started := types.RunIDTime(id); !started.IsZero() {
		fmt.Fprintf(os.Stdout, "started:       %s\n", started.UTC().Format(time.RFC3339))
	}
	if r.ConfigurationID.Valid {
		fmt.Fprintf(os.Stdout, "configuration: %s\n", r.ConfigurationID.String)
	}
	fmt.Fprintf(os.Stdout, "recorded:      %s\n", r.CreatedAt)
	fmt.Fprintf(os.Stdout, "elapsed:       %dms\n", r.ElapsedMs)
	if r.Warning.Valid {
		fmt.Fprintf(os.Stdout, "warning:       %s\n", r.Warning.String)
	}
	fmt.Fprintf(os.Stdout, "inputs:        %s\n", r.Inputs)
	fmt.Fprintf(os.Stdout, "outputs:       %s\n", r.Outputs)
	return nil
}
