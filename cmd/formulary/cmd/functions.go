package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quarterbit/formulary/internal/catalog"
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "List the built-in function catalog",
	RunE:  runFunctions,
}

func init() {
	rootCmd.AddCommand(functionsCmd)
}

func runFunctions(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFUNCTION\tPARAMS\tRETURNS\tDESCRIPTION")
	for _, meta := range catalog.NewWithBuiltins().List() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			meta.Category, meta.Name, meta.Params, meta.Returns, meta.Description)
	}
	return w.Flush()
}
