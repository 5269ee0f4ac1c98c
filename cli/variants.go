package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the configured prediction variants",
	RunE:  runVariants,
}

func init() {
	rootCmd.AddCommand(variantsCmd)
}

func runVariants(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tMODELS\tDATASET\tPREDICTION COLUMN")
	for _, v := range a.catalogue.All() {
		algs := make([]string, 0, len(v.ModelPaths))
		for _, alg := range v.Algorithms() {
			algs = append(algs, string(alg))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Name, v.Title, strings.Join(algs, ","), v.DatasetPath, v.PredictionColumn)
	}
	return w.Flush()
}
