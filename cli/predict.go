package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"predictdemo/dataset"
	"predictdemo/workflow"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run one batch prediction and print the result table",
	Long: `Run one batch prediction for a variant and print the result table
followed by the number of rows predicted into each class.

Examples:
  predictdemo predict --variant adult-income
  predictdemo predict --variant attrition --model decision_tree --rows 0`,
	RunE: runPredict,
}

// Flags
var (
	predictVariant string
	predictModel   string
	predictRows    int
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVarP(&predictVariant, "variant", "v", "adult-income", "Variant name")
	predictCmd.Flags().StringVarP(&predictModel, "model", "m", "", "Algorithm: random_forest or decision_tree (default: the variant's first)")
	predictCmd.Flags().IntVarP(&predictRows, "rows", "n", -1, "Rows to print, 0 for all (default: the variant's setting)")
}

func runPredict(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	v, ok := a.catalogue.Get(predictVariant)
	if !ok {
		return fmt.Errorf("unknown variant %q", predictVariant)
	}
	sel := workflow.Selection{Variant: v, Algorithm: v.Algorithms()[0]}
	if predictModel != "" {
		alg, err := workflow.ParseAlgorithm(predictModel)
		if err != nil {
			return err
		}
		sel.Algorithm = alg
	}
	rows := v.ResultRows
	if predictRows >= 0 {
		rows = predictRows
	}

	session := a.service.NewSession(sel)
	if err := session.Open(); err != nil {
		return describe(err)
	}
	result, err := session.Predict(cmd.Context())
	if err != nil {
		return describe(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n\n", v.Title, sel.Algorithm.Label())
	if err := printTable(out, result.Table, rows); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, c := range result.Counts.Classes {
		fmt.Fprintf(out, "%s: %d\n", c.Label, c.Count)
	}
	if result.Counts.Other > 0 {
		fmt.Fprintf(out, "other: %d\n", result.Counts.Other)
	}
	return nil
}

// describe appends the kind-specific guidance to a workflow failure.
func describe(err error) error {
	kind := workflow.KindOf(err)
	if guidance := workflow.Guidance(kind); guidance != "" {
		return fmt.Errorf("%s: %w\n%s", kind, err, guidance)
	}
	return err
}

func printTable(out io.Writer, t *dataset.Table, limit int) error {
	n := t.NumRows()
	if limit > 0 && limit < n {
		n = limit
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Columns(), "\t"))
	for i := 0; i < n; i++ {
		fmt.Fprintln(w, strings.Join(t.Row(i), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if n < t.NumRows() {
		fmt.Fprintf(out, "... %d of %d rows shown\n", n, t.NumRows())
	}
	return nil
}

