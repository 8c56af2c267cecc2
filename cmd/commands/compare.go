package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/duet/internal/store"
)

// NewCompareCommand returns the compare subcommand.
func NewCompareCommand() *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Run the reference scenario against both variants and compare their work",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (table, json, yaml)",
				Value: "table",
			},
		},
		Action: runCompare,
	}
}

// comparison is the outcome of the reference scenario for one variant.
type comparison struct {
	Variant store.Variant `json:"variant" yaml:"variant"`
	Tasks   int           `json:"tasks" yaml:"tasks"`
	Visible int           `json:"visible" yaml:"visible"`
	Stats   store.Stats   `json:"stats" yaml:"stats"`
}

func runCompare(_ context.Context, cmd *cli.Command) error {
	results, err := compareVariants()
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if format := cmd.String("format"); format != "table" {
		return writeValue(w, format, results)
	}
	return writeComparisonTable(w, results)
}

func compareVariants() ([]comparison, error) {
	results := make([]comparison, 0, len(store.Variants))
	for _, v := range store.Variants {
		st, err := store.New(v)
		if err != nil {
			return nil, err
		}
		if err := store.Run(st, store.ReferenceScenario); err != nil {
			return nil, fmt.Errorf("%s: %w", v, err)
		}
		results = append(results, comparison{
			Variant: v,
			Tasks:   len(st.Tasks()),
			Visible: len(st.Visible()),
			Stats:   st.Stats(),
		})
	}
	return results, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func writeComparisonTable(out io.Writer, results []comparison) error {
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("reference scenario, %d steps", len(store.ReferenceScenario))))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tRENDERS\tDERIVATIONS\tLIST UPDATES\tTASKS\tVISIBLE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
			r.Variant,
			r.Stats.Renders,
			r.Stats.Derivations,
			r.Stats.ListUpdates,
			r.Tasks,
			r.Visible,
		)
	}
	return w.Flush()
}
