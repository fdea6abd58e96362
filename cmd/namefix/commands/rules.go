package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/namefix/pkg/rules"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

var knownDialects = []syntax.Dialect{syntax.CSharp, syntax.VisualBasic}

// NewRulesCommand creates the rules command listing every built-in rule in
// run order.
func NewRulesCommand() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := rules.NewRegistry(rules.Builtin()...)
			if err != nil {
				return err
			}

			selected, err := registry.Select(patterns, nil)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRules(selected))

			return err
		},
	}

	cmd.Flags().StringSliceVarP(&patterns, "rules", "r", nil, "Only list rules matching these IDs or glob patterns")

	return cmd
}

func renderRules(selected []rules.Rule) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Order", "ID", "Description", "Dialects"})

	for _, rule := range selected {
		desc := rule.Descriptor()

		var dialects []string

		for _, dialect := range knownDialects {
			if rule.SupportsDialect(dialect) {
				dialects = append(dialects, string(dialect))
			}
		}

		tbl.AppendRow(table.Row{desc.Order, desc.ID, desc.Description, strings.Join(dialects, ", ")})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d rules", len(selected))})

	return tbl.Render()
}
