package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewPlanCommand creates the plan command.
func NewPlanCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Print the chart plan for a CSV file",
		Long: `Classify a CSV file and print the ordered chart descriptors planned for it.

A file named train.csv or test.csv must carry that layout's required columns.`,
		Example: `  csvexplorer plan train.csv
  csvexplorer plan test.csv --output yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format (table|json|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runPlan(cmd *cobra.Command, path, output string) error {
	switch output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", output)
	}

	svc := newService(0, 0)
	s, err := loadFile(cmd.Context(), svc, path)
	if err != nil {
		return err
	}
	p, err := svc.Plan(cmd.Context(), s)
	if err != nil {
		return userError(err)
	}

	w := cmd.OutOrStdout()
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	default:
		return planTable(w, p)
	}
}

func planTable(w io.Writer, p core.Plan) error {
	fmt.Fprintf(w, "File:   %s\nLayout: %s\n\n", p.File, p.Tag)

	tw := newTable(w)
	tw.AppendHeader(table.Row{"#", "Kind", "Title", "Columns", "Points"})
	for i, d := range p.Descriptors {
		title := d.Title
		if d.IsWarning() {
			title = d.Warning
		}
		tw.AppendRow(table.Row{i, d.Kind, title, strings.Join(d.Columns, ", "), len(d.Series)})
	}
	tw.Render()
	return nil
}
