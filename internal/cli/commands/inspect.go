package commands

import (
	"fmt"
	"path/filepath"

	"github.com/JonMunkholm/csvexplorer/internal/schema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the layout, column kinds and rows of a CSV file",
		Example: `  csvexplorer inspect train.csv
  csvexplorer inspect test.csv --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Rows to print (0 prints none, -1 prints all)")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, limit int) error {
	svc := newService(0, 0)
	s, err := loadFile(cmd.Context(), svc, path)
	if err != nil {
		return err
	}
	t, err := svc.Table(s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:   %s (%d rows, %d columns)\n", filepath.Base(path), t.Len(), t.Width())
	fmt.Fprintf(out, "Layout: %s\n", schema.Classify(t))
	if claim := schema.Candidate(filepath.Base(path)); claim != schema.Unknown {
		if missing := schema.Missing(t, claim); len(missing) > 0 {
			fmt.Fprintf(out, "Name claims %s but lacks %v\n", claim, missing)
		}
	}
	fmt.Fprintln(out)

	cols := newTable(out)
	cols.AppendHeader(table.Row{"Column", "Kind", "Nulls"})
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		nulls := 0
		for _, v := range col.Values {
			if v.IsNull() {
				nulls++
			}
		}
		cols.AppendRow(table.Row{col.Name, col.Kind, nulls})
	}
	cols.Render()

	if limit == 0 || t.Len() == 0 {
		return nil
	}
	if limit < 0 || limit > t.Len() {
		limit = t.Len()
	}

	header, rows := t.Records()
	tw := newTable(out)
	hr := table.Row{"#"}
	for _, h := range header {
		hr = append(hr, h)
	}
	tw.AppendHeader(hr)
	for i, rec := range rows[:limit] {
		row := table.Row{i}
		for _, cell := range rec {
			row = append(row, cell)
		}
		tw.AppendRow(row)
	}
	fmt.Fprintln(out)
	tw.Render()
	if limit < t.Len() {
		fmt.Fprintf(out, "... %d more rows\n", t.Len()-limit)
	}
	return nil
}
