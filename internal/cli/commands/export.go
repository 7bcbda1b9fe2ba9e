package commands

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvexplorer/internal/export"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var (
		out     string
		deletes []int
		sets    []string
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Apply row edits and deletions, then write the table as xlsx",
		Long: `Load a CSV file, apply edits and deletions, and write the result as a
spreadsheet.

All row indices refer to the file as loaded. Edits are applied first, one
all-or-nothing edit per row; deletions follow.`,
		Example: `  csvexplorer export train.csv
  csvexplorer export train.csv --out clean.xlsx --delete 3 --delete 10
  csvexplorer export test.csv --set 0:Age=23 --set 0:Sex=female`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], out, deletes, sets)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", export.Filename, "Output path")
	cmd.Flags().IntSliceVar(&deletes, "delete", nil, "Row index to delete (repeatable)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Cell edit as ROW:Column=value (repeatable)")
	return cmd
}

// rowEdit is one row's worth of --set flags.
type rowEdit struct {
	index int
	edits map[string]string
}

// parseSets groups --set flags by row, keeping the order rows first appear.
func parseSets(sets []string) ([]rowEdit, error) {
	var out []rowEdit
	pos := make(map[int]int)
	for _, raw := range sets {
		idx, rest, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want ROW:Column=value", raw)
		}
		column, value, ok := strings.Cut(rest, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid --set %q: want ROW:Column=value", raw)
		}
		index, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: row index %q is not a number", raw, idx)
		}

		i, seen := pos[index]
		if !seen {
			i = len(out)
			pos[index] = i
			out = append(out, rowEdit{index: index, edits: make(map[string]string)})
		}
		out[i].edits[column] = value
	}
	return out, nil
}

func runExport(cmd *cobra.Command, path, out string, deletes []int, sets []string) error {
	edits, err := parseSets(sets)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc := newService(0, 0)
	s, err := loadFile(ctx, svc, path)
	if err != nil {
		return err
	}

	for _, e := range edits {
		if _, err := svc.EditRow(ctx, s, e.index, e.edits); err != nil {
			return userError(err)
		}
	}

	// Highest first so earlier deletions do not shift later indices.
	order := slices.Clone(deletes)
	slices.Sort(order)
	order = slices.Compact(order)
	slices.Reverse(order)
	for _, i := range order {
		if _, err := svc.DeleteRow(ctx, s, i); err != nil {
			return userError(err)
		}
	}

	blob, err := svc.Export(ctx, s)
	if err != nil {
		return userError(err)
	}
	if err := os.WriteFile(out, blob, 0o644); err != nil {
		return err
	}

	t, _ := svc.Table(s)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d rows, %d edited, %d deleted)\n", out, t.Len(), len(edits), len(order))
	return nil
}
