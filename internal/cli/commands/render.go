package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var (
		outDir        string
		width, height int
	)

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render every planned chart of a CSV file to PNG",
		Example: `  csvexplorer render train.csv --out charts
  csvexplorer render test.csv --out charts --width 1280 --height 720`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], outDir, width, height)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "charts", "Output directory")
	cmd.Flags().IntVar(&width, "width", render.DefaultOptions.Width, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", render.DefaultOptions.Height, "Image height in pixels")
	return cmd
}

func runRender(cmd *cobra.Command, path, outDir string, width, height int) error {
	svc := newService(width, height)
	s, err := loadFile(cmd.Context(), svc, path)
	if err != nil {
		return err
	}
	p, err := svc.Plan(cmd.Context(), s)
	if err != nil {
		return userError(err)
	}
	images, err := svc.RenderAll(cmd.Context(), s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, img := range images {
		if img.PNG == nil {
			if d := p.Descriptors[img.Index]; d.IsWarning() {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped chart %d: %s\n", img.Index, d.Warning)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped chart %d: %s has no data\n", img.Index, d.Title)
			}
			continue
		}

		name := filepath.Join(outDir, fmt.Sprintf("%02d-%s.png", img.Index, slug(img.Title)))
		if err := os.WriteFile(name, img.PNG, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(out, name)
	}
	return nil
}

// slug turns a chart title into a file name fragment.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "chart"
	}
	return s
}
