// Package commands implements the csvexplorer subcommands that work on a
// single CSV file.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvexplorer/internal/core"
	"github.com/JonMunkholm/csvexplorer/internal/render"
	"github.com/jedib0t/go-pretty/v6/table"
)

// newService builds a service for one-shot commands.
func newService(width, height int) *core.Service {
	return core.NewService(core.ServiceConfig{
		Renderer: render.New(render.Options{Width: width, Height: height}),
	})
}

// loadFile parses path into a fresh session, under its base name so the
// filename still decides schema candidacy.
func loadFile(ctx context.Context, svc *core.Service, path string) (*core.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := core.NewSession()
	if _, err := svc.Upload(ctx, s, filepath.Base(path), f); err != nil {
		return nil, userError(err)
	}
	return s, nil
}

// userError adds the support code to errors the explorer knows about.
func userError(err error) error {
	if err == nil || !core.IsUserFacing(err) {
		return err
	}
	return fmt.Errorf("%w (code %s)", err, core.MapError(err).Code)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
