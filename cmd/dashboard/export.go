package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"happinessdash/internal/config"
	"happinessdash/internal/dashboard"
	"happinessdash/internal/render"
)

var (
	exportOut     string
	exportSource  string
	exportPayload string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch results once and write every chart as SVG",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := exportPayload
		if payload == "" {
			payload = cfg.PayloadFile
		}
		written, err := runExport(cmd.Context(), cfg, payload, exportSource, exportOut)
		if err != nil {
			return err
		}
		zap.L().Info("export complete", zap.String("dir", exportOut), zap.Int("charts", written))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "charts", "output directory")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "dataset URL (default: backend default dataset)")
	exportCmd.Flags().StringVar(&exportPayload, "payload", "", "read a saved backend payload instead of calling the backend")
	rootCmd.AddCommand(exportCmd)
}

// runExport fetches once, then renders the charts concurrently into outDir
// alongside a views.json. Charts without data are skipped.
func runExport(ctx context.Context, c config.Config, payloadFile, source, outDir string) (int, error) {
	orch, err := newOrchestrator(c, payloadFile)
	if err != nil {
		return 0, err
	}

	state := orch.FetchData(ctx, source)
	if state.Err != "" {
		return 0, eris.New(state.Err)
	}
	if !state.Results.HasData() {
		return 0, eris.New("backend returned no records")
	}
	views := dashboard.BuildViews(state.Results)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, eris.Wrapf(err, "create %s", outDir)
	}

	opts := render.Options{Width: c.Chart.Width, Height: c.Chart.Height}
	var written atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(render.Names))
	for _, name := range render.Names {
		name := name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := render.Render(&buf, name, views, opts); err != nil {
				if eris.Is(err, render.ErrNoData) {
					zap.L().Warn("chart has no data, skipped", zap.String("chart", name))
					return nil
				}
				return err
			}
			path := filepath.Join(outDir, name+".svg")
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return eris.Wrapf(err, "write %s", path)
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}

	raw, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return int(written.Load()), eris.Wrap(err, "encode views")
	}
	if err := os.WriteFile(filepath.Join(outDir, "views.json"), raw, 0o644); err != nil {
		return int(written.Load()), eris.Wrap(err, "write views.json")
	}
	return int(written.Load()), nil
}
