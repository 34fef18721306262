package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"happinessdash/internal/tui"
)

var (
	tuiSource  string
	tuiLogFile string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the dashboard in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		// the alternate screen owns stdout and stderr
		if err := redirectLogs(tuiLogFile); err != nil {
			return err
		}

		orch, err := newOrchestrator(cfg, cfg.PayloadFile)
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), orch, tui.Options{AutoFetch: cfg.AutoFetch, Source: tuiSource})
	},
}

func redirectLogs(path string) error {
	if path == "" {
		zap.ReplaceGlobals(zap.NewNop())
		return nil
	}
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	logger, err := zc.Build()
	if err != nil {
		return eris.Wrap(err, "open tui log file")
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func init() {
	tuiCmd.Flags().StringVar(&tuiSource, "source", "", "dataset URL to fetch on start")
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "write logs to this file instead of discarding them")
	rootCmd.AddCommand(tuiCmd)
}
