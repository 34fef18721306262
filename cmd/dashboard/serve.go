package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	transporthttp "happinessdash/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orch, err := newOrchestrator(cfg, cfg.PayloadFile)
		if err != nil {
			return err
		}
		server, err := transporthttp.NewServer(ctx, orch, cfg)
		if err != nil {
			return eris.Wrap(err, "init server")
		}

		httpServer := &http.Server{
			Handler:      server.Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ln, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			return eris.Wrapf(err, "listen on %s", cfg.ListenAddr)
		}

		serveErr := make(chan error, 1)
		go func() {
			zap.L().Info("dashboard listening",
				zap.String("addr", ln.Addr().String()),
				zap.String("backend", cfg.BackendOrigin),
				zap.String("proxy", cfg.ProxyOrigin),
			)
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		// the proxy fallback routes back through this server, so fetch only once it accepts connections
		if cfg.AutoFetch {
			server.Fetch("")
		}

		select {
		case err := <-serveErr:
			if err != nil {
				return eris.Wrap(err, "serve")
			}
			return nil
		case <-ctx.Done():
		}
		zap.L().Info("signal received, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("graceful shutdown failed", zap.Error(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
