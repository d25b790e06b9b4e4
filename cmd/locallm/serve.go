package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"locallm/internal/httpapi"
	"locallm/internal/progress"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		setup   bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and supervise the engine",
		Example: "  locallm serve --addr 127.0.0.1:8085\n" +
			"  locallm serve --setup=false",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep := progress.NewAsync(progress.Normalizing(progress.Log(a.log)), 64)
			defer rep.Close()
			mgr, err := a.newManager(rep)
			if err != nil {
				return err
			}

			httpapi.SetLogger(a.log)
			httpapi.SetBaseContext(ctx)
			httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
			httpapi.SetAskTimeout(timeout)
			httpapi.SetCORSOptions(a.cfg.CORSEnabled, a.cfg.CORSOrigins, nil, nil)

			srv := &http.Server{
				Addr:              a.cfg.Addr,
				Handler:           httpapi.NewMux(mgr),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", a.cfg.Addr).Str("engine_url", a.cfg.EngineURL).Msg("locallm listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			if setup {
				go func() {
					if !mgr.SetupEnvironment(ctx) {
						a.log.Warn().Msg("initial setup failed; POST /setup to retry")
					}
				}()
			}

			var serveErr error
			select {
			case <-ctx.Done():
			case serveErr = <-errCh:
			}

			// Graceful shutdown (Ctrl+C / SIGTERM)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("graceful shutdown error")
			}
			if err := mgr.Stop(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("engine stop error")
			}
			return serveErr
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (defaults LOCALLM_ADDR or 127.0.0.1:8085)")
	cmd.Flags().BoolVar(&setup, "setup", true, "Run environment setup in the background at startup")
	cmd.Flags().DurationVar(&timeout, "ask-timeout", 0, "Extra bound on /ask requests (0 disables)")
	return cmd
}
