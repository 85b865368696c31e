package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assistd/internal/config"
	"assistd/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var (
		addr          string
		corsOrigins   string
		skipProvision bool
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  assistd serve\n  assistd serve -b 127.0.0.1:9090 --log-format console",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if origins := splitCSV(corsOrigins); origins != nil {
				cfg.Server.CORS.AllowedOrigins = origins
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, &log)
			if err != nil {
				return err
			}
			defer a.Close()

			configureHTTP(cfg)
			httpapi.SetLogger(log)
			httpapi.SetBaseContext(ctx)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           httpapi.NewMux(a.mgr),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Server.Addr).Str("config", opts.configPath).Str("ollama", a.gw.BaseURL()).Msg("assistd listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			var provDone <-chan struct{}
			if !skipProvision {
				provDone = a.mgr.StartProvisioning(ctx)
			}

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			log.Info().Msg("shutting down")
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			if provDone != nil {
				select {
				case <-provDone:
				case <-sctx.Done():
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "b", envOr("ASSISTD_ADDR", ""), "HTTP listen address (overrides server.addr; env ASSISTD_ADDR)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (overrides server.cors.allowed_origins)")
	cmd.Flags().BoolVar(&skipProvision, "no-provision", false, "Do not pull tier models at startup")
	return cmd
}

// configureHTTP pushes server settings into the httpapi package.
func configureHTTP(cfg config.Config) {
	httpapi.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	httpapi.SetChatTimeoutSeconds(cfg.Server.ChatTimeoutSeconds)
	httpapi.SetMaxPageSize(cfg.Server.MaxPageSize)
	httpapi.SetChatRateLimit(cfg.Server.ChatRateLimit, cfg.Server.ChatRateBurst)
	c := cfg.Server.CORS
	httpapi.SetCORSOptions(c.IsEnabled(), c.AllowedOrigins, c.AllowedMethods, c.AllowedHeaders)
}
