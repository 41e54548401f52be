package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/restyle/internal/app"
	"github.com/hyperifyio/restyle/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(o *options) *cobra.Command {
	var (
		maxUpload   int64
		allowConfig bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an upload form that restyles documents in the browser",
		Long: `Serve starts an HTTP server with a form for uploading a reference and a
target document. The formatted document is returned as a download. An API
key entered in the form is used for that request only. Requests without a
key are rejected unless --allow.configuredKey is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd, o)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()

			ln, err := net.Listen("tcp", cfg.ServeAddr)
			if err != nil {
				return err
			}
			return serve(ctx, ln, server.New(server.Options{
				Transformer:        a,
				MaxUploadBytes:     maxUpload,
				AllowConfiguredKey: allowConfig,
			}))
		},
	}
	cmd.Flags().StringVar(&o.addr, "addr", app.DefaultServeAddr, "Listen address")
	cmd.Flags().Int64Var(&maxUpload, "max.uploadBytes", server.DefaultMaxUploadBytes, "Maximum size of one upload request")
	cmd.Flags().BoolVar(&allowConfig, "allow.configuredKey", false, "Run requests without an API key using the configured key")
	return cmd
}

// serve runs h on ln until ctx is cancelled, then drains open requests.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("serving")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
