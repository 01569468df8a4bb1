package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/AgriVision/internal/server/handler/http"
	"github.com/atinyakov/AgriVision/internal/shell"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newShellCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run the interactive terminal app",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") && os.Getenv("AGRIVISION_LOG_LEVEL") == "" {
				opts.LogLevel = "warn"
			}
			log, err := newLogger(opts.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, closeStore, err := buildApp(ctx, opts, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			err = shell.New(c, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func newServeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the local JSON API for a browser front-end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := f.options(cmd)
			if err != nil {
				return err
			}
			log, err := newLogger(opts.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, closeStore, err := buildApp(ctx, opts, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			router := http.NewRouter(http.NewAppHandler(c, log.Named("http")), log.Named("http"))
			server := &nethttp.Server{
				Addr:              opts.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting local API", zap.String("addr", opts.Addr))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, nethttp.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
