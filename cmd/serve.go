package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/afb/internal/log"
	"github.com/zjrosen/afb/internal/server"
	"github.com/zjrosen/afb/internal/tracing"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the directory over HTTP",
	Long: `Start an HTTP API over the directory.

Routes:
  GET  /classes
  GET  /classes/{class}
  GET  /classes/{class}/units/{key}     (?format=markdown for the doc page)
  POST /classes/{class}/make            (JSON manifest body, ?key=K for unit inputs)

Class names accept the same aliases as the other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := directory()
		if err != nil {
			return err
		}
		provider, err := tracing.NewProvider(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("creating tracer: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				log.ErrorErr(log.CatTrace, "Tracer shutdown failed", err)
			}
		}()

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(d, server.Options{
			Resolve:         resolverFor(d),
			Tracer:          provider.Tracer(),
			MaxBodyBytes:    cfg.Server.MaxBodyBytes,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			ReadTimeout:     cfg.Server.ReadTimeout,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "afb listening on %s\n", addr)
		fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")
		if err := srv.Run(ctx, addr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}
