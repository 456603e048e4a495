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
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/config"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/ingest"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/session"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	if err := config.BindFlags(cmd.Flags(), a.v); err != nil {
		panic(err)
	}
	return cmd
}

// converter returns the configured converter, or nil when conversion is
// disabled or the binary is missing.
func (a *app) converter() *ingest.Converter {
	if a.cfg.Convert.Command == "" {
		return nil
	}
	conv, err := ingest.ParseCommand(a.cfg.Convert.Command, a.cfg.Convert.Timeout)
	if err != nil || !conv.Available() {
		a.log.Warn().Str("command", a.cfg.Convert.Command).Msg("converter not found; legacy formats are disabled")
		return nil
	}
	return conv
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := session.NewStore(a.cfg.Session.TTL, a.cfg.Session.History, session.WithLogger(a.log))
	go store.Run(ctx, time.Minute)

	srv, err := web.New(a.cfg, store, web.WithLogger(a.log), web.WithConverter(a.converter()))
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
