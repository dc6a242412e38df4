package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) serveCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			if a.handler == nil {
				return usageErr("the HTTP API is not available")
			}
			if !cmd.Flags().Changed("port") {
				port = c.cfg.Port
			}
			return c.serve(cmd.Context(), a.handler, fmt.Sprintf(":%d", port))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default PORT)")
	return cmd
}

// serve runs the server until ctx is cancelled, then drains in-flight requests.
func (c *cli) serve(ctx context.Context, h http.Handler, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("server starting", zap.String("addr", addr), zap.String("env", c.cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return system(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	c.logger.Info("server stopping")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return system(err, "shutdown")
	}
	return nil
}
