// Package serve runs the HTTP API
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/txledger/cmd/root"
	"fjacquet/txledger/internal/logging"
)

var port int

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API for ingestion, batch classification and suggestion review.

The server stops gracefully on SIGINT or SIGTERM.

Example:
  txledger serve --port 8080`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default: server.port)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := root.GetContainer(ctx)
	if err != nil {
		return err
	}
	cfg := c.GetConfig()

	listen := cfg.Server.Port
	if port > 0 {
		listen = port
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", listen),
		Handler:           c.NewServer().Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}
	return Run(ctx, srv, time.Duration(cfg.Server.ShutdownSeconds)*time.Second, c.GetLogger())
}

// Run serves until ctx is done, then shuts the server down within grace.
func Run(ctx context.Context, srv *http.Server, grace time.Duration, logger logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logging.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
