package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ragchat/internal/adapter/memstore"
	"ragchat/internal/api"
	"ragchat/internal/setup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the JSON API under /api/v1. The OpenAPI document is served at
/api/v1/openapi.json.

Examples:
  ragchat serve
  PORT=8080 ragchat serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, GetConfig(), GetRootDir(), &logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if sessions, ok := deps.Sessions.(*memstore.SessionStore); ok {
		go pruneSessions(ctx, sessions, GetConfig().Session.TTL)
	}

	server := api.NewServer(GetConfig().Server, api.NewContainer(deps.Handler, &logger))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("starting ragchat API")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// pruneSessions drops expired in-memory sessions every ttl.
func pruneSessions(ctx context.Context, sessions *memstore.SessionStore, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(); n > 0 {
				logger.Debug().Int("sessions", n).Msg("expired sessions pruned")
			}
		}
	}
}
