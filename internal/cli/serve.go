package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/themobileprof/healthtrack-be/internal/api"
	"github.com/themobileprof/healthtrack-be/internal/api/middleware"
	"github.com/themobileprof/healthtrack-be/internal/ws"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 8080, "listen port (or set PORT)")
	if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	return cmd
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.APIToken == "" {
		log.Warn("API_TOKEN is not set; the API accepts unauthenticated requests")
	}

	origins := middleware.ParseOrigins(cfg.CORSOrigins)
	chatHandler := ws.NewChatHandler(a.engine, ws.Options{
		Origins:           origins,
		MessagesPerMinute: cfg.RateLimitPerMinute,
	})

	router := api.NewRouter(api.RouterConfig{
		Symptoms:           api.NewSymptomHandler(a.journal, a.engine),
		Chat:               chatHandler.HandleChat,
		APIToken:           cfg.APIToken,
		CORSOrigins:        origins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		for _, route := range api.Routes(true) {
			log.Printf("   %s", route)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server exited")
	return nil
}
