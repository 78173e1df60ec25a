package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored figures over HTTP",
	Long:  "Starts an HTTP server exposing /figures, /figures/{key}.json and /figures/{key}.html.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP server port (default: server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}

	store := figstore.New(cfg.WorkDir)
	handler := server.New(store, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		Burst:          cfg.Server.Burst,
	}).Handler()
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zap.L().Info("starting figure server", zap.String("addr", srv.Addr), zap.String("dir", store.Dir()))

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down figure server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "figure server")
	}
	return nil
}
