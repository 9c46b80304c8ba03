package cmd

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
	"github.com/spf13/viper"

	"github.com/kiesman99/omafpack/internal/server"
)

// version is reported by the health endpoint
const version = "0.3.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server answering viewport packing queries",
	Long: `Start an HTTP server that packs the configured viewports on request.

REST endpoints live under /api/v1. A websocket at /api/v1/stream accepts
{"viewport_index": n} messages and answers each with the packing for that
viewport, for players that switch viewports continuously.

Examples:
  # Start server on default port 8080
  omafpack serve --config stream.yaml

  # Start server on custom port
  omafpack serve --config stream.yaml --port 3000

  # Start server with custom bind address
  omafpack serve --config stream.yaml --bind 0.0.0.0 --port 8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))

	g, err := buildGenerator(cmd, log)
	if err != nil {
		return err
	}

	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	addr := fmt.Sprintf("%s:%d", bind, port)

	apiServer := server.NewServer(version, g, log)

	// No WriteTimeout: it would cut long-lived stream connections.
	// REST handlers are bounded by the router's timeout middleware.
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(apiServer, timeout),
		ReadHeaderTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error(err, "server shutdown")
		}
	}()

	log.Info("starting omafpack server", "addr", addr, "viewports", g.Viewports().Len())
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Packing endpoint: http://%s/api/v1/viewports/{index}/packing\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Viewport stream: ws://%s/api/v1/stream\n", addr)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
