package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/wizmerge/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the wizmerge engine.

Endpoints:
  GET  /health            Health check
  GET  /metrics           Prometheus metrics
  POST /api/merge         Three-way merge with conflict analysis
  POST /api/risk          Risk of each resolution strategy
  POST /api/context       Code context around a line range
  POST /api/pr/resolve    Resolve a GitHub pull request or GitLab merge request
  GET  /ws                WebSocket for interactive resolution sessions`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	port, _ := cmd.Flags().GetInt("port")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listen := fmt.Sprintf("%s:%d", addr, port)
	srv := api.New(listen, api.WithResolver(newResolver(cfg)))
	return srv.ListenAndServe(ctx)
}
