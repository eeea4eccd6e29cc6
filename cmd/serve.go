package cmd

import (
	"log/slog"
	"net/http"

	"github.com/Manish-keer19/meeting-app/internal/config"
	"github.com/Manish-keer19/meeting-app/internal/server"
	"github.com/spf13/cobra"
)

var flagListenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	Long: `Run the signaling server that rooms use for admission and SDP exchange.
Media never touches this process; participants stream to each other directly.

Examples:
  meet serve
  meet serve --addr :9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := config.Load(config.Options{ListenAddr: flagListenAddr})
	if err != nil {
		return err
	}

	hub := server.NewHub()
	go hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HealthHandler)
	mux.HandleFunc("/ws", server.ServeWs(hub))

	slog.Info("signaling server listening", "addr", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, mux)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&flagListenAddr, "addr", "a", "", "Bind address for the server")
}
