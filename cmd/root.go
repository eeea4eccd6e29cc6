package cmd

import (
	"os"
	"os/signal"

	"github.com/Manish-keer19/meeting-app/internal/signaling"
	"github.com/Manish-keer19/meeting-app/internal/ui"
	"github.com/Manish-keer19/meeting-app/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "meet",
	Short:   "Terminal client and signaling server for WebRTC video rooms",
	Long:    `Meet is a command-line tool for hosting and joining mesh video rooms over WebRTC. Every participant connects directly to every other participant; the server only brokers signaling and host admission. Meet ships both the room client and the signaling server in one binary.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		signaling.Shutdown()
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
