package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/axellelanca/qrforge/internal/config"
)

// Cfg is the global variable that will contain the loaded configuration.
// It is accessible to all Cobra commands throughout the application.
var Cfg *config.Config

// RootCmd is the base command for the CLI application.
// All other commands (create, run-server, stats, resolve, migrate) are
// added as subcommands.
var RootCmd = &cobra.Command{
	Use:   "qrforge",
	Short: "A QR code generation and dynamic-resolution service",
	Long: `qrforge turns structured content (URLs, contact cards, WiFi
credentials, events, payment requests, link-in-bio pages, ...) into
scannable QR codes, optionally behind a short re-mappable address, and
records scan analytics for dynamic codes.`,
}

// Execute is the main entry point for the Cobra application.
// It is called from main.go and handles command execution and errors.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Load configuration before any command executes. Subcommands
	// register themselves via their own init() functions, which keeps
	// the command modules decoupled and avoids import cycles.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration at the beginning of
// every Cobra command execution.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Warn("problem loading configuration, using default values")
	}
}
