// Package main is the entry point for the document converter server.
package main

import (
	"fmt"
	"log"
	"os"

	"doc-converter/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd runs the server when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "doc-converter",
	Short: "Convert Word documents to PDF behind a login",
	Long: `doc-converter serves a small web application where registered users
upload .doc/.docx files, have them converted to PDF by a headless office
suite, and list, download or delete the results.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (YAML, JSON or TOML); environment variables take precedence")
}

// loadConfig reads the --config flag and builds the configuration.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile)
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
