// Package main provides the entry point for the resume builder: the HTTP
// API server, a local chat REPL and maintenance commands.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "resume_agent",
	Short: "Conversational resume builder",
	Long: `Resume builder turns a pasted resume and a pasted job posting into a
one-page LaTeX resume tailored to the posting, scored for ATS keyword coverage.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (environment variables override it)")
}

// loadConfig reads the config file named by --config and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
